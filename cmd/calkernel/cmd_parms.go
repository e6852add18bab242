// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/calkernel/parmdb"
)

func (a *app) parmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parms",
		Short: "Manage the parameter store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "import CATALOG",
			Short: "Import a YAML catalog of funklet records",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()
				return a.importCatalog(cmd.Context(), store, args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List parameter names with stored records",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()
				names, err := store.Names(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print the records of NAME over the configured grid as YAML",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				grid, err := a.cfg.Grid.BuildGrid()
				if err != nil {
					return err
				}
				store, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()
				p, err := parmdb.Load(cmd.Context(), store, args[0], grid.Box())
				if err != nil {
					return err
				}
				var cat parmdb.Catalog
				for _, f := range p.Pieces() {
					cat.Parms = append(cat.Parms, f.Record())
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(cat)
			},
		},
	)
	return cmd
}
