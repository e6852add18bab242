// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/calkernel/calibrate"
)

func (a *app) predictCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the correlations of every baseline over the grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, release, err := a.session(ctx)
			if err != nil {
				return err
			}
			defer release()

			inst, err := s.Instances()
			if err != nil {
				return err
			}
			preds, err := s.Evaluate(ctx, s.NewRequest(), inst)
			if err != nil {
				return err
			}
			out := make([]predictionOut, len(preds))
			for i, p := range preds {
				out[i] = predictionOut{Instance: p.Instance, Correlations: make(map[string]cells, 4)}
				for k, r := range p.Correlations {
					c, err := expand(r.Value(), s.Grid())
					if err != nil {
						return fmt.Errorf("%s %s: %w", p.Instance, correlationNames[k], err)
					}
					out[i].Correlations[correlationNames[k]] = c
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writePredictions(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON instead of a table")
	return cmd
}

func (a *app) derivativesCmd() *cobra.Command {
	var solvable []string
	cmd := &cobra.Command{
		Use:   "derivatives",
		Short: "Emit condition equations for the solvable parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, release, err := a.session(ctx)
			if err != nil {
				return err
			}
			defer release()

			if len(solvable) == 0 {
				solvable = a.cfg.Solvable
			}
			if _, err := s.SetSolvable(solvable); err != nil {
				return err
			}
			labels := spidLabels(s.Unknowns())

			inst, err := s.Instances()
			if err != nil {
				return err
			}
			eqs, err := s.Equations(ctx, s.NewRequest(), inst)
			if err != nil {
				return err
			}
			out := make([]equationOut, len(eqs))
			for i, eq := range eqs {
				v, err := expand(eq.Value, s.Grid())
				if err != nil {
					return err
				}
				out[i] = equationOut{Instance: eq.Instance, Correlation: correlationNames[eq.Correlation], Value: v}
				for _, d := range eq.Derivatives {
					dv, err := expand(d.Value, s.Grid())
					if err != nil {
						return err
					}
					out[i].Derivatives = append(out[i].Derivatives, derivativeOut{
						Parameter: labels[int(d.ID)], Spid: int(d.ID), Value: dv,
					})
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&solvable, "solvable", nil, "solvable parameter patterns (default: config solvable)")
	return cmd
}

// spidLabels names every spid as parameter[coefficient].
func spidLabels(unknowns []calibrate.Unknown) []string {
	var out []string
	for _, u := range unknowns {
		for k := 0; k < u.Count; k++ {
			out = append(out, fmt.Sprintf("%s[%d]", u.Name, k))
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePredictions(w io.Writer, preds []predictionOut) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BASELINE\tCORR\tFREQ\tTIME\tRE\tIM")
	for _, p := range preds {
		for _, name := range correlationNames {
			c := p.Correlations[name]
			for ti := 0; ti < c.NTime; ti++ {
				for fi := 0; fi < c.NFreq; fi++ {
					i := fi + ti*c.NFreq
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.6g\t%.6g\n", p.Instance, name, fi, ti, c.Re[i], c.Im[i])
				}
			}
		}
	}
	return tw.Flush()
}
