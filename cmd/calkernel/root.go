// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/calkernel/calibrate"
	"github.com/katalvlaran/calkernel/config"
	"github.com/katalvlaran/calkernel/measures"
	"github.com/katalvlaran/calkernel/model"
	"github.com/katalvlaran/calkernel/parmdb"
)

// app carries state shared by every subcommand.
type app struct {
	cfgPath  string
	logLevel string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "calkernel",
		Short:         "Predict visibilities and derivatives for interferometer calibration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "calkernel.yaml", "run configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(a.predictCmd(), a.derivativesCmd(), a.parmsCmd())
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := cfg.Log.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	a.cfg, a.logger = cfg, logger
	return nil
}

// openStore opens the configured badger store and imports the configured
// catalog, if any.
func (a *app) openStore(ctx context.Context) (*parmdb.BadgerStore, error) {
	store, err := parmdb.OpenBadger(parmdb.BadgerConfig{
		Path:     a.cfg.ParmDB.Path,
		InMemory: a.cfg.ParmDB.InMemory,
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.ParmDB.Catalog != "" {
		if err := a.importCatalog(ctx, store, a.cfg.ParmDB.Catalog); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func (a *app) importCatalog(ctx context.Context, w parmdb.Writer, path string) error {
	cat, err := parmdb.LoadCatalogFile(path)
	if err != nil {
		return err
	}
	if err := cat.Import(ctx, w); err != nil {
		return err
	}
	a.logger.Info("catalog imported",
		slog.String("path", path),
		slog.Int("defaults", len(cat.Defaults)),
		slog.Int("parms", len(cat.Parms)),
	)
	return nil
}

// buildModel translates the configured array and sources.
func (a *app) buildModel() (*model.Model, error) {
	stations := make([]model.Station, len(a.cfg.Stations))
	for i, st := range a.cfg.Stations {
		stations[i] = model.Station{
			Name:     st.Name,
			Position: measures.Position{X: st.Position[0], Y: st.Position[1], Z: st.Position[2]},
			P:        st.PAxis,
			Q:        st.QAxis,
		}
	}
	sources := make([]string, len(a.cfg.Sources))
	for i, src := range a.cfg.Sources {
		sources[i] = src.Name
	}
	opts := []model.Option{model.WithLogger(a.logger)}
	if iono := a.cfg.Ionosphere; iono.Enabled {
		opts = append(opts, model.WithIonosphere(model.Ionosphere{
			Height: iono.Height, Scale: iono.Scale, Order: iono.Order, EarthRadius: iono.EarthRadius,
		}))
	}
	return model.New(stations, sources, opts...)
}

// session opens the store and loads a calibration session over the
// configured grid. The returned close function releases the store.
func (a *app) session(ctx context.Context) (*calibrate.Session, func(), error) {
	grid, err := a.cfg.Grid.BuildGrid()
	if err != nil {
		return nil, nil, err
	}
	m, err := a.buildModel()
	if err != nil {
		return nil, nil, err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	stopMetrics := a.serveMetrics()
	release := func() {
		stopMetrics()
		if err := store.Close(); err != nil {
			a.logger.Warn("closing parmdb", slog.String("error", err.Error()))
		}
	}
	s, err := calibrate.NewSession(ctx, store, m, grid,
		calibrate.WithLogger(a.logger),
		calibrate.WithParallelism(a.cfg.Parallelism),
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	return s, release, nil
}

// serveMetrics exposes Prometheus metrics on cfg.MetricsAddr until the
// returned function is called.
func (a *app) serveMetrics() func() {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", slog.String("error", err.Error()))
		}
	}()
	a.logger.Info("serving metrics", slog.String("addr", a.cfg.MetricsAddr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
