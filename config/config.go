// SPDX-License-Identifier: MIT

// Package config holds the YAML run configuration of calkernel: the
// observation grid, stations and sources of the model, which parameters to
// solve for, and the ambient settings (parameter database, logging,
// parallelism, metrics).
//
// Load starts from Default, overlays the file, then CALKERNEL_* environment
// variables, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/calkernel/domain"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the top-level run configuration.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Stations   []StationConfig  `yaml:"stations"`
	Sources    []SourceConfig   `yaml:"sources"`
	Solvable   []string         `yaml:"solvable"`
	Ionosphere IonosphereConfig `yaml:"ionosphere"`
	ParmDB     ParmDBConfig     `yaml:"parmdb"`
	Log        LogConfig        `yaml:"log"`

	// Parallelism bounds concurrently evaluated model instances.
	Parallelism int `yaml:"parallelism"`
	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
}

// GridConfig describes a regular frequency/time tiling.
type GridConfig struct {
	StartFreq float64 `yaml:"start_freq"`
	FreqWidth float64 `yaml:"freq_width"`
	NFreq     int     `yaml:"n_freq"`
	StartTime float64 `yaml:"start_time"`
	TimeWidth float64 `yaml:"time_width"`
	NTime     int     `yaml:"n_time"`
}

// StationConfig is one antenna field.
type StationConfig struct {
	Name string `yaml:"name"`
	// Position is ITRF x, y, z in metres.
	Position [3]float64 `yaml:"position"`
	// PAxis and QAxis are the dipole directions in ITRF.
	PAxis [3]float64 `yaml:"p_axis"`
	QAxis [3]float64 `yaml:"q_axis"`
}

// SourceConfig is one point source; its direction and flux are parameters
// RA:<name>, DEC:<name> and I:<name>.
type SourceConfig struct {
	Name string `yaml:"name"`
}

// IonosphereConfig enables the minimum ionospheric model.
type IonosphereConfig struct {
	Enabled bool    `yaml:"enabled"`
	Height  float64 `yaml:"height"`
	Order   int     `yaml:"order"`
	Scale   float64 `yaml:"scale"`

	// EarthRadius in metres under the shell; zero selects the WGS84
	// equatorial radius.
	EarthRadius float64 `yaml:"earth_radius"`
}

// ParmDBConfig locates the parameter store.
type ParmDBConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	// Catalog is imported into the store at startup when set.
	Catalog string `yaml:"catalog"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults.
const (
	DefaultParallelism      = 4
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultIonosphereHeight = 400e3
	DefaultIonosphereScale  = 1e5
)

// Default returns a configuration with every ambient setting filled in and
// an empty model.
func Default() Config {
	return Config{
		Ionosphere:  IonosphereConfig{Height: DefaultIonosphereHeight, Scale: DefaultIonosphereScale},
		ParmDB:      ParmDBConfig{InMemory: true},
		Log:         LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Parallelism: DefaultParallelism,
	}
}

// Load reads path (if non-empty), applies environment overrides and
// validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays CALKERNEL_* variables.
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("CALKERNEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("CALKERNEL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := getenv("CALKERNEL_PARMDB_PATH"); v != "" {
		cfg.ParmDB.Path = v
		cfg.ParmDB.InMemory = false
	}
	if v := getenv("CALKERNEL_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parallelism = n
		}
	}
	if v := getenv("CALKERNEL_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	g := c.Grid
	if g.NFreq < 1 || g.NTime < 1 || g.FreqWidth <= 0 || g.TimeWidth <= 0 {
		return invalid("grid needs positive cell counts and widths")
	}
	if len(c.Stations) == 0 {
		return invalid("at least one station is required")
	}
	seen := make(map[string]bool)
	for i, st := range c.Stations {
		if st.Name == "" || seen[st.Name] {
			return invalid("stations[%d]: empty or duplicate name %q", i, st.Name)
		}
		seen[st.Name] = true
		if st.Position == [3]float64{} {
			return invalid("station %s: position at the geocentre", st.Name)
		}
	}
	for i, src := range c.Sources {
		if src.Name == "" || strings.ContainsAny(src.Name, ":/") {
			return invalid("sources[%d]: invalid name %q", i, src.Name)
		}
	}
	if c.Ionosphere.Enabled && (c.Ionosphere.Order < 0 || c.Ionosphere.Height <= 0 || c.Ionosphere.Scale <= 0) {
		return invalid("ionosphere needs order >= 0 and positive height and scale")
	}
	if c.Ionosphere.EarthRadius < 0 {
		return invalid("ionosphere.earth_radius must not be negative")
	}
	if !c.ParmDB.InMemory && c.ParmDB.Path == "" {
		return invalid("parmdb.path is required unless parmdb.in_memory")
	}
	if c.Parallelism < 1 {
		return invalid("parallelism must be >= 1")
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// BuildGrid returns the regular grid described by g.
func (g GridConfig) BuildGrid() (domain.Grid, error) {
	fa, err := domain.NewRegularAxis(g.StartFreq, g.FreqWidth, g.NFreq)
	if err != nil {
		return domain.Grid{}, err
	}
	ta, err := domain.NewRegularAxis(g.StartTime, g.TimeWidth, g.NTime)
	if err != nil {
		return domain.Grid{}, err
	}
	return domain.NewGrid(fa, ta)
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, invalid("log.level %q", l.Level)
	}
	return lvl, nil
}

// Logger builds the configured slog logger writing to w.
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
