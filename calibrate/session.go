// SPDX-License-Identifier: MIT

// Package calibrate drives the kernel for one solve domain: it loads the
// model parameters once, assigns solver indices (spids) to the solvable
// ones, evaluates every baseline instance for a Request in parallel, and
// hands condition equations (values plus derivatives) to an external
// solver. Solutions flow back through Update and are persisted by Commit.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync/atomic"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/funklet"
	"github.com/katalvlaran/calkernel/model"
	"github.com/katalvlaran/calkernel/parmdb"
)

// Sentinel errors for session operations.
var (
	// ErrNoMatch indicates a solvable pattern matching no parameter.
	ErrNoMatch = errors.New("calibrate: pattern matches no parameter")

	// ErrSolutionLength indicates an Update vector whose length differs from
	// the number of spids.
	ErrSolutionLength = errors.New("calibrate: solution length mismatch")
)

// DefaultParallelism bounds concurrently evaluated instances.
const DefaultParallelism = 4

// Option configures a Session.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	parallelism int
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParallelism bounds concurrent instance evaluation. Values below 1
// are ignored.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.parallelism = n
		}
	}
}

// Unknown is one solvable parameter and its spid range.
type Unknown struct {
	Name   string
	Offset int
	Count  int
}

// Session holds the parameters of one solve domain.
type Session struct {
	store  parmdb.Store
	model  *model.Model
	grid   domain.Grid
	params map[string]*funklet.Parameter
	names  []string

	unknowns []Unknown
	nspid    int

	seq    domain.Sequence
	orders atomic.Uint64
	opts   options
}

// NewSession loads every parameter of m over grid from store. This is the
// only store read of the session.
func NewSession(ctx context.Context, store parmdb.Store, m *model.Model, grid domain.Grid, opts ...Option) (*Session, error) {
	o := options{logger: slog.Default(), parallelism: DefaultParallelism}
	for _, opt := range opts {
		opt(&o)
	}
	names := m.ParameterNames()
	params, err := parmdb.LoadAll(ctx, store, names, grid.Box())
	if err != nil {
		return nil, fmt.Errorf("NewSession: %w", err)
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	o.logger.Info("session loaded",
		slog.Int("parameters", len(params)),
		slog.String("domain", grid.Box().String()),
	)
	return &Session{store: store, model: m, grid: grid, params: params, names: sorted, opts: o}, nil
}

// Parameter implements model.Lookup.
func (s *Session) Parameter(name string) (*funklet.Parameter, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Grid returns the solve grid.
func (s *Session) Grid() domain.Grid { return s.grid }

// SetSolvable clears all solvable state and marks the parameters matching
// patterns (path.Match syntax, e.g. "Gain:*") solvable, assigning spids in
// name order. It returns the number of spids.
func (s *Session) SetSolvable(patterns []string) (int, error) {
	for _, p := range s.params {
		p.ClearSolvable()
	}
	s.unknowns, s.nspid = nil, 0

	selected := make(map[string]bool)
	for _, pat := range patterns {
		matched := false
		for _, name := range s.names {
			ok, err := path.Match(pat, name)
			if err != nil {
				return 0, fmt.Errorf("SetSolvable(%q): %w", pat, err)
			}
			if ok {
				selected[name] = true
				matched = true
			}
		}
		if !matched {
			return 0, fmt.Errorf("SetSolvable(%q): %w", pat, ErrNoMatch)
		}
	}

	offset := 0
	for _, name := range s.names {
		if !selected[name] {
			continue
		}
		n, err := s.params[name].MakeSolvable(offset)
		if err != nil {
			return 0, fmt.Errorf("SetSolvable: %w", err)
		}
		s.unknowns = append(s.unknowns, Unknown{Name: name, Offset: offset, Count: n})
		offset += n
	}
	s.nspid = offset
	s.opts.logger.Info("solvable parameters set",
		slog.Int("parameters", len(s.unknowns)),
		slog.Int("spids", s.nspid),
	)
	return s.nspid, nil
}

// Unknowns returns the solvable parameters in spid order.
func (s *Session) Unknowns() []Unknown { return append([]Unknown(nil), s.unknowns...) }

// NewRequest returns a Request over the session grid with every spid
// active. Each call yields a new generation, so coefficients changed by
// Update are picked up.
func (s *Session) NewRequest() *domain.Request {
	active := make([]domain.ParamID, s.nspid)
	for i := range active {
		active[i] = domain.ParamID(i)
	}
	return s.seq.NewRequest(s.grid, active)
}

// Coefficients returns the current solvable coefficients in spid order,
// the solver's starting point.
func (s *Session) Coefficients() []float64 {
	out := make([]float64, 0, s.nspid)
	for _, u := range s.unknowns {
		f := s.params[u.Name].Pieces()[0]
		c := f.Coeffs()
		rec := f.Record()
		for i := range c {
			if rec.Mask == nil || rec.Mask[i] {
				out = append(out, c[i])
			}
		}
	}
	return out
}

// Update writes a solver solution (one value per spid) into the solvable
// parameters.
func (s *Session) Update(solution []float64) error {
	if len(solution) != s.nspid {
		return fmt.Errorf("Update: got %d values for %d spids: %w", len(solution), s.nspid, ErrSolutionLength)
	}
	for _, u := range s.unknowns {
		if err := s.params[u.Name].Update(solution); err != nil {
			return fmt.Errorf("Update: %w", err)
		}
	}
	return nil
}

// Commit writes the solvable parameters back to the store.
func (s *Session) Commit(ctx context.Context) error {
	for _, u := range s.unknowns {
		if err := s.store.Store(ctx, u.Name, s.params[u.Name].Pieces()[0]); err != nil {
			return fmt.Errorf("Commit(%s): %w", u.Name, err)
		}
	}
	s.opts.logger.Info("parameters committed", slog.Int("parameters", len(s.unknowns)))
	return nil
}

// Instances builds one graph per baseline of the model.
func (s *Session) Instances() ([]*model.Instance, error) {
	var out []*model.Instance
	for _, bl := range s.model.Baselines() {
		inst, err := s.model.BuildBaseline(s, bl[0], bl[1])
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}
