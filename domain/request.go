// SPDX-License-Identifier: MIT

package domain

import "sync/atomic"

// ParamID identifies one solvable scalar (one funklet coefficient); it is
// also the index of that scalar in the external solver's unknown vector.
type ParamID int

// generations backs every Sequence so that no two requests in the process
// share a generation, whichever Sequence issued them.
var generations atomic.Uint64

// Sequence hands out request generations. Generations are unique across
// the process and increase monotonically within one Sequence.
// The zero value is ready to use and safe for concurrent use.
type Sequence struct {
	last atomic.Uint64
}

// Next returns a fresh, process-unique generation (always >= 1).
func (s *Sequence) Next() uint64 {
	g := generations.Add(1)
	s.last.Store(g)
	return g
}

// Last returns the most recent generation handed out by s, or 0.
func (s *Sequence) Last() uint64 { return s.last.Load() }

// NewRequest builds an immutable request with a fresh generation.
// active is copied; its order defines the perturbation index space.
func (s *Sequence) NewRequest(grid Grid, active []ParamID) *Request {
	r := &Request{
		generation: s.Next(),
		grid:       grid,
		active:     make([]ParamID, len(active)),
		index:      make(map[ParamID]int, len(active)),
	}
	copy(r.active, active)
	for i, id := range r.active {
		r.index[id] = i
	}
	return r
}

// Request is one evaluation: a grid plus the active solvable parameters.
// A new Request (and generation) is needed whenever either part changes.
type Request struct {
	generation uint64
	grid       Grid
	active     []ParamID
	index      map[ParamID]int
}

// Generation identifies the request for per-node caching.
func (r *Request) Generation() uint64 { return r.generation }

// Grid returns the evaluation grid.
func (r *Request) Grid() Grid { return r.grid }

// Active returns a copy of the active parameter list.
func (r *Request) Active() []ParamID {
	out := make([]ParamID, len(r.active))
	copy(out, r.active)
	return out
}

// NActive returns the number of active parameters.
func (r *Request) NActive() int { return len(r.active) }

// IsActive reports whether id is being solved for.
func (r *Request) IsActive(id ParamID) bool {
	_, ok := r.index[id]
	return ok
}

// Index returns the position of id in the active list.
func (r *Request) Index(id ParamID) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}
