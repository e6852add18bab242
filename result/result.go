// SPDX-License-Identifier: MIT

// Package result carries the outcome of evaluating one expression output:
// the main value on the request grid plus, sparsely, one perturbed value per
// solvable parameter the expression depends on.
//
// A perturbed value is the same expression recomputed with one parameter
// nudged by its perturbation; the finite difference against the main value
// yields the partial derivative consumed by the external solver (see
// Derivatives). A parameter that an expression does not depend on has no
// entry at all, which keeps results small when the global parameter count
// is large.
package result

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/value"
)

// Sentinel errors for result operations.
var (
	// ErrInconsistentSource indicates two sub-expressions perturbing the same
	// ParamID through different sources, i.e. with different magnitudes.
	ErrInconsistentSource = errors.New("result: inconsistent perturbation source")

	// ErrMissingSource indicates a perturbed entry without a source.
	ErrMissingSource = errors.New("result: perturbed value without source")

	// ErrArity indicates a combinator returning the wrong number of outputs.
	ErrArity = errors.New("result: unexpected number of outputs")
)

// Source identifies where a perturbed value came from and how large the
// perturbation was. Funklets implement it.
type Source interface {
	// Name is the owning parameter name.
	Name() string
	// Perturbation returns the absolute perturbation applied for id.
	Perturbation(id domain.ParamID) (float64, bool)
}

// Result is the main value plus sparse perturbed values.
// Invariant: perturbed and sources have identical key sets.
// A Result is not mutated once returned by the node that built it.
type Result struct {
	value     *value.Value
	perturbed map[domain.ParamID]*value.Value
	sources   map[domain.ParamID]Source
}

// New wraps a main value without perturbations.
func New(v *value.Value) *Result {
	return &Result{value: v}
}

// SetPerturbed records the perturbed value for id. It is meant for the node
// that is building r.
func (r *Result) SetPerturbed(id domain.ParamID, v *value.Value, src Source) error {
	if src == nil {
		return fmt.Errorf("SetPerturbed(%d): %w", id, ErrMissingSource)
	}
	if r.perturbed == nil {
		r.perturbed = make(map[domain.ParamID]*value.Value)
		r.sources = make(map[domain.ParamID]Source)
	}
	r.perturbed[id] = v
	r.sources[id] = src
	return nil
}

// Value returns the main value.
func (r *Result) Value() *value.Value { return r.value }

// Perturbed returns the perturbed value for id, if any.
func (r *Result) Perturbed(id domain.ParamID) (*value.Value, bool) {
	v, ok := r.perturbed[id]
	return v, ok
}

// PerturbedOrMain returns the perturbed value for id, or the main value when
// r does not depend on id.
func (r *Result) PerturbedOrMain(id domain.ParamID) *value.Value {
	if v, ok := r.perturbed[id]; ok {
		return v
	}
	return r.value
}

// Source returns the source that produced the perturbed value for id.
func (r *Result) Source(id domain.ParamID) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// Keys returns the perturbed ParamIDs in ascending order.
func (r *Result) Keys() []domain.ParamID {
	keys := make([]domain.ParamID, 0, len(r.perturbed))
	for id := range r.perturbed {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// NPerturbed returns the number of perturbed entries.
func (r *Result) NPerturbed() int { return len(r.perturbed) }
