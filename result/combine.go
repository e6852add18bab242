// SPDX-License-Identifier: MIT

package result

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/value"
)

// Func computes outputs from input values. Inputs belong to other results
// and must be used as value.Shared operands; outputs are owned by the caller.
type Func func(in []*value.Value) ([]*value.Value, error)

// Map applies fn to the main values of inputs and then once per ParamID in
// the union of the inputs' perturbed keys. For each such ParamID, inputs
// that do not depend on it contribute their main value, i.e. a zero
// derivative. Every output receives an entry for every ParamID in the union.
//
// Sources are merged; two inputs perturbing the same ParamID through
// different sources fail with ErrInconsistentSource.
//
// Complexity: (1 + |union|) calls of fn.
func Map(inputs []*Result, nout int, fn Func) ([]*Result, error) {
	sources, keys, err := mergeSources(inputs)
	if err != nil {
		return nil, err
	}

	in := make([]*value.Value, len(inputs))
	for i, r := range inputs {
		in[i] = r.value
	}
	main, err := call(fn, in, nout)
	if err != nil {
		return nil, err
	}
	out := make([]*Result, nout)
	for k := range out {
		out[k] = New(main[k])
	}

	for _, id := range keys {
		for i, r := range inputs {
			in[i] = r.PerturbedOrMain(id)
		}
		pert, err := call(fn, in, nout)
		if err != nil {
			return nil, fmt.Errorf("perturbed %d: %w", id, err)
		}
		for k := range out {
			if err := out[k].SetPerturbed(id, pert[k], sources[id]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Combine2 is Map for a binary operator with one output.
func Combine2(a, b *Result, op func(x, y value.Operand) (*value.Value, error)) (*Result, error) {
	out, err := Map([]*Result{a, b}, 1, func(in []*value.Value) ([]*value.Value, error) {
		v, err := op(value.Shared(in[0]), value.Shared(in[1]))
		if err != nil {
			return nil, err
		}
		return []*value.Value{v}, nil
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Apply1 is Map for a unary operator with one output.
func Apply1(a *Result, op func(x value.Operand) (*value.Value, error)) (*Result, error) {
	out, err := Map([]*Result{a}, 1, func(in []*value.Value) ([]*value.Value, error) {
		v, err := op(value.Shared(in[0]))
		if err != nil {
			return nil, err
		}
		return []*value.Value{v}, nil
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// call runs fn and checks the output count.
func call(fn Func, in []*value.Value, nout int) ([]*value.Value, error) {
	out, err := fn(in)
	if err != nil {
		return nil, err
	}
	if len(out) != nout {
		return nil, fmt.Errorf("got %d outputs, want %d: %w", len(out), nout, ErrArity)
	}
	return out, nil
}

// mergeSources unions the perturbed keys of inputs and checks that every
// ParamID has a single source.
func mergeSources(inputs []*Result) (map[domain.ParamID]Source, []domain.ParamID, error) {
	sources := make(map[domain.ParamID]Source)
	for _, r := range inputs {
		for id, src := range r.sources {
			if prev, ok := sources[id]; ok && prev != src {
				return nil, nil, fmt.Errorf("param %d (%s vs %s): %w", id, prev.Name(), src.Name(), ErrInconsistentSource)
			}
			sources[id] = src
		}
	}
	keys := make([]domain.ParamID, 0, len(sources))
	for id := range sources {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return sources, keys, nil
}
