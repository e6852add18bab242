// SPDX-License-Identifier: MIT

package result

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/value"
)

// ErrZeroPerturbation indicates a source reporting a zero or missing
// perturbation for a ParamID it perturbed.
var ErrZeroPerturbation = errors.New("result: zero perturbation")

// Derivative is the numeric partial derivative of a result with respect to
// one solvable parameter.
type Derivative struct {
	ID    domain.ParamID
	Value *value.Value
}

// Derivatives flattens r into one derivative per active parameter, in the
// order of active: (perturbed[p] - value) / perturbation(p). Parameters r
// does not depend on yield a real scalar zero.
// This is the only data handed to the external solver.
func Derivatives(r *Result, active []domain.ParamID) ([]Derivative, error) {
	out := make([]Derivative, 0, len(active))
	for _, id := range active {
		pv, ok := r.perturbed[id]
		if !ok {
			out = append(out, Derivative{ID: id, Value: value.FromReal(0)})
			continue
		}
		eps, ok := r.sources[id].Perturbation(id)
		if !ok || eps == 0 {
			return nil, fmt.Errorf("Derivatives(%d): %w", id, ErrZeroPerturbation)
		}
		diff, err := value.Sub(value.Shared(pv), value.Shared(r.value))
		if err != nil {
			return nil, fmt.Errorf("Derivatives(%d): %w", id, err)
		}
		d, err := value.Div(value.Temp(diff), value.Shared(value.FromReal(eps)))
		if err != nil {
			return nil, fmt.Errorf("Derivatives(%d): %w", id, err)
		}
		out = append(out, Derivative{ID: id, Value: d})
	}
	return out, nil
}
