// SPDX-License-Identifier: MIT

package expr

import (
	"fmt"
	"math"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/measures"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// TECPhaseConstant converts slant TEC (TEC units) into phase (radians) at
// frequency f (Hz): phase = -TECPhaseConstant * sTEC / f.
const TECPhaseConstant = 8.44797245e9

// DefaultTECScale is the pierce-point distance (metres) that maps to one
// unit of the TEC polynomial basis.
const DefaultTECScale = 1e5

// IonosphereDelay is the minimum ionospheric model: the vertical TEC over
// a pierce point is a polynomial in the pierce point's east/north offset
// from Reference, mapped to slant TEC by 1/cos(alpha) and to a phase per
// frequency cell.
//
// Inputs: px, py, pz, alpha, then (Order+1)^2 coefficients c[i + j*(Order+1)]
// of east^i * north^j. Output: phase, nfreq × ntime radians.
type IonosphereDelay struct {
	Reference measures.Position
	// Scale in metres; zero selects DefaultTECScale.
	Scale float64
	Order int
}

func (IonosphereDelay) Kind() string  { return "mim" }
func (op IonosphereDelay) Arity() int { return 4 + op.NCoeff() }
func (IonosphereDelay) Outputs() int  { return 1 }

// NCoeff returns the number of TEC coefficients, 0 for a negative order.
func (op IonosphereDelay) NCoeff() int {
	if op.Order < 0 {
		return 0
	}
	return (op.Order + 1) * (op.Order + 1)
}

// Validate rejects a negative order.
func (op IonosphereDelay) Validate() error {
	if op.Order < 0 {
		return fmt.Errorf("order %d: %w", op.Order, ErrInvalidOrder)
	}
	return nil
}

func (op IonosphereDelay) Eval(req *domain.Request, in []*result.Result) ([]*result.Result, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if len(in) != op.Arity() {
		return nil, fmt.Errorf("got %d inputs, want %d: %w", len(in), op.Arity(), ErrInputCount)
	}
	scale := op.Scale
	if scale == 0 {
		scale = DefaultTECScale
	}
	freqs := req.Grid().Freq.Centers()
	k := make([]float64, len(freqs))
	for i, f := range freqs {
		k[i] = -TECPhaseConstant / f
	}
	kf, err := value.FromRealArray(len(k), 1, k)
	if err != nil {
		return nil, err
	}

	sinLon, cosLon := math.Sincos(op.Reference.Longitude())
	sinLat, cosLat := math.Sincos(op.Reference.Latitude())
	east := constVec(-sinLon/scale, cosLon/scale, 0)
	north := constVec(-sinLat*cosLon/scale, -sinLat*sinLon/scale, cosLat/scale)
	ref := constVec(op.Reference.X, op.Reference.Y, op.Reference.Z)
	n := op.Order + 1

	return result.Map(in, 1, func(v []*value.Value) ([]*value.Value, error) {
		var a arith
		dp := a.minus(vec3{v[0], v[1], v[2]}, ref)
		u := a.dot(dp, east)
		w := a.dot(dp, north)

		up := powers(&a, u, n)
		wp := powers(&a, w, n)
		terms := make([]*value.Value, 0, n*n)
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				terms = append(terms, a.mul(v[4+i+j*n], a.mul(up[i], wp[j])))
			}
		}
		tec := a.sum(terms...)
		stec := a.div(tec, a.un(value.Cos, v[3]))
		phase := a.mul(stec, kf)
		if a.err != nil {
			return nil, a.err
		}
		return []*value.Value{phase}, nil
	})
}

// powers returns 1, x, x^2, ..., x^(n-1).
func powers(a *arith, x *value.Value, n int) []*value.Value {
	p := make([]*value.Value, n)
	p[0] = value.FromReal(1)
	for i := 1; i < n; i++ {
		p[i] = a.mul(p[i-1], x)
	}
	return p
}
