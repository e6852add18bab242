// SPDX-License-Identifier: MIT

package expr

import (
	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// ParallacticRotation projects a station's two dipole axes onto the sky
// plane of a direction and expresses them in the (e_theta, e_phi) basis.
//
// e_phi = unit(pole × d) points east on the sky, e_theta = d × e_phi
// points towards the celestial pole. The result is a 2×2 roto-reflection
// built from dot products only.
//
// Inputs: dx, dy, dz (ITRF unit direction). Outputs: the matrix entries
// [P·e_theta, P·e_phi, Q·e_theta, Q·e_phi] in row-major order.
type ParallacticRotation struct {
	// P and Q are the dipole axes in ITRF.
	P, Q [3]float64
}

func (ParallacticRotation) Kind() string { return "parallactic" }
func (ParallacticRotation) Arity() int   { return 3 }
func (ParallacticRotation) Outputs() int { return 4 }

func (op ParallacticRotation) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	pole := constVec(0, 0, 1)
	p := constVec(op.P[0], op.P[1], op.P[2])
	q := constVec(op.Q[0], op.Q[1], op.Q[2])
	return result.Map(in, 4, func(v []*value.Value) ([]*value.Value, error) {
		var a arith
		d := vec3{v[0], v[1], v[2]}
		ePhi := a.unit(a.cross(pole, d))
		eTheta := a.cross(d, ePhi)

		// Dipoles projected onto the plane orthogonal to d.
		pp := a.unit(a.minus(p, a.scale(d, a.dot(p, d))))
		qp := a.unit(a.minus(q, a.scale(d, a.dot(q, d))))

		out := []*value.Value{
			a.dot(pp, eTheta), a.dot(pp, ePhi),
			a.dot(qp, eTheta), a.dot(qp, ePhi),
		}
		if a.err != nil {
			return nil, a.err
		}
		return out, nil
	})
}

// Correlate forms the 2×2 correlation Ji · B · Jj^H of a baseline.
//
// Inputs: the four entries of Ji, of B, then of Jj, each row-major.
// Outputs: the four correlations xx, xy, yx, yy.
type Correlate struct{}

func (Correlate) Kind() string { return "correlate" }
func (Correlate) Arity() int   { return 12 }
func (Correlate) Outputs() int { return 4 }

func (Correlate) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	return result.Map(in, 4, func(v []*value.Value) ([]*value.Value, error) {
		var a arith
		ji, b, jj := v[0:4], v[4:8], v[8:12]

		var m [4]*value.Value
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				m[2*r+c] = a.sum(a.mul(ji[2*r], b[c]), a.mul(ji[2*r+1], b[2+c]))
			}
		}
		var conj [4]*value.Value
		for k := range conj {
			conj[k] = a.un(value.Conj, jj[k])
		}
		out := make([]*value.Value, 4)
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				out[2*r+c] = a.sum(a.mul(m[2*r], conj[2*c]), a.mul(m[2*r+1], conj[2*c+1]))
			}
		}
		if a.err != nil {
			return nil, a.err
		}
		return out, nil
	})
}
