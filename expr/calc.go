// SPDX-License-Identifier: MIT

package expr

import (
	"fmt"

	"github.com/katalvlaran/calkernel/value"
)

// arith chains value operations and keeps the first error, so composite
// ops read as formulas. Once err is set every method returns nil.
// Values it produces are owned by the caller; inputs are used as Shared.
type arith struct{ err error }

type binFn func(a, b value.Operand) (*value.Value, error)

type unFn func(a value.Operand) (*value.Value, error)

func (a *arith) bin(f binFn, x, y *value.Value) *value.Value {
	if a.err != nil {
		return nil
	}
	v, err := f(value.Shared(x), value.Shared(y))
	if err != nil {
		a.err = err
	}
	return v
}

func (a *arith) un(f unFn, x *value.Value) *value.Value {
	if a.err != nil {
		return nil
	}
	v, err := f(value.Shared(x))
	if err != nil {
		a.err = err
	}
	return v
}

func (a *arith) add(x, y *value.Value) *value.Value { return a.bin(value.Add, x, y) }
func (a *arith) sub(x, y *value.Value) *value.Value { return a.bin(value.Sub, x, y) }
func (a *arith) mul(x, y *value.Value) *value.Value { return a.bin(value.Mul, x, y) }
func (a *arith) div(x, y *value.Value) *value.Value { return a.bin(value.Div, x, y) }
func (a *arith) sqrt(x *value.Value) *value.Value   { return a.un(value.Sqrt, x) }

// sum adds freshly computed terms, reusing their storage.
func (a *arith) sum(terms ...*value.Value) *value.Value {
	if a.err != nil {
		return nil
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		v, err := value.Add(value.Temp(acc), value.Temp(t))
		if err != nil {
			a.err = err
			return nil
		}
		acc = v
	}
	return acc
}

// vec3 is a 3-vector of values sharing one broadcast shape.
type vec3 [3]*value.Value

func constVec(x, y, z float64) vec3 {
	return vec3{value.FromReal(x), value.FromReal(y), value.FromReal(z)}
}

func (a *arith) dot(u, v vec3) *value.Value {
	return a.sum(a.mul(u[0], v[0]), a.mul(u[1], v[1]), a.mul(u[2], v[2]))
}

func (a *arith) cross(u, v vec3) vec3 {
	return vec3{
		a.sub(a.mul(u[1], v[2]), a.mul(u[2], v[1])),
		a.sub(a.mul(u[2], v[0]), a.mul(u[0], v[2])),
		a.sub(a.mul(u[0], v[1]), a.mul(u[1], v[0])),
	}
}

func (a *arith) scale(u vec3, s *value.Value) vec3 {
	return vec3{a.mul(u[0], s), a.mul(u[1], s), a.mul(u[2], s)}
}

func (a *arith) minus(u, v vec3) vec3 {
	return vec3{a.sub(u[0], v[0]), a.sub(u[1], v[1]), a.sub(u[2], v[2])}
}

func (a *arith) plus(u, v vec3) vec3 {
	return vec3{a.add(u[0], v[0]), a.add(u[1], v[1]), a.add(u[2], v[2])}
}

func (a *arith) unit(u vec3) vec3 {
	n := a.sqrt(a.dot(u, u))
	return vec3{a.div(u[0], n), a.div(u[1], n), a.div(u[2], n)}
}

// pointwise evaluates f once per element of the broadcast shape of in,
// passing real inputs x and collecting nout real outputs y.
func pointwise(in []*value.Value, nout int, f func(x, y []float64) error) ([]*value.Value, error) {
	nx, ny := 1, 1
	for _, v := range in {
		var ok bool
		if nx, ok = broadcastDim(nx, v.Nx()); !ok {
			return nil, fmt.Errorf("pointwise: %w", value.ErrShapeMismatch)
		}
		if ny, ok = broadcastDim(ny, v.Ny()); !ok {
			return nil, fmt.Errorf("pointwise: %w", value.ErrShapeMismatch)
		}
	}
	data := make([][]float64, nout)
	for k := range data {
		data[k] = make([]float64, nx*ny)
	}
	x := make([]float64, len(in))
	y := make([]float64, nout)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			for k, v := range in {
				r, err := v.RealAt(i, j)
				if err != nil {
					return nil, err
				}
				x[k] = r
			}
			if err := f(x, y); err != nil {
				return nil, err
			}
			for k := range y {
				data[k][i+j*nx] = y[k]
			}
		}
	}
	out := make([]*value.Value, nout)
	for k := range out {
		if nx == 1 && ny == 1 {
			out[k] = value.FromReal(data[k][0])
			continue
		}
		v, err := value.FromRealArray(nx, ny, data[k])
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func broadcastDim(a, b int) (int, bool) {
	switch {
	case a == b, b == 1:
		return a, true
	case a == 1:
		return b, true
	}
	return 0, false
}
