// SPDX-License-Identifier: MIT
// Package: value
//
// Purpose:
//   - Elementwise binary operators over the four Value variants.
//   - One dispatch point resolves the 4×4 (lhs, rhs) variant matrix into a
//     real or complex kernel; broadcasting and storage reuse are shared.
//
// Determinism & Performance:
//   - Fixed loop order (y outer, x inner), flat fast path on equal shapes.
//   - No allocation when a Temp operand can hold the result.

package value

import "math"

// binaryKernel is a pair of scalar functions, one per storage kind.
type binaryKernel struct {
	name string
	real func(a, b float64) float64
	cplx func(a, b complex128) complex128
}

var (
	kernelAdd = binaryKernel{
		name: "Add",
		real: func(a, b float64) float64 { return a + b },
		cplx: func(a, b complex128) complex128 { return a + b },
	}
	kernelSub = binaryKernel{
		name: "Sub",
		real: func(a, b float64) float64 { return a - b },
		cplx: func(a, b complex128) complex128 { return a - b },
	}
	kernelMul = binaryKernel{
		name: "Mul",
		real: func(a, b float64) float64 { return a * b },
		cplx: func(a, b complex128) complex128 { return a * b },
	}
	kernelDiv = binaryKernel{
		name: "Div",
		real: func(a, b float64) float64 { return a / b },
		cplx: func(a, b complex128) complex128 { return a / b },
	}
	kernelPosDiff = binaryKernel{
		name: "PosDiff",
		real: func(a, b float64) float64 { return math.Max(a-b, 0) },
	}
)

// Add returns a + b elementwise.
func Add(a, b Operand) (*Value, error) { return binary(&kernelAdd, a, b) }

// Sub returns a - b elementwise.
func Sub(a, b Operand) (*Value, error) { return binary(&kernelSub, a, b) }

// Mul returns a * b elementwise.
func Mul(a, b Operand) (*Value, error) { return binary(&kernelMul, a, b) }

// Div returns a / b elementwise. Real division by zero follows IEEE 754.
func Div(a, b Operand) (*Value, error) { return binary(&kernelDiv, a, b) }

// PosDiff returns max(a-b, 0) elementwise. Both operands must be real.
func PosDiff(a, b Operand) (*Value, error) {
	if err := requireReal(kernelPosDiff.name, a, b); err != nil {
		return nil, err
	}
	return binary(&kernelPosDiff, a, b)
}

// ToComplex builds re + i*im from two real operands.
func ToComplex(re, im Operand) (*Value, error) {
	const tag = "ToComplex"
	if err := requireReal(tag, re, im); err != nil {
		return nil, err
	}
	nx, ny, err := broadcastShape(tag, re.v, im.v)
	if err != nil {
		return nil, err
	}
	out := allocate(nx, ny, true, re.v.IsScalar() && im.v.IsScalar())
	as, bs := strides(re.v), strides(im.v)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			out.cx[x+y*nx] = complex(re.v.re[x*as[0]+y*as[1]], im.v.re[x*bs[0]+y*bs[1]])
		}
	}
	return out, nil
}

// requireReal rejects nil and complex operands.
func requireReal(tag string, ops ...Operand) error {
	for _, o := range ops {
		if o.v == nil {
			return valueErrorf(tag, ErrNilValue)
		}
		if o.v.kind.isComplex() {
			return valueErrorf(tag, ErrDomain)
		}
	}
	return nil
}

// broadcastShape resolves the result shape of a and b.
func broadcastShape(tag string, a, b *Value) (int, int, error) {
	nx, ok := broadcastDim(a.nx, b.nx)
	if !ok {
		return 0, 0, valueErrorf(tag, ErrShapeMismatch)
	}
	ny, ok := broadcastDim(a.ny, b.ny)
	if !ok {
		return 0, 0, valueErrorf(tag, ErrShapeMismatch)
	}
	return nx, ny, nil
}

// broadcastDim combines two axis lengths; a length of 1 repeats.
func broadcastDim(a, b int) (int, bool) {
	switch {
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	}
	return 0, false
}

// strides returns the x and y steps of v inside a broadcast loop; a
// collapsed axis has step 0.
func strides(v *Value) [2]int {
	var s [2]int
	if v.nx > 1 {
		s[0] = 1
	}
	if v.ny > 1 {
		s[1] = v.nx
	}
	return s
}

// allocate returns a fresh result value.
func allocate(nx, ny int, complexOut, scalar bool) *Value {
	out := &Value{nx: nx, ny: ny}
	switch {
	case complexOut && scalar:
		out.kind = ComplexScalar
	case complexOut:
		out.kind = ComplexArray
	case scalar:
		out.kind = RealScalar
	default:
		out.kind = RealArray
	}
	if complexOut {
		out.cx = make([]complex128, nx*ny)
	} else {
		out.re = make([]float64, nx*ny)
	}
	return out
}

// destination picks a Temp operand able to hold the result, or allocates.
func destination(a, b Operand, nx, ny int, complexOut bool) *Value {
	scalar := a.v.IsScalar() && b.v.IsScalar()
	for _, o := range [2]Operand{a, b} {
		if o.reusable(nx, ny, complexOut) {
			dst := o.v
			switch {
			case complexOut && scalar:
				dst.kind = ComplexScalar
			case complexOut:
				dst.kind = ComplexArray
			case scalar:
				dst.kind = RealScalar
			default:
				dst.kind = RealArray
			}
			return dst
		}
	}
	return allocate(nx, ny, complexOut, scalar)
}

// binary validates, dispatches on the (lhs, rhs) variant pair and runs the kernel.
func binary(k *binaryKernel, a, b Operand) (*Value, error) {
	if a.v == nil || b.v == nil {
		return nil, valueErrorf(k.name, ErrNilValue)
	}
	nx, ny, err := broadcastShape(k.name, a.v, b.v)
	if err != nil {
		return nil, err
	}

	switch [2]Kind{a.v.kind, b.v.kind} {
	case [2]Kind{RealScalar, RealScalar},
		[2]Kind{RealScalar, RealArray},
		[2]Kind{RealArray, RealScalar},
		[2]Kind{RealArray, RealArray}:
		dst := destination(a, b, nx, ny, false)
		realLoop(k.real, dst, a.v, b.v)
		return dst, nil

	case [2]Kind{RealScalar, ComplexScalar},
		[2]Kind{RealScalar, ComplexArray},
		[2]Kind{RealArray, ComplexScalar},
		[2]Kind{RealArray, ComplexArray},
		[2]Kind{ComplexScalar, RealScalar},
		[2]Kind{ComplexScalar, RealArray},
		[2]Kind{ComplexArray, RealScalar},
		[2]Kind{ComplexArray, RealArray},
		[2]Kind{ComplexScalar, ComplexScalar},
		[2]Kind{ComplexScalar, ComplexArray},
		[2]Kind{ComplexArray, ComplexScalar},
		[2]Kind{ComplexArray, ComplexArray}:
		if k.cplx == nil {
			return nil, valueErrorf(k.name, ErrDomain)
		}
		dst := destination(a, b, nx, ny, true)
		complexLoop(k.cplx, dst, a.v, b.v)
		return dst, nil
	}

	return nil, valueErrorf(k.name, ErrDomain)
}

// realLoop writes f(a, b) into dst. dst may alias a or b when it has the
// full result shape: every read of an element precedes its write.
func realLoop(f func(a, b float64) float64, dst, a, b *Value) {
	ar, br, out := a.re, b.re, dst.re
	n := len(out)

	// Flat fast path: identical shapes.
	if len(ar) == n && len(br) == n && a.nx == b.nx {
		for i := 0; i < n; i++ {
			out[i] = f(ar[i], br[i])
		}
		return
	}
	// Scalar on either side.
	if len(br) == 1 {
		s := br[0]
		if len(ar) == n {
			for i := 0; i < n; i++ {
				out[i] = f(ar[i], s)
			}
			return
		}
	}
	if len(ar) == 1 {
		s := ar[0]
		if len(br) == n {
			for i := 0; i < n; i++ {
				out[i] = f(s, br[i])
			}
			return
		}
	}

	as, bs := strides(a), strides(b)
	nx, ny := dst.nx, dst.ny
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			out[x+y*nx] = f(ar[x*as[0]+y*as[1]], br[x*bs[0]+y*bs[1]])
		}
	}
}

// complexLoop writes f(a, b) into dst, promoting real operands.
func complexLoop(f func(a, b complex128) complex128, dst, a, b *Value) {
	at, bt := reader(a), reader(b)
	as, bs := strides(a), strides(b)
	nx, ny, out := dst.nx, dst.ny, dst.cx
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			out[x+y*nx] = f(at(x*as[0]+y*as[1]), bt(x*bs[0]+y*bs[1]))
		}
	}
}

// reader returns a complex view of v's storage.
func reader(v *Value) func(i int) complex128 {
	if v.kind.isComplex() {
		cx := v.cx
		return func(i int) complex128 { return cx[i] }
	}
	re := v.re
	return func(i int) complex128 { return complex(re[i], 0) }
}
