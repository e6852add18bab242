// SPDX-License-Identifier: MIT

package value

import (
	"math"
	"math/cmplx"
)

// unaryKernel maps one sample. check, when set, rejects real inputs outside
// the function's domain before anything is written.
type unaryKernel struct {
	name  string
	real  func(float64) float64
	cplx  func(complex128) complex128
	check func(float64) bool
}

var (
	kernelSin    = unaryKernel{name: "Sin", real: math.Sin, cplx: cmplx.Sin}
	kernelCos    = unaryKernel{name: "Cos", real: math.Cos, cplx: cmplx.Cos}
	kernelExp    = unaryKernel{name: "Exp", real: math.Exp, cplx: cmplx.Exp}
	kernelNegate = unaryKernel{
		name: "Negate",
		real: func(f float64) float64 { return -f },
		cplx: func(c complex128) complex128 { return -c },
	}
	kernelConj = unaryKernel{
		name: "Conj",
		real: func(f float64) float64 { return f },
		cplx: cmplx.Conj,
	}
	kernelSqrt = unaryKernel{
		name:  "Sqrt",
		real:  math.Sqrt,
		cplx:  cmplx.Sqrt,
		check: func(f float64) bool { return f >= 0 },
	}
	kernelAsin = unaryKernel{
		name:  "Asin",
		real:  math.Asin,
		cplx:  cmplx.Asin,
		check: func(f float64) bool { return f >= -1 && f <= 1 },
	}
)

// Sin returns sin(a) elementwise.
func Sin(a Operand) (*Value, error) { return unary(&kernelSin, a) }

// Cos returns cos(a) elementwise.
func Cos(a Operand) (*Value, error) { return unary(&kernelCos, a) }

// Exp returns e**a elementwise.
func Exp(a Operand) (*Value, error) { return unary(&kernelExp, a) }

// Negate returns -a elementwise.
func Negate(a Operand) (*Value, error) { return unary(&kernelNegate, a) }

// Conj returns the complex conjugate; real values are returned unchanged in value.
func Conj(a Operand) (*Value, error) { return unary(&kernelConj, a) }

// Sqrt returns the square root; a negative real sample fails with ErrDomain.
func Sqrt(a Operand) (*Value, error) { return unary(&kernelSqrt, a) }

// Asin returns the arcsine; a real sample outside [-1, 1] fails with ErrDomain.
func Asin(a Operand) (*Value, error) { return unary(&kernelAsin, a) }

// Abs returns |a| as a real value.
func Abs(a Operand) (*Value, error) {
	if a.v == nil {
		return nil, valueErrorf("Abs", ErrNilValue)
	}
	if !a.v.kind.isComplex() {
		return unary(&unaryKernel{name: "Abs", real: math.Abs}, a)
	}
	out := allocate(a.v.nx, a.v.ny, false, a.v.IsScalar())
	for i := range a.v.cx {
		out.re[i] = a.v.magnitude(i)
	}
	return out, nil
}

// unary applies k in place when a is a Temp, otherwise into a new value.
func unary(k *unaryKernel, a Operand) (*Value, error) {
	if a.v == nil {
		return nil, valueErrorf(k.name, ErrNilValue)
	}
	src := a.v
	complexOut := src.kind.isComplex()

	// Domain check first so that a failing Temp is left untouched.
	if !complexOut && k.check != nil {
		for _, f := range src.re {
			if !k.check(f) {
				return nil, valueErrorf(k.name, ErrDomain)
			}
		}
	}

	dst := src
	if !a.reusable(src.nx, src.ny, complexOut) {
		dst = allocate(src.nx, src.ny, complexOut, src.IsScalar())
	}
	if complexOut {
		for i, c := range src.cx {
			dst.cx[i] = k.cplx(c)
		}
		return dst, nil
	}
	for i, f := range src.re {
		dst.re[i] = k.real(f)
	}
	return dst, nil
}
