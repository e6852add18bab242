// SPDX-License-Identifier: MIT

package value

import (
	"fmt"
	"math/cmplx"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	// RealScalar holds a single float64.
	RealScalar Kind = iota
	// ComplexScalar holds a single complex128.
	ComplexScalar
	// RealArray holds nx×ny float64 samples.
	RealArray
	// ComplexArray holds nx×ny complex128 samples.
	ComplexArray
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case RealScalar:
		return "RealScalar"
	case ComplexScalar:
		return "ComplexScalar"
	case RealArray:
		return "RealArray"
	case ComplexArray:
		return "ComplexArray"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// isComplex reports whether k stores complex samples.
func (k Kind) isComplex() bool { return k == ComplexScalar || k == ComplexArray }

// Value is the tagged numeric container.
// Exactly one of re / cx is non-nil and its length is nx*ny.
type Value struct {
	kind   Kind
	nx, ny int
	re     []float64    // real storage (Real* kinds)
	cx     []complex128 // complex storage (Complex* kinds)
}

// FromReal returns a RealScalar.
func FromReal(f float64) *Value {
	return &Value{kind: RealScalar, nx: 1, ny: 1, re: []float64{f}}
}

// FromComplex returns a ComplexScalar.
func FromComplex(c complex128) *Value {
	return &Value{kind: ComplexScalar, nx: 1, ny: 1, cx: []complex128{c}}
}

// FromRealArray wraps data (not copied) as an nx×ny RealArray.
// Returns ErrShape if nx or ny is not positive or len(data) != nx*ny.
func FromRealArray(nx, ny int, data []float64) (*Value, error) {
	if nx <= 0 || ny <= 0 || len(data) != nx*ny {
		return nil, valueErrorf("FromRealArray", ErrShape)
	}
	return &Value{kind: RealArray, nx: nx, ny: ny, re: data}, nil
}

// FromComplexArray wraps data (not copied) as an nx×ny ComplexArray.
// Returns ErrShape if nx or ny is not positive or len(data) != nx*ny.
func FromComplexArray(nx, ny int, data []complex128) (*Value, error) {
	if nx <= 0 || ny <= 0 || len(data) != nx*ny {
		return nil, valueErrorf("FromComplexArray", ErrShape)
	}
	return &Value{kind: ComplexArray, nx: nx, ny: ny, cx: data}, nil
}

// NewRealArray allocates a zero-filled nx×ny RealArray.
func NewRealArray(nx, ny int) (*Value, error) {
	if nx <= 0 || ny <= 0 {
		return nil, valueErrorf("NewRealArray", ErrShape)
	}
	return &Value{kind: RealArray, nx: nx, ny: ny, re: make([]float64, nx*ny)}, nil
}

// Kind returns the variant tag.
func (v *Value) Kind() Kind { return v.kind }

// Nx returns the length of the x (frequency) axis.
func (v *Value) Nx() int { return v.nx }

// Ny returns the length of the y (time) axis.
func (v *Value) Ny() int { return v.ny }

// ElementCount returns nx*ny, which always equals the storage length.
func (v *Value) ElementCount() int {
	if v.kind.isComplex() {
		return len(v.cx)
	}
	return len(v.re)
}

// IsComplex reports whether v stores complex samples.
func (v *Value) IsComplex() bool { return v.kind.isComplex() }

// IsScalar reports whether v is a RealScalar or ComplexScalar.
func (v *Value) IsScalar() bool { return v.kind == RealScalar || v.kind == ComplexScalar }

// index validates (x, y) and returns the flat offset.
func (v *Value) index(tag string, x, y int) (int, error) {
	if x < 0 || x >= v.nx || y < 0 || y >= v.ny {
		return 0, valueErrorf(tag, ErrOutOfRange)
	}
	return x + y*v.nx, nil
}

// GetReal returns the real sample at (x, y).
// Complex values fail with ErrDomain; indices outside the shape with ErrOutOfRange.
func (v *Value) GetReal(x, y int) (float64, error) {
	if v.kind.isComplex() {
		return 0, valueErrorf("GetReal", ErrDomain)
	}
	idx, err := v.index("GetReal", x, y)
	if err != nil {
		return 0, err
	}
	return v.re[idx], nil
}

// GetComplex returns the sample at (x, y); real samples are promoted.
func (v *Value) GetComplex(x, y int) (complex128, error) {
	idx, err := v.index("GetComplex", x, y)
	if err != nil {
		return 0, err
	}
	if v.kind.isComplex() {
		return v.cx[idx], nil
	}
	return complex(v.re[idx], 0), nil
}

// broadcastIndex maps (x, y) to a flat offset, repeating length-1 axes.
func (v *Value) broadcastIndex(x, y int) int {
	if v.nx == 1 {
		x = 0
	}
	if v.ny == 1 {
		y = 0
	}
	return x + y*v.nx
}

// RealAt is GetReal with broadcasting: a length-1 axis accepts any index on
// that axis. Indices beyond a longer axis still fail with ErrOutOfRange.
func (v *Value) RealAt(x, y int) (float64, error) {
	if v.kind.isComplex() {
		return 0, valueErrorf("RealAt", ErrDomain)
	}
	if x < 0 || y < 0 || (v.nx > 1 && x >= v.nx) || (v.ny > 1 && y >= v.ny) {
		return 0, valueErrorf("RealAt", ErrOutOfRange)
	}
	return v.re[v.broadcastIndex(x, y)], nil
}

// ComplexAt is GetComplex with broadcasting.
func (v *Value) ComplexAt(x, y int) (complex128, error) {
	if x < 0 || y < 0 || (v.nx > 1 && x >= v.nx) || (v.ny > 1 && y >= v.ny) {
		return 0, valueErrorf("ComplexAt", ErrOutOfRange)
	}
	idx := v.broadcastIndex(x, y)
	if v.kind.isComplex() {
		return v.cx[idx], nil
	}
	return complex(v.re[idx], 0), nil
}

// SetReal writes f at (x, y). Only the exclusive owner of v may call it.
func (v *Value) SetReal(x, y int, f float64) error {
	if v.kind.isComplex() {
		return valueErrorf("SetReal", ErrDomain)
	}
	idx, err := v.index("SetReal", x, y)
	if err != nil {
		return err
	}
	v.re[idx] = f
	return nil
}

// Reals returns a copy of the real samples in storage order.
func (v *Value) Reals() ([]float64, error) {
	if v.kind.isComplex() {
		return nil, valueErrorf("Reals", ErrDomain)
	}
	out := make([]float64, len(v.re))
	copy(out, v.re)
	return out, nil
}

// Complexes returns a copy of the samples as complex128 in storage order.
func (v *Value) Complexes() []complex128 {
	if v.kind.isComplex() {
		out := make([]complex128, len(v.cx))
		copy(out, v.cx)
		return out
	}
	out := make([]complex128, len(v.re))
	for i, f := range v.re {
		out[i] = complex(f, 0)
	}
	return out
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	out := &Value{kind: v.kind, nx: v.nx, ny: v.ny}
	if v.re != nil {
		out.re = make([]float64, len(v.re))
		copy(out.re, v.re)
	}
	if v.cx != nil {
		out.cx = make([]complex128, len(v.cx))
		copy(out.cx, v.cx)
	}
	return out
}

// String renders v row by row (one row per y).
func (v *Value) String() string {
	var sb strings.Builder
	for y := 0; y < v.ny; y++ {
		sb.WriteString("[")
		for x := 0; x < v.nx; x++ {
			if x > 0 {
				sb.WriteString(", ")
			}
			if v.kind.isComplex() {
				c := v.cx[x+y*v.nx]
				if imag(c) == 0 {
					fmt.Fprintf(&sb, "%g", real(c))
				} else {
					fmt.Fprintf(&sb, "%g", c)
				}
			} else {
				fmt.Fprintf(&sb, "%g", v.re[x+y*v.nx])
			}
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

// magnitude returns |sample i| for complex storage.
func (v *Value) magnitude(i int) float64 { return cmplx.Abs(v.cx[i]) }
