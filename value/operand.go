// SPDX-License-Identifier: MIT

package value

// Operand pairs a Value with its ownership.
//
// A Temp operand is an intermediate owned exclusively by the caller; the
// operator may overwrite its storage with the result. A Shared operand is
// referenced elsewhere and is never mutated. After passing a Temp operand to
// an operator the caller must only use the returned Value.
type Operand struct {
	v    *Value
	temp bool
}

// Temp marks v as an exclusively owned intermediate.
func Temp(v *Value) Operand { return Operand{v: v, temp: true} }

// Shared marks v as persistent; operators clone before writing.
func Shared(v *Value) Operand { return Operand{v: v} }

// Value returns the wrapped value.
func (o Operand) Value() *Value { return o.v }

// IsTemp reports whether the operand may be overwritten.
func (o Operand) IsTemp() bool { return o.temp }

// reusable reports whether o can receive a result of shape nx×ny with the
// given storage kind.
func (o Operand) reusable(nx, ny int, complexOut bool) bool {
	if !o.temp || o.v == nil || o.v.nx != nx || o.v.ny != ny {
		return false
	}
	return o.v.kind.isComplex() == complexOut
}
