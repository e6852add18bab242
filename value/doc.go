// SPDX-License-Identifier: MIT

// Package value provides the tagged numeric container used by every model
// quantity of the calibration kernel.
//
// A Value is one of four variants:
//
//   - RealScalar   : a single float64
//   - ComplexScalar: a single complex128
//   - RealArray    : nx×ny float64 samples
//   - ComplexArray : nx×ny complex128 samples
//
// A scalar is logically a 1×1 array. Storage is flat with x varying fastest
// for a fixed y (index = x + y*nx); in the kernel x is the frequency axis and
// y is the time axis.
//
// Ownership:
//
// Operators take Operand values instead of bare pointers. An Operand is
// either Temp (the caller owns the storage exclusively and allows it to be
// overwritten) or Shared (the storage is referenced elsewhere, e.g. by a node
// cache, and must never be mutated). When a Temp operand already has the
// shape and storage kind of the result, binary and unary operators write the
// result into it instead of allocating. Shared operands are never written.
//
// Broadcasting:
//
// Axis lengths must be equal or one of them must be 1; a length-1 axis is
// repeated across the other operand. Scalars therefore broadcast everywhere,
// and a frequency-invariant 1×N value combines with an M×N value. Any other
// combination fails with ErrShapeMismatch.
//
// Numeric policy:
//
// Operations that are mathematically undefined on reals (Sqrt of a negative
// value, Asin outside [-1, 1]) and real-only accessors applied to complex data
// fail with ErrDomain instead of producing NaN.
//
// Complexity:
//
//   - Elementwise operators and reductions: O(nx*ny) time.
//   - Extra memory: O(nx*ny) only when no Temp operand can be reused.
package value
