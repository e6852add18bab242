// SPDX-License-Identifier: MIT
// Package value: sentinel error set.
// All operations return these sentinels (possibly wrapped with an operation
// tag); callers match them with errors.Is.

package value

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned by array constructors when the data length does
	// not equal nx*ny or a dimension is not positive.
	ErrShape = errors.New("value: invalid shape")

	// ErrShapeMismatch indicates operands whose shapes cannot be broadcast
	// against each other. It always reflects a model-construction bug.
	ErrShapeMismatch = errors.New("value: shape mismatch")

	// ErrDomain indicates a mathematically undefined operation on real data
	// or a real-only access to complex data.
	ErrDomain = errors.New("value: domain error")

	// ErrOutOfRange indicates an (x, y) index outside the value's shape.
	ErrOutOfRange = errors.New("value: index out of range")

	// ErrNilValue indicates that a nil *Value was used as an operand.
	ErrNilValue = errors.New("value: nil value")
)

// valueErrorf tags err with the operation name.
func valueErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
