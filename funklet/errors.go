// SPDX-License-Identifier: MIT

package funklet

import (
	"errors"
	"fmt"
)

// Sentinel errors for funklet construction, solvability and evaluation.
var (
	// ErrUnknownType indicates a record whose type tag is not one of
	// polynomial, log-polynomial or tabular.
	ErrUnknownType = errors.New("funklet: unknown type")

	// ErrInvalidShape indicates a coefficient shape that is not exactly 2-D,
	// has a non-positive dimension, or does not match the coefficient count.
	ErrInvalidShape = errors.New("funklet: invalid coefficient shape")

	// ErrInvalidMask indicates a solvable mask of the wrong length.
	ErrInvalidMask = errors.New("funklet: solvable mask length mismatch")

	// ErrInvalidReference indicates a non-positive log-polynomial reference point.
	ErrInvalidReference = errors.New("funklet: log-polynomial reference must be positive")

	// ErrIndexOutOfRange indicates an update vector too short for the
	// solvable coefficients at the given offset.
	ErrIndexOutOfRange = errors.New("funklet: index out of range")

	// ErrNotSolvable indicates Update on a funklet that is not solvable.
	ErrNotSolvable = errors.New("funklet: not solvable")

	// ErrMultiplePieces indicates a solvable parameter that spans more than
	// one funklet in the active domain.
	ErrMultiplePieces = errors.New("funklet: solvable parameter has multiple pieces")

	// ErrNotCovered indicates a grid cell that no piece of a parameter covers.
	ErrNotCovered = errors.New("funklet: cell not covered by any piece")

	// ErrNoPieces indicates a parameter built without funklets.
	ErrNoPieces = errors.New("funklet: parameter has no pieces")
)

// funkletErrorf wraps err with the name of the failing funklet or parameter.
func funkletErrorf(name string, err error) error {
	return fmt.Errorf("funklet %q: %w", name, err)
}
