// SPDX-License-Identifier: MIT

package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction and evaluation.
var (
	// ErrNilOp indicates Add called without an operation.
	ErrNilOp = errors.New("expr: nil op")

	// ErrUnknownPort indicates a port naming a node that does not exist yet,
	// or an output index the node does not have.
	ErrUnknownPort = errors.New("expr: unknown port")

	// ErrInputCount indicates an op given a number of inputs it cannot take.
	ErrInputCount = errors.New("expr: wrong number of inputs")

	// ErrOutputCount indicates an op returning a different number of results
	// than it declares.
	ErrOutputCount = errors.New("expr: wrong number of outputs")

	// ErrNilRequest indicates Evaluate called without a Request.
	ErrNilRequest = errors.New("expr: nil request")

	// ErrInvalidOrder indicates an IonosphereDelay with a negative order.
	ErrInvalidOrder = errors.New("expr: negative polynomial order")
)

// nodeErrorf tags err with the failing node.
func nodeErrorf(id NodeID, kind string, err error) error {
	return fmt.Errorf("node %d (%s): %w", id, kind, err)
}
