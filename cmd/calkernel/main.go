// SPDX-License-Identifier: MIT

// Command calkernel predicts visibilities and condition equations for a
// configured station array over one solve domain, and manages the
// parameter store.
//
// Usage:
//
//	calkernel --config run.yaml predict
//	calkernel --config run.yaml derivatives --solvable 'Gain:*'
//	calkernel --config run.yaml parms import catalog.yaml
//	calkernel --config run.yaml parms list
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "calkernel:", err)
		os.Exit(1)
	}
}
