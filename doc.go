// SPDX-License-Identifier: MIT

// Package calkernel is the evaluation kernel of a radio-interferometer
// calibration package: it predicts station-pair correlations from a
// parameterised sky, instrument and ionosphere model over a
// frequency/time grid, together with the numeric derivatives a
// least-squares solver needs.
//
// Everything lives in subpackages, bottom-up:
//
//	value/      real/complex scalars and arrays with copy-on-write temporaries
//	domain/     boxes, grids and generation-stamped requests
//	result/     main values plus sparse perturbed values per solvable parameter
//	funklet/    polynomial, log-polynomial and tabular coefficient funklets
//	measures/   station positions and J2000 to azimuth/elevation conversion
//	expr/       expression DAG with per-request memoisation and the model ops
//	parmdb/     parameter stores (memory, badger) and YAML catalogs
//	model/      per-baseline graph construction
//	calibrate/  sessions, parallel work orders and condition equations
//	config/     YAML run configuration with environment overrides
//
// The calkernel command in cmd/calkernel wires these together.
package calkernel
