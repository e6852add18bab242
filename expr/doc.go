// SPDX-License-Identifier: MIT

// Package expr evaluates model expressions as a DAG of operations over a
// Request grid, carrying perturbed values for the active solvable
// parameters alongside every main value.
//
// Graph is an arena: nodes are appended with Add and may only consume ports
// of nodes that already exist, so every Graph is acyclic by construction.
// A node consumed by several parents is evaluated once per Request.
//
// Evaluation protocol:
//
//  1. Evaluate(req, roots...) walks the subgraph reachable from roots in
//     depth-first post-order (inputs before consumers).
//  2. A node whose cache carries req.Generation() returns the cached
//     results without calling its Op (a cache hit).
//  3. Otherwise the Op runs on the inputs' results and its outputs replace
//     the cache.
//
// Results stored in the cache are shared: Ops must read their inputs
// through value.Shared operands, which result.Map does for them.
//
// A Graph is not safe for concurrent use. Independent instances (one per
// baseline, say) are evaluated in parallel by building one Graph each.
//
// Composite operations:
//
//   - Constant, Leaf, Binary and Unary arithmetic, Phasor.
//   - FreqAxis and TimeAxis expose the grid cell centres.
//   - AzEl converts a J2000 direction for a station through a
//     measures.Converter, once per time cell and per perturbed input.
//   - ITRFDirection, PiercePoint, IonosphereDelay, ParallacticRotation and
//     Correlate are built from value arithmetic only.
package expr
