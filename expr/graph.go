// SPDX-License-Identifier: MIT

package expr

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/result"
)

// NodeID indexes a node in its Graph.
type NodeID int

// Port names one output of a node.
type Port struct {
	Node NodeID
	Out  int
}

// Out returns the port for output k of id.
func (id NodeID) Out(k int) Port { return Port{Node: id, Out: k} }

// Port returns the port for the first output of id.
func (id NodeID) Port() Port { return Port{Node: id} }

// Op is the computation of one node.
type Op interface {
	// Kind names the operation for logs and metrics.
	Kind() string
	// Arity is the number of inputs the op consumes.
	Arity() int
	// Outputs is the number of results Eval returns.
	Outputs() int
	// Eval computes the outputs from the inputs' results. Inputs are shared
	// with other consumers and must not be mutated.
	Eval(req *domain.Request, in []*result.Result) ([]*result.Result, error)
}

type node struct {
	op     Op
	inputs []Port

	// cache holds op outputs for req (and its generation) when valid.
	cache      []*result.Result
	generation uint64
	req        *domain.Request
	valid      bool
	evals      int
}

// Graph is an append-only arena of expression nodes.
type Graph struct {
	nodes []*node
	opts  options
}

// New returns an empty Graph.
func New(opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph{opts: o}
}

// Name returns the graph label.
func (g *Graph) Name() string { return g.opts.name }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Add appends a node computing op from inputs and returns its id. Inputs
// must name outputs of nodes already in g.
func (g *Graph) Add(op Op, inputs ...Port) (NodeID, error) {
	if op == nil {
		return 0, ErrNilOp
	}
	if v, ok := op.(validator); ok {
		if err := v.Validate(); err != nil {
			return 0, fmt.Errorf("%s: %w", op.Kind(), err)
		}
	}
	if len(inputs) != op.Arity() {
		return 0, fmt.Errorf("%s takes %d inputs, got %d: %w", op.Kind(), op.Arity(), len(inputs), ErrInputCount)
	}
	for _, p := range inputs {
		if err := g.checkPort(p); err != nil {
			return 0, fmt.Errorf("%s: %w", op.Kind(), err)
		}
	}
	g.nodes = append(g.nodes, &node{op: op, inputs: append([]Port(nil), inputs...)})
	return NodeID(len(g.nodes) - 1), nil
}

// validator is implemented by ops whose own fields can be invalid.
type validator interface {
	Validate() error
}

func (g *Graph) checkPort(p Port) error {
	if p.Node < 0 || int(p.Node) >= len(g.nodes) {
		return fmt.Errorf("node %d: %w", p.Node, ErrUnknownPort)
	}
	if p.Out < 0 || p.Out >= g.nodes[p.Node].op.Outputs() {
		return fmt.Errorf("node %d output %d: %w", p.Node, p.Out, ErrUnknownPort)
	}
	return nil
}

// Kind returns the op kind of id.
func (g *Graph) Kind(id NodeID) string { return g.nodes[id].op.Kind() }

// Evaluations returns how many times the op of id has run.
func (g *Graph) Evaluations(id NodeID) int { return g.nodes[id].evals }

// Evaluate computes roots for req and returns one result per root port.
// Nodes already evaluated for req's generation are served from cache.
func (g *Graph) Evaluate(req *domain.Request, roots ...Port) ([]*result.Result, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	for _, p := range roots {
		if err := g.checkPort(p); err != nil {
			return nil, err
		}
	}
	out := make([]*result.Result, len(roots))
	for i, p := range roots {
		if err := g.visit(p.Node, req); err != nil {
			return nil, err
		}
		out[i] = g.nodes[p.Node].cache[p.Out]
	}
	return out, nil
}

// visit evaluates id after its inputs (post-order). A node is Black once
// its cache holds req (same request, same generation) and White otherwise.
func (g *Graph) visit(id NodeID, req *domain.Request) error {
	n := g.nodes[id]
	gen := req.Generation()
	if n.valid && n.generation == gen && n.req == req {
		cacheHits.Inc()
		return nil
	}
	n.valid = false

	in := make([]*result.Result, len(n.inputs))
	for i, p := range n.inputs {
		if err := g.visit(p.Node, req); err != nil {
			return err
		}
		in[i] = g.nodes[p.Node].cache[p.Out]
	}

	kind := n.op.Kind()
	out, err := n.op.Eval(req, in)
	if err == nil && len(out) != n.op.Outputs() {
		err = fmt.Errorf("got %d, want %d: %w", len(out), n.op.Outputs(), ErrOutputCount)
	}
	if err != nil {
		nodeErrors.WithLabelValues(kind).Inc()
		g.opts.logger.Error("node evaluation failed",
			slog.String("graph", g.opts.name),
			slog.Int("node", int(id)),
			slog.String("op", kind),
			slog.Uint64("generation", gen),
			slog.String("error", err.Error()),
		)
		return nodeErrorf(id, kind, err)
	}

	n.cache, n.generation, n.req, n.valid = out, gen, req, true
	n.evals++
	nodeEvaluations.WithLabelValues(kind).Inc()
	g.opts.logger.Debug("node evaluated",
		slog.String("graph", g.opts.name),
		slog.Int("node", int(id)),
		slog.String("op", kind),
		slog.Uint64("generation", gen),
	)
	return nil
}
