// SPDX-License-Identifier: MIT

package expr

import (
	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// Constant yields a fixed value without perturbations.
type Constant struct {
	V *value.Value
}

func (Constant) Kind() string { return "constant" }
func (Constant) Arity() int   { return 0 }
func (Constant) Outputs() int { return 1 }

func (c Constant) Eval(*domain.Request, []*result.Result) ([]*result.Result, error) {
	return []*result.Result{result.New(c.V)}, nil
}

// Evaluator is a leaf quantity evaluated directly on a Request.
// *funklet.Funklet and *funklet.Parameter implement it.
type Evaluator interface {
	Name() string
	Evaluate(req *domain.Request) (*result.Result, error)
}

// Leaf injects an Evaluator into the graph.
type Leaf struct {
	E Evaluator
}

func (Leaf) Kind() string { return "parameter" }
func (Leaf) Arity() int   { return 0 }
func (Leaf) Outputs() int { return 1 }

func (l Leaf) Eval(req *domain.Request, _ []*result.Result) ([]*result.Result, error) {
	r, err := l.E.Evaluate(req)
	if err != nil {
		return nil, err
	}
	return []*result.Result{r}, nil
}

// Binary applies an elementwise value operator to two inputs.
type Binary struct {
	Name string
	Fn   func(a, b value.Operand) (*value.Value, error)
}

func (b Binary) Kind() string { return b.Name }
func (Binary) Arity() int     { return 2 }
func (Binary) Outputs() int   { return 1 }

func (b Binary) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	r, err := result.Combine2(in[0], in[1], b.Fn)
	if err != nil {
		return nil, err
	}
	return []*result.Result{r}, nil
}

// Unary applies an elementwise value operator to one input.
type Unary struct {
	Name string
	Fn   func(a value.Operand) (*value.Value, error)
}

func (u Unary) Kind() string { return u.Name }
func (Unary) Arity() int     { return 1 }
func (Unary) Outputs() int   { return 1 }

func (u Unary) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	r, err := result.Apply1(in[0], u.Fn)
	if err != nil {
		return nil, err
	}
	return []*result.Result{r}, nil
}

// Arithmetic ops.
var (
	OpAdd       = Binary{Name: "add", Fn: value.Add}
	OpSub       = Binary{Name: "sub", Fn: value.Sub}
	OpMul       = Binary{Name: "mul", Fn: value.Mul}
	OpDiv       = Binary{Name: "div", Fn: value.Div}
	OpPosDiff   = Binary{Name: "posdiff", Fn: value.PosDiff}
	OpToComplex = Binary{Name: "tocomplex", Fn: value.ToComplex}

	OpSin    = Unary{Name: "sin", Fn: value.Sin}
	OpCos    = Unary{Name: "cos", Fn: value.Cos}
	OpExp    = Unary{Name: "exp", Fn: value.Exp}
	OpSqrt   = Unary{Name: "sqrt", Fn: value.Sqrt}
	OpAsin   = Unary{Name: "asin", Fn: value.Asin}
	OpConj   = Unary{Name: "conj", Fn: value.Conj}
	OpNegate = Unary{Name: "negate", Fn: value.Negate}
	OpAbs    = Unary{Name: "abs", Fn: value.Abs}
)

// Phasor turns a real phase into exp(i*phase).
type Phasor struct{}

func (Phasor) Kind() string { return "phasor" }
func (Phasor) Arity() int   { return 1 }
func (Phasor) Outputs() int { return 1 }

func (Phasor) Eval(_ *domain.Request, in []*result.Result) ([]*result.Result, error) {
	return result.Map(in, 1, func(v []*value.Value) ([]*value.Value, error) {
		c, err := value.Cos(value.Shared(v[0]))
		if err != nil {
			return nil, err
		}
		s, err := value.Sin(value.Shared(v[0]))
		if err != nil {
			return nil, err
		}
		z, err := value.ToComplex(value.Temp(c), value.Temp(s))
		if err != nil {
			return nil, err
		}
		return []*value.Value{z}, nil
	})
}

// FreqAxis yields the frequency cell centres as an nfreq×1 value.
type FreqAxis struct{}

func (FreqAxis) Kind() string { return "freqaxis" }
func (FreqAxis) Arity() int   { return 0 }
func (FreqAxis) Outputs() int { return 1 }

func (FreqAxis) Eval(req *domain.Request, _ []*result.Result) ([]*result.Result, error) {
	c := req.Grid().Freq.Centers()
	v, err := value.FromRealArray(len(c), 1, c)
	if err != nil {
		return nil, err
	}
	return []*result.Result{result.New(v)}, nil
}

// TimeAxis yields the time cell centres as a 1×ntime value.
type TimeAxis struct{}

func (TimeAxis) Kind() string { return "timeaxis" }
func (TimeAxis) Arity() int   { return 0 }
func (TimeAxis) Outputs() int { return 1 }

func (TimeAxis) Eval(req *domain.Request, _ []*result.Result) ([]*result.Result, error) {
	c := req.Grid().Time.Centers()
	v, err := value.FromRealArray(1, len(c), c)
	if err != nil {
		return nil, err
	}
	return []*result.Result{result.New(v)}, nil
}
