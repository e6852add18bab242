// SPDX-License-Identifier: MIT

package funklet

import (
	"fmt"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// Parameter is a named quantity whose value over a large domain is tiled by
// one or more funklets.
type Parameter struct {
	name   string
	pieces []*Funklet
}

// NewParameter groups pieces under name. Pieces are evaluated in the given
// order; the first piece containing a cell centre wins.
func NewParameter(name string, pieces ...*Funklet) (*Parameter, error) {
	if len(pieces) == 0 {
		return nil, funkletErrorf(name, ErrNoPieces)
	}
	return &Parameter{name: name, pieces: append([]*Funklet(nil), pieces...)}, nil
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Pieces returns the funklets of p.
func (p *Parameter) Pieces() []*Funklet { return append([]*Funklet(nil), p.pieces...) }

// NSolvable returns the spid count once solvable, or 0.
func (p *Parameter) NSolvable() int {
	if len(p.pieces) != 1 || !p.pieces[0].IsSolvable() {
		return 0
	}
	return p.pieces[0].NSolvable()
}

// MakeSolvable marks the single piece solvable at offset. A parameter with
// several pieces cannot be solved for: the solver vector has one spid range
// per parameter.
func (p *Parameter) MakeSolvable(offset int) (int, error) {
	if len(p.pieces) != 1 {
		return 0, funkletErrorf(p.name, fmt.Errorf("%d pieces: %w", len(p.pieces), ErrMultiplePieces))
	}
	return p.pieces[0].MakeSolvable(offset), nil
}

// ClearSolvable clears every piece.
func (p *Parameter) ClearSolvable() {
	for _, f := range p.pieces {
		f.ClearSolvable()
	}
}

// Update writes solver values into the solvable piece.
func (p *Parameter) Update(values []float64) error {
	if len(p.pieces) != 1 {
		return funkletErrorf(p.name, ErrMultiplePieces)
	}
	f := p.pieces[0]
	return f.Update(values, f.Offset())
}

// Evaluate computes the parameter on req's grid. A single piece is
// evaluated directly, including perturbations. Several pieces are assembled
// cell by cell from the piece containing each cell centre.
func (p *Parameter) Evaluate(req *domain.Request) (*result.Result, error) {
	if len(p.pieces) == 1 {
		return p.pieces[0].Evaluate(req)
	}
	g := req.Grid()
	nf, nt := g.NFreq(), g.NTime()
	data := make([]float64, nf*nt)
	fc, tc := g.Freq.Centers(), g.Time.Centers()
	for ti, t := range tc {
		for fi, fr := range fc {
			f := p.cover(fr, t)
			if f == nil {
				return nil, funkletErrorf(p.name, fmt.Errorf("cell (%d,%d): %w", fi, ti, ErrNotCovered))
			}
			data[fi+ti*nf] = f.ValueAt(fr, t)
		}
	}
	v, err := value.FromRealArray(nf, nt, data)
	if err != nil {
		return nil, funkletErrorf(p.name, err)
	}
	return result.New(v), nil
}

func (p *Parameter) cover(freq, time float64) *Funklet {
	for _, f := range p.pieces {
		if f.box.ContainsPoint(freq, time) {
			return f
		}
	}
	return nil
}
