// SPDX-License-Identifier: MIT

// Package funklet implements domain-bounded pieces of a parameter's value.
//
// A Funklet holds an nx×ny coefficient block valid inside a frequency/time
// Box and evaluates it on the cell centres of a Request grid. Once marked
// solvable, each selected coefficient becomes one solver unknown (spid) and
// evaluation also produces one perturbed value per active spid, with that
// coefficient nudged by its perturbation.
//
// A Parameter assembles several funklets that tile a larger domain.
//
// Funklets are not safe for concurrent mutation. Concurrent Evaluate calls
// are safe as long as no MakeSolvable, ClearSolvable or Update runs at the
// same time.
package funklet

import (
	"fmt"
	"math"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// Funklet is one piece of a parameter. It implements result.Source.
type Funklet struct {
	name   string
	kind   Type
	nx, ny int
	coeff  []float64
	mask   []bool
	box    domain.Box

	pertValue float64
	relative  bool
	refFreq   float64
	refTime   float64

	// Solvable state; offset < 0 means not solvable.
	offset int
	pert   []float64              // per coefficient, zero where masked out
	spids  map[domain.ParamID]int // spid -> coefficient index
}

// FromRecord validates rec and builds a Funklet. Shape and type errors are
// reported here, never at evaluate time.
func FromRecord(rec Record) (*Funklet, error) {
	kind, err := rec.validate()
	if err != nil {
		return nil, funkletErrorf(rec.Name, err)
	}
	f := &Funklet{
		name:      rec.Name,
		kind:      kind,
		nx:        rec.Shape[0],
		ny:        rec.Shape[1],
		coeff:     append([]float64(nil), rec.Coeff...),
		box:       rec.Domain,
		pertValue: rec.Perturbation,
		relative:  rec.Relative,
		offset:    -1,
	}
	if f.pertValue == 0 {
		f.pertValue = DefaultPerturbation
	}
	f.refFreq, f.refTime = rec.reference()
	f.mask = make([]bool, len(f.coeff))
	for i := range f.mask {
		f.mask[i] = rec.Mask == nil || rec.Mask[i]
	}
	return f, nil
}

// Name returns the owning parameter name.
func (f *Funklet) Name() string { return f.name }

// Type returns the coefficient basis.
func (f *Funklet) Type() Type { return f.kind }

// Shape returns the coefficient block dimensions (nx along frequency, ny
// along time).
func (f *Funklet) Shape() (int, int) { return f.nx, f.ny }

// Domain returns the validity box.
func (f *Funklet) Domain() domain.Box { return f.box }

// Coeffs returns a copy of the coefficients.
func (f *Funklet) Coeffs() []float64 { return append([]float64(nil), f.coeff...) }

// IsSolvable reports whether MakeSolvable is in effect.
func (f *Funklet) IsSolvable() bool { return f.offset >= 0 }

// Offset returns the first spid of the solvable coefficients, or -1.
func (f *Funklet) Offset() int { return f.offset }

// NSolvable returns the number of coefficients selected by the mask.
func (f *Funklet) NSolvable() int {
	n := 0
	for _, m := range f.mask {
		if m {
			n++
		}
	}
	return n
}

// SetSolvableMask replaces the mask. It clears any solvable state since the
// spid assignment changes.
func (f *Funklet) SetSolvableMask(mask []bool) error {
	if len(mask) != len(f.coeff) {
		return funkletErrorf(f.name, ErrInvalidMask)
	}
	f.ClearSolvable()
	copy(f.mask, mask)
	return nil
}

// MakeSolvable assigns consecutive spids starting at offset to the masked
// coefficients in index order, computes their perturbations, and returns
// how many spids were taken.
func (f *Funklet) MakeSolvable(offset int) int {
	f.offset = offset
	f.pert = make([]float64, len(f.coeff))
	f.spids = make(map[domain.ParamID]int)
	spid := offset
	for i, c := range f.coeff {
		if !f.mask[i] {
			continue
		}
		f.pert[i] = f.perturbationFor(c)
		f.spids[domain.ParamID(spid)] = i
		spid++
	}
	return spid - offset
}

// ClearSolvable drops the spid assignment and the perturbations.
func (f *Funklet) ClearSolvable() {
	f.offset = -1
	f.pert = nil
	f.spids = nil
}

func (f *Funklet) perturbationFor(c float64) float64 {
	if f.relative && math.Abs(c) > RelativeThreshold {
		return f.pertValue * math.Abs(c)
	}
	return f.pertValue
}

// Perturbation returns the absolute perturbation applied for spid id.
func (f *Funklet) Perturbation(id domain.ParamID) (float64, bool) {
	i, ok := f.spids[id]
	if !ok {
		return 0, false
	}
	return f.pert[i], true
}

// Update copies values[offset : offset+NSolvable()] into the solvable
// coefficients in index order. Perturbations keep the magnitudes computed
// by MakeSolvable.
func (f *Funklet) Update(values []float64, offset int) error {
	if !f.IsSolvable() {
		return funkletErrorf(f.name, ErrNotSolvable)
	}
	n := f.NSolvable()
	if offset < 0 || offset+n > len(values) {
		return funkletErrorf(f.name, fmt.Errorf("offset %d + %d > %d: %w", offset, n, len(values), ErrIndexOutOfRange))
	}
	k := offset
	for i := range f.coeff {
		if f.mask[i] {
			f.coeff[i] = values[k]
			k++
		}
	}
	return nil
}

// Record returns the persisted form of the current coefficients.
func (f *Funklet) Record() Record {
	rec := Record{
		Name:         f.name,
		Type:         f.kind.String(),
		Shape:        []int{f.nx, f.ny},
		Coeff:        f.Coeffs(),
		Domain:       f.box,
		Perturbation: f.pertValue,
		Relative:     f.relative,
	}
	if f.kind == LogPolynomial {
		rec.RefFreq, rec.RefTime = f.refFreq, f.refTime
	}
	for _, m := range f.mask {
		if !m {
			rec.Mask = append([]bool(nil), f.mask...)
			break
		}
	}
	return rec
}

// Evaluate computes the funklet on the cell centres of req's grid. An axis
// along which the funklet is invariant (one coefficient row) collapses to
// length 1; a fully invariant funklet yields a scalar. For every active
// spid owned by f the result carries a perturbed value.
func (f *Funklet) Evaluate(req *domain.Request) (*result.Result, error) {
	g := req.Grid()
	xs, ys := f.coordinates(g)

	main, err := f.sample(f.coeff, xs, ys)
	if err != nil {
		return nil, funkletErrorf(f.name, err)
	}
	res := result.New(main)
	if !f.IsSolvable() {
		return res, nil
	}

	c := make([]float64, len(f.coeff))
	for _, id := range req.Active() {
		i, ok := f.spids[id]
		if !ok {
			continue
		}
		copy(c, f.coeff)
		c[i] += f.pert[i]
		v, err := f.sample(c, xs, ys)
		if err != nil {
			return nil, funkletErrorf(f.name, err)
		}
		if err := res.SetPerturbed(id, v, f); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// coordinates returns the basis coordinates of the grid cell centres,
// or nil along an invariant axis.
func (f *Funklet) coordinates(g domain.Grid) ([]float64, []float64) {
	var xs, ys []float64
	if f.nx > 1 {
		xs = g.Freq.Centers()
		for i, fr := range xs {
			xs[i] = f.basisFreq(fr)
		}
	}
	if f.ny > 1 {
		ys = g.Time.Centers()
		for i, t := range ys {
			ys[i] = f.basisTime(t)
		}
	}
	return xs, ys
}

// sample evaluates coefficients c on the coordinate lists.
func (f *Funklet) sample(c, xs, ys []float64) (*value.Value, error) {
	if xs == nil && ys == nil {
		return value.FromReal(f.at(c, 0, 0)), nil
	}
	nx, ny := max(len(xs), 1), max(len(ys), 1)
	data := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		var y float64
		if ys != nil {
			y = ys[j]
		}
		for i := 0; i < nx; i++ {
			var x float64
			if xs != nil {
				x = xs[i]
			}
			data[i+j*nx] = f.at(c, x, y)
		}
	}
	return value.FromRealArray(nx, ny, data)
}

// ValueAt evaluates the funklet at a single (freq, time) point.
func (f *Funklet) ValueAt(freq, time float64) float64 {
	var x, y float64
	if f.nx > 1 {
		x = f.basisFreq(freq)
	}
	if f.ny > 1 {
		y = f.basisTime(time)
	}
	return f.at(f.coeff, x, y)
}

func (f *Funklet) basisFreq(fr float64) float64 {
	if f.kind == LogPolynomial {
		return math.Log10(fr / f.refFreq)
	}
	return normalize(fr, f.box.StartFreq, f.box.Width())
}

func (f *Funklet) basisTime(t float64) float64 {
	if f.kind == LogPolynomial {
		return math.Log10(t / f.refTime)
	}
	return normalize(t, f.box.StartTime, f.box.Duration())
}

// normalize maps [start, start+width] onto [0, 1]; a zero width maps to 0.
func normalize(v, start, width float64) float64 {
	if width == 0 {
		return 0
	}
	return (v - start) / width
}

// at evaluates c at basis coordinates (x, y).
func (f *Funklet) at(c []float64, x, y float64) float64 {
	if f.kind == Tabular {
		return c[lattice(x, f.nx)+lattice(y, f.ny)*f.nx]
	}
	// Horner along y of Horner along x.
	var acc float64
	for j := f.ny - 1; j >= 0; j-- {
		row := c[j*f.nx : (j+1)*f.nx]
		var p float64
		for i := f.nx - 1; i >= 0; i-- {
			p = p*x + row[i]
		}
		acc = acc*y + p
	}
	return acc
}

// lattice returns the sample index of normalized coordinate u on n samples.
func lattice(u float64, n int) int {
	i := int(math.Floor(u * float64(n)))
	return min(max(i, 0), n-1)
}
