// SPDX-License-Identifier: MIT

package funklet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/funklet"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

func grid(t *testing.T, f0, fw float64, nf int, t0, tw float64, nt int) domain.Grid {
	t.Helper()
	fa, err := domain.NewRegularAxis(f0, fw, nf)
	require.NoError(t, err)
	ta, err := domain.NewRegularAxis(t0, tw, nt)
	require.NoError(t, err)
	g, err := domain.NewGrid(fa, ta)
	require.NoError(t, err)
	return g
}

func at(t *testing.T, v *value.Value, x, y int) float64 {
	t.Helper()
	f, err := v.RealAt(x, y)
	require.NoError(t, err)
	return f
}

func unitBox() domain.Box {
	return domain.Box{StartFreq: 0, EndFreq: 1, StartTime: 0, EndTime: 1}
}

func TestFromRecordValidation(t *testing.T) {
	base := funklet.Record{Name: "p", Type: "polynomial", Shape: []int{2, 1}, Coeff: []float64{1, 2}, Domain: unitBox()}

	_, err := funklet.FromRecord(base)
	require.NoError(t, err)

	bad := base
	bad.Type = "spline"
	_, err = funklet.FromRecord(bad)
	require.ErrorIs(t, err, funklet.ErrUnknownType)

	bad = base
	bad.Shape = []int{2, 1, 1}
	_, err = funklet.FromRecord(bad)
	require.ErrorIs(t, err, funklet.ErrInvalidShape)

	bad = base
	bad.Coeff = []float64{1}
	_, err = funklet.FromRecord(bad)
	require.ErrorIs(t, err, funklet.ErrInvalidShape)

	bad = base
	bad.Mask = []bool{true}
	_, err = funklet.FromRecord(bad)
	require.ErrorIs(t, err, funklet.ErrInvalidMask)

	bad = base
	bad.Type = "log-polynomial"
	_, err = funklet.FromRecord(bad)
	require.ErrorIs(t, err, funklet.ErrInvalidReference, "domain starts at 0 Hz")
}

func TestEndToEndScalar(t *testing.T) {
	f, err := funklet.FromRecord(funklet.Record{
		Name: "amp", Type: "polynomial", Shape: []int{1, 1}, Coeff: []float64{2.0},
		Domain: domain.Box{StartFreq: 1e8, EndFreq: 2e8, StartTime: 0, EndTime: 100}, Perturbation: 0.01,
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.MakeSolvable(0))

	var seq domain.Sequence
	req := seq.NewRequest(grid(t, 1e8, 1e6, 1, 0, 10, 2), []domain.ParamID{0})
	r, err := f.Evaluate(req)
	require.NoError(t, err)

	assert.True(t, r.Value().IsScalar(), "invariant funklet must not allocate the grid")
	for ti := 0; ti < 2; ti++ {
		assert.Equal(t, 2.0, at(t, r.Value(), 0, ti))
	}
	p, ok := r.Perturbed(0)
	require.True(t, ok)
	assert.InDelta(t, 2.01, at(t, p, 0, 0), 1e-12)

	d, err := result.Derivatives(r, req.Active())
	require.NoError(t, err)
	require.Len(t, d, 1)
	for ti := 0; ti < 2; ti++ {
		assert.InDelta(t, 1.0, at(t, d[0].Value, 0, ti), 1e-9)
	}
}

func TestFiniteDifferenceRoundTrip(t *testing.T) {
	f, err := funklet.FromRecord(funklet.Record{
		Name: "lin", Type: "polynomial", Shape: []int{2, 1}, Coeff: []float64{0.5, 3},
		Mask: []bool{false, true}, Domain: unitBox(), Perturbation: 1e-6,
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.MakeSolvable(0))

	var seq domain.Sequence
	req := seq.NewRequest(grid(t, 0, 0.25, 4, 0, 1, 1), []domain.ParamID{0})
	r, err := f.Evaluate(req)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Value().Nx())
	assert.Equal(t, 1, r.Value().Ny())

	d, err := result.Derivatives(r, req.Active())
	require.NoError(t, err)
	for i, x := range []float64{0.125, 0.375, 0.625, 0.875} {
		assert.InDelta(t, 0.5+3*x, at(t, r.Value(), i, 0), 1e-12)
		assert.InDelta(t, x, at(t, d[0].Value, i, 0), 1e-6)
	}
}

func TestPerturbationOnlyForActiveOwnedSpids(t *testing.T) {
	f, err := funklet.FromRecord(funklet.Record{
		Name: "p", Type: "polynomial", Shape: []int{2, 2}, Coeff: []float64{1, 2, 3, 4}, Domain: unitBox(),
	})
	require.NoError(t, err)
	require.Equal(t, 4, f.MakeSolvable(10))

	var seq domain.Sequence
	req := seq.NewRequest(grid(t, 0, 0.5, 2, 0, 0.5, 2), []domain.ParamID{1, 11, 13})
	r, err := f.Evaluate(req)
	require.NoError(t, err)
	assert.Equal(t, []domain.ParamID{11, 13}, r.Keys())

	f.ClearSolvable()
	r, err = f.Evaluate(req)
	require.NoError(t, err)
	assert.Zero(t, r.NPerturbed())
	_, ok := f.Perturbation(11)
	assert.False(t, ok)
}

func TestRelativePerturbation(t *testing.T) {
	f, err := funklet.FromRecord(funklet.Record{
		Name: "p", Type: "polynomial", Shape: []int{2, 1}, Coeff: []float64{200, 0},
		Domain: unitBox(), Perturbation: 1e-3, Relative: true,
	})
	require.NoError(t, err)
	f.MakeSolvable(0)

	eps, ok := f.Perturbation(0)
	require.True(t, ok)
	assert.InDelta(t, 0.2, eps, 1e-12)
	eps, _ = f.Perturbation(1)
	assert.Equal(t, 1e-3, eps, "tiny coefficients fall back to the absolute value")
}

func TestUpdate(t *testing.T) {
	f, err := funklet.FromRecord(funklet.Record{
		Name: "p", Type: "polynomial", Shape: []int{3, 1}, Coeff: []float64{1, 2, 3},
		Mask: []bool{true, false, true}, Domain: unitBox(),
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.Update([]float64{9, 9}, 0), funklet.ErrNotSolvable)

	require.Equal(t, 2, f.MakeSolvable(5))
	require.NoError(t, f.Update([]float64{0, 7, 8}, 1))
	assert.Equal(t, []float64{7, 2, 8}, f.Coeffs())

	err = f.Update([]float64{1, 2}, 1)
	require.ErrorIs(t, err, funklet.ErrIndexOutOfRange)

	rec := f.Record()
	assert.Equal(t, "polynomial", rec.Type)
	assert.Equal(t, []bool{true, false, true}, rec.Mask)
	assert.Equal(t, []float64{7, 2, 8}, rec.Coeff)
}

func TestSetSolvableMaskClears(t *testing.T) {
	f, err := funklet.FromRecord(funklet.Record{
		Name: "p", Type: "polynomial", Shape: []int{2, 1}, Coeff: []float64{1, 2}, Domain: unitBox(),
	})
	require.NoError(t, err)
	f.MakeSolvable(0)
	require.ErrorIs(t, f.SetSolvableMask([]bool{true}), funklet.ErrInvalidMask)
	require.NoError(t, f.SetSolvableMask([]bool{false, true}))
	assert.False(t, f.IsSolvable())
	assert.Equal(t, 1, f.NSolvable())
}

func TestTabularAndLogPolynomial(t *testing.T) {
	tab, err := funklet.FromRecord(funklet.Record{
		Name: "tab", Type: "tabular", Shape: []int{2, 1}, Coeff: []float64{10, 20},
		Domain: domain.Box{StartFreq: 0, EndFreq: 2, StartTime: 0, EndTime: 1},
	})
	require.NoError(t, err)
	var seq domain.Sequence
	r, err := tab.Evaluate(seq.NewRequest(grid(t, 0, 1, 2, 0, 1, 1), nil))
	require.NoError(t, err)
	assert.Equal(t, 10.0, at(t, r.Value(), 0, 0))
	assert.Equal(t, 20.0, at(t, r.Value(), 1, 0))

	lp, err := funklet.FromRecord(funklet.Record{
		Name: "lp", Type: "log-polynomial", Shape: []int{2, 1}, Coeff: []float64{1, 2},
		Domain: domain.Box{StartFreq: 1e8, EndFreq: 2e9, StartTime: 0, EndTime: 1},
	})
	require.NoError(t, err)
	r, err = lp.Evaluate(seq.NewRequest(grid(t, 9.5e8, 1e8, 1, 0, 1, 1), nil))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, at(t, r.Value(), 0, 0), 1e-12)
	assert.InDelta(t, 3.0, lp.ValueAt(1e9, 0.5), 1e-12)
}

func piece(t *testing.T, f0, f1, c float64) *funklet.Funklet {
	t.Helper()
	f, err := funklet.FromRecord(funklet.Record{
		Name: "gain", Type: "polynomial", Shape: []int{1, 1}, Coeff: []float64{c},
		Domain: domain.Box{StartFreq: f0, EndFreq: f1, StartTime: 0, EndTime: 1},
	})
	require.NoError(t, err)
	return f
}

func TestParameterPiecewise(t *testing.T) {
	p, err := funklet.NewParameter("gain", piece(t, 0, 2, 1), piece(t, 2, 4, 5))
	require.NoError(t, err)

	var seq domain.Sequence
	r, err := p.Evaluate(seq.NewRequest(grid(t, 0, 1, 4, 0, 1, 1), nil))
	require.NoError(t, err)
	for i, want := range []float64{1, 1, 5, 5} {
		assert.Equal(t, want, at(t, r.Value(), i, 0))
	}

	_, err = p.MakeSolvable(0)
	require.ErrorIs(t, err, funklet.ErrMultiplePieces)

	_, err = p.Evaluate(seq.NewRequest(grid(t, 0, 1, 5, 0, 1, 1), nil))
	require.ErrorIs(t, err, funklet.ErrNotCovered)

	_, err = funklet.NewParameter("empty")
	require.ErrorIs(t, err, funklet.ErrNoPieces)
}

func TestParameterSinglePieceSolvable(t *testing.T) {
	p, err := funklet.NewParameter("gain", piece(t, 0, 4, 3))
	require.NoError(t, err)
	n, err := p.MakeSolvable(2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, p.NSolvable())

	require.NoError(t, p.Update([]float64{0, 0, 4.5}))
	assert.Equal(t, []float64{4.5}, p.Pieces()[0].Coeffs())

	p.ClearSolvable()
	assert.Zero(t, p.NSolvable())
}
