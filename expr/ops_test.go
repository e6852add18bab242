// SPDX-License-Identifier: MIT

package expr_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/expr"
	"github.com/katalvlaran/calkernel/measures"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

const earth = expr.DefaultEarthRadius

func constant(t *testing.T, g *expr.Graph, f float64) expr.Port {
	t.Helper()
	return add(t, g, expr.Constant{V: value.FromReal(f)}).Port()
}

func evalOne(t *testing.T, g *expr.Graph, req *domain.Request, ports ...expr.Port) []*result.Result {
	t.Helper()
	out, err := g.Evaluate(req, ports...)
	require.NoError(t, err)
	return out
}

func TestPhasorAndAxes(t *testing.T) {
	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 100, 10, 3, 0, 2, 2), nil)

	g := expr.New()
	ph := add(t, g, expr.Phasor{}, constant(t, g, math.Pi/2))
	fa := add(t, g, expr.FreqAxis{})
	ta := add(t, g, expr.TimeAxis{})
	out := evalOne(t, g, req, ph.Port(), fa.Port(), ta.Port())

	z, err := out[0].Value().ComplexAt(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, real(z), 1e-12)
	assert.InDelta(t, 1, imag(z), 1e-12)

	assert.Equal(t, [2]int{3, 1}, [2]int{out[1].Value().Nx(), out[1].Value().Ny()})
	assert.Equal(t, 115.0, at(t, out[1].Value(), 1, 0))
	assert.Equal(t, [2]int{1, 2}, [2]int{out[2].Value().Nx(), out[2].Value().Ny()})
	assert.Equal(t, 3.0, at(t, out[2].Value(), 0, 1))
}

func TestAzElCallsConverterPerCellAndPerturbation(t *testing.T) {
	calls := 0
	conv := measures.ConverterFunc(func(ra, dec float64, st measures.Position, epoch float64) (float64, float64, error) {
		calls++
		return ra + epoch, dec, nil
	})

	ra := scalarParam(t, "RA", 1, 1e-3)
	ra.MakeSolvable(0)

	g := expr.New()
	azel := add(t, g, expr.AzEl{Converter: conv},
		add(t, g, expr.Leaf{E: ra}).Port(), constant(t, g, 0.5),
		constant(t, g, earth), constant(t, g, 0), constant(t, g, 0))

	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 1, 0, 10, 3), []domain.ParamID{0})
	out := evalOne(t, g, req, azel.Out(0), azel.Out(1))

	assert.Equal(t, 6, calls, "3 cells for the main value and 3 for the RA perturbation")
	for ti, epoch := range []float64{5, 15, 25} {
		assert.Equal(t, 1+epoch, at(t, out[0].Value(), 0, ti))
		assert.Equal(t, 0.5, at(t, out[1].Value(), 0, ti))
	}
	assert.Equal(t, []domain.ParamID{0}, out[0].Keys())
	assert.Equal(t, []domain.ParamID{0}, out[1].Keys())

	g2 := expr.New()
	bad := add(t, g2, expr.AzEl{}, constant(t, g2, 0), constant(t, g2, 0),
		constant(t, g2, earth), constant(t, g2, 0), constant(t, g2, 0))
	_, err := g2.Evaluate(req, bad.Port())
	require.ErrorIs(t, err, expr.ErrNoConverter)
}

func TestAzElRejectsFrequencyDependentInput(t *testing.T) {
	conv := measures.ConverterFunc(func(ra, dec float64, _ measures.Position, _ float64) (float64, float64, error) {
		return ra, dec, nil
	})
	g := expr.New()
	azel := add(t, g, expr.AzEl{Converter: conv},
		add(t, g, expr.FreqAxis{}).Port(), constant(t, g, 0.5),
		constant(t, g, earth), constant(t, g, 0), constant(t, g, 0))

	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 2, 0, 10, 3), nil)
	_, err := g.Evaluate(req, azel.Out(0))
	assert.ErrorIs(t, err, value.ErrShapeMismatch)
}

func TestITRFDirection(t *testing.T) {
	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 1, 0, 10, 1), nil)

	cases := []struct {
		name   string
		az, el float64
		want   [3]float64
	}{
		{"zenith", 0, math.Pi / 2, [3]float64{1, 0, 0}},
		{"north", 0, 0, [3]float64{0, 0, 1}},
		{"east", math.Pi / 2, 0, [3]float64{0, 1, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := expr.New()
			dir := add(t, g, expr.ITRFDirection{},
				constant(t, g, tc.az), constant(t, g, tc.el),
				constant(t, g, earth), constant(t, g, 0), constant(t, g, 0))
			out := evalOne(t, g, req, dir.Out(0), dir.Out(1), dir.Out(2))
			for k := range tc.want {
				assert.InDelta(t, tc.want[k], at(t, out[k].Value(), 0, 0), 1e-12)
			}
		})
	}
}

func TestPiercePoint(t *testing.T) {
	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 1, 0, 10, 1), nil)
	rh := earth + expr.DefaultIonosphereHeight

	pierce := func(dx, dy, dz float64) []*result.Result {
		g := expr.New()
		pp := add(t, g, expr.PiercePoint{},
			constant(t, g, earth), constant(t, g, 0), constant(t, g, 0),
			constant(t, g, dx), constant(t, g, dy), constant(t, g, dz))
		return evalOne(t, g, req, pp.Out(0), pp.Out(1), pp.Out(2), pp.Out(3))
	}

	out := pierce(1, 0, 0)
	assert.InDelta(t, rh, at(t, out[0].Value(), 0, 0), 1e-6)
	assert.InDelta(t, 0, at(t, out[3].Value(), 0, 0), 1e-12)

	out = pierce(0, 0, 1)
	assert.InDelta(t, earth, at(t, out[0].Value(), 0, 0), 1e-6)
	assert.InDelta(t, math.Sqrt(rh*rh-earth*earth), at(t, out[2].Value(), 0, 0), 1e-6)
	assert.InDelta(t, math.Asin(earth/rh), at(t, out[3].Value(), 0, 0), 1e-12)
}

func TestIonosphereDelay(t *testing.T) {
	var seq domain.Sequence
	ref := measures.Position{X: earth}
	c0 := scalarParam(t, "MIM:0", 10, 1e-3)
	c0.MakeSolvable(0)

	g := expr.New()
	coeff := []expr.Port{
		add(t, g, expr.Leaf{E: c0}).Port(),
		constant(t, g, 5), constant(t, g, 0), constant(t, g, 0),
	}
	in := append([]expr.Port{
		constant(t, g, earth), constant(t, g, expr.DefaultTECScale), constant(t, g, 0),
		constant(t, g, 0),
	}, coeff...)
	mim := add(t, g, expr.IonosphereDelay{Reference: ref, Order: 1}, in...)

	req := seq.NewRequest(testGrid(t, 1e8, 2e7, 2, 0, 10, 1), []domain.ParamID{0})
	out := evalOne(t, g, req, mim.Port())
	phase := out[0].Value()
	require.Equal(t, 2, phase.Nx())

	// One unit east of the reference: TEC = 10 + 5.
	for i, f := range []float64{1.1e8, 1.3e8} {
		assert.InDelta(t, -expr.TECPhaseConstant*15/f, at(t, phase, i, 0), 1e-6)
	}

	d, err := result.Derivatives(out[0], req.Active())
	require.NoError(t, err)
	assert.InDelta(t, -expr.TECPhaseConstant/1.1e8, at(t, d[0].Value, 0, 0), 1e-3)
}

func TestIonosphereDelayNegativeOrder(t *testing.T) {
	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 1, 0, 10, 1), nil)

	for _, order := range []int{-1, -3} {
		op := expr.IonosphereDelay{Order: order}
		assert.Zero(t, op.NCoeff())
		assert.ErrorIs(t, op.Validate(), expr.ErrInvalidOrder)

		g := expr.New()
		in := []expr.Port{constant(t, g, 1), constant(t, g, 1), constant(t, g, 1), constant(t, g, 0)}
		_, err := g.Add(op, in...)
		assert.ErrorIs(t, err, expr.ErrInvalidOrder)

		// Called directly, Eval reports the order instead of panicking.
		vals := make([]*result.Result, 4)
		for i := range vals {
			vals[i] = result.New(value.FromReal(1))
		}
		_, err = op.Eval(req, vals)
		assert.ErrorIs(t, err, expr.ErrInvalidOrder)
	}
}

func TestParallacticRotation(t *testing.T) {
	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 1, 0, 10, 1), nil)

	g := expr.New()
	rot := add(t, g, expr.ParallacticRotation{P: [3]float64{0, 1, 0}, Q: [3]float64{0, 0, 1}},
		constant(t, g, 1), constant(t, g, 0), constant(t, g, 0))
	out := evalOne(t, g, req, rot.Out(0), rot.Out(1), rot.Out(2), rot.Out(3))
	for k, want := range []float64{0, 1, 1, 0} {
		assert.InDelta(t, want, at(t, out[k].Value(), 0, 0), 1e-12)
	}
}

func TestCorrelate(t *testing.T) {
	var seq domain.Sequence
	req := seq.NewRequest(testGrid(t, 1e8, 1e6, 1, 0, 10, 1), nil)

	g := expr.New()
	cplx := func(z complex128) expr.Port {
		return add(t, g, expr.Constant{V: value.FromComplex(z)}).Port()
	}
	zero := constant(t, g, 0)
	gi, gj := cplx(2), cplx(1i)
	flux := constant(t, g, 3)
	in := []expr.Port{gi, zero, zero, gi, flux, zero, zero, flux, gj, zero, zero, gj}
	corr := add(t, g, expr.Correlate{}, in...)
	out := evalOne(t, g, req, corr.Out(0), corr.Out(1), corr.Out(2), corr.Out(3))

	xx, err := out[0].Value().ComplexAt(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, real(xx), 1e-12)
	assert.InDelta(t, -6, imag(xx), 1e-12)
	xy, err := out[1].Value().ComplexAt(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, real(xy), 1e-12)
	assert.InDelta(t, 0, imag(xy), 1e-12)
}
