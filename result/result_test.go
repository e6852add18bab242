// SPDX-License-Identifier: MIT

package result_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/result"
	"github.com/katalvlaran/calkernel/value"
)

// fixedSource perturbs every id by eps.
type fixedSource struct {
	name string
	eps  float64
}

func (s *fixedSource) Name() string { return s.name }

func (s *fixedSource) Perturbation(domain.ParamID) (float64, bool) { return s.eps, true }

func leaf(t *testing.T, main, pert float64, id domain.ParamID, src result.Source) *result.Result {
	t.Helper()
	r := result.New(value.FromReal(main))
	require.NoError(t, r.SetPerturbed(id, value.FromReal(pert), src))
	return r
}

func scalarOf(t *testing.T, v *value.Value) float64 {
	t.Helper()
	f, err := v.GetReal(0, 0)
	require.NoError(t, err)
	return f
}

func TestCombine2UnionAndSubstitution(t *testing.T) {
	sa := &fixedSource{name: "a", eps: 0.1}
	sb := &fixedSource{name: "b", eps: 0.2}
	a := leaf(t, 2, 2.1, 0, sa)
	b := leaf(t, 3, 3.2, 1, sb)

	r, err := result.Combine2(a, b, value.Mul)
	require.NoError(t, err)
	assert.Equal(t, 6.0, scalarOf(t, r.Value()))
	assert.Equal(t, []domain.ParamID{0, 1}, r.Keys())

	p0, _ := r.Perturbed(0)
	assert.InDelta(t, 2.1*3, scalarOf(t, p0), 1e-12, "b contributes its main value")
	p1, _ := r.Perturbed(1)
	assert.InDelta(t, 2*3.2, scalarOf(t, p1), 1e-12)

	src, ok := r.Source(1)
	require.True(t, ok)
	assert.Same(t, sb, src)
}

func TestSparsityPreserved(t *testing.T) {
	s := &fixedSource{name: "p1", eps: 0.5}
	a := leaf(t, 1, 1.5, 7, s)
	c := result.New(value.FromReal(4))

	r, err := result.Combine2(a, c, value.Add)
	require.NoError(t, err)
	assert.Equal(t, []domain.ParamID{7}, r.Keys())

	d, err := result.Derivatives(r, []domain.ParamID{7, 8})
	require.NoError(t, err)
	require.Len(t, d, 2)
	assert.InDelta(t, 1.0, scalarOf(t, d[0].Value), 1e-12)
	assert.Equal(t, 0.0, scalarOf(t, d[1].Value))
}

func TestInconsistentSource(t *testing.T) {
	a := leaf(t, 1, 1.1, 3, &fixedSource{name: "x", eps: 0.1})
	b := leaf(t, 1, 1.2, 3, &fixedSource{name: "y", eps: 0.2})
	_, err := result.Combine2(a, b, value.Add)
	require.ErrorIs(t, err, result.ErrInconsistentSource)
}

func TestMapMultiOutput(t *testing.T) {
	s := &fixedSource{name: "x", eps: 1}
	a := leaf(t, 1, 2, 0, s)
	out, err := result.Map([]*result.Result{a}, 2, func(in []*value.Value) ([]*value.Value, error) {
		neg, err := value.Negate(value.Shared(in[0]))
		if err != nil {
			return nil, err
		}
		sq, err := value.Mul(value.Shared(in[0]), value.Shared(in[0]))
		if err != nil {
			return nil, err
		}
		return []*value.Value{neg, sq}, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	p, _ := out[1].Perturbed(0)
	assert.Equal(t, 4.0, scalarOf(t, p))

	_, err = result.Map([]*result.Result{a}, 3, func(in []*value.Value) ([]*value.Value, error) {
		return []*value.Value{in[0]}, nil
	})
	require.ErrorIs(t, err, result.ErrArity)
}

func TestSetPerturbedNeedsSource(t *testing.T) {
	r := result.New(value.FromReal(1))
	require.ErrorIs(t, r.SetPerturbed(0, value.FromReal(2), nil), result.ErrMissingSource)
}
