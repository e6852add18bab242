// SPDX-License-Identifier: MIT

package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/calkernel/domain"
)

func TestNewBoxValidation(t *testing.T) {
	_, err := domain.NewBox(2, 1, 0, 1)
	require.ErrorIs(t, err, domain.ErrInvalidBox)

	b, err := domain.NewBox(1, 1, 0, 0)
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestBoxRelations(t *testing.T) {
	a := domain.Box{StartFreq: 0, EndFreq: 10, StartTime: 0, EndTime: 10}
	b := domain.Box{StartFreq: 5, EndFreq: 15, StartTime: 5, EndTime: 15}
	touch := domain.Box{StartFreq: 10 + 1e-11, EndFreq: 20, StartTime: 0, EndTime: 10}

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(touch), "edge contact is not an overlap")

	assert.Equal(t, domain.Box{StartFreq: 5, EndFreq: 10, StartTime: 5, EndTime: 10}, a.Intersect(b))
	assert.Equal(t, domain.Box{StartFreq: 0, EndFreq: 15, StartTime: 0, EndTime: 15}, a.Unite(b))

	inner := domain.Box{StartFreq: 0, EndFreq: 10 + 1e-11, StartTime: 2, EndTime: 3}
	assert.True(t, a.Contains(inner), "edges within tolerance are inclusive")
	assert.False(t, a.Contains(b))
	assert.True(t, a.ContainsPoint(10, 10))
	assert.False(t, a.ContainsPoint(10.1, 10))
}

func TestAxisLocateTiling(t *testing.T) {
	const n = 7
	ax, err := domain.NewRegularAxis(4.5e9, 0.1, n)
	require.NoError(t, err)
	require.Equal(t, n, ax.Len())

	first, err := ax.Locate(ax.Start(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	last, err := ax.Locate(ax.End(), false)
	require.NoError(t, err)
	assert.Equal(t, n-1, last)

	last, err = ax.Locate(ax.End(), true)
	require.NoError(t, err)
	assert.Equal(t, n-1, last)

	_, err = ax.Locate(ax.End()+1, true)
	require.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestAxisLocateBias(t *testing.T) {
	ax, err := domain.NewAxis([]float64{0, 1, 2, 3})
	require.NoError(t, err)

	right, err := ax.Locate(1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, right)

	left, err := ax.Locate(1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	// Rounding noise below an edge still snaps to it.
	right, err = ax.Locate(2-1e-12, true)
	require.NoError(t, err)
	assert.Equal(t, 2, right)

	mid, err := ax.Locate(2.5, false)
	require.NoError(t, err)
	assert.Equal(t, 2, mid)

	_, err = domain.NewAxis([]float64{0, 0})
	require.ErrorIs(t, err, domain.ErrEmptyAxis)
}

func TestGridAndRequest(t *testing.T) {
	freq, _ := domain.NewRegularAxis(1e8, 1e6, 2)
	time, _ := domain.NewRegularAxis(0, 10, 3)
	g, err := domain.NewGrid(freq, time)
	require.NoError(t, err)

	assert.Equal(t, domain.Box{StartFreq: 1e8, EndFreq: 1.02e8, StartTime: 0, EndTime: 30}, g.Box())
	cell, err := g.Cell(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, cell.StartTime)

	fi, ti, err := g.Locate(1.015e8, 25, false)
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 2}, [2]int{fi, ti})

	var seq domain.Sequence
	active := []domain.ParamID{4, 2}
	r1 := seq.NewRequest(g, active)
	r2 := seq.NewRequest(g, active)
	assert.Less(t, r1.Generation(), r2.Generation())
	assert.Equal(t, r2.Generation(), seq.Last())

	var other domain.Sequence
	r3 := other.NewRequest(g, active)
	assert.NotEqual(t, r1.Generation(), r3.Generation(), "generations are unique across sequences")
	assert.NotEqual(t, r2.Generation(), r3.Generation())

	active[0] = 99
	assert.Equal(t, []domain.ParamID{4, 2}, r1.Active(), "request is immutable")
	idx, ok := r1.Index(2)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.False(t, r1.IsActive(99))
}
