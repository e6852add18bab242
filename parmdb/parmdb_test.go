// SPDX-License-Identifier: MIT

package parmdb_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/funklet"
	"github.com/katalvlaran/calkernel/parmdb"
)

// store is what both implementations offer.
type store interface {
	parmdb.Store
	parmdb.Writer
	Names(ctx context.Context) ([]string, error)
}

func box(f0, f1, t0, t1 float64) domain.Box {
	return domain.Box{StartFreq: f0, EndFreq: f1, StartTime: t0, EndTime: t1}
}

func scalar(name string, c float64, b domain.Box) funklet.Record {
	return funklet.Record{Name: name, Type: "polynomial", Shape: []int{1, 1}, Coeff: []float64{c}, Domain: b}
}

func stores(t *testing.T) map[string]store {
	t.Helper()
	bs, err := parmdb.OpenBadger(parmdb.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })
	return map[string]store{"memory": parmdb.NewMemoryStore(), "badger": bs}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, scalar("gain", 2, box(100, 200, 0, 10))))
			require.NoError(t, s.Put(ctx, scalar("gain", 1, box(0, 100, 0, 10))))
			require.NoError(t, s.Put(ctx, scalar("phase", 0.5, box(0, 200, 0, 10))))
			require.NoError(t, s.PutDefault(ctx, scalar("MIM", 0, domain.Box{})))
			require.ErrorIs(t, s.Put(ctx, scalar("a/b", 0, box(0, 1, 0, 1))), parmdb.ErrInvalidName)

			recs, err := s.Lookup(ctx, "gain", box(50, 150, 0, 10))
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, []float64{1}, recs[0].Coeff, "ordered by domain start")
			assert.Equal(t, []float64{2}, recs[1].Coeff)

			recs, err = s.Lookup(ctx, "gain", box(200, 300, 0, 10))
			require.NoError(t, err)
			assert.Empty(t, recs, "touching domains do not intersect")

			def, err := s.DefaultValue(ctx, "MIM:3")
			require.NoError(t, err)
			assert.Equal(t, "MIM", def.Name)
			_, err = s.DefaultValue(ctx, "nothing")
			require.ErrorIs(t, err, parmdb.ErrNotFound)

			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"gain", "phase"}, names)

			// Write back replaces the record with the same domain start.
			f, err := funklet.FromRecord(scalar("gain", 7, box(0, 100, 0, 10)))
			require.NoError(t, err)
			require.NoError(t, s.Store(ctx, "gain", f))
			recs, err = s.Lookup(ctx, "gain", box(0, 100, 0, 10))
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, []float64{7}, recs[0].Coeff)
		})
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := parmdb.NewMemoryStore()
	require.NoError(t, s.Put(ctx, scalar("gain", 1, box(0, 100, 0, 10))))
	require.NoError(t, s.Put(ctx, scalar("gain", 2, box(100, 200, 0, 10))))
	require.NoError(t, s.PutDefault(ctx, scalar("Clock", 3, domain.Box{})))

	p, err := parmdb.Load(ctx, s, "gain", box(0, 200, 0, 10))
	require.NoError(t, err)
	assert.Len(t, p.Pieces(), 2)

	p, err = parmdb.Load(ctx, s, "Clock:CS001", box(0, 200, 0, 10))
	require.NoError(t, err)
	require.Len(t, p.Pieces(), 1)
	assert.Equal(t, "Clock:CS001", p.Pieces()[0].Name())
	assert.Equal(t, box(0, 200, 0, 10), p.Pieces()[0].Domain())

	_, err = parmdb.Load(ctx, s, "missing", box(0, 200, 0, 10))
	require.ErrorIs(t, err, parmdb.ErrNotFound)

	all, err := parmdb.LoadAll(ctx, s, []string{"gain", "Clock:CS002"}, box(0, 100, 0, 10))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bad := scalar("bad", 1, box(0, 100, 0, 10))
	bad.Type = "spline"
	require.NoError(t, s.Put(ctx, bad))
	_, err = parmdb.Load(ctx, s, "bad", box(0, 100, 0, 10))
	require.ErrorIs(t, err, funklet.ErrUnknownType)
}

const catalogYAML = `
defaults:
  - name: Gain
    type: polynomial
    shape: [1, 1]
    coeff: [1.0]
    perturbation: 1e-6
parms:
  - name: RA:CasA
    type: polynomial
    shape: [1, 1]
    coeff: [6.1234]
    domain: {start_freq: 1e8, end_freq: 2e8, start_time: 0, end_time: 3600}
  - name: MIM:0
    type: polynomial
    shape: [2, 1]
    coeff: [1, 0.5]
    relative: true
    perturbation: 1e-4
    domain: {start_freq: 1e8, end_freq: 2e8, start_time: 0, end_time: 3600}
`

func TestCatalogImport(t *testing.T) {
	ctx := context.Background()
	c, err := parmdb.LoadCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.Len(t, c.Parms, 2)
	assert.True(t, c.Parms[1].Relative)

	bs, err := parmdb.OpenBadger(parmdb.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer bs.Close()
	require.NoError(t, c.Import(ctx, bs))

	p, err := parmdb.Load(ctx, bs, "MIM:0", box(1e8, 2e8, 0, 3600))
	require.NoError(t, err)
	nx, ny := p.Pieces()[0].Shape()
	assert.Equal(t, [2]int{2, 1}, [2]int{nx, ny})

	p, err = parmdb.Load(ctx, bs, "Gain:CS001", box(1e8, 2e8, 0, 3600))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, p.Pieces()[0].Coeffs())
}

func TestCatalogRejectsBadRecords(t *testing.T) {
	_, err := parmdb.LoadCatalog(strings.NewReader(`
parms:
  - name: x
    type: chebyshev
    shape: [1, 1]
    coeff: [1]
    domain: {start_freq: 0, end_freq: 1, start_time: 0, end_time: 1}
`))
	require.ErrorIs(t, err, funklet.ErrUnknownType)

	_, err = parmdb.LoadCatalog(strings.NewReader(`
parms:
  - name: x
    type: polynomial
    shape: [2]
    coeff: [1, 2]
`))
	require.ErrorIs(t, err, funklet.ErrInvalidShape)

	_, err = parmdb.LoadCatalog(strings.NewReader("parms:\n  - name: x\n    colour: red\n"))
	require.Error(t, err)

	_, err = parmdb.OpenBadger(parmdb.BadgerConfig{})
	require.ErrorIs(t, err, parmdb.ErrPathRequired)
}
