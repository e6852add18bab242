// SPDX-License-Identifier: MIT

// Package parmdb is the parameter store: persisted funklet records keyed by
// parameter name and validity domain, plus per-name default values.
//
// The kernel reads parameters once per solve domain (Load) and writes
// solved coefficients back (Store). MemoryStore serves tests and small
// runs; BadgerStore persists records in a badger key-value database.
// Catalog imports records from YAML.
package parmdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/funklet"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a parameter with neither a record intersecting
	// the requested domain nor a default value.
	ErrNotFound = errors.New("parmdb: parameter not found")

	// ErrInvalidName indicates an empty parameter name or one containing
	// the key separator.
	ErrInvalidName = errors.New("parmdb: invalid parameter name")
)

// Store is the parameter store consumed by the kernel.
type Store interface {
	// Lookup returns the records of name whose domain intersects box,
	// ordered by domain start time then start frequency.
	Lookup(ctx context.Context, name string, box domain.Box) ([]funklet.Record, error)

	// DefaultValue returns the default record for name. Names of the form
	// "A:B:C" fall back to the defaults of "A:B" and then "A".
	DefaultValue(ctx context.Context, name string) (funklet.Record, error)

	// Store writes the current coefficients of f under name, replacing the
	// record with the same domain start.
	Store(ctx context.Context, name string, f *funklet.Funklet) error
}

// Writer accepts raw records, e.g. from a Catalog.
type Writer interface {
	Put(ctx context.Context, rec funklet.Record) error
	PutDefault(ctx context.Context, rec funklet.Record) error
}

// Load builds the Parameter name over box from the records intersecting
// box, or from its default value stretched over box when there are none.
// Record errors (unknown type, bad shape) surface here, at load time.
func Load(ctx context.Context, s Store, name string, box domain.Box) (*funklet.Parameter, error) {
	recs, err := s.Lookup(ctx, name, box)
	if err != nil {
		return nil, fmt.Errorf("Load(%s): %w", name, err)
	}
	if len(recs) == 0 {
		def, err := s.DefaultValue(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("Load(%s): %w", name, err)
		}
		def.Name = name
		def.Domain = box
		recs = []funklet.Record{def}
	}

	pieces := make([]*funklet.Funklet, 0, len(recs))
	for _, rec := range recs {
		f, err := funklet.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("Load(%s): %w", name, err)
		}
		pieces = append(pieces, f)
	}
	return funklet.NewParameter(name, pieces...)
}

// LoadAll loads every name over box.
func LoadAll(ctx context.Context, s Store, names []string, box domain.Box) (map[string]*funklet.Parameter, error) {
	out := make(map[string]*funklet.Parameter, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := Load(ctx, s, name, box)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

// checkName rejects names that would break key layout.
func checkName(name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// defaultCandidates lists name and its ':'-separated prefixes, longest first.
func defaultCandidates(name string) []string {
	out := []string{name}
	for i := strings.LastIndexByte(name, ':'); i > 0; i = strings.LastIndexByte(name, ':') {
		name = name[:i]
		out = append(out, name)
	}
	return out
}

// sameStart reports whether two domains share their start corner.
func sameStart(a, b domain.Box) bool {
	return domain.Near(a.StartFreq, b.StartFreq) && domain.Near(a.StartTime, b.StartTime)
}

// sortRecords orders records by start time, then start frequency.
func sortRecords(recs []funklet.Record) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].Domain, recs[j].Domain
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.StartFreq < b.StartFreq
	})
}

// cloneRecord deep-copies the slices of rec.
func cloneRecord(rec funklet.Record) funklet.Record {
	rec.Shape = append([]int(nil), rec.Shape...)
	rec.Coeff = append([]float64(nil), rec.Coeff...)
	if rec.Mask != nil {
		rec.Mask = append([]bool(nil), rec.Mask...)
	}
	return rec
}
