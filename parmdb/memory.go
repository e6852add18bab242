// SPDX-License-Identifier: MIT

package parmdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/funklet"
)

// MemoryStore keeps records in maps. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	parms    map[string][]funklet.Record
	defaults map[string]funklet.Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		parms:    make(map[string][]funklet.Record),
		defaults: make(map[string]funklet.Record),
	}
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(_ context.Context, name string, box domain.Box) ([]funklet.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []funklet.Record
	for _, rec := range m.parms[name] {
		if rec.Domain.Intersects(box) {
			out = append(out, cloneRecord(rec))
		}
	}
	sortRecords(out)
	return out, nil
}

// DefaultValue implements Store.
func (m *MemoryStore) DefaultValue(_ context.Context, name string) (funklet.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range defaultCandidates(name) {
		if rec, ok := m.defaults[n]; ok {
			return cloneRecord(rec), nil
		}
	}
	return funklet.Record{}, fmt.Errorf("default %q: %w", name, ErrNotFound)
}

// Store implements Store.
func (m *MemoryStore) Store(ctx context.Context, name string, f *funklet.Funklet) error {
	rec := f.Record()
	rec.Name = name
	return m.Put(ctx, rec)
}

// Put inserts rec, replacing a record of the same name and domain start.
func (m *MemoryStore) Put(_ context.Context, rec funklet.Record) error {
	if err := checkName(rec.Name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.parms[rec.Name]
	for i := range recs {
		if sameStart(recs[i].Domain, rec.Domain) {
			recs[i] = cloneRecord(rec)
			return nil
		}
	}
	m.parms[rec.Name] = append(recs, cloneRecord(rec))
	return nil
}

// PutDefault sets the default record of rec.Name.
func (m *MemoryStore) PutDefault(_ context.Context, rec funklet.Record) error {
	if err := checkName(rec.Name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults[rec.Name] = cloneRecord(rec)
	return nil
}

// Names returns the names with at least one record, sorted.
func (m *MemoryStore) Names(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.parms))
	for n := range m.parms {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}
