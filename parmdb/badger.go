// SPDX-License-Identifier: MIT

package parmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/katalvlaran/calkernel/domain"
	"github.com/katalvlaran/calkernel/funklet"
)

// Key layout:
//
//	parm/<name>/<startFreq>:<startTime>  -> JSON funklet.Record
//	default/<name>                       -> JSON funklet.Record
const (
	parmPrefix    = "parm/"
	defaultPrefix = "default/"
)

// ErrPathRequired indicates a persistent BadgerConfig without a path.
var ErrPathRequired = errors.New("parmdb: badger path is required unless in memory")

// BadgerConfig configures OpenBadger.
type BadgerConfig struct {
	// Path is the database directory; created if missing.
	Path string
	// InMemory keeps everything in memory, for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives badger's own log lines; nil silences them.
	Logger *slog.Logger
}

// BadgerStore persists records in badger. It is safe for concurrent use.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct{ logger *slog.Logger }

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens (or creates) a store. The caller must Close it.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Path == "":
		return nil, ErrPathRequired
	default:
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create parmdb directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open parmdb: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

func recordKey(name string, box domain.Box) []byte {
	return []byte(parmPrefix + name + "/" +
		strconv.FormatFloat(box.StartFreq, 'g', -1, 64) + ":" +
		strconv.FormatFloat(box.StartTime, 'g', -1, 64))
}

// Lookup implements Store.
func (s *BadgerStore) Lookup(ctx context.Context, name string, box domain.Box) ([]funklet.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(parmPrefix + name + "/")
	var out []funklet.Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec funklet.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if rec.Domain.Intersects(box) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Lookup(%s): %w", name, err)
	}
	sortRecords(out)
	return out, nil
}

// DefaultValue implements Store.
func (s *BadgerStore) DefaultValue(ctx context.Context, name string) (funklet.Record, error) {
	if err := ctx.Err(); err != nil {
		return funklet.Record{}, err
	}
	var rec funklet.Record
	err := s.db.View(func(txn *badger.Txn) error {
		for _, n := range defaultCandidates(name) {
			item, err := txn.Get([]byte(defaultPrefix + n))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) })
		}
		return fmt.Errorf("default %q: %w", name, ErrNotFound)
	})
	if err != nil {
		return funklet.Record{}, err
	}
	return rec, nil
}

// Store implements Store.
func (s *BadgerStore) Store(ctx context.Context, name string, f *funklet.Funklet) error {
	rec := f.Record()
	rec.Name = name
	return s.Put(ctx, rec)
}

// Put writes rec under its name and domain start.
func (s *BadgerStore) Put(ctx context.Context, rec funklet.Record) error {
	if err := checkName(rec.Name); err != nil {
		return err
	}
	return s.set(ctx, recordKey(rec.Name, rec.Domain), rec)
}

// PutDefault writes the default record of rec.Name.
func (s *BadgerStore) PutDefault(ctx context.Context, rec funklet.Record) error {
	if err := checkName(rec.Name); err != nil {
		return err
	}
	return s.set(ctx, []byte(defaultPrefix+rec.Name), rec)
}

func (s *BadgerStore) set(ctx context.Context, key []byte, rec funklet.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// Names returns the names with at least one record, sorted.
func (s *BadgerStore) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(parmPrefix)
		last := ""
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			name := keyName(it.Item().Key())
			if name != last {
				out = append(out, name)
				last = name
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// keyName extracts <name> from parm/<name>/<start>.
func keyName(key []byte) string {
	rest := key[len(parmPrefix):]
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '/' {
			return string(rest[:i])
		}
	}
	return string(rest)
}
