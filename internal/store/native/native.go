// Package native is an on-disk statement store in Badger. Every statement is
// written once per configured index, each index a permutation of subject,
// predicate, object and context, so that any pattern can be answered by a
// prefix scan.
package native

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/store"
)

func init() {
	store.Register(config.KindNative, func(_ context.Context, cfg config.Store) (store.Repository, error) {
		return Open(cfg.Path, cfg.IndexOrder)
	})
}

// IndexMismatchError is returned when a database is reopened with a
// different index order than it was created with.
type IndexMismatchError struct {
	Stored, Requested string
}

func (e *IndexMismatchError) Error() string {
	return fmt.Sprintf("database was created with index order %q, not %q", e.Stored, e.Requested)
}

// Repository is a Badger-backed store.
type Repository struct {
	db      *badger.DB
	indexes []index
	closed  atomic.Bool
}

// Open opens or creates the database in dir. An empty order selects
// config.DefaultIndexOrder; an empty dir opens an in-memory database.
func Open(dir, order string) (*Repository, error) {
	if order == "" {
		order = config.DefaultIndexOrder
	}
	if err := config.ValidateIndexOrder(order); err != nil {
		return nil, fmt.Errorf("index order: %w", err)
	}
	indexes := parseIndexOrder(order)
	canonical := joinIndexes(indexes)

	opts := badger.DefaultOptions(dir).WithLogger(logger{slog.Default()})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	err = db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(metaIndexes)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(metaIndexes, []byte(canonical))
		}
		if err != nil {
			return err
		}
		stored, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if string(stored) != canonical {
			return &IndexMismatchError{Stored: string(stored), Requested: canonical}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("native store opened", "dir", dir, "indexes", canonical)
	return &Repository{db: db, indexes: indexes}, nil
}

// Connect returns a new connection.
func (r *Repository) Connect(ctx context.Context) (store.Connection, error) {
	if r.closed.Load() {
		return nil, store.ErrClosed
	}
	return &conn{repo: r}, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}

// Indexes returns the configured index order.
func (r *Repository) Indexes() string {
	return joinIndexes(r.indexes)
}

func joinIndexes(indexes []index) string {
	var out string
	for i, ix := range indexes {
		if i > 0 {
			out += ","
		}
		out += string(ix)
	}
	return out
}

// logger routes Badger's log output through slog. Badger's info messages
// are chatty, so they go out at debug level.
type logger struct {
	l *slog.Logger
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.l.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l logger) Warningf(format string, args ...interface{}) {
	l.l.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l logger) Infof(format string, args ...interface{}) {
	l.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
