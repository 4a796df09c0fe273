package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/rdf"
)

var (
	// ErrNoTransaction is returned by Commit and Rollback when no transaction
	// is in progress.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrTransactionActive is returned by Begin when a transaction is
	// already in progress on the connection.
	ErrTransactionActive = errors.New("transaction already in progress")

	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("connection closed")
)

// StatementCursor is a lazy sequence of statements.
type StatementCursor interface {
	// Next returns the next statement, or io.EOF after the last one.
	Next() (rdf.Statement, error)
	Close() error
}

// BindingCursor is a lazy sequence of solutions.
type BindingCursor interface {
	// Vars returns the projected variables in order.
	Vars() []string
	// Next returns the next solution, or io.EOF after the last one.
	// Unbound variables are absent from the solution.
	Next() (algebra.Solution, error)
	Close() error
}

// Connection is a session with a store.
type Connection interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTransaction() bool

	// Add inserts statements. Duplicates are ignored.
	Add(ctx context.Context, stmts ...rdf.Statement) error
	// Remove deletes exactly the given statements.
	Remove(ctx context.Context, stmts ...rdf.Statement) error

	Match(ctx context.Context, p algebra.Pattern, ds *algebra.Dataset) (StatementCursor, error)
	Select(ctx context.Context, q *algebra.Select, ds *algebra.Dataset) (BindingCursor, error)

	// Size returns the number of statements across all graphs.
	Size(ctx context.Context) (int64, error)
	// Contexts returns the named graphs that hold at least one statement.
	Contexts(ctx context.Context) ([]rdf.Term, error)
	// Clear removes every statement, or only those in the given graphs. A
	// nil graph selects the default graph.
	Clear(ctx context.Context, graphs ...rdf.Term) error

	// Close rolls back an open transaction and releases the connection.
	Close() error
}

// Asker is implemented by connections that evaluate ASK natively.
type Asker interface {
	Ask(ctx context.Context, q *algebra.Ask, ds *algebra.Dataset) (bool, error)
}

// Updater is implemented by connections that evaluate updates natively.
type Updater interface {
	Update(ctx context.Context, q *algebra.Modify, ds *algebra.Dataset) error
}

// Repository hands out connections to one store.
type Repository interface {
	Connect(ctx context.Context) (Connection, error)
	Close() error
}

// OpenFunc opens a repository for a store configuration.
type OpenFunc func(ctx context.Context, cfg config.Store) (Repository, error)

var (
	openersMu sync.RWMutex
	openers   = map[string]OpenFunc{
		config.KindMemory: openMemory,
		config.KindSQLite: openSQLite,
	}
)

// Register makes a store kind available to Open.
func Register(kind string, fn OpenFunc) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[kind] = fn
}

// Kinds returns the registered store kinds, sorted.
func Kinds() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	kinds := make([]string, 0, len(openers))
	for k := range openers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open validates cfg and opens the repository for its kind.
func Open(ctx context.Context, cfg config.Store) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	openersMu.RLock()
	fn, ok := openers[cfg.Kind]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store kind %q is not registered", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// CollectStatements drains a cursor.
func CollectStatements(cur StatementCursor) ([]rdf.Statement, error) {
	defer cur.Close()
	var out []rdf.Statement
	for {
		st, err := cur.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, st)
	}
}

// CollectSolutions drains a cursor.
func CollectSolutions(cur BindingCursor) ([]algebra.Solution, error) {
	defer cur.Close()
	var out []algebra.Solution
	for {
		sol, err := cur.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, sol)
	}
}
