package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/codec"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
)

type conn struct {
	repo   *Repository
	txn    *badger.Txn
	closed bool
}

func (c *conn) Begin(ctx context.Context) error {
	if c.closed {
		return store.ErrClosed
	}
	if c.txn != nil {
		return store.ErrTransactionActive
	}
	c.txn = c.repo.db.NewTransaction(true)
	return nil
}

func (c *conn) Commit(ctx context.Context) error {
	if c.txn == nil {
		return store.ErrNoTransaction
	}
	txn := c.txn
	c.txn = nil
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *conn) Rollback(ctx context.Context) error {
	if c.txn == nil {
		return store.ErrNoTransaction
	}
	c.txn.Discard()
	c.txn = nil
	return nil
}

func (c *conn) InTransaction() bool { return c.txn != nil }

// write applies fn to every index key of every statement, inside the open
// transaction or else through a write batch.
func (c *conn) write(stmts []rdf.Statement, set func(k []byte) error) error {
	for _, st := range stmts {
		rec, err := codec.Encode(st)
		if err != nil {
			return err
		}
		for _, ix := range c.repo.indexes {
			if err := set(ix.key(rec)); err != nil {
				if errors.Is(err, badger.ErrTxnTooBig) {
					return fmt.Errorf("transaction too large, commit in smaller batches: %w", err)
				}
				return err
			}
		}
	}
	return nil
}

func (c *conn) Add(ctx context.Context, stmts ...rdf.Statement) error {
	if c.closed {
		return store.ErrClosed
	}
	var err error
	if c.txn != nil {
		err = c.write(stmts, func(k []byte) error { return c.txn.Set(k, []byte{}) })
	} else {
		wb := c.repo.db.NewWriteBatch()
		defer wb.Cancel()
		err = c.write(stmts, func(k []byte) error { return wb.Set(k, []byte{}) })
		if err == nil {
			err = wb.Flush()
		}
	}
	if err != nil {
		return fmt.Errorf("add statements: %w", err)
	}
	return nil
}

func (c *conn) Remove(ctx context.Context, stmts ...rdf.Statement) error {
	if c.closed {
		return store.ErrClosed
	}
	var err error
	if c.txn != nil {
		err = c.write(stmts, c.txn.Delete)
	} else {
		wb := c.repo.db.NewWriteBatch()
		defer wb.Cancel()
		err = c.write(stmts, wb.Delete)
		if err == nil {
			err = wb.Flush()
		}
	}
	if err != nil {
		return fmt.Errorf("remove statements: %w", err)
	}
	return nil
}

// reader returns the transaction reads go through and a release function.
// Outside an explicit transaction each read gets its own snapshot.
func (c *conn) reader() (*badger.Txn, func()) {
	if c.txn != nil {
		return c.txn, func() {}
	}
	txn := c.repo.db.NewTransaction(false)
	return txn, txn.Discard
}

// scan yields the statements matching p that ds makes visible.
func (c *conn) scan(txn *badger.Txn, p algebra.Pattern, ds *algebra.Dataset) iter.Seq2[rdf.Statement, error] {
	ix, prefix := choose(c.repo.indexes, bound(p, ds))
	seq := func(yield func(rdf.Statement, error) bool) {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			st, err := ix.decode(it.Item().KeyCopy(nil))
			if err != nil {
				yield(rdf.Statement{}, err)
				return
			}
			if !ds.Visible(algebra.GraphName(st.Context), !p.InDefaultGraph()) {
				continue
			}
			if _, ok := p.Match(st, nil); !ok {
				continue
			}
			if !yield(st, nil) {
				return
			}
		}
	}
	if txn != c.txn {
		return seq
	}
	// Badger allows one iterator at a time on a read-write transaction, so
	// scans inside one are drained before anything is yielded.
	return func(yield func(rdf.Statement, error) bool) {
		var buf []rdf.Statement
		for st, err := range seq {
			if err != nil {
				yield(rdf.Statement{}, err)
				return
			}
			buf = append(buf, st)
		}
		for _, st := range buf {
			if !yield(st, nil) {
				return
			}
		}
	}
}

// join evaluates patterns left to right as a nested loop, extending sol.
func (c *conn) join(txn *badger.Txn, patterns []algebra.Pattern, sol algebra.Solution, ds *algebra.Dataset) iter.Seq2[algebra.Solution, error] {
	return func(yield func(algebra.Solution, error) bool) {
		if len(patterns) == 0 {
			if sol == nil {
				sol = algebra.Solution{}
			}
			yield(sol, nil)
			return
		}
		head := patterns[0]
		for st, err := range c.scan(txn, head.Resolve(sol), ds) {
			if err != nil {
				yield(nil, err)
				return
			}
			ext, ok := head.Match(st, sol)
			if !ok {
				continue
			}
			for out, err := range c.join(txn, patterns[1:], ext, ds) {
				if !yield(out, err) || err != nil {
					return
				}
			}
		}
	}
}

func (c *conn) Match(ctx context.Context, p algebra.Pattern, ds *algebra.Dataset) (store.StatementCursor, error) {
	if c.closed {
		return nil, store.ErrClosed
	}
	txn, release := c.reader()
	next, stop := iter.Pull2(c.scan(txn, p, ds))
	return &statementCursor{ctx: ctx, next: next, stop: stop, release: release}, nil
}

func (c *conn) Select(ctx context.Context, q *algebra.Select, ds *algebra.Dataset) (store.BindingCursor, error) {
	if c.closed {
		return nil, store.ErrClosed
	}
	if err := algebra.Validate(q); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	vars := q.ProjectedVars()
	txn, release := c.reader()
	next, stop := iter.Pull2(c.solutions(txn, q, vars, ds))
	return &bindingCursor{ctx: ctx, vars: vars, next: next, stop: stop, release: release}, nil
}

// solutions applies the solution modifiers of q to the join of its patterns.
func (c *conn) solutions(txn *badger.Txn, q *algebra.Select, vars []string, ds *algebra.Dataset) iter.Seq2[algebra.Solution, error] {
	return func(yield func(algebra.Solution, error) bool) {
		var seen map[string]bool
		if q.Distinct {
			seen = map[string]bool{}
		}
		emit := modifiers(q, yield)
		if len(q.Order) > 0 {
			var buf []algebra.Solution
			for sol, err := range c.join(txn, q.Where, nil, ds) {
				if err != nil {
					yield(nil, err)
					return
				}
				if algebra.Eval(q.Filter, sol) {
					buf = append(buf, sol)
				}
			}
			sortSolutions(buf, q.Order)
			for _, sol := range buf {
				if !emitDistinct(sol.Project(vars), vars, seen, emit) {
					return
				}
			}
			return
		}
		for sol, err := range c.join(txn, q.Where, nil, ds) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !algebra.Eval(q.Filter, sol) {
				continue
			}
			if !emitDistinct(sol.Project(vars), vars, seen, emit) {
				return
			}
		}
	}
}

func emitDistinct(sol algebra.Solution, vars []string, seen map[string]bool, emit func(algebra.Solution) bool) bool {
	if seen != nil {
		k := sol.Key(vars)
		if seen[k] {
			return true
		}
		seen[k] = true
	}
	return emit(sol)
}

// modifiers returns an emitter applying OFFSET and LIMIT. It returns false
// once no more solutions are wanted.
func modifiers(q *algebra.Select, yield func(algebra.Solution, error) bool) func(algebra.Solution) bool {
	skipped, sent := 0, 0
	return func(sol algebra.Solution) bool {
		if skipped < q.Offset {
			skipped++
			return true
		}
		if q.Limit > 0 && sent >= q.Limit {
			return false
		}
		sent++
		if !yield(sol, nil) {
			return false
		}
		return q.Limit == 0 || sent < q.Limit
	}
}

// sortSolutions orders by the encoded terms of vars, the same order the
// SQLite targets produce.
func sortSolutions(sols []algebra.Solution, vars []string) {
	sort.SliceStable(sols, func(i, j int) bool {
		for _, v := range vars {
			a, b := encoded(sols[i][v]), encoded(sols[j][v])
			if a != b {
				return a < b
			}
		}
		return false
	})
}

func encoded(t rdf.Term) string {
	if t == nil {
		return ""
	}
	return rdf.FormatTerm(t)
}

func (c *conn) Ask(ctx context.Context, q *algebra.Ask, ds *algebra.Dataset) (bool, error) {
	if c.closed {
		return false, store.ErrClosed
	}
	txn, release := c.reader()
	defer release()
	for sol, err := range c.join(txn, q.Where, nil, ds) {
		if err != nil {
			return false, fmt.Errorf("ask: %w", err)
		}
		if algebra.Eval(q.Filter, sol) {
			return true, nil
		}
	}
	return false, nil
}

func (c *conn) Size(ctx context.Context) (int64, error) {
	if c.closed {
		return 0, store.ErrClosed
	}
	txn, release := c.reader()
	defer release()
	prefix := c.repo.indexes[0].prefix()
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	var n int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n, nil
}

func (c *conn) Contexts(ctx context.Context) ([]rdf.Term, error) {
	if c.closed {
		return nil, store.ErrClosed
	}
	txn, release := c.reader()
	defer release()
	seen := map[string]rdf.Term{}
	all := algebra.Pattern{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o"), G: algebra.V("g")}
	for st, err := range c.scan(txn, all, nil) {
		if err != nil {
			return nil, fmt.Errorf("query contexts: %w", err)
		}
		seen[rdf.FormatTerm(st.Context)] = st.Context
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]rdf.Term, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out, nil
}

func (c *conn) Clear(ctx context.Context, graphs ...rdf.Term) error {
	if c.closed {
		return store.ErrClosed
	}
	var doomed []rdf.Statement
	txn, release := c.reader()
	all := algebra.Pattern{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o")}
	var ds *algebra.Dataset
	if len(graphs) > 0 {
		ds = &algebra.Dataset{}
		for _, g := range graphs {
			ds.DefaultGraphs = append(ds.DefaultGraphs, algebra.GraphName(g))
		}
	}
	for st, err := range c.scan(txn, all, ds) {
		if err != nil {
			release()
			return fmt.Errorf("clear: %w", err)
		}
		doomed = append(doomed, st)
	}
	release()
	if err := c.Remove(ctx, doomed...); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.txn != nil {
		c.txn.Discard()
		c.txn = nil
	}
	return nil
}

type statementCursor struct {
	ctx     context.Context
	next    func() (rdf.Statement, error, bool)
	stop    func()
	release func()
	done    bool
}

func (c *statementCursor) Next() (rdf.Statement, error) {
	if c.done {
		return rdf.Statement{}, io.EOF
	}
	if err := c.ctx.Err(); err != nil {
		c.Close()
		return rdf.Statement{}, err
	}
	st, err, ok := c.next()
	if !ok {
		c.Close()
		return rdf.Statement{}, io.EOF
	}
	if err != nil {
		c.Close()
		return rdf.Statement{}, fmt.Errorf("iterate statements: %w", err)
	}
	return st, nil
}

func (c *statementCursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	c.stop()
	c.release()
	return nil
}

type bindingCursor struct {
	ctx     context.Context
	vars    []string
	next    func() (algebra.Solution, error, bool)
	stop    func()
	release func()
	done    bool
}

func (c *bindingCursor) Vars() []string { return c.vars }

func (c *bindingCursor) Next() (algebra.Solution, error) {
	if c.done {
		return nil, io.EOF
	}
	if err := c.ctx.Err(); err != nil {
		c.Close()
		return nil, err
	}
	sol, err, ok := c.next()
	if !ok {
		c.Close()
		return nil, io.EOF
	}
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("iterate solutions: %w", err)
	}
	return sol, nil
}

func (c *bindingCursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	c.stop()
	c.release()
	return nil
}
