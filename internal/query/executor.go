// Package query prepares and evaluates queries against a store connection.
//
// Query text is a CUE document compiled by package compiler. SELECT and
// ASK go straight to the connection; CONSTRUCT, DESCRIBE and updates are
// built here on top of Select and Match so every store target supports
// them, unless the connection evaluates updates itself (store.Updater).
package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/compiler"
	"github.com/roach88/rdfio/internal/convert"
	"github.com/roach88/rdfio/internal/metrics"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
	"github.com/roach88/rdfio/internal/txn"
)

// Executor prepares queries. The zero value is not usable; call
// NewExecutor.
type Executor struct {
	conv     *convert.Converter
	metrics  *metrics.Metrics
	sentinel string
}

// Option configures an Executor.
type Option func(*Executor)

// WithConverter sets the converter used to decode bindings.
func WithConverter(c *convert.Converter) Option {
	return func(e *Executor) { e.conv = c }
}

// WithMetrics records query counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor returns an executor with its own sentinel graph.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		conv:     convert.Default(),
		sentinel: "urn:uuid:" + uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExecutor = NewExecutor()

// Prepare compiles text with the default executor.
func Prepare(conn store.Connection, text string, ds *algebra.Dataset) (*PreparedQuery, error) {
	return defaultExecutor.Prepare(conn, text, ds)
}

// PrepareQuery validates q with the default executor.
func PrepareQuery(conn store.Connection, q algebra.Query, ds *algebra.Dataset) (*PreparedQuery, error) {
	return defaultExecutor.PrepareQuery(conn, q, ds)
}

// BuildRestriction builds a restriction with the default executor.
func BuildRestriction(defaultGraphs, namedGraphs []string) *algebra.Dataset {
	return defaultExecutor.BuildRestriction(defaultGraphs, namedGraphs)
}

// Sentinel returns the graph IRI that stands for "no default graph". No
// statement is ever stored in it.
func (e *Executor) Sentinel() string { return e.sentinel }

// BuildRestriction returns a dataset with the given default and named
// graphs. An empty defaultGraphs means no default graph at all, not every
// graph, so the sentinel graph is put in its place.
func (e *Executor) BuildRestriction(defaultGraphs, namedGraphs []string) *algebra.Dataset {
	ds := &algebra.Dataset{
		DefaultGraphs: append([]string(nil), defaultGraphs...),
		NamedGraphs:   append([]string{}, namedGraphs...),
	}
	if len(ds.DefaultGraphs) == 0 {
		ds.DefaultGraphs = []string{e.sentinel}
	}
	return ds
}

// PreparedQuery is a compiled query bound to a connection and restriction.
type PreparedQuery struct {
	exec  *Executor
	conn  store.Connection
	query algebra.Query
	ds    *algebra.Dataset
}

// Prepare compiles text. A nil ds means no restriction.
func (e *Executor) Prepare(conn store.Connection, text string, ds *algebra.Dataset) (*PreparedQuery, error) {
	q, err := compiler.Compile(text)
	if err != nil {
		return nil, err
	}
	return e.PrepareQuery(conn, q, ds)
}

// PrepareQuery validates an already built query.
func (e *Executor) PrepareQuery(conn store.Connection, q algebra.Query, ds *algebra.Dataset) (*PreparedQuery, error) {
	if err := algebra.Validate(q); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return &PreparedQuery{exec: e, conn: conn, query: q, ds: ds}, nil
}

// Query returns the compiled query.
func (p *PreparedQuery) Query() algebra.Query { return p.query }

// Form returns the query form, e.g. "select".
func (p *PreparedQuery) Form() string { return algebra.Form(p.query) }

// Evaluate runs the query. Lazy results hold a store cursor until they are
// exhausted or closed.
func (p *PreparedQuery) Evaluate(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		p.exec.metrics.RecordQuery(p.Form(), err, time.Since(start))
	}()

	switch q := p.query.(type) {
	case *algebra.Select:
		cur, err := p.conn.Select(ctx, q, p.ds)
		if err != nil {
			return nil, err
		}
		return &BindingsResult{cur: cur, conv: p.exec.conv}, nil
	case *algebra.Ask:
		v, err := p.ask(ctx, q)
		if err != nil {
			return nil, err
		}
		return BooleanResult{Value: v}, nil
	case *algebra.Construct:
		return p.construct(ctx, q)
	case *algebra.Describe:
		return p.describe(ctx, q)
	case *algebra.Modify:
		if err := p.modify(ctx, q); err != nil {
			return nil, err
		}
		return UnitResult{}, nil
	default:
		return nil, fmt.Errorf("unsupported query form %s", algebra.Form(q))
	}
}

func (p *PreparedQuery) ask(ctx context.Context, q *algebra.Ask) (bool, error) {
	if asker, ok := p.conn.(store.Asker); ok {
		return asker.Ask(ctx, q, p.ds)
	}
	cur, err := p.conn.Select(ctx, &algebra.Select{Where: q.Where, Filter: q.Filter, Limit: 1}, p.ds)
	if err != nil {
		return false, err
	}
	defer cur.Close()
	_, err = cur.Next()
	switch {
	case errors.Is(err, io.EOF):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// solutions selects every variable of where.
func solutions(where []algebra.Pattern, filter algebra.Predicate) *algebra.Select {
	return &algebra.Select{Projection: algebra.Vars(where), Where: where, Filter: filter}
}

func (p *PreparedQuery) construct(ctx context.Context, q *algebra.Construct) (*StatementsResult, error) {
	cur, err := p.conn.Select(ctx, solutions(q.Where, q.Filter), p.ds)
	if err != nil {
		return nil, err
	}
	var pending []rdf.Statement
	next := func() (rdf.Statement, error) {
		for len(pending) == 0 {
			sol, err := cur.Next()
			if err != nil {
				return rdf.Statement{}, err
			}
			for _, tp := range q.Template {
				if st, ok := tp.Instantiate(sol); ok {
					pending = append(pending, st)
				}
			}
		}
		st := pending[0]
		pending = pending[1:]
		return st, nil
	}
	return &StatementsResult{next: next, close: cur.Close, seen: map[string]bool{}}, nil
}

// describe resolves the resources first, then matches each one as a
// subject. Only one cursor is open at a time.
func (p *PreparedQuery) describe(ctx context.Context, q *algebra.Describe) (*StatementsResult, error) {
	var resources []rdf.Term
	seen := map[string]bool{}
	addResource := func(t rdf.Term) {
		if t == nil || !rdf.IsResource(t) {
			return
		}
		if k := rdf.FormatTerm(t); !seen[k] {
			seen[k] = true
			resources = append(resources, t)
		}
	}
	var vars []string
	for _, n := range q.Resources {
		if n.IsVar() {
			vars = append(vars, n.Var)
		} else {
			addResource(n.Term)
		}
	}
	if len(vars) > 0 {
		cur, err := p.conn.Select(ctx, &algebra.Select{Projection: vars, Where: q.Where, Filter: q.Filter, Distinct: true}, p.ds)
		if err != nil {
			return nil, err
		}
		sols, err := store.CollectSolutions(cur)
		if err != nil {
			return nil, err
		}
		for _, sol := range sols {
			for _, v := range vars {
				addResource(sol[v])
			}
		}
	}

	var cur store.StatementCursor
	release := func() error {
		if cur == nil {
			return nil
		}
		err := cur.Close()
		cur = nil
		return err
	}
	next := func() (rdf.Statement, error) {
		for {
			if cur == nil {
				if len(resources) == 0 {
					return rdf.Statement{}, io.EOF
				}
				r := resources[0]
				resources = resources[1:]
				c, err := p.conn.Match(ctx, algebra.Pattern{S: algebra.T(r), P: algebra.V("p"), O: algebra.V("o")}, p.ds)
				if err != nil {
					return rdf.Statement{}, err
				}
				cur = c
			}
			st, err := cur.Next()
			if errors.Is(err, io.EOF) {
				release()
				continue
			}
			if err != nil {
				return rdf.Statement{}, err
			}
			return st, nil
		}
	}
	return &StatementsResult{next: next, close: release, seen: map[string]bool{}}, nil
}

// modify deletes then inserts the instantiated templates. All solutions
// are collected before anything is written.
func (p *PreparedQuery) modify(ctx context.Context, q *algebra.Modify) error {
	if updater, ok := p.conn.(store.Updater); ok {
		return updater.Update(ctx, q, p.ds)
	}

	sols := []algebra.Solution{{}}
	if len(q.Where) > 0 {
		cur, err := p.conn.Select(ctx, solutions(q.Where, q.Filter), p.ds)
		if err != nil {
			return err
		}
		if sols, err = store.CollectSolutions(cur); err != nil {
			return err
		}
	}
	var del, ins []rdf.Statement
	for _, sol := range sols {
		for _, tp := range q.Delete {
			if st, ok := tp.Instantiate(sol); ok {
				del = append(del, st)
			}
		}
		for _, tp := range q.Insert {
			if st, ok := tp.Instantiate(sol); ok {
				ins = append(ins, st)
			}
		}
	}

	apply := func(ctx context.Context) (struct{}, error) {
		if len(del) > 0 {
			if err := p.conn.Remove(ctx, del...); err != nil {
				return struct{}{}, err
			}
		}
		if len(ins) > 0 {
			if err := p.conn.Add(ctx, ins...); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	}
	if p.conn.InTransaction() {
		_, err := apply(ctx)
		return err
	}
	_, err := txn.WithTransaction(ctx, p.conn, apply, txn.WithMetrics(p.exec.metrics))
	return err
}
