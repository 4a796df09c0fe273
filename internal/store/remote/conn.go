package remote

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/sparql"
	"github.com/roach88/rdfio/internal/store"
)

const (
	sizeQuery     = "SELECT (COUNT(*) AS ?n) WHERE {\n  { ?s ?p ?o } UNION { GRAPH ?g { ?s ?p ?o } }\n}\n"
	contextsQuery = "SELECT DISTINCT ?g WHERE {\n  GRAPH ?g { ?s ?p ?o }\n}\nORDER BY ?g\n"
)

type conn struct {
	repo    *Repository
	inTx    bool
	pending []string
	closed  bool
}

func (c *conn) Begin(ctx context.Context) error {
	if c.closed {
		return store.ErrClosed
	}
	if c.inTx {
		return store.ErrTransactionActive
	}
	c.inTx = true
	c.pending = nil
	return nil
}

// Commit sends the buffered writes as a single update request.
func (c *conn) Commit(ctx context.Context) error {
	if !c.inTx {
		return store.ErrNoTransaction
	}
	pending := c.pending
	c.inTx, c.pending = false, nil
	if len(pending) == 0 {
		return nil
	}
	if err := c.repo.update(ctx, strings.Join(pending, ";\n")); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *conn) Rollback(ctx context.Context) error {
	if !c.inTx {
		return store.ErrNoTransaction
	}
	c.inTx, c.pending = false, nil
	return nil
}

func (c *conn) InTransaction() bool { return c.inTx }

// send buffers an update inside a transaction or sends it right away.
func (c *conn) send(ctx context.Context, u string) error {
	if c.closed {
		return store.ErrClosed
	}
	if c.repo.updateURL == "" {
		return ErrReadOnly
	}
	if c.inTx {
		c.pending = append(c.pending, strings.TrimSuffix(u, "\n"))
		return nil
	}
	return c.repo.update(ctx, u)
}

func (c *conn) Add(ctx context.Context, stmts ...rdf.Statement) error {
	if len(stmts) == 0 {
		return nil
	}
	if err := c.send(ctx, sparql.InsertData(stmts)); err != nil {
		return fmt.Errorf("add statements: %w", err)
	}
	return nil
}

func (c *conn) Remove(ctx context.Context, stmts ...rdf.Statement) error {
	if len(stmts) == 0 {
		return nil
	}
	u, err := sparql.DeleteData(stmts)
	if err == nil {
		err = c.send(ctx, u)
	}
	if err != nil {
		return fmt.Errorf("remove statements: %w", err)
	}
	return nil
}

// Update evaluates a DELETE/INSERT on the server.
func (c *conn) Update(ctx context.Context, q *algebra.Modify, ds *algebra.Dataset) error {
	u, err := sparql.Modify(q, ds)
	if err == nil {
		err = c.send(ctx, u)
	}
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func (c *conn) Clear(ctx context.Context, graphs ...rdf.Term) error {
	u, err := sparql.Clear(graphs)
	if err == nil {
		err = c.send(ctx, u)
	}
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (c *conn) run(ctx context.Context, q string) (*sparql.ResultsDecoder, io.Closer, error) {
	if c.closed {
		return nil, nil, store.ErrClosed
	}
	body, err := c.repo.query(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	dec, err := sparql.NewResultsDecoder(body)
	if err != nil {
		body.Close()
		return nil, nil, fmt.Errorf("decode results: %w", err)
	}
	return dec, body, nil
}

func (c *conn) Select(ctx context.Context, q *algebra.Select, ds *algebra.Dataset) (store.BindingCursor, error) {
	text, err := sparql.Select(q, ds)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	dec, body, err := c.run(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	vars := q.ProjectedVars()
	if len(q.Projection) == 0 && len(dec.Vars()) > 0 {
		vars = dec.Vars()
	}
	return &bindingCursor{dec: dec, body: body, vars: vars}, nil
}

// Match is evaluated as a SELECT over the pattern's variables. Without a
// dataset the pattern is sent as is, so which graphs a default-graph
// pattern sees is up to the server.
func (c *conn) Match(ctx context.Context, p algebra.Pattern, ds *algebra.Dataset) (store.StatementCursor, error) {
	cur, err := c.Select(ctx, &algebra.Select{
		Projection: algebra.Vars([]algebra.Pattern{p}),
		Where:      []algebra.Pattern{p},
	}, ds)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	return &statementCursor{pattern: p, cur: cur}, nil
}

func (c *conn) Ask(ctx context.Context, q *algebra.Ask, ds *algebra.Dataset) (bool, error) {
	text, err := sparql.Ask(q, ds)
	if err != nil {
		return false, fmt.Errorf("ask: %w", err)
	}
	dec, body, err := c.run(ctx, text)
	if err != nil {
		return false, fmt.Errorf("ask: %w", err)
	}
	defer body.Close()
	b, ok := dec.Boolean()
	if !ok {
		return false, fmt.Errorf("ask: response has no boolean")
	}
	return b, nil
}

func (c *conn) Size(ctx context.Context) (int64, error) {
	dec, body, err := c.run(ctx, sizeQuery)
	if err != nil {
		return 0, fmt.Errorf("size: %w", err)
	}
	defer body.Close()
	sol, err := dec.Next()
	if err != nil {
		return 0, fmt.Errorf("size: %w", err)
	}
	lit, ok := sol["n"].(rdf.Literal)
	if !ok {
		return 0, fmt.Errorf("size: count is not a literal")
	}
	n, err := strconv.ParseInt(lit.Lexical, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("size: %w", err)
	}
	return n, nil
}

func (c *conn) Contexts(ctx context.Context) ([]rdf.Term, error) {
	dec, body, err := c.run(ctx, contextsQuery)
	if err != nil {
		return nil, fmt.Errorf("query contexts: %w", err)
	}
	defer body.Close()
	var out []rdf.Term
	for {
		sol, err := dec.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("query contexts: %w", err)
		}
		if g, ok := sol["g"]; ok {
			out = append(out, g)
		}
	}
}

// Close discards buffered writes.
func (c *conn) Close() error {
	c.closed = true
	c.inTx, c.pending = false, nil
	return nil
}

type bindingCursor struct {
	dec  *sparql.ResultsDecoder
	body io.Closer
	vars []string
	done bool
}

func (c *bindingCursor) Vars() []string { return c.vars }

func (c *bindingCursor) Next() (algebra.Solution, error) {
	if c.done {
		return nil, io.EOF
	}
	sol, err := c.dec.Next()
	if err != nil {
		c.Close()
		return nil, err
	}
	return sol, nil
}

func (c *bindingCursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.body.Close()
}

type statementCursor struct {
	pattern algebra.Pattern
	cur     store.BindingCursor
}

func (c *statementCursor) Next() (rdf.Statement, error) {
	for {
		sol, err := c.cur.Next()
		if err != nil {
			return rdf.Statement{}, err
		}
		if st, ok := c.pattern.Instantiate(sol); ok {
			return st, nil
		}
	}
}

func (c *statementCursor) Close() error { return c.cur.Close() }
