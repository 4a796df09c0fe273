// Package storetest is a conformance suite run against every store target.
package storetest

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
)

// Fixture IRIs.
var (
	Alice  = rdf.NewIRI("http://ex.org/alice")
	Bob    = rdf.NewIRI("http://ex.org/bob")
	Carol  = rdf.NewIRI("http://ex.org/carol")
	Name   = rdf.NewIRI("http://xmlns.com/foaf/0.1/name")
	Knows  = rdf.NewIRI("http://xmlns.com/foaf/0.1/knows")
	GraphA = rdf.NewIRI("http://ex.org/graphs/a")
	GraphB = rdf.NewIRI("http://ex.org/graphs/b")
)

// Fixture returns statements spread over the default graph and the named
// graphs A and B.
func Fixture() []rdf.Statement {
	return []rdf.Statement{
		rdf.NewTriple(Alice, Knows, Bob),
		rdf.NewQuad(Alice, Name, rdf.NewLangLiteral("Alice", "en"), GraphA),
		rdf.NewQuad(Bob, Name, rdf.NewLiteral("Bob"), GraphA),
		rdf.NewQuad(Carol, Name, rdf.NewLiteral("Carol"), GraphB),
		rdf.NewQuad(Bob, Knows, Carol, GraphB),
	}
}

// Opener returns a fresh, empty connection. The suite closes it.
type Opener func(t *testing.T) store.Connection

// Run runs every conformance test against connections from open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, conn store.Connection)
	}{
		{"AddAndMatch", testAddAndMatch},
		{"DuplicatesIgnored", testDuplicatesIgnored},
		{"Remove", testRemove},
		{"CommitMakesVisible", testCommit},
		{"RollbackLeavesNothing", testRollback},
		{"TransactionErrors", testTransactionErrors},
		{"SelectJoin", testSelectJoin},
		{"SelectModifiers", testSelectModifiers},
		{"RestrictionNamedGraphVsUnion", testRestriction},
		{"GraphPatterns", testGraphPatterns},
		{"ContextsAndClear", testContextsAndClear},
		{"CursorEarlyClose", testCursorEarlyClose},
		{"Ask", testAsk},
		{"Closed", testClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := open(t)
			t.Cleanup(func() { conn.Close() })
			tt.fn(t, conn)
		})
	}
}

func load(t *testing.T, conn store.Connection) {
	t.Helper()
	require.NoError(t, conn.Add(context.Background(), Fixture()...))
}

func names(t *testing.T, conn store.Connection, ds *algebra.Dataset) []rdf.Term {
	t.Helper()
	cur, err := conn.Select(context.Background(), &algebra.Select{
		Projection: []string{"n"},
		Where:      []algebra.Pattern{{S: algebra.V("s"), P: algebra.T(Name), O: algebra.V("n")}},
	}, ds)
	require.NoError(t, err)
	sols, err := store.CollectSolutions(cur)
	require.NoError(t, err)
	out := make([]rdf.Term, len(sols))
	for i, sol := range sols {
		out[i] = sol["n"]
	}
	return out
}

func testAddAndMatch(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	load(t, conn)

	n, err := conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	cur, err := conn.Match(ctx, algebra.Pattern{S: algebra.T(Bob), P: algebra.V("p"), O: algebra.V("o")}, nil)
	require.NoError(t, err)
	got, err := store.CollectStatements(cur)
	require.NoError(t, err)
	assert.ElementsMatch(t, []rdf.Statement{
		rdf.NewQuad(Bob, Name, rdf.NewLiteral("Bob"), GraphA),
		rdf.NewQuad(Bob, Knows, Carol, GraphB),
	}, got)

	cur, err = conn.Match(ctx, algebra.Pattern{S: algebra.V("s"), P: algebra.V("p"), O: algebra.T(rdf.NewLangLiteral("Alice", "en"))}, nil)
	require.NoError(t, err)
	got, err = store.CollectStatements(cur)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, GraphA, got[0].Context)
}

func testDuplicatesIgnored(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	st := rdf.NewTriple(Alice, Knows, Bob)
	require.NoError(t, conn.Add(ctx, st, st))
	require.NoError(t, conn.Add(ctx, st))
	n, err := conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// The same triple in a named graph is a different statement.
	require.NoError(t, conn.Add(ctx, st.InGraph(GraphA)))
	n, err = conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func testRemove(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	load(t, conn)
	require.NoError(t, conn.Remove(ctx,
		rdf.NewTriple(Alice, Knows, Bob),
		rdf.NewTriple(Carol, Name, rdf.NewLiteral("Carol")), // wrong graph, no-op
	))
	n, err := conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func testCommit(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	require.NoError(t, conn.Begin(ctx))
	assert.True(t, conn.InTransaction())
	require.NoError(t, conn.Add(ctx, Fixture()...))
	require.NoError(t, conn.Commit(ctx))
	assert.False(t, conn.InTransaction())

	n, err := conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func testRollback(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	require.NoError(t, conn.Add(ctx, rdf.NewTriple(Carol, Knows, Alice)))

	require.NoError(t, conn.Begin(ctx))
	require.NoError(t, conn.Add(ctx, Fixture()...))
	require.NoError(t, conn.Remove(ctx, rdf.NewTriple(Carol, Knows, Alice)))
	require.NoError(t, conn.Rollback(ctx))

	n, err := conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, names(t, conn, nil))
}

func testTransactionErrors(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	assert.ErrorIs(t, conn.Commit(ctx), store.ErrNoTransaction)
	assert.ErrorIs(t, conn.Rollback(ctx), store.ErrNoTransaction)

	require.NoError(t, conn.Begin(ctx))
	assert.ErrorIs(t, conn.Begin(ctx), store.ErrTransactionActive)
	require.NoError(t, conn.Rollback(ctx))
}

func testSelectJoin(t *testing.T, conn store.Connection) {
	load(t, conn)
	cur, err := conn.Select(context.Background(), &algebra.Select{
		Projection: []string{"a", "n"},
		Where: []algebra.Pattern{
			{S: algebra.V("a"), P: algebra.T(Knows), O: algebra.V("b")},
			{S: algebra.V("b"), P: algebra.T(Name), O: algebra.V("n")},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "n"}, cur.Vars())

	sols, err := store.CollectSolutions(cur)
	require.NoError(t, err)
	assert.ElementsMatch(t, []algebra.Solution{
		{"a": Alice, "n": rdf.NewLiteral("Bob")},
		{"a": Bob, "n": rdf.NewLiteral("Carol")},
	}, sols)
}

func testSelectModifiers(t *testing.T, conn store.Connection) {
	load(t, conn)
	ctx := context.Background()
	where := []algebra.Pattern{{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o")}}

	cur, err := conn.Select(ctx, &algebra.Select{
		Projection: []string{"p"}, Where: where, Distinct: true, Order: []string{"p"},
	}, nil)
	require.NoError(t, err)
	sols, err := store.CollectSolutions(cur)
	require.NoError(t, err)
	assert.Equal(t, []algebra.Solution{{"p": Knows}, {"p": Name}}, sols)

	cur, err = conn.Select(ctx, &algebra.Select{
		Projection: []string{"s"}, Where: where, Order: []string{"s"}, Limit: 2, Offset: 1,
	}, nil)
	require.NoError(t, err)
	sols, err = store.CollectSolutions(cur)
	require.NoError(t, err)
	assert.Equal(t, []algebra.Solution{{"s": Alice}, {"s": Bob}}, sols)

	cur, err = conn.Select(ctx, &algebra.Select{
		Projection: []string{"s"},
		Where:      where,
		Filter: &algebra.And{Predicates: []algebra.Predicate{
			&algebra.Equals{Var: "p", Term: Name},
			&algebra.NotEquals{Var: "s", Term: Alice},
		}},
	}, nil)
	require.NoError(t, err)
	sols, err = store.CollectSolutions(cur)
	require.NoError(t, err)
	assert.ElementsMatch(t, []algebra.Solution{{"s": Bob}, {"s": Carol}}, sols)
}

func testRestriction(t *testing.T, conn store.Connection) {
	load(t, conn)

	onlyA := names(t, conn, &algebra.Dataset{DefaultGraphs: []string{GraphA.Value}})
	assert.ElementsMatch(t, []rdf.Term{rdf.NewLangLiteral("Alice", "en"), rdf.NewLiteral("Bob")}, onlyA)

	union := names(t, conn, nil)
	assert.ElementsMatch(t, []rdf.Term{
		rdf.NewLangLiteral("Alice", "en"), rdf.NewLiteral("Bob"), rdf.NewLiteral("Carol"),
	}, union)

	none := names(t, conn, &algebra.Dataset{DefaultGraphs: []string{"urn:uuid:00000000-0000-0000-0000-000000000000"}})
	assert.Empty(t, none)
}

func testGraphPatterns(t *testing.T, conn store.Connection) {
	load(t, conn)
	ctx := context.Background()
	q := &algebra.Select{
		Projection: []string{"g"},
		Distinct:   true,
		Order:      []string{"g"},
		Where:      []algebra.Pattern{{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o"), G: algebra.V("g")}},
	}

	cur, err := conn.Select(ctx, q, nil)
	require.NoError(t, err)
	sols, err := store.CollectSolutions(cur)
	require.NoError(t, err)
	assert.Equal(t, []algebra.Solution{{"g": GraphA}, {"g": GraphB}}, sols, "default graph is never a named graph")

	cur, err = conn.Select(ctx, q, &algebra.Dataset{DefaultGraphs: []string{GraphA.Value}, NamedGraphs: []string{GraphB.Value}})
	require.NoError(t, err)
	sols, err = store.CollectSolutions(cur)
	require.NoError(t, err)
	assert.Equal(t, []algebra.Solution{{"g": GraphB}}, sols)

	mcur, err := conn.Match(ctx, algebra.Pattern{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o"), G: algebra.T(GraphB)}, nil)
	require.NoError(t, err)
	got, err := store.CollectStatements(mcur)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func testContextsAndClear(t *testing.T, conn store.Connection) {
	load(t, conn)
	ctx := context.Background()

	graphs, err := conn.Contexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Term{GraphA, GraphB}, graphs)

	require.NoError(t, conn.Clear(ctx, GraphA))
	n, err := conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, conn.Clear(ctx, nil))
	n, err = conn.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "clearing the default graph keeps named graphs")

	require.NoError(t, conn.Clear(ctx))
	n, err = conn.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testCursorEarlyClose(t *testing.T, conn store.Connection) {
	load(t, conn)
	ctx := context.Background()

	cur, err := conn.Match(ctx, algebra.Pattern{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o")}, nil)
	require.NoError(t, err)
	_, err = cur.Next()
	require.NoError(t, err)
	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close())
	_, err = cur.Next()
	assert.True(t, errors.Is(err, io.EOF))

	// The connection is usable again once the cursor is released.
	require.NoError(t, conn.Add(ctx, rdf.NewTriple(Carol, Knows, Alice)))
}

func testAsk(t *testing.T, conn store.Connection) {
	asker, ok := conn.(store.Asker)
	if !ok {
		t.Skip("connection does not evaluate ASK natively")
	}
	load(t, conn)
	ctx := context.Background()

	yes, err := asker.Ask(ctx, &algebra.Ask{Where: []algebra.Pattern{{S: algebra.T(Alice), P: algebra.T(Knows), O: algebra.V("x")}}}, nil)
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := asker.Ask(ctx, &algebra.Ask{Where: []algebra.Pattern{{S: algebra.T(Carol), P: algebra.T(Knows), O: algebra.V("x")}}}, nil)
	require.NoError(t, err)
	assert.False(t, no)
}

func testClosed(t *testing.T, conn store.Connection) {
	ctx := context.Background()
	require.NoError(t, conn.Begin(ctx))
	require.NoError(t, conn.Add(ctx, rdf.NewTriple(Alice, Knows, Bob)))
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Add(ctx, rdf.NewTriple(Alice, Knows, Bob)), store.ErrClosed)
	require.NoError(t, conn.Close())
}
