// Package testutil holds helpers shared by tests and the conformance
// harness: logical sequences, statement fixtures and golden files.
package testutil

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/rdf"
)

// Statements parses N-Quads text. Blank node labels are kept as written.
func Statements(t testing.TB, nquads string) []rdf.Statement {
	t.Helper()
	stmts, err := parse.Collect(context.Background(), strings.NewReader(nquads), format.NQuads, parse.Options{})
	require.NoError(t, err)
	return stmts
}

// Line renders a statement as one N-Quads line without the final dot.
func Line(st rdf.Statement) string {
	parts := []string{rdf.FormatTerm(st.Subject), rdf.FormatTerm(st.Predicate), rdf.FormatTerm(st.Object)}
	if st.Context != nil {
		parts = append(parts, rdf.FormatTerm(st.Context))
	}
	return strings.Join(parts, " ")
}

// SortedLines renders statements with Line and sorts the result.
func SortedLines(stmts []rdf.Statement) []string {
	out := make([]string, len(stmts))
	for i, st := range stmts {
		out[i] = Line(st)
	}
	sort.Strings(out)
	return out
}

// Golden returns a goldie instance reading testdata/golden/<name>.golden.
// Regenerate with go test -update.
func Golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
