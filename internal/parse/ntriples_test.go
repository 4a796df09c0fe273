package parse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

func collect(t *testing.T, formatName, input string) []rdf.Statement {
	t.Helper()
	stmts, err := Collect(context.Background(), strings.NewReader(input), formatName, Options{})
	require.NoError(t, err)
	return stmts
}

func TestNTriples(t *testing.T) {
	input := `# comment
<http://ex.org/s> <http://ex.org/p> "hello"@en .

<http://ex.org/s> <http://ex.org/p> _:b1 . # trailing comment
_:b1 <http://ex.org/q> "42"^^<http://www.w3.org/2001/XMLSchema#integer>.
`
	got := collect(t, format.NTriples, input)
	require.Len(t, got, 3)
	assert.Equal(t, rdf.NewTriple(rdf.NewIRI("http://ex.org/s"), rdf.NewIRI("http://ex.org/p"), rdf.NewLangLiteral("hello", "en")), got[0])
	assert.Equal(t, rdf.NewBlankNode("b1"), got[1].Object)
	assert.Equal(t, rdf.NewTypedLiteral("42", rdf.XSDInteger), got[2].Object)
}

func TestNTriplesRejectsGraph(t *testing.T) {
	_, err := Collect(context.Background(), strings.NewReader(`<http://s> <http://p> <http://o> <http://g> .`), format.NTriples, Options{})
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)
	assert.Equal(t, format.NTriples, se.Format)
}

func TestNQuads(t *testing.T) {
	input := `<http://ex.org/s> <http://ex.org/p> "a" .
<http://ex.org/s> <http://ex.org/p> "b" <http://ex.org/g> .
<http://ex.org/s> <http://ex.org/p> "c" _:g .
`
	got := collect(t, format.NQuads, input)
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Context)
	assert.Equal(t, rdf.NewIRI("http://ex.org/g"), got[1].Context)
	assert.Equal(t, rdf.NewBlankNode("g"), got[2].Context)
}

func TestNQuadsErrorPosition(t *testing.T) {
	input := "<http://s> <http://p> <http://o> .\n<http://s> \"lit\" <http://o> .\n"
	var seen []rdf.Statement
	err := Parse(context.Background(), strings.NewReader(input), format.NQuads, Options{}, func(s rdf.Statement) error {
		seen = append(seen, s)
		return nil
	})
	require.Error(t, err)
	assert.Len(t, seen, 1, "statements before the error are delivered")

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 12, se.Column)
	assert.True(t, IsSyntaxError(err))
}

func TestHandlerErrorStopsParsing(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Parse(context.Background(), strings.NewReader("<http://s> <http://p> <http://o> .\n<http://s> <http://p> <http://o2> .\n"), format.NTriples, Options{}, func(rdf.Statement) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestCancelledContextStopsParsing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parse(ctx, strings.NewReader("<http://s> <http://p> <http://o> .\n"), format.NTriples, Options{}, func(rdf.Statement) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseUnknownFormat(t *testing.T) {
	err := Parse(context.Background(), strings.NewReader(""), "yaml", Options{}, func(rdf.Statement) error { return nil })
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestEveryTableFormatHasAParser(t *testing.T) {
	for _, f := range format.All() {
		_, ok := Lookup(f.Name)
		assert.True(t, ok, f.Name)
	}
}
