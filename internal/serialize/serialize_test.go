package serialize

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/rdf"
)

const (
	foafName  = "http://xmlns.com/foaf/0.1/name"
	foafAge   = "http://xmlns.com/foaf/0.1/age"
	foafKnows = "http://xmlns.com/foaf/0.1/knows"
	xsdLong   = "http://www.w3.org/2001/XMLSchema#long"
)

func fixture() []rdf.Statement {
	alice := rdf.NewIRI("http://example.org/alice")
	return []rdf.Statement{
		rdf.NewTriple(alice, rdf.NewIRI(foafName), rdf.NewLangLiteral("Alice", "en")),
		rdf.NewTriple(alice, rdf.NewIRI(foafAge), rdf.NewTypedLiteral("42", xsdLong)),
		rdf.NewQuad(rdf.NewBlankNode("b0"), rdf.NewIRI(foafKnows), alice, rdf.NewIRI("http://example.org/g")),
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func render(t *testing.T, name string, stmts []rdf.Statement) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(&buf, name)
	require.NoError(t, err)
	require.NoError(t, WriteAll(w, stmts))
	return buf.Bytes()
}

func TestGolden(t *testing.T) {
	for _, name := range []string{format.NTriples, format.NQuads, format.RDFJSON} {
		t.Run(name, func(t *testing.T) {
			newGoldie(t).Assert(t, name, render(t, name, fixture()))
		})
	}
}

func TestRDFJSONDropsDuplicates(t *testing.T) {
	st := fixture()[0]
	out := render(t, format.RDFJSON, []rdf.Statement{st, st, st.InGraph(rdf.NewIRI("http://example.org/g"))})
	assert.Equal(t, 1, bytes.Count(out, []byte(`"value": "Alice"`)))
}

func TestJSONLDRoundTrip(t *testing.T) {
	out := render(t, format.JSONLD, fixture())

	got, err := parse.Collect(context.Background(), bytes.NewReader(out), format.JSONLD, parse.Options{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	var sawName, sawGraph bool
	for _, st := range got {
		if st.Predicate.Value == foafName {
			sawName = true
			assert.Equal(t, rdf.NewLangLiteral("Alice", "en"), st.Object)
			assert.Nil(t, st.Context)
		}
		if st.Predicate.Value == foafKnows {
			sawGraph = true
			assert.Equal(t, rdf.NewIRI("http://example.org/g"), st.Context)
			assert.IsType(t, rdf.BlankNode{}, st.Subject)
		}
	}
	assert.True(t, sawName)
	assert.True(t, sawGraph)
}

func TestEmptyRDFJSON(t *testing.T) {
	assert.Equal(t, "{}\n", string(render(t, format.RDFJSON, nil)))
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, format.Turtle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, format.ErrUnsupportedFormat))

	_, err = New(&bytes.Buffer{}, "nope")
	assert.True(t, errors.Is(err, format.ErrUnsupportedFormat))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{format.JSONLD, format.NQuads, format.NTriples, format.RDFJSON}, Formats())
}
