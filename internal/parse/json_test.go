package parse

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

func TestRDFJSON(t *testing.T) {
	input := `{
  "http://ex.org/s": {
    "http://ex.org/p": [
      {"type": "literal", "value": "hi", "lang": "en"},
      {"type": "literal", "value": "5", "datatype": "http://www.w3.org/2001/XMLSchema#int"},
      {"type": "uri", "value": "http://ex.org/o"},
      {"type": "bnode", "value": "_:b0"}
    ]
  },
  "_:b0": {
    "http://ex.org/q": [{"type": "literal", "value": "plain"}]
  }
}`
	got := collect(t, format.RDFJSON, input)
	require.Len(t, got, 5)
	assert.Equal(t, rdf.NewLangLiteral("hi", "en"), got[0].Object)
	assert.Equal(t, rdf.NewTypedLiteral("5", rdf.XSDInt), got[1].Object)
	assert.Equal(t, rdf.NewIRI("http://ex.org/o"), got[2].Object)
	assert.Equal(t, rdf.NewBlankNode("b0"), got[3].Object)
	assert.Equal(t, rdf.NewTriple(rdf.NewBlankNode("b0"), rdf.NewIRI("http://ex.org/q"), rdf.NewLiteral("plain")), got[4])
}

func TestRDFJSONEmptyAndErrors(t *testing.T) {
	assert.Empty(t, collect(t, format.RDFJSON, ""))
	assert.Empty(t, collect(t, format.RDFJSON, "{}"))

	for _, input := range []string{
		`[]`,
		`{"http://s": {"http://p": [{"type": "weird", "value": "x"}]}}`,
		`{"http://s": {"http://p": "not-an-array"}}`,
		`{"http://s": {"http://p": [`,
	} {
		_, err := Collect(context.Background(), strings.NewReader(input), format.RDFJSON, Options{})
		assert.True(t, IsSyntaxError(err), input)
	}
}

func TestJSONLD(t *testing.T) {
	input := `{
  "@context": {"name": "http://xmlns.com/foaf/0.1/name", "ex": "http://ex.org/"},
  "@id": "http://ex.org/alice",
  "name": "Alice",
  "ex:age": {"@value": "42", "@type": "http://www.w3.org/2001/XMLSchema#integer"}
}`
	got := collect(t, format.JSONLD, input)
	alice := rdf.NewIRI("http://ex.org/alice")
	assert.ElementsMatch(t, []rdf.Statement{
		rdf.NewTriple(alice, rdf.NewIRI("http://xmlns.com/foaf/0.1/name"), rdf.NewLiteral("Alice")),
		rdf.NewTriple(alice, rdf.NewIRI("http://ex.org/age"), rdf.NewTypedLiteral("42", rdf.XSDInteger)),
	}, got)
}

func TestJSONLDNamedGraphs(t *testing.T) {
	input := `{
  "@context": {"ex": "http://ex.org/"},
  "@graph": [
    {"@id": "ex:s", "ex:p": "default"},
    {"@id": "ex:g", "@graph": [{"@id": "ex:s", "ex:p": {"@value": "named", "@language": "en"}}]}
  ]
}`
	got := collect(t, format.JSONLD, input)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Context, "default graph comes first")
	assert.Equal(t, rdf.NewLiteral("default"), got[0].Object)
	assert.Equal(t, rdf.NewIRI("http://ex.org/g"), got[1].Context)
	assert.Equal(t, rdf.NewLangLiteral("named", "en"), got[1].Object)
}

func TestJSONLDMalformed(t *testing.T) {
	_, err := Collect(context.Background(), strings.NewReader(`{"@id": `), format.JSONLD, Options{})
	assert.True(t, IsSyntaxError(err))
}
