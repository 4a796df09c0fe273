package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = NewIRI("http://ex.org/alice")
	name  = NewIRI("http://xmlns.com/foaf/0.1/name")
	g1    = NewIRI("http://ex.org/g1")
)

func TestStatementValidate(t *testing.T) {
	tests := []struct {
		name    string
		stmt    Statement
		wantErr string
	}{
		{"triple", NewTriple(alice, name, NewLiteral("Alice")), ""},
		{"quad", NewQuad(alice, name, NewLiteral("Alice"), g1), ""},
		{"bnode subject", NewTriple(NewBlankNode("x"), name, alice), ""},
		{"bnode context", NewQuad(alice, name, alice, NewBlankNode("g")), ""},
		{"literal subject", NewTriple(NewLiteral("x"), name, alice), "subject"},
		{"nil subject", Statement{Predicate: name, Object: alice}, "subject"},
		{"empty predicate", NewTriple(alice, IRI{}, alice), "predicate"},
		{"missing object", Statement{Subject: alice, Predicate: name}, "object"},
		{"literal context", NewQuad(alice, name, alice, NewLiteral("g")), "context"},
		{"bad literal", NewTriple(alice, name, Literal{Lexical: "x", Datatype: XSDInt, Lang: "en"}), "both datatype"},
		{"bnode label with space", NewTriple(NewBlankNode("row 1"), name, alice), "blank node label"},
		{"bnode label trailing dot", NewTriple(alice, name, NewBlankNode("a.")), "blank node label"},
		{"empty bnode context", NewQuad(alice, name, alice, BlankNode{}), "blank node label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stmt.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStatementString(t *testing.T) {
	triple := NewTriple(alice, name, NewLangLiteral("Alice", "en"))
	assert.Equal(t, `<http://ex.org/alice> <http://xmlns.com/foaf/0.1/name> "Alice"@en .`, triple.String())
	assert.True(t, triple.IsTriple())

	quad := triple.InGraph(g1)
	assert.Equal(t, `<http://ex.org/alice> <http://xmlns.com/foaf/0.1/name> "Alice"@en <http://ex.org/g1> .`, quad.String())
	assert.False(t, quad.IsTriple())
	assert.True(t, triple.IsTriple(), "InGraph must not mutate the receiver")
}

func TestStatementID(t *testing.T) {
	a := NewTriple(alice, name, NewLiteral("Alice"))
	b := NewTriple(alice, name, NewLiteral("Alice"))
	c := a.InGraph(g1)

	assert.Equal(t, StatementID(a), StatementID(b))
	assert.NotEqual(t, StatementID(a), StatementID(c), "graph is part of identity")
	assert.Len(t, StatementID(a), 64)
}

func TestTermsAreComparable(t *testing.T) {
	var x, y Term = NewTypedLiteral("1", XSDInt), NewTypedLiteral("1", XSDInt)
	assert.True(t, x == y)
	assert.Equal(t, XSDString, NewLiteral("a").EffectiveDatatype())
	assert.Equal(t, RDFLangString, NewLangLiteral("a", "en").EffectiveDatatype())
}
