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

func TestRDFXML(t *testing.T) {
	input := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://ex.org/"
         xml:base="http://ex.org/">
  <ex:Person rdf:about="alice" ex:nick="ally">
    <ex:name xml:lang="en">Alice</ex:name>
    <ex:age rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">42</ex:age>
    <ex:knows rdf:resource="bob"/>
    <ex:address rdf:parseType="Resource">
      <ex:city>Paris</ex:city>
    </ex:address>
    <ex:friend>
      <rdf:Description rdf:nodeID="carol">
        <ex:name>Carol</ex:name>
      </rdf:Description>
    </ex:friend>
  </ex:Person>
</rdf:RDF>`
	got := collect(t, format.RDFXML, input)
	alice := rdf.NewIRI("http://ex.org/alice")
	ex := func(s string) rdf.IRI { return rdf.NewIRI("http://ex.org/" + s) }

	require.Len(t, got, 9)
	assert.Equal(t, rdf.NewTriple(alice, rdf.NewIRI(rdf.RDFType), ex("Person")), got[0])
	assert.Equal(t, rdf.NewTriple(alice, ex("nick"), rdf.NewLiteral("ally")), got[1])
	assert.Equal(t, rdf.NewTriple(alice, ex("name"), rdf.NewLangLiteral("Alice", "en")), got[2])
	assert.Equal(t, rdf.NewTriple(alice, ex("age"), rdf.NewTypedLiteral("42", rdf.XSDInteger)), got[3])
	assert.Equal(t, rdf.NewTriple(alice, ex("knows"), ex("bob")), got[4])

	addr := got[5].Object
	assert.Equal(t, rdf.KindBlankNode, addr.Kind())
	assert.Equal(t, rdf.NewTriple(addr, ex("city"), rdf.NewLiteral("Paris")), got[6])

	carol := rdf.NewBlankNode("carol")
	assert.Equal(t, rdf.NewTriple(carol, ex("name"), rdf.NewLiteral("Carol")), got[7])
	assert.Equal(t, rdf.NewTriple(alice, ex("friend"), carol), got[8])
}

func TestRDFXMLContainersAndCollections(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="http://ex.org/">
  <rdf:Seq rdf:about="http://ex.org/seq">
    <rdf:li>one</rdf:li>
    <rdf:li>two</rdf:li>
  </rdf:Seq>
  <rdf:Description rdf:about="http://ex.org/s">
    <ex:list rdf:parseType="Collection">
      <rdf:Description rdf:about="http://ex.org/a"/>
      <rdf:Description rdf:about="http://ex.org/b"/>
    </ex:list>
  </rdf:Description>
</rdf:RDF>`
	got := collect(t, format.RDFXML, input)
	require.Len(t, got, 8)
	assert.Equal(t, rdf.RDF+"_1", got[1].Predicate.Value)
	assert.Equal(t, rdf.RDF+"_2", got[2].Predicate.Value)
	assert.Equal(t, rdf.NewIRI("http://ex.org/a"), got[3].Object)
	assert.Equal(t, rdf.NewIRI(rdf.RDFNil), got[6].Object)
	assert.Equal(t, got[3].Subject, got[7].Object)
}

func TestRDFXMLReification(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="http://ex.org/" xml:base="http://ex.org/doc">
  <rdf:Description rdf:about="http://ex.org/s">
    <ex:p rdf:ID="st1">v</ex:p>
  </rdf:Description>
</rdf:RDF>`
	got := collect(t, format.RDFXML, input)
	require.Len(t, got, 5)
	assert.Equal(t, rdf.NewIRI("http://ex.org/doc#st1"), got[1].Subject)
	assert.Equal(t, rdf.NewIRI(rdf.RDFStatement), got[1].Object)
}

func TestRDFXMLMalformed(t *testing.T) {
	_, err := Collect(context.Background(), strings.NewReader(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><rdf:Description>`), format.RDFXML, Options{})
	assert.True(t, IsSyntaxError(err))
}

func TestTriX(t *testing.T) {
	input := `<TriX xmlns="http://www.w3.org/2004/03/trix/trix-1/">
  <graph>
    <triple><uri>http://ex.org/s</uri><uri>http://ex.org/p</uri><plainLiteral>plain</plainLiteral></triple>
  </graph>
  <graph>
    <uri>http://ex.org/g</uri>
    <triple>
      <id>x</id>
      <uri>http://ex.org/p</uri>
      <plainLiteral xml:lang="de">hallo</plainLiteral>
    </triple>
    <triple><id>x</id><uri>http://ex.org/q</uri><typedLiteral datatype="http://www.w3.org/2001/XMLSchema#int">7</typedLiteral></triple>
  </graph>
</TriX>`
	got := collect(t, format.TriX, input)
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Context)
	assert.Equal(t, rdf.NewLiteral("plain"), got[0].Object)
	assert.Equal(t, rdf.NewQuad(rdf.NewBlankNode("x"), rdf.NewIRI("http://ex.org/p"), rdf.NewLangLiteral("hallo", "de"), rdf.NewIRI("http://ex.org/g")), got[1])
	assert.Equal(t, rdf.NewTypedLiteral("7", rdf.XSDInt), got[2].Object)
}

func TestTriXUnrepresentableLabel(t *testing.T) {
	input := `<TriX xmlns="http://www.w3.org/2004/03/trix/trix-1/">
  <graph>
    <triple><id>row 1</id><uri>http://ex.org/p</uri><plainLiteral>a</plainLiteral></triple>
    <triple><id>row 1</id><uri>http://ex.org/q</uri><plainLiteral>b</plainLiteral></triple>
  </graph>
</TriX>`
	got := collect(t, format.TriX, input)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Subject, got[1].Subject, "one document label is one node")
	for _, st := range got {
		require.NoError(t, st.Validate())
	}
}

func TestTriXErrors(t *testing.T) {
	for _, input := range []string{
		`<TriX><graph><triple><uri>http://s</uri><uri>http://p</uri></triple></graph></TriX>`,
		`<TriX><graph><triple><plainLiteral>s</plainLiteral><uri>http://p</uri><uri>http://o</uri></triple></graph></TriX>`,
		`<TriX><graph><triple><uri>http://s</uri><uri>http://p</uri><typedLiteral>1</typedLiteral></triple></graph></TriX>`,
		`<TriX><graph><triple><uri>http://s</uri>`,
	} {
		_, err := Collect(context.Background(), strings.NewReader(input), format.TriX, Options{})
		assert.True(t, IsSyntaxError(err), input)
	}
}
