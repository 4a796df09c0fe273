package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
)

const foafName = "http://xmlns.com/foaf/0.1/name"

func TestCompileSelect(t *testing.T) {
	q, err := Compile(`
		prefixes: foaf: "http://xmlns.com/foaf/0.1/"
		select: ["s", "?name"]
		distinct: true
		where: [
			{s: "?s", p: "foaf:name", o: "?name"},
			{s: "?s", p: "<http://ex.org/p>", o: "?o", g: "?g"},
		]
		filter: [{var: "name", equals: "\"Alice\"@en"}]
		order: ["name"]
		limit: 10
		offset: 2
	`)
	require.NoError(t, err)

	sel, ok := q.(*algebra.Select)
	require.True(t, ok)
	assert.Equal(t, []string{"s", "name"}, sel.Projection)
	assert.True(t, sel.Distinct)
	assert.Equal(t, []string{"name"}, sel.Order)
	assert.Equal(t, 10, sel.Limit)
	assert.Equal(t, 2, sel.Offset)
	require.Len(t, sel.Where, 2)
	assert.Equal(t, algebra.Pattern{
		S: algebra.V("s"),
		P: algebra.T(rdf.NewIRI(foafName)),
		O: algebra.V("name"),
	}, sel.Where[0])
	assert.Equal(t, algebra.V("g"), sel.Where[1].G)
	assert.Equal(t, &algebra.Equals{Var: "name", Term: rdf.NewLangLiteral("Alice", "en")}, sel.Filter)
}

func TestCompileSelectStar(t *testing.T) {
	q, err := Compile(`select: "*", where: [{s: "?s", p: "a", o: "?t"}]`)
	require.NoError(t, err)
	sel := q.(*algebra.Select)
	assert.Empty(t, sel.Projection)
	assert.Equal(t, algebra.T(rdf.NewIRI(rdf.RDFType)), sel.Where[0].P)
}

func TestCompileJSON(t *testing.T) {
	q, err := Compile(`{"ask": true, "where": [{"s": "<http://ex.org/a>", "p": "<http://ex.org/p>", "o": 42}]}`)
	require.NoError(t, err)
	ask, ok := q.(*algebra.Ask)
	require.True(t, ok)
	assert.Equal(t, algebra.T(rdf.NewTypedLiteral("42", rdf.XSDInteger)), ask.Where[0].O)
}

func TestCompileTermShorthands(t *testing.T) {
	tests := []struct {
		in   string
		want rdf.Term
	}{
		{`"true"`, rdf.NewTypedLiteral("true", rdf.XSDBoolean)},
		{`true`, rdf.NewTypedLiteral("true", rdf.XSDBoolean)},
		{`"-7"`, rdf.NewTypedLiteral("-7", rdf.XSDInteger)},
		{`"1.5"`, rdf.NewTypedLiteral("1.5", rdf.XSDDecimal)},
		{`1.5`, rdf.NewTypedLiteral("1.5", rdf.XSDDecimal)},
		{`-2.5`, rdf.NewTypedLiteral("-2.5", rdf.XSDDecimal)},
		{`"1e3"`, rdf.NewTypedLiteral("1e3", rdf.XSDDouble)},
		{`"_:b0"`, rdf.NewBlankNode("b0")},
		{`"\"x\"^^<http://www.w3.org/2001/XMLSchema#date>"`, rdf.NewTypedLiteral("x", rdf.XSDDate)},
		{`"ex:thing"`, rdf.NewIRI("http://ex.org/thing")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := Compile(`
				prefixes: ex: "http://ex.org/"
				ask: true
				where: [{s: "?s", p: "?p", o: ` + tt.in + `}]
			`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.(*algebra.Ask).Where[0].O.Term)
		})
	}
}

func TestCompileConstruct(t *testing.T) {
	q, err := Compile(`
		construct: [{s: "?s", p: "<http://ex.org/label>", o: "?n", g: "<http://ex.org/out>"}]
		where: [{s: "?s", p: "<` + foafName + `>", o: "?n"}]
	`)
	require.NoError(t, err)
	c := q.(*algebra.Construct)
	require.Len(t, c.Template, 1)
	assert.Equal(t, algebra.T(rdf.NewIRI("http://ex.org/out")), c.Template[0].G)
}

func TestCompileDescribe(t *testing.T) {
	q, err := Compile(`describe: ["<http://ex.org/a>", "?s"], where: [{s: "?s", p: "a", o: "<http://ex.org/T>"}]`)
	require.NoError(t, err)
	d := q.(*algebra.Describe)
	assert.Equal(t, []algebra.Node{algebra.T(rdf.NewIRI("http://ex.org/a")), algebra.V("s")}, d.Resources)
}

func TestCompileModify(t *testing.T) {
	q, err := Compile(`
		delete: [{s: "?s", p: "<http://ex.org/old>", o: "?o"}]
		insert: [{s: "?s", p: "<http://ex.org/new>", o: "?o"}]
		where: [{s: "?s", p: "<http://ex.org/old>", o: "?o"}]
	`)
	require.NoError(t, err)
	m := q.(*algebra.Modify)
	assert.Len(t, m.Delete, 1)
	assert.Len(t, m.Insert, 1)
	assert.Len(t, m.Where, 1)

	q, err = Compile(`insert: [{s: "<http://ex.org/a>", p: "<http://ex.org/p>", o: "\"v\""}]`)
	require.NoError(t, err)
	assert.Empty(t, q.(*algebra.Modify).Where)
}

func TestCompileNotEqualsAnd(t *testing.T) {
	q, err := Compile(`
		select: ["s"]
		where: [{s: "?s", p: "?p", o: "?o"}]
		filter: [{var: "o", notEquals: 1}, {var: "p", equals: "a"}]
	`)
	require.NoError(t, err)
	and, ok := q.(*algebra.Select).Filter.(*algebra.And)
	require.True(t, ok)
	require.Len(t, and.Predicates, 2)
	assert.IsType(t, &algebra.NotEquals{}, and.Predicates[0])
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"no form", `where: []`, "exactly one of"},
		{"two forms", `select: "*", ask: true, where: [{s: "?s", p: "?p", o: "?o"}]`, "exactly one of"},
		{"ask false", `ask: false, where: [{s: "?s", p: "?p", o: "?o"}]`, "must be true"},
		{"missing object", `ask: true, where: [{s: "?s", p: "?p"}]`, "o is required"},
		{"bad term", `ask: true, where: [{s: "?s", p: "?p", o: "not a term"}]`, "cannot parse term"},
		{"undefined prefix", `ask: true, where: [{s: "?s", p: "foo:bar", o: "?o"}]`, "undefined prefix"},
		{"unbound projection", `select: ["x"], where: [{s: "?s", p: "?p", o: "?o"}]`, "?x is not bound"},
		{"literal subject", `ask: true, where: [{s: "\"lit\"", p: "?p", o: "?o"}]`, "subject"},
		{"negative limit", `select: "*", limit: -1, where: [{s: "?s", p: "?p", o: "?o"}]`, "negative"},
		{"filter both", `select: "*", where: [{s: "?s", p: "?p", o: "?o"}], filter: [{var: "o", equals: 1, notEquals: 2}]`, "exactly one of equals"},
		{"syntax", `select: [`, "cue"},
		{"incomplete", `select: string, where: []`, "cue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			require.Error(t, err)
			assert.True(t, IsCompileError(err), "got %T: %v", err, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompileErrorPosition(t *testing.T) {
	_, err := CompileFile("q.cue", []byte("ask: true\nwhere: [\n\t{s: \"?s\", p: \"?p\", o: \"bad term\"},\n]\n"))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "where[0].o", ce.Field)
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 3, ce.Pos.Line())
	assert.Contains(t, err.Error(), "q.cue:3:")
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "select", Message: "boom"}
	assert.Equal(t, "select: boom", err.Error())
}
