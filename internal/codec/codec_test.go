package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/convert"
	"github.com/roach88/rdfio/internal/rdf"
)

func TestEncodeDecode(t *testing.T) {
	stmts := []rdf.Statement{
		rdf.NewTriple(rdf.NewIRI("http://ex.org/s"), rdf.NewIRI("http://ex.org/p"), rdf.NewLiteral("o")),
		rdf.NewQuad(rdf.NewBlankNode("b"), rdf.NewIRI("http://ex.org/p"), rdf.NewLangLiteral("x", "de"), rdf.NewIRI("http://ex.org/g")),
	}
	for _, s := range stmts {
		r, err := Encode(s)
		require.NoError(t, err)
		assert.Equal(t, s.IsTriple(), r.IsTriple())

		got, err := Decode(r)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestEncodeRecordShape(t *testing.T) {
	r, err := Encode(rdf.NewQuad(rdf.NewIRI("http://ex.org/s"), rdf.NewIRI("http://ex.org/p"), rdf.NewTypedLiteral("1", rdf.XSDInt), rdf.NewIRI("http://ex.org/g")))
	require.NoError(t, err)
	assert.Equal(t, Record{
		S: "<http://ex.org/s>",
		P: "<http://ex.org/p>",
		O: `"1"^^<http://www.w3.org/2001/XMLSchema#int>`,
		G: "<http://ex.org/g>",
	}, r)
}

func TestEncodeRejectsInvalid(t *testing.T) {
	_, err := Encode(rdf.NewTriple(rdf.NewLiteral("s"), rdf.NewIRI("http://ex.org/p"), rdf.NewLiteral("o")))
	assert.Error(t, err)
}

func TestBlankNodeLabelsMustSurviveDecode(t *testing.T) {
	c := New(nil)
	for _, label := range []string{"row 1", "a.", ""} {
		t.Run(label, func(t *testing.T) {
			_, err := c.FromNative(NativeStatement{Subject: rdf.Symbol(label), Predicate: "http://ex/p", Object: int32(1)})
			require.ErrorIs(t, err, rdf.ErrInvalidBlankNodeLabel)

			_, err = Encode(rdf.NewTriple(rdf.BlankNode{ID: label}, rdf.NewIRI("http://ex/p"), rdf.NewLiteral("o")))
			require.ErrorIs(t, err, rdf.ErrInvalidBlankNodeLabel)

			_, err = Encode(rdf.NewQuad(rdf.NewIRI("http://ex/s"), rdf.NewIRI("http://ex/p"), rdf.BlankNode{ID: label}, rdf.NewIRI("http://ex/g")))
			require.ErrorIs(t, err, rdf.ErrInvalidBlankNodeLabel)
		})
	}

	st, err := c.FromNative(NativeStatement{Subject: rdf.Symbol("row_1"), Predicate: "http://ex/p", Object: int32(1)})
	require.NoError(t, err)
	r, err := Encode(st)
	require.NoError(t, err)
	back, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, st, back)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := Decode(Record{S: "<s>", P: `"p"`, O: "<o>"})
	assert.Error(t, err)

	_, err = Decode(Record{S: `"s"`, P: "<p>", O: "<o>"})
	assert.Error(t, err)

	_, err = Decode(Record{S: "<s>", P: "<p>", O: "<o", G: ""})
	assert.Error(t, err)
}

func TestNativeRoundTrip(t *testing.T) {
	c := New(convert.New())
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	n := NativeStatement{
		Subject:   rdf.Symbol("person1"),
		Predicate: "http://ex.org/born",
		Object:    ts,
		Context:   "http://ex.org/g",
	}

	s, err := c.FromNative(n)
	require.NoError(t, err)
	assert.Equal(t, rdf.NewBlankNode("person1"), s.Subject)
	assert.Equal(t, rdf.NewIRI("http://ex.org/g"), s.Context)

	back := c.ToNative(s)
	assert.Equal(t, n.Subject, back.Subject)
	assert.Equal(t, n.Predicate, back.Predicate)
	assert.Equal(t, n.Context, back.Context)
	assert.True(t, ts.Equal(back.Object.(time.Time)))
}

func TestFromNativeErrors(t *testing.T) {
	c := New(nil)

	_, err := c.FromNative(NativeStatement{Subject: 42, Predicate: "http://ex.org/p", Object: 1})
	assert.Error(t, err, "literal subject")

	_, err = c.FromNative(NativeStatement{Subject: "http://ex.org/s", Predicate: rdf.Symbol("p"), Object: 1})
	assert.Error(t, err, "blank node predicate")

	_, err = c.FromNative(NativeStatement{Subject: "http://ex.org/s", Predicate: "http://ex.org/p", Object: struct{}{}})
	assert.True(t, convert.IsConversionError(err))

	_, err = c.FromNative(NativeStatement{Subject: "http://ex.org/s", Predicate: "http://ex.org/p", Object: 1, Context: 2.5})
	assert.Error(t, err, "literal context")
}
