package convert

import (
	"math/big"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/rdf"
)

func TestRoundTripRegisteredTypes(t *testing.T) {
	c := New()
	tests := []struct {
		name     string
		value    any
		datatype string
	}{
		{"int8", int8(-7), rdf.XSDByte},
		{"int16", int16(300), rdf.XSDShort},
		{"int32", int32(-70000), rdf.XSDInt},
		{"int64", int64(1) << 40, rdf.XSDLong},
		{"uint8", uint8(255), rdf.XSDUnsignedByte},
		{"uint16", uint16(65535), rdf.XSDUnsignedShort},
		{"uint32", uint32(1) << 31, rdf.XSDUnsignedInt},
		{"uint64", uint64(1) << 63, rdf.XSDUnsignedLong},
		{"float32", float32(1.5), rdf.XSDFloat},
		{"float64", 3.141592653589793, rdf.XSDDouble},
		{"bool", true, rdf.XSDBoolean},
		{"bytes", []byte("hello"), rdf.XSDBase64Binary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := c.ToTerm(tt.value)
			require.NoError(t, err)
			lit, ok := term.(rdf.Literal)
			require.True(t, ok)
			assert.Equal(t, tt.datatype, lit.Datatype)
			assert.Equal(t, tt.value, c.FromTerm(term))
		})
	}
}

func TestIntEncodesAsLong(t *testing.T) {
	c := New()
	term, err := c.ToTerm(42)
	require.NoError(t, err)
	assert.Equal(t, rdf.NewTypedLiteral("42", rdf.XSDLong), term)
	assert.Equal(t, int64(42), c.FromTerm(term))
}

func TestRoundTripBigInteger(t *testing.T) {
	c := New()
	n, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	term, err := c.ToTerm(n)
	require.NoError(t, err)
	assert.Equal(t, rdf.NewTypedLiteral("123456789012345678901234567890", rdf.XSDInteger), term)

	got, ok := c.FromTerm(term).(*big.Int)
	require.True(t, ok)
	assert.Zero(t, n.Cmp(got))
}

func TestRoundTripDecimal(t *testing.T) {
	c := New()
	d, _, err := apd.NewFromString("-12.50")
	require.NoError(t, err)

	term, err := c.ToTerm(d)
	require.NoError(t, err)
	assert.Equal(t, rdf.NewTypedLiteral("-12.50", rdf.XSDDecimal), term)

	got, ok := c.FromTerm(term).(*apd.Decimal)
	require.True(t, ok)
	assert.Zero(t, d.Cmp(got))
}

func TestRoundTripDateTime(t *testing.T) {
	c := New()
	loc := time.FixedZone("", 2*60*60)
	ts := time.Date(2024, 3, 9, 14, 30, 0, 123000000, loc)

	term, err := c.ToTerm(ts)
	require.NoError(t, err)
	assert.Equal(t, rdf.NewTypedLiteral("2024-03-09T14:30:00.123+02:00", rdf.XSDDateTime), term)

	got, ok := c.FromTerm(term).(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(got))
}

func TestDateTimeWithoutZoneDecodesAsUTC(t *testing.T) {
	got := New().FromTerm(rdf.NewTypedLiteral("2024-03-09T14:30:00", rdf.XSDDateTime))
	assert.Equal(t, time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC), got)
}

func TestIRIAndBlankNode(t *testing.T) {
	c := New()

	term, err := c.ToTerm("http://ex.org/a")
	require.NoError(t, err)
	assert.Equal(t, rdf.NewIRI("http://ex.org/a"), term)
	assert.Equal(t, "http://ex.org/a", c.FromTerm(term))

	term, err = c.ToTerm(rdf.Symbol("b1"))
	require.NoError(t, err)
	assert.Equal(t, rdf.NewBlankNode("b1"), term)
	assert.Equal(t, rdf.Symbol("b1"), c.FromTerm(term))
}

func TestTermsPassThrough(t *testing.T) {
	c := New()
	lit := rdf.NewLangLiteral("chat", "fr")
	term, err := c.ToTerm(lit)
	require.NoError(t, err)
	assert.Equal(t, lit, term)
	assert.Equal(t, lit, c.FromTerm(lit), "language-tagged literals decode to themselves")
	assert.Equal(t, Lit("plain"), c.FromTerm(Lit("plain")))
}

func TestUnknownDatatypePassesThrough(t *testing.T) {
	lit := TypedLit("POINT(1 2)", "http://www.opengis.net/ont/geosparql#wktLiteral")
	assert.Equal(t, lit, New().FromTerm(lit))
}

func TestIllTypedLiteralPassesThrough(t *testing.T) {
	c := New()
	for _, lit := range []rdf.Literal{
		TypedLit("abc", rdf.XSDInt),
		TypedLit("300", rdf.XSDByte),
		TypedLit("maybe", rdf.XSDBoolean),
		TypedLit("1e3", rdf.XSDDecimal),
		TypedLit("Infinity", rdf.XSDDouble),
		TypedLit("yesterday", rdf.XSDDateTime),
	} {
		assert.Equal(t, lit, c.FromTerm(lit), lit.String())
	}
}

func TestLexicalVariants(t *testing.T) {
	c := New()
	assert.Equal(t, int32(5), c.FromTerm(TypedLit(" +5 ", rdf.XSDInt)))
	assert.Equal(t, false, c.FromTerm(TypedLit("0", rdf.XSDBoolean)))
	assert.Equal(t, float32(1e6), c.FromTerm(TypedLit("1E6", rdf.XSDFloat)))
}

func TestUnregisteredTypeFails(t *testing.T) {
	type celsius float64
	_, err := New().ToTerm(celsius(21.5))
	require.Error(t, err)

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, reflect.TypeOf(celsius(0)), ce.Type)
	assert.True(t, IsConversionError(err))
	assert.Contains(t, err.Error(), "celsius")

	_, err = New().ToTerm(nil)
	assert.True(t, IsConversionError(err))
}

func TestRegisterCustomType(t *testing.T) {
	type celsius float64
	const dt = "http://ex.org/celsius"
	c := New()
	c.RegisterEncoder(reflect.TypeOf(celsius(0)), func(v any) (rdf.Term, error) {
		return TypedLit(formatFloat(float64(v.(celsius)), 64), dt), nil
	})
	c.RegisterDecoder(dt, func(s string) (any, error) {
		f, err := parseFloat(s, 64)
		return celsius(f), err
	})

	term, err := c.ToTerm(celsius(21.5))
	require.NoError(t, err)
	assert.Equal(t, celsius(21.5), c.FromTerm(term))

	_, err = New().ToTerm(celsius(1))
	assert.Error(t, err, "registration is per converter")
}

func TestLangLit(t *testing.T) {
	lit, err := LangLit("colour", "en-GB")
	require.NoError(t, err)
	assert.Equal(t, "en-gb", lit.Lang)
	assert.Empty(t, lit.Datatype)

	_, err = LangLit("x", "not a tag")
	assert.Error(t, err)
}

func TestConcurrentUse(t *testing.T) {
	c := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.RegisterDecoder("http://ex.org/dt", func(s string) (any, error) { return s, nil })
			term, err := c.ToTerm(int32(i))
			assert.NoError(t, err)
			assert.Equal(t, int32(i), c.FromTerm(term))
		}(i)
	}
	wg.Wait()
	assert.Same(t, c, Default())
}
