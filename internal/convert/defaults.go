package convert

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/rdfio/internal/rdf"
)

// dateTimeLayouts are tried in order; the first matches values with a zone.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

var dateLayouts = []string{
	"2006-01-02Z07:00",
	"2006-01-02",
}

func registerDefaults(c *Converter) {
	signed := func(datatype string) EncodeFunc {
		return func(v any) (rdf.Term, error) {
			n := reflect.ValueOf(v).Int()
			return rdf.NewTypedLiteral(strconv.FormatInt(n, 10), datatype), nil
		}
	}
	unsigned := func(datatype string) EncodeFunc {
		return func(v any) (rdf.Term, error) {
			n := reflect.ValueOf(v).Uint()
			return rdf.NewTypedLiteral(strconv.FormatUint(n, 10), datatype), nil
		}
	}

	c.encoders[reflect.TypeOf(int8(0))] = signed(rdf.XSDByte)
	c.encoders[reflect.TypeOf(int16(0))] = signed(rdf.XSDShort)
	c.encoders[reflect.TypeOf(int32(0))] = signed(rdf.XSDInt)
	c.encoders[reflect.TypeOf(int64(0))] = signed(rdf.XSDLong)
	c.encoders[reflect.TypeOf(int(0))] = signed(rdf.XSDLong)
	c.encoders[reflect.TypeOf(uint8(0))] = unsigned(rdf.XSDUnsignedByte)
	c.encoders[reflect.TypeOf(uint16(0))] = unsigned(rdf.XSDUnsignedShort)
	c.encoders[reflect.TypeOf(uint32(0))] = unsigned(rdf.XSDUnsignedInt)
	c.encoders[reflect.TypeOf(uint64(0))] = unsigned(rdf.XSDUnsignedLong)

	c.encoders[reflect.TypeOf((*big.Int)(nil))] = func(v any) (rdf.Term, error) {
		n := v.(*big.Int)
		if n == nil {
			return nil, &ConversionError{Type: reflect.TypeOf(v)}
		}
		return rdf.NewTypedLiteral(n.String(), rdf.XSDInteger), nil
	}
	c.encoders[reflect.TypeOf((*apd.Decimal)(nil))] = func(v any) (rdf.Term, error) {
		d := v.(*apd.Decimal)
		if d == nil {
			return nil, &ConversionError{Type: reflect.TypeOf(v)}
		}
		if d.Form != apd.Finite {
			return nil, fmt.Errorf("convert: decimal %s is not finite", d)
		}
		return rdf.NewTypedLiteral(d.Text('f'), rdf.XSDDecimal), nil
	}
	c.encoders[reflect.TypeOf(float32(0))] = func(v any) (rdf.Term, error) {
		return rdf.NewTypedLiteral(formatFloat(float64(v.(float32)), 32), rdf.XSDFloat), nil
	}
	c.encoders[reflect.TypeOf(float64(0))] = func(v any) (rdf.Term, error) {
		return rdf.NewTypedLiteral(formatFloat(v.(float64), 64), rdf.XSDDouble), nil
	}
	c.encoders[reflect.TypeOf(false)] = func(v any) (rdf.Term, error) {
		return rdf.NewTypedLiteral(strconv.FormatBool(v.(bool)), rdf.XSDBoolean), nil
	}
	c.encoders[reflect.TypeOf(time.Time{})] = func(v any) (rdf.Term, error) {
		return rdf.NewTypedLiteral(v.(time.Time).Format(time.RFC3339Nano), rdf.XSDDateTime), nil
	}
	c.encoders[reflect.TypeOf([]byte(nil))] = func(v any) (rdf.Term, error) {
		return rdf.NewTypedLiteral(base64.StdEncoding.EncodeToString(v.([]byte)), rdf.XSDBase64Binary), nil
	}

	c.decoders[rdf.XSDByte] = decodeInt(8, func(n int64) any { return int8(n) })
	c.decoders[rdf.XSDShort] = decodeInt(16, func(n int64) any { return int16(n) })
	c.decoders[rdf.XSDInt] = decodeInt(32, func(n int64) any { return int32(n) })
	c.decoders[rdf.XSDLong] = decodeInt(64, func(n int64) any { return n })
	c.decoders[rdf.XSDUnsignedByte] = decodeUint(8, func(n uint64) any { return uint8(n) })
	c.decoders[rdf.XSDUnsignedShort] = decodeUint(16, func(n uint64) any { return uint16(n) })
	c.decoders[rdf.XSDUnsignedInt] = decodeUint(32, func(n uint64) any { return uint32(n) })
	c.decoders[rdf.XSDUnsignedLong] = decodeUint(64, func(n uint64) any { return n })

	c.decoders[rdf.XSDInteger] = func(s string) (any, error) {
		n, ok := new(big.Int).SetString(strings.TrimPrefix(collapse(s), "+"), 10)
		if !ok {
			return nil, fmt.Errorf("invalid xsd:integer %q", s)
		}
		return n, nil
	}
	c.decoders[rdf.XSDDecimal] = func(s string) (any, error) {
		s = collapse(s)
		if strings.ContainsAny(s, "eE") {
			return nil, fmt.Errorf("invalid xsd:decimal %q", s)
		}
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, err
		}
		if d.Form != apd.Finite {
			return nil, fmt.Errorf("invalid xsd:decimal %q", s)
		}
		return d, nil
	}
	c.decoders[rdf.XSDFloat] = func(s string) (any, error) {
		f, err := parseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	}
	c.decoders[rdf.XSDDouble] = func(s string) (any, error) {
		return parseFloat(s, 64)
	}
	c.decoders[rdf.XSDBoolean] = func(s string) (any, error) {
		switch collapse(s) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		default:
			return nil, fmt.Errorf("invalid xsd:boolean %q", s)
		}
	}
	c.decoders[rdf.XSDDateTime] = decodeTime(dateTimeLayouts)
	c.decoders[rdf.XSDDate] = decodeTime(dateLayouts)
	c.decoders[rdf.XSDBase64Binary] = func(s string) (any, error) {
		return base64.StdEncoding.DecodeString(strings.Join(strings.Fields(s), ""))
	}
}

func decodeInt(bits int, wrap func(int64) any) DecodeFunc {
	return func(s string) (any, error) {
		n, err := strconv.ParseInt(collapse(s), 10, bits)
		if err != nil {
			return nil, err
		}
		return wrap(n), nil
	}
}

func decodeUint(bits int, wrap func(uint64) any) DecodeFunc {
	return func(s string) (any, error) {
		n, err := strconv.ParseUint(strings.TrimPrefix(collapse(s), "+"), 10, bits)
		if err != nil {
			return nil, err
		}
		return wrap(n), nil
	}
}

func decodeTime(layouts []string) DecodeFunc {
	return func(s string) (any, error) {
		s = collapse(s)
		var firstErr error
		for _, layout := range layouts {
			t, err := time.Parse(layout, s)
			if err == nil {
				return t, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return nil, firstErr
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// parseFloat accepts the XSD special values INF, -INF and NaN exactly; the
// spellings strconv also accepts (inf, Infinity) are rejected.
func parseFloat(s string, bits int) (float64, error) {
	s = collapse(s)
	switch s {
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	if strings.ContainsAny(s, "iInN") {
		return 0, fmt.Errorf("invalid float %q", s)
	}
	return strconv.ParseFloat(s, bits)
}

// collapse applies the XSD whitespace facet for atomic numeric types.
func collapse(s string) string {
	return strings.TrimSpace(s)
}
