// Package convert maps native Go values to RDF terms and back.
//
// A Converter owns two tables: encoders keyed by the concrete Go type and
// decoders keyed by literal datatype IRI. Both are seeded with the XSD
// mappings below and can be extended at runtime.
//
//	int8       xsd:byte            uint8   xsd:unsignedByte
//	int16      xsd:short           uint16  xsd:unsignedShort
//	int32      xsd:int             uint32  xsd:unsignedInt
//	int64/int  xsd:long            uint64  xsd:unsignedLong
//	*big.Int   xsd:integer         bool    xsd:boolean
//	*apd.Decimal xsd:decimal       []byte  xsd:base64Binary
//	float32    xsd:float           time.Time xsd:dateTime
//	float64    xsd:double          string  IRI
//	rdf.Symbol blank node          rdf.Term  itself
//
// Decoding never fails: a literal whose datatype has no decoder, or whose
// lexical form the decoder rejects, is returned as the rdf.Literal itself.
package convert
