// Package codec converts statements to and from the store-native record form
// and to and from native-valued statements.
package codec

import (
	"fmt"

	"github.com/roach88/rdfio/internal/convert"
	"github.com/roach88/rdfio/internal/rdf"
)

// Record is the store-native form of a statement: four N-Triples-encoded term
// keys. G is empty for a statement in the default graph.
type Record struct {
	S string
	P string
	O string
	G string
}

// IsTriple reports whether the record lives in the default graph.
func (r Record) IsTriple() bool { return r.G == "" }

// Encode validates s and returns its record.
func Encode(s rdf.Statement) (Record, error) {
	if err := s.Validate(); err != nil {
		return Record{}, err
	}
	r := Record{
		S: rdf.FormatTerm(s.Subject),
		P: rdf.FormatTerm(s.Predicate),
		O: rdf.FormatTerm(s.Object),
	}
	if s.Context != nil {
		r.G = rdf.FormatTerm(s.Context)
	}
	return r, nil
}

// Decode is the inverse of Encode.
func Decode(r Record) (rdf.Statement, error) {
	subj, err := rdf.ParseTerm(r.S)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("decode subject: %w", err)
	}
	pred, err := rdf.ParseTerm(r.P)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("decode predicate: %w", err)
	}
	p, ok := pred.(rdf.IRI)
	if !ok {
		return rdf.Statement{}, fmt.Errorf("decode predicate: %s is not an IRI", r.P)
	}
	obj, err := rdf.ParseTerm(r.O)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("decode object: %w", err)
	}
	s := rdf.NewTriple(subj, p, obj)
	if r.G != "" {
		g, err := rdf.ParseTerm(r.G)
		if err != nil {
			return rdf.Statement{}, fmt.Errorf("decode context: %w", err)
		}
		s.Context = g
	}
	if err := s.Validate(); err != nil {
		return rdf.Statement{}, err
	}
	return s, nil
}

// NativeStatement is a statement whose positions hold native values as
// understood by convert.Converter. A nil Context means the default graph.
type NativeStatement struct {
	Subject   any
	Predicate any
	Object    any
	Context   any
}

// Codec converts native statements using a TypeConverter.
type Codec struct {
	conv *convert.Converter
}

// New returns a Codec backed by conv. A nil conv uses convert.Default().
func New(conv *convert.Converter) *Codec {
	if conv == nil {
		conv = convert.Default()
	}
	return &Codec{conv: conv}
}

// Converter returns the converter the codec uses.
func (c *Codec) Converter() *convert.Converter { return c.conv }

// FromNative converts every position through the converter and validates the
// resulting statement.
func (c *Codec) FromNative(n NativeStatement) (rdf.Statement, error) {
	subj, err := c.conv.ToTerm(n.Subject)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("subject: %w", err)
	}
	pred, err := c.conv.ToTerm(n.Predicate)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("predicate: %w", err)
	}
	p, ok := pred.(rdf.IRI)
	if !ok {
		return rdf.Statement{}, fmt.Errorf("predicate: %s is not an IRI", pred)
	}
	obj, err := c.conv.ToTerm(n.Object)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("object: %w", err)
	}
	s := rdf.NewTriple(subj, p, obj)
	if n.Context != nil {
		g, err := c.conv.ToTerm(n.Context)
		if err != nil {
			return rdf.Statement{}, fmt.Errorf("context: %w", err)
		}
		s.Context = g
	}
	if err := s.Validate(); err != nil {
		return rdf.Statement{}, err
	}
	return s, nil
}

// ToNative converts every position of s to its native value.
func (c *Codec) ToNative(s rdf.Statement) NativeStatement {
	n := NativeStatement{
		Subject:   c.conv.FromTerm(s.Subject),
		Predicate: c.conv.FromTerm(s.Predicate),
		Object:    c.conv.FromTerm(s.Object),
	}
	if s.Context != nil {
		n.Context = c.conv.FromTerm(s.Context)
	}
	return n
}
