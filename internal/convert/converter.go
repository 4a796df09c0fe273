package convert

import (
	"reflect"
	"sync"

	"github.com/roach88/rdfio/internal/rdf"
)

// EncodeFunc turns a native value of one concrete type into a term.
type EncodeFunc func(v any) (rdf.Term, error)

// DecodeFunc turns the lexical form of a typed literal into a native value.
// Returning an error marks the literal as ill-typed.
type DecodeFunc func(lexical string) (any, error)

// Converter holds the encoder and decoder tables.
// It is safe for concurrent use.
type Converter struct {
	mu       sync.RWMutex
	encoders map[reflect.Type]EncodeFunc
	decoders map[string]DecodeFunc
}

// New returns a Converter seeded with the default XSD mappings.
func New() *Converter {
	c := &Converter{
		encoders: make(map[reflect.Type]EncodeFunc),
		decoders: make(map[string]DecodeFunc),
	}
	registerDefaults(c)
	return c
}

var (
	defaultOnce sync.Once
	defaultConv *Converter
)

// Default returns the process-wide converter.
func Default() *Converter {
	defaultOnce.Do(func() { defaultConv = New() })
	return defaultConv
}

// RegisterEncoder installs fn for values whose dynamic type is exactly t,
// replacing any previous encoder.
func (c *Converter) RegisterEncoder(t reflect.Type, fn EncodeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoders[t] = fn
}

// RegisterDecoder installs fn for literals with the given datatype IRI,
// replacing any previous decoder.
func (c *Converter) RegisterDecoder(datatype string, fn DecodeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[datatype] = fn
}

// ToTerm converts a native value to a term.
//
// Terms pass through unchanged, strings become IRIs and rdf.Symbol values
// become blank nodes. Everything else goes through the encoder table; a type
// with no encoder yields *ConversionError.
func (c *Converter) ToTerm(v any) (rdf.Term, error) {
	switch x := v.(type) {
	case nil:
		return nil, &ConversionError{}
	case rdf.Term:
		return x, nil
	case string:
		return rdf.NewIRI(x), nil
	case rdf.Symbol:
		return rdf.NewBlankNode(string(x)), nil
	}

	t := reflect.TypeOf(v)
	c.mu.RLock()
	fn, ok := c.encoders[t]
	c.mu.RUnlock()
	if !ok {
		return nil, &ConversionError{Type: t}
	}
	return fn(v)
}

// FromTerm converts a term to its native value. It never fails.
//
// IRIs become strings, blank nodes become rdf.Symbol and literals are decoded
// by datatype. A literal that cannot be decoded is returned unchanged.
func (c *Converter) FromTerm(t rdf.Term) any {
	switch x := t.(type) {
	case rdf.IRI:
		return x.Value
	case rdf.BlankNode:
		return rdf.Symbol(x.ID)
	case rdf.Literal:
		if x.Lang != "" || x.Datatype == "" {
			return x
		}
		c.mu.RLock()
		fn, ok := c.decoders[x.Datatype]
		c.mu.RUnlock()
		if !ok {
			return x
		}
		v, err := fn(x.Lexical)
		if err != nil {
			return x
		}
		return v
	default:
		return t
	}
}
