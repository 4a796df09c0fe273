package parse

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

// Handler receives statements in document order. Returning an error stops
// the parser, which then returns that error unchanged.
type Handler func(rdf.Statement) error

// Options configures a parse.
type Options struct {
	// BaseIRI resolves relative IRI references. Documents may override it
	// with @base or xml:base.
	BaseIRI string
}

// Func is the signature every parser implements.
type Func func(ctx context.Context, r io.Reader, opts Options, h Handler) error

var (
	mu       sync.RWMutex
	registry = map[string]Func{
		format.NTriples: parseNTriples,
		format.NQuads:   parseNQuads,
		format.Turtle:   parseTurtle,
		format.TriG:     parseTriG,
		format.N3:       parseN3,
		format.RDFXML:   parseRDFXML,
		format.TriX:     parseTriX,
		format.RDFJSON:  parseRDFJSON,
		format.JSONLD:   parseJSONLD,
	}
)

// Register installs fn as the parser for the named format, replacing any
// existing one.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Lookup returns the parser for the named format.
func Lookup(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// Formats returns the names of all registered parsers, sorted.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse runs the parser registered for the named format.
func Parse(ctx context.Context, r io.Reader, formatName string, opts Options, h Handler) error {
	fn, ok := Lookup(formatName)
	if !ok {
		return &format.UnsupportedFormatError{Value: formatName, By: "name"}
	}
	return fn(ctx, r, opts, h)
}

// Collect parses the whole input and returns its statements. Intended for
// small inputs and tests.
func Collect(ctx context.Context, r io.Reader, formatName string, opts Options) ([]rdf.Statement, error) {
	var out []rdf.Statement
	err := Parse(ctx, r, formatName, opts, func(s rdf.Statement) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("parse %s: %w", formatName, err)
	}
	return out, nil
}
