// Package serialize writes statements in the line-based and JSON formats.
//
// N-Triples and N-Quads writers stream. RDF/JSON and JSON-LD need the
// whole graph before anything can be written, so they buffer until Close.
package serialize

import (
	"io"
	"sort"
	"sync"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

// Writer receives statements. Close flushes buffered output; it does not
// close the underlying io.Writer.
type Writer interface {
	Write(st rdf.Statement) error
	Close() error
}

// NewFunc creates a writer for one format.
type NewFunc func(w io.Writer) Writer

var (
	mu       sync.RWMutex
	registry = map[string]NewFunc{
		format.NTriples: newNTriples,
		format.NQuads:   newNQuads,
		format.RDFJSON:  newRDFJSON,
		format.JSONLD:   newJSONLD,
	}
)

// Register installs fn as the writer for the named format.
func Register(name string, fn NewFunc) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Formats returns the names of the formats that can be written, sorted.
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

// New returns a writer for the named format. Aliases are accepted.
func New(w io.Writer, name string) (Writer, error) {
	f, err := format.ByName(name)
	if err != nil {
		return nil, err
	}
	mu.RLock()
	fn, ok := registry[f.Name]
	mu.RUnlock()
	if !ok {
		return nil, &format.UnsupportedFormatError{Value: name, By: "writer"}
	}
	return fn(w), nil
}

// WriteAll writes every statement and closes the writer.
func WriteAll(w Writer, stmts []rdf.Statement) error {
	for _, st := range stmts {
		if err := w.Write(st); err != nil {
			return err
		}
	}
	return w.Close()
}
