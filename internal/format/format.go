// Package format holds the static table of recognized RDF serializations and
// resolves a format from a name, a MIME type or a file name.
package format

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Format describes one serialization.
type Format struct {
	Name       string   // canonical name, e.g. "turtle"
	Label      string   // human-readable name, e.g. "Turtle"
	Aliases    []string // alternative names accepted by ByName
	MediaTypes []string // first entry is the preferred type
	Extensions []string // with leading dot; first entry is the preferred one
	Quads      bool     // true if the syntax can carry named graphs
}

// MediaType returns the preferred MIME type.
func (f Format) MediaType() string { return f.MediaTypes[0] }

// Extension returns the preferred file extension.
func (f Format) Extension() string { return f.Extensions[0] }

func (f Format) String() string { return f.Name }

// Canonical format names.
const (
	NTriples = "ntriples"
	NQuads   = "nquads"
	Turtle   = "turtle"
	TriG     = "trig"
	TriX     = "trix"
	RDFXML   = "rdfxml"
	N3       = "n3"
	RDFJSON  = "rdfjson"
	JSONLD   = "jsonld"
)

var table = []Format{
	{Name: NTriples, Label: "N-Triples", Aliases: []string{"nt", "n-triples"},
		MediaTypes: []string{"application/n-triples"}, Extensions: []string{".nt"}},
	{Name: NQuads, Label: "N-Quads", Aliases: []string{"nq", "n-quads"},
		MediaTypes: []string{"application/n-quads", "text/x-nquads"}, Extensions: []string{".nq"}, Quads: true},
	{Name: Turtle, Label: "Turtle", Aliases: []string{"ttl"},
		MediaTypes: []string{"text/turtle", "application/x-turtle"}, Extensions: []string{".ttl"}},
	{Name: TriG, Label: "TriG",
		MediaTypes: []string{"application/trig", "application/x-trig"}, Extensions: []string{".trig"}, Quads: true},
	{Name: TriX, Label: "TriX",
		MediaTypes: []string{"application/trix"}, Extensions: []string{".trix"}, Quads: true},
	{Name: RDFXML, Label: "RDF/XML", Aliases: []string{"rdf", "xml", "rdf/xml"},
		MediaTypes: []string{"application/rdf+xml"}, Extensions: []string{".rdf", ".owl", ".xml"}},
	{Name: N3, Label: "N3", Aliases: []string{"notation3"},
		MediaTypes: []string{"text/n3", "text/rdf+n3"}, Extensions: []string{".n3"}},
	{Name: RDFJSON, Label: "RDF/JSON", Aliases: []string{"rj", "rdf/json"},
		MediaTypes: []string{"application/rdf+json"}, Extensions: []string{".rj"}},
	{Name: JSONLD, Label: "JSON-LD", Aliases: []string{"json-ld"},
		MediaTypes: []string{"application/ld+json"}, Extensions: []string{".jsonld"}, Quads: true},
}

var (
	byName      = map[string]Format{}
	byMediaType = map[string]Format{}
	byExtension = map[string]Format{}
)

func init() {
	for _, f := range table {
		byName[f.Name] = f
		for _, a := range f.Aliases {
			byName[a] = f
		}
		for _, mt := range f.MediaTypes {
			byMediaType[mt] = f
		}
		for _, ext := range f.Extensions {
			byExtension[ext] = f
		}
	}
}

// ErrNoFormatSupplied is returned when no format was given and none could be
// inferred from the source.
var ErrNoFormatSupplied = errors.New("no serialization format supplied and none could be inferred")

// ErrUnsupportedFormat matches any *UnsupportedFormatError via errors.Is.
var ErrUnsupportedFormat = errors.New("unsupported format")

// UnsupportedFormatError names a format value that is not in the table.
type UnsupportedFormatError struct {
	Value string // the value as supplied
	By    string // "name", "media type" or "extension"
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %s %q", e.By, e.Value)
}

// Is makes errors.Is(err, ErrUnsupportedFormat) true.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// All returns the table in a stable order.
func All() []Format {
	out := make([]Format, len(table))
	copy(out, table)
	return out
}

// ByName looks a format up by canonical name or alias, ignoring case.
func ByName(name string) (Format, error) {
	if f, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return Format{}, &UnsupportedFormatError{Value: name, By: "name"}
}

// ByMediaType looks a format up by MIME type. Parameters such as charset
// are ignored.
func ByMediaType(mediaType string) (Format, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	}
	if f, ok := byMediaType[mt]; ok {
		return f, nil
	}
	return Format{}, &UnsupportedFormatError{Value: mediaType, By: "media type"}
}

// ByExtension looks a format up by the extension of a file name or path.
// The argument may also be a bare extension such as ".ttl".
func ByExtension(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if f, ok := byExtension[ext]; ok {
		return f, nil
	}
	return Format{}, &UnsupportedFormatError{Value: name, By: "extension"}
}

// Resolve picks a format in priority order: the explicit name, then the MIME
// type, then the extension of the source name.
//
// An explicit name or MIME type that is not recognized fails with
// *UnsupportedFormatError. When neither is given and the source name has no
// recognized extension, Resolve fails with ErrNoFormatSupplied.
func Resolve(name, mediaType, sourceName string) (Format, error) {
	if name != "" {
		return ByName(name)
	}
	if mediaType != "" {
		return ByMediaType(mediaType)
	}
	if sourceName != "" {
		if f, err := ByExtension(sourceName); err == nil {
			return f, nil
		}
	}
	return Format{}, ErrNoFormatSupplied
}
