package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/rdfio/internal/rdf"
)

// jsonldWriter buffers N-Quads and converts them with json-gold on Close.
// The output is expanded JSON-LD; named graphs become @graph entries.
type jsonldWriter struct {
	w     io.Writer
	quads bytes.Buffer
	lines *lineWriter
}

func newJSONLD(w io.Writer) Writer {
	j := &jsonldWriter{w: w}
	j.lines = newNQuads(&j.quads).(*lineWriter)
	return j
}

func (j *jsonldWriter) Write(st rdf.Statement) error {
	return j.lines.Write(st)
}

func (j *jsonldWriter) Close() error {
	if err := j.lines.Close(); err != nil {
		return err
	}
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	doc, err := proc.FromRDF(j.quads.String(), opts)
	if err != nil {
		return fmt.Errorf("jsonld: %w", err)
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
