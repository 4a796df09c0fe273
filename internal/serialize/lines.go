package serialize

import (
	"bufio"
	"io"

	"github.com/roach88/rdfio/internal/rdf"
)

// lineWriter writes one statement per line. Triples-only output drops
// the context.
type lineWriter struct {
	w     *bufio.Writer
	quads bool
}

func newNTriples(w io.Writer) Writer { return &lineWriter{w: bufio.NewWriter(w)} }
func newNQuads(w io.Writer) Writer   { return &lineWriter{w: bufio.NewWriter(w), quads: true} }

func (l *lineWriter) Write(st rdf.Statement) error {
	if !l.quads {
		st.Context = nil
	}
	if err := st.Validate(); err != nil {
		return err
	}
	l.w.WriteString(st.String())
	return l.w.WriteByte('\n')
}

func (l *lineWriter) Close() error {
	return l.w.Flush()
}
