package parse

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

const maxLineBytes = 16 << 20

func parseNTriples(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	return parseLines(ctx, r, format.NTriples, false, h)
}

func parseNQuads(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	return parseLines(ctx, r, format.NQuads, true, h)
}

// parseLines handles the line-based formats. Blank node labels are used
// verbatim: both formats scope them to the document already.
func parseLines(ctx context.Context, r io.Reader, formatName string, quads bool, h Handler) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		stmt, ok, err := parseLine(line, quads)
		if err != nil {
			return &SyntaxError{Format: formatName, Line: lineNo, Column: err.col, Msg: err.msg}
		}
		if !ok {
			continue
		}
		if err := h(stmt); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return wrapSyntax(formatName, lineNo+1, 0, err)
	}
	return nil
}

type lineError struct {
	col int
	msg string
}

func parseLine(line string, quads bool) (rdf.Statement, bool, *lineError) {
	pos := rdf.SkipSpace(line, 0)
	if pos == len(line) || line[pos] == '#' {
		return rdf.Statement{}, false, nil
	}

	fail := func(at int, err error) *lineError {
		return &lineError{col: at + 1, msg: err.Error()}
	}

	subj, next, err := rdf.ReadTerm(line, pos)
	if err != nil {
		return rdf.Statement{}, false, fail(pos, err)
	}
	if !rdf.IsResource(subj) {
		return rdf.Statement{}, false, &lineError{col: pos + 1, msg: "subject must be an IRI or blank node"}
	}
	pos = rdf.SkipSpace(line, next)
	pred, next, err := rdf.ReadTerm(line, pos)
	if err != nil {
		return rdf.Statement{}, false, fail(pos, err)
	}
	p, ok := pred.(rdf.IRI)
	if !ok {
		return rdf.Statement{}, false, &lineError{col: pos + 1, msg: "predicate must be an IRI"}
	}
	pos = rdf.SkipSpace(line, next)
	obj, next, err := rdf.ReadTerm(line, pos)
	if err != nil {
		return rdf.Statement{}, false, fail(pos, err)
	}
	stmt := rdf.NewTriple(subj, p, obj)

	pos = rdf.SkipSpace(line, next)
	if pos < len(line) && line[pos] != '.' {
		if !quads {
			return rdf.Statement{}, false, &lineError{col: pos + 1, msg: "expected '.' after object"}
		}
		g, next, err := rdf.ReadTerm(line, pos)
		if err != nil {
			return rdf.Statement{}, false, fail(pos, err)
		}
		if !rdf.IsResource(g) {
			return rdf.Statement{}, false, &lineError{col: pos + 1, msg: "graph label must be an IRI or blank node"}
		}
		stmt.Context = g
		pos = rdf.SkipSpace(line, next)
	}
	if pos >= len(line) || line[pos] != '.' {
		return rdf.Statement{}, false, &lineError{col: pos + 1, msg: "expected '.' at end of statement"}
	}
	pos = rdf.SkipSpace(line, pos+1)
	if pos < len(line) && line[pos] != '#' {
		return rdf.Statement{}, false, &lineError{col: pos + 1, msg: "unexpected content after '.'"}
	}
	return stmt, true, nil
}
