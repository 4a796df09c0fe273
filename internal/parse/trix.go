package parse

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

// TriXNamespace is the TriX document namespace. Element names are matched by
// local name so documents without the namespace are accepted too.
const TriXNamespace = "http://www.w3.org/2004/03/trix/trix-1/"

func parseTriX(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	p := &trixParser{ctx: ctx, dec: xml.NewDecoder(r), h: h, bnodes: newBNodeScope(), base: opts.BaseIRI}
	return p.run()
}

type trixParser struct {
	ctx    context.Context
	dec    *xml.Decoder
	h      Handler
	bnodes *bnodeScope
	base   string
}

func (p *trixParser) errorf(msg string, args ...any) error {
	line, col := p.dec.InputPos()
	return syntaxErrorf(format.TriX, line, col, msg, args...)
}

func (p *trixParser) token() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err == nil {
		return tok, nil
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return nil, wrapSyntax(format.TriX, se.Line, 0, err)
	}
	return nil, err
}

func (p *trixParser) run() error {
	for {
		tok, err := p.token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "TriX":
			continue
		case "graph":
			if err := p.graph(); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected element <%s>", start.Name.Local)
		}
	}
}

func (p *trixParser) graph() error {
	var name rdf.Term
	triples := 0
	for {
		tok, err := p.token()
		if err != nil {
			return p.eof(err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf("unexpected text in <graph>")
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "uri", "id":
				if triples > 0 || name != nil {
					return p.errorf("graph name must precede all triples")
				}
				if name, err = p.term(t); err != nil {
					return err
				}
			case "triple":
				if err := p.triple(name); err != nil {
					return err
				}
				triples++
			default:
				return p.errorf("unexpected element <%s> in <graph>", t.Name.Local)
			}
		}
	}
}

func (p *trixParser) triple(graph rdf.Term) error {
	var terms []rdf.Term
	for {
		tok, err := p.token()
		if err != nil {
			return p.eof(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			term, err := p.term(t)
			if err != nil {
				return err
			}
			terms = append(terms, term)
		case xml.EndElement:
			if len(terms) != 3 {
				return p.errorf("<triple> needs exactly 3 terms, found %d", len(terms))
			}
			pred, ok := terms[1].(rdf.IRI)
			if !ok {
				return p.errorf("predicate must be a <uri>")
			}
			if !rdf.IsResource(terms[0]) {
				return p.errorf("subject must be a <uri> or <id>")
			}
			if err := p.ctx.Err(); err != nil {
				return err
			}
			return p.h(rdf.Statement{Subject: terms[0], Predicate: pred, Object: terms[2], Context: graph})
		}
	}
}

func (p *trixParser) term(start xml.StartElement) (rdf.Term, error) {
	text, err := p.text()
	if err != nil {
		return nil, err
	}
	switch start.Name.Local {
	case "uri":
		return rdf.NewIRI(resolveIRI(p.base, strings.TrimSpace(text))), nil
	case "id":
		return p.bnodes.named(strings.TrimSpace(text)), nil
	case "plainLiteral":
		for _, a := range start.Attr {
			if a.Name.Space == xmlNS && a.Name.Local == "lang" {
				return rdf.NewLangLiteral(text, a.Value), nil
			}
		}
		return rdf.NewLiteral(text), nil
	case "typedLiteral":
		for _, a := range start.Attr {
			if a.Name.Local == "datatype" {
				return rdf.NewTypedLiteral(text, a.Value), nil
			}
		}
		return nil, p.errorf("<typedLiteral> without datatype")
	default:
		return nil, p.errorf("unexpected term element <%s>", start.Name.Local)
	}
}

func (p *trixParser) text() (string, error) {
	var b strings.Builder
	for {
		tok, err := p.token()
		if err != nil {
			return "", p.eof(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		case xml.StartElement:
			return "", p.errorf("unexpected element <%s> inside term", t.Name.Local)
		}
	}
}

func (p *trixParser) eof(err error) error {
	if errors.Is(err, io.EOF) {
		return p.errorf("unexpected end of document")
	}
	return err
}
