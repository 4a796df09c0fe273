package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

// RDFJSONObject is one object value in an RDF/JSON document.
type RDFJSONObject struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// parseRDFJSON walks the document with the token API so statements are
// emitted in document order without holding the whole tree.
func parseRDFJSON(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	p := &rdfjsonParser{ctx: ctx, dec: json.NewDecoder(r), h: h, bnodes: newBNodeScope(), base: opts.BaseIRI}
	return p.run()
}

type rdfjsonParser struct {
	ctx    context.Context
	dec    *json.Decoder
	h      Handler
	bnodes *bnodeScope
	base   string
}

func (p *rdfjsonParser) errorf(msg string, args ...any) error {
	return &SyntaxError{Format: format.RDFJSON, Msg: fmt.Sprintf("offset %d: ", p.dec.InputOffset()) + fmt.Sprintf(msg, args...)}
}

func (p *rdfjsonParser) wrap(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return p.errorf("unexpected end of document")
	}
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &te) {
		return &SyntaxError{Format: format.RDFJSON, Msg: err.Error(), Err: err}
	}
	return err
}

func (p *rdfjsonParser) delim(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		return p.wrap(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return p.errorf("expected %q, found %v", want, tok)
	}
	return nil
}

func (p *rdfjsonParser) key() (string, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return "", p.wrap(err)
	}
	k, ok := tok.(string)
	if !ok {
		return "", p.errorf("expected object key, found %v", tok)
	}
	return k, nil
}

func (p *rdfjsonParser) run() error {
	tok, err := p.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return p.wrap(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return p.errorf("document must be a JSON object")
	}
	for p.dec.More() {
		s, err := p.key()
		if err != nil {
			return err
		}
		subj := p.resource(s)
		if err := p.delim('{'); err != nil {
			return err
		}
		for p.dec.More() {
			pk, err := p.key()
			if err != nil {
				return err
			}
			pred := rdf.NewIRI(resolveIRI(p.base, pk))
			var objects []RDFJSONObject
			if err := p.dec.Decode(&objects); err != nil {
				return p.wrap(err)
			}
			for _, o := range objects {
				obj, err := p.object(o)
				if err != nil {
					return err
				}
				if err := p.ctx.Err(); err != nil {
					return err
				}
				if err := p.h(rdf.NewTriple(subj, pred, obj)); err != nil {
					return err
				}
			}
		}
		if err := p.delim('}'); err != nil {
			return err
		}
	}
	return p.delim('}')
}

func (p *rdfjsonParser) resource(v string) rdf.Term {
	if strings.HasPrefix(v, "_:") {
		return p.bnodes.named(v[2:])
	}
	return rdf.NewIRI(resolveIRI(p.base, v))
}

func (p *rdfjsonParser) object(o RDFJSONObject) (rdf.Term, error) {
	switch o.Type {
	case "uri":
		return rdf.NewIRI(resolveIRI(p.base, o.Value)), nil
	case "bnode":
		return p.bnodes.named(strings.TrimPrefix(o.Value, "_:")), nil
	case "literal":
		switch {
		case o.Lang != "" && o.Datatype != "" && o.Datatype != rdf.RDFLangString:
			return nil, p.errorf("literal %q has both lang and datatype", o.Value)
		case o.Lang != "":
			return rdf.NewLangLiteral(o.Value, o.Lang), nil
		case o.Datatype != "":
			return rdf.NewTypedLiteral(o.Value, o.Datatype), nil
		default:
			return rdf.NewLiteral(o.Value), nil
		}
	default:
		return nil, p.errorf("unknown object type %q", o.Type)
	}
}
