package sparql

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
)

// ResultsMediaType is the SPARQL 1.1 JSON results media type.
const ResultsMediaType = "application/sparql-results+json"

// resultTerm is one RDF term in SPARQL JSON results.
type resultTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func (t resultTerm) term() (rdf.Term, error) {
	switch t.Type {
	case "uri":
		return rdf.NewIRI(t.Value), nil
	case "bnode":
		// Servers may use labels N-Triples cannot spell (nodeID://b12).
		if rdf.ValidateBlankNodeLabel(t.Value) != nil {
			return rdf.NewBlankNode("x" + hex.EncodeToString([]byte(t.Value))), nil
		}
		return rdf.NewBlankNode(t.Value), nil
	case "literal", "typed-literal":
		switch {
		case t.Lang != "":
			return rdf.NewLangLiteral(t.Value, t.Lang), nil
		case t.Datatype != "":
			return rdf.NewTypedLiteral(t.Value, t.Datatype), nil
		default:
			return rdf.NewLiteral(t.Value), nil
		}
	default:
		return nil, fmt.Errorf("unknown term type %q", t.Type)
	}
}

// ResultsDecoder reads SPARQL JSON results incrementally. Bindings are
// decoded one at a time as Next is called.
type ResultsDecoder struct {
	dec     *json.Decoder
	vars    []string
	boolean *bool
	inRows  bool
	done    bool
}

// NewResultsDecoder reads the document up to the first binding.
func NewResultsDecoder(r io.Reader) (*ResultsDecoder, error) {
	d := &ResultsDecoder{dec: json.NewDecoder(r)}
	if err := d.expectDelim('{'); err != nil {
		return nil, err
	}
	for d.dec.More() {
		key, err := d.key()
		if err != nil {
			return nil, err
		}
		switch key {
		case "head":
			var head struct {
				Vars []string `json:"vars"`
			}
			if err := d.dec.Decode(&head); err != nil {
				return nil, fmt.Errorf("decode head: %w", err)
			}
			d.vars = head.Vars
		case "boolean":
			var b bool
			if err := d.dec.Decode(&b); err != nil {
				return nil, fmt.Errorf("decode boolean: %w", err)
			}
			d.boolean = &b
		case "results":
			if err := d.enterBindings(); err != nil {
				return nil, err
			}
			return d, nil
		default:
			var skip json.RawMessage
			if err := d.dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
	}
	d.done = true
	return d, nil
}

// enterBindings positions the decoder inside results.bindings.
func (d *ResultsDecoder) enterBindings() error {
	if err := d.expectDelim('{'); err != nil {
		return err
	}
	for d.dec.More() {
		key, err := d.key()
		if err != nil {
			return err
		}
		if key == "bindings" {
			if err := d.expectDelim('['); err != nil {
				return err
			}
			d.inRows = true
			return nil
		}
		var skip json.RawMessage
		if err := d.dec.Decode(&skip); err != nil {
			return fmt.Errorf("decode results.%s: %w", key, err)
		}
	}
	return errors.New("results has no bindings")
}

// Vars returns the variables listed in the head.
func (d *ResultsDecoder) Vars() []string { return d.vars }

// Boolean returns the ASK result, if the document carried one.
func (d *ResultsDecoder) Boolean() (bool, bool) {
	if d.boolean == nil {
		return false, false
	}
	return *d.boolean, true
}

// Next returns the next solution or io.EOF.
func (d *ResultsDecoder) Next() (algebra.Solution, error) {
	if d.done || !d.inRows {
		return nil, io.EOF
	}
	if !d.dec.More() {
		d.done = true
		return nil, io.EOF
	}
	var row map[string]resultTerm
	if err := d.dec.Decode(&row); err != nil {
		d.done = true
		return nil, fmt.Errorf("decode binding: %w", err)
	}
	sol := make(algebra.Solution, len(row))
	for name, rt := range row {
		t, err := rt.term()
		if err != nil {
			d.done = true
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		sol[name] = t
	}
	return sol, nil
}

func (d *ResultsDecoder) key() (string, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return "", fmt.Errorf("read results: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("read results: expected object key, got %v", tok)
	}
	return key, nil
}

func (d *ResultsDecoder) expectDelim(want json.Delim) error {
	tok, err := d.dec.Token()
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return fmt.Errorf("read results: expected %q, got %v", want, tok)
	}
	return nil
}
