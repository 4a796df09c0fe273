package parse

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

const jsonldDefaultGraph = "@default"

// parseJSONLD converts the document to an RDF dataset with json-gold and
// emits the default graph first, then named graphs in label order.
func parseJSONLD(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	doc, err := ld.DocumentFromReader(r)
	if err != nil {
		return &SyntaxError{Format: format.JSONLD, Msg: err.Error(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	proc := ld.NewJsonLdProcessor()
	ldOpts := ld.NewJsonLdOptions(opts.BaseIRI)
	out, err := proc.ToRDF(doc, ldOpts)
	if err != nil {
		return &SyntaxError{Format: format.JSONLD, Msg: err.Error(), Err: err}
	}
	dataset, ok := out.(*ld.RDFDataset)
	if !ok {
		return fmt.Errorf("jsonld: unexpected ToRDF result %T", out)
	}

	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		if name != jsonldDefaultGraph {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := dataset.Graphs[jsonldDefaultGraph]; ok {
		names = append([]string{jsonldDefaultGraph}, names...)
	}

	bnodes := newBNodeScope()
	for _, name := range names {
		var graph rdf.Term
		if name != jsonldDefaultGraph {
			graph = ldResource(name, bnodes)
		}
		for _, q := range dataset.Graphs[name] {
			stmt, err := ldStatement(q, graph, bnodes)
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := h(stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func ldStatement(q *ld.Quad, graph rdf.Term, bnodes *bnodeScope) (rdf.Statement, error) {
	subj, err := ldTerm(q.Subject, bnodes)
	if err != nil {
		return rdf.Statement{}, err
	}
	pred, err := ldTerm(q.Predicate, bnodes)
	if err != nil {
		return rdf.Statement{}, err
	}
	p, ok := pred.(rdf.IRI)
	if !ok {
		return rdf.Statement{}, &SyntaxError{Format: format.JSONLD, Msg: fmt.Sprintf("predicate %s is not an IRI", pred)}
	}
	obj, err := ldTerm(q.Object, bnodes)
	if err != nil {
		return rdf.Statement{}, err
	}
	return rdf.Statement{Subject: subj, Predicate: p, Object: obj, Context: graph}, nil
}

func ldTerm(n ld.Node, bnodes *bnodeScope) (rdf.Term, error) {
	switch v := n.(type) {
	case ld.IRI:
		return rdf.NewIRI(v.Value), nil
	case ld.BlankNode:
		return bnodes.named(strings.TrimPrefix(v.Attribute, "_:")), nil
	case ld.Literal:
		switch {
		case v.Language != "":
			return rdf.NewLangLiteral(v.Value, v.Language), nil
		case v.Datatype == "" || v.Datatype == ld.XSDString:
			return rdf.NewLiteral(v.Value), nil
		default:
			return rdf.NewTypedLiteral(v.Value, v.Datatype), nil
		}
	default:
		return nil, &SyntaxError{Format: format.JSONLD, Msg: fmt.Sprintf("unsupported node %T", n)}
	}
}

func ldResource(label string, bnodes *bnodeScope) rdf.Term {
	if strings.HasPrefix(label, "_:") {
		return bnodes.named(label[2:])
	}
	return rdf.NewIRI(label)
}
