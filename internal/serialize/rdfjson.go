package serialize

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/rdf"
)

// rdfjsonWriter collects the graph and writes it on Close, subjects and
// predicates sorted. Contexts are dropped; RDF/JSON has no named graphs.
type rdfjsonWriter struct {
	w     io.Writer
	graph map[string]map[string][]parse.RDFJSONObject
	seen  map[string]bool
}

func newRDFJSON(w io.Writer) Writer {
	return &rdfjsonWriter{
		w:     w,
		graph: map[string]map[string][]parse.RDFJSONObject{},
		seen:  map[string]bool{},
	}
}

func (r *rdfjsonWriter) Write(st rdf.Statement) error {
	if err := st.Validate(); err != nil {
		return err
	}
	triple := rdf.NewTriple(st.Subject, st.Predicate, st.Object)
	id := rdf.StatementID(triple)
	if r.seen[id] {
		return nil
	}
	r.seen[id] = true

	subj := resourceKey(st.Subject)
	preds, ok := r.graph[subj]
	if !ok {
		preds = map[string][]parse.RDFJSONObject{}
		r.graph[subj] = preds
	}
	preds[st.Predicate.Value] = append(preds[st.Predicate.Value], rdfjsonObject(st.Object))
	return nil
}

func resourceKey(t rdf.Term) string {
	if b, ok := t.(rdf.BlankNode); ok {
		return b.String()
	}
	return t.(rdf.IRI).Value
}

func rdfjsonObject(t rdf.Term) parse.RDFJSONObject {
	switch t := t.(type) {
	case rdf.IRI:
		return parse.RDFJSONObject{Type: "uri", Value: t.Value}
	case rdf.BlankNode:
		return parse.RDFJSONObject{Type: "bnode", Value: t.String()}
	case rdf.Literal:
		return parse.RDFJSONObject{Type: "literal", Value: t.Lexical, Lang: t.Lang, Datatype: t.Datatype}
	default:
		return parse.RDFJSONObject{}
	}
}

// Close writes the document. encoding/json sorts map keys, which gives
// the stable subject and predicate order.
func (r *rdfjsonWriter) Close() error {
	for _, preds := range r.graph {
		for p, objs := range preds {
			sort.SliceStable(objs, func(i, j int) bool {
				return objectKey(objs[i]) < objectKey(objs[j])
			})
			preds[p] = objs
		}
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r.graph)
}

func objectKey(o parse.RDFJSONObject) string {
	return o.Type + "\x00" + o.Value + "\x00" + o.Lang + "\x00" + o.Datatype
}
