// Package sparql renders algebra queries as SPARQL 1.1 text and decodes
// SPARQL JSON results. Remote store targets use it to speak the SPARQL
// protocol.
package sparql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
)

// ErrBlankGraph is returned when a dataset names a blank-node graph, which
// SPARQL cannot express in FROM or USING clauses.
var ErrBlankGraph = errors.New("blank node graphs cannot be named in a SPARQL dataset")

// Select renders a SELECT query.
func Select(q *algebra.Select, ds *algebra.Dataset) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(q.Projection) == 0 {
		b.WriteString("*")
	} else {
		for i, v := range q.Projection {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("?" + v)
		}
	}
	b.WriteByte('\n')
	if err := writeDataset(&b, ds, "FROM"); err != nil {
		return "", err
	}
	writeWhere(&b, q.Where, q.Filter)
	if len(q.Order) > 0 {
		b.WriteString("ORDER BY")
		for _, v := range q.Order {
			b.WriteString(" ?" + v)
		}
		b.WriteByte('\n')
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, "LIMIT %d\n", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, "OFFSET %d\n", q.Offset)
	}
	return b.String(), nil
}

// Ask renders an ASK query.
func Ask(q *algebra.Ask, ds *algebra.Dataset) (string, error) {
	var b strings.Builder
	b.WriteString("ASK\n")
	if err := writeDataset(&b, ds, "FROM"); err != nil {
		return "", err
	}
	writeWhere(&b, q.Where, q.Filter)
	return b.String(), nil
}

// Modify renders a DELETE/INSERT update. A Modify without Where and with
// ground templates becomes DELETE DATA / INSERT DATA.
func Modify(q *algebra.Modify, ds *algebra.Dataset) (string, error) {
	if len(q.Where) == 0 {
		return modifyData(q)
	}
	var b strings.Builder
	if len(q.Delete) > 0 {
		b.WriteString("DELETE {\n")
		writeTemplate(&b, q.Delete)
		b.WriteString("}\n")
	}
	if len(q.Insert) > 0 {
		b.WriteString("INSERT {\n")
		writeTemplate(&b, q.Insert)
		b.WriteString("}\n")
	}
	if err := writeDataset(&b, ds, "USING"); err != nil {
		return "", err
	}
	writeWhere(&b, q.Where, q.Filter)
	return b.String(), nil
}

func modifyData(q *algebra.Modify) (string, error) {
	ground := func(ps []algebra.Pattern) ([]rdf.Statement, error) {
		out := make([]rdf.Statement, 0, len(ps))
		for _, p := range ps {
			st, ok := p.Instantiate(nil)
			if !ok {
				return nil, fmt.Errorf("template %s is not ground", p)
			}
			out = append(out, st)
		}
		return out, nil
	}
	var parts []string
	if len(q.Delete) > 0 {
		del, err := ground(q.Delete)
		if err != nil {
			return "", err
		}
		s, err := DeleteData(del)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(q.Insert) > 0 {
		ins, err := ground(q.Insert)
		if err != nil {
			return "", err
		}
		parts = append(parts, InsertData(ins))
	}
	return strings.Join(parts, ";\n"), nil
}

// InsertData renders INSERT DATA for stmts.
func InsertData(stmts []rdf.Statement) string {
	var b strings.Builder
	b.WriteString("INSERT DATA {\n")
	writeData(&b, stmts)
	b.WriteString("}\n")
	return b.String()
}

// DeleteData renders DELETE DATA for stmts. SPARQL forbids blank nodes in
// DELETE DATA.
func DeleteData(stmts []rdf.Statement) (string, error) {
	for _, st := range stmts {
		for _, t := range []rdf.Term{st.Subject, st.Object, st.Context} {
			if _, ok := t.(rdf.BlankNode); ok {
				return "", fmt.Errorf("cannot delete %s: blank nodes are not allowed in DELETE DATA", st)
			}
		}
	}
	var b strings.Builder
	b.WriteString("DELETE DATA {\n")
	writeData(&b, stmts)
	b.WriteString("}\n")
	return b.String(), nil
}

// Clear renders CLEAR ALL, or one CLEAR per graph. A nil graph is the
// default graph.
func Clear(graphs []rdf.Term) (string, error) {
	if len(graphs) == 0 {
		return "CLEAR ALL\n", nil
	}
	var parts []string
	for _, g := range graphs {
		if g == nil {
			parts = append(parts, "CLEAR DEFAULT")
			continue
		}
		iri, ok := g.(rdf.IRI)
		if !ok {
			return "", fmt.Errorf("clear %s: %w", g, ErrBlankGraph)
		}
		parts = append(parts, "CLEAR GRAPH "+rdf.FormatTerm(iri))
	}
	return strings.Join(parts, ";\n") + "\n", nil
}

func writeDataset(b *strings.Builder, ds *algebra.Dataset, keyword string) error {
	if ds == nil {
		return nil
	}
	for _, list := range []struct {
		names []string
		kw    string
	}{
		{ds.DefaultGraphs, keyword},
		{ds.NamedGraphs, keyword + " NAMED"},
	} {
		for _, name := range list.names {
			iri, ok := algebra.GraphTerm(name).(rdf.IRI)
			if !ok {
				return fmt.Errorf("%s %q: %w", list.kw, name, ErrBlankGraph)
			}
			fmt.Fprintf(b, "%s %s\n", list.kw, rdf.FormatTerm(iri))
		}
	}
	return nil
}

func writeWhere(b *strings.Builder, where []algebra.Pattern, filter algebra.Predicate) {
	b.WriteString("WHERE {\n")
	writeTemplate(b, where)
	if f := renderPredicate(filter); f != "" {
		b.WriteString("  FILTER(" + f + ")\n")
	}
	b.WriteString("}\n")
}

func writeTemplate(b *strings.Builder, patterns []algebra.Pattern) {
	for _, p := range patterns {
		b.WriteString("  ")
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
}

func writeData(b *strings.Builder, stmts []rdf.Statement) {
	for _, st := range stmts {
		b.WriteString("  ")
		if st.Context != nil {
			b.WriteString("GRAPH " + rdf.FormatTerm(st.Context) + " { ")
		}
		b.WriteString(rdf.FormatTerm(st.Subject) + " " + rdf.FormatTerm(st.Predicate) + " " + rdf.FormatTerm(st.Object) + " .")
		if st.Context != nil {
			b.WriteString(" }")
		}
		b.WriteByte('\n')
	}
}

func renderPredicate(p algebra.Predicate) string {
	switch p := p.(type) {
	case *algebra.Equals:
		return fmt.Sprintf("sameTerm(?%s, %s)", p.Var, rdf.FormatTerm(p.Term))
	case *algebra.NotEquals:
		return fmt.Sprintf("!sameTerm(?%s, %s)", p.Var, rdf.FormatTerm(p.Term))
	case *algebra.And:
		var parts []string
		for _, sub := range p.Predicates {
			if s := renderPredicate(sub); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " && ")
	default:
		return ""
	}
}
