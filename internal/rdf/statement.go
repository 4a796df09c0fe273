package rdf

import (
	"errors"
	"fmt"
	"strings"
)

// Statement is an RDF statement, optionally scoped to a named graph.
//
// Context == nil places the statement in the default graph (a triple).
// A non-nil Context scopes it to exactly one named graph (a quad).
type Statement struct {
	Subject   Term
	Predicate IRI
	Object    Term
	Context   Term
}

// NewTriple creates a statement in the default graph.
func NewTriple(s Term, p IRI, o Term) Statement {
	return Statement{Subject: s, Predicate: p, Object: o}
}

// NewQuad creates a statement scoped to the named graph g.
func NewQuad(s Term, p IRI, o Term, g Term) Statement {
	return Statement{Subject: s, Predicate: p, Object: o, Context: g}
}

// IsTriple reports whether the statement is in the default graph.
func (s Statement) IsTriple() bool {
	return s.Context == nil
}

// InGraph returns a copy of the statement scoped to g (nil = default graph).
func (s Statement) InGraph(g Term) Statement {
	s.Context = g
	return s
}

// Validate checks the positional constraints of a statement:
// subject is an IRI or blank node, predicate is a non-empty IRI,
// object is present and context (if any) is an IRI or blank node.
// Blank node labels must be valid N-Triples labels.
func (s Statement) Validate() error {
	if s.Subject == nil || !IsResource(s.Subject) {
		return fmt.Errorf("invalid statement: subject must be an IRI or blank node, got %v", s.Subject)
	}
	if s.Predicate.Value == "" {
		return errors.New("invalid statement: predicate IRI is empty")
	}
	if s.Object == nil {
		return errors.New("invalid statement: object is missing")
	}
	if lit, ok := s.Object.(Literal); ok {
		if err := ValidateLiteral(lit); err != nil {
			return fmt.Errorf("invalid statement: %w", err)
		}
	}
	if s.Context != nil && !IsResource(s.Context) {
		return fmt.Errorf("invalid statement: context must be an IRI or blank node, got %v", s.Context)
	}
	for _, t := range []Term{s.Subject, s.Object, s.Context} {
		if b, ok := t.(BlankNode); ok {
			if err := ValidateBlankNodeLabel(b.ID); err != nil {
				return fmt.Errorf("invalid statement: %w", err)
			}
		}
	}
	return nil
}

// String renders the statement as a single N-Quads line without the
// trailing newline.
func (s Statement) String() string {
	var b strings.Builder
	b.WriteString(termString(s.Subject))
	b.WriteByte(' ')
	b.WriteString(FormatTerm(s.Predicate))
	b.WriteByte(' ')
	b.WriteString(termString(s.Object))
	if s.Context != nil {
		b.WriteByte(' ')
		b.WriteString(FormatTerm(s.Context))
	}
	b.WriteString(" .")
	return b.String()
}

func termString(t Term) string {
	if t == nil {
		return "<nil>"
	}
	return FormatTerm(t)
}
