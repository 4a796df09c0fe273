package rdf

import (
	"fmt"
	"strings"
)

// TermKind identifies the variant of a Term.
type TermKind uint8

const (
	// KindIRI identifies an IRI.
	KindIRI TermKind = iota + 1
	// KindBlankNode identifies a blank node.
	KindBlankNode
	// KindLiteral identifies a literal.
	KindLiteral
)

// String returns the lowercase name of the kind.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlankNode:
		return "bnode"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a sealed interface representing an RDF term.
// Only IRI, BlankNode and Literal implement it.
//
// All implementations are comparable, so two terms can be compared with ==.
type Term interface {
	Kind() TermKind
	// String returns the N-Triples rendering of the term.
	String() string
	term() // Sealed
}

// IRI is an RDF IRI reference.
type IRI struct {
	Value string
}

func (IRI) term() {}

// Kind returns KindIRI.
func (IRI) Kind() TermKind { return KindIRI }

// String returns the IRI in angle brackets.
func (i IRI) String() string { return FormatTerm(i) }

// BlankNode is an RDF blank node. ID excludes the "_:" prefix.
type BlankNode struct {
	ID string
}

func (BlankNode) term() {}

// Kind returns KindBlankNode.
func (BlankNode) Kind() TermKind { return KindBlankNode }

// String returns the blank node label with its "_:" prefix.
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal is an RDF literal.
//
// Datatype and Lang are mutually exclusive. Use NewLiteral, NewLangLiteral
// and NewTypedLiteral to build literals so that invariant holds.
type Literal struct {
	Lexical  string
	Datatype string // Datatype IRI, empty for simple and language-tagged literals
	Lang     string // Language tag, empty unless language-tagged
}

func (Literal) term() {}

// Kind returns KindLiteral.
func (Literal) Kind() TermKind { return KindLiteral }

// String returns the literal in N-Triples syntax.
func (l Literal) String() string { return FormatTerm(l) }

// EffectiveDatatype returns the datatype IRI the literal denotes:
// rdf:langString for tagged literals and xsd:string for simple literals.
func (l Literal) EffectiveDatatype() string {
	switch {
	case l.Lang != "":
		return RDFLangString
	case l.Datatype == "":
		return XSDString
	default:
		return l.Datatype
	}
}

// Symbol is the native representation of a blank node: a symbolic identifier
// with no global meaning.
type Symbol string

// NewIRI creates an IRI term.
func NewIRI(value string) IRI {
	return IRI{Value: value}
}

// NewBlankNode creates a blank node term. A leading "_:" is stripped.
func NewBlankNode(id string) BlankNode {
	return BlankNode{ID: strings.TrimPrefix(id, "_:")}
}

// NewLiteral creates a simple literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewLangLiteral creates a language-tagged literal. The tag is lowercased;
// callers that need BCP 47 validation use convert.LangLit.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with an explicit datatype.
// xsd:string folds to a simple literal.
func NewTypedLiteral(lexical, datatype string) Literal {
	if datatype == XSDString {
		datatype = ""
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// IsResource reports whether t can be a statement subject or context.
func IsResource(t Term) bool {
	switch t.(type) {
	case IRI, BlankNode:
		return true
	default:
		return false
	}
}

// ValidateLiteral checks the datatype/language exclusivity invariant.
func ValidateLiteral(l Literal) error {
	if l.Datatype != "" && l.Lang != "" {
		return fmt.Errorf("literal %q has both datatype <%s> and language %q", l.Lexical, l.Datatype, l.Lang)
	}
	return nil
}
