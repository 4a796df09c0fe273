package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
)

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
	doublePattern  = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)[eE][+-]?[0-9]+$`)
	varPattern     = regexp.MustCompile(`^\?[A-Za-z_][A-Za-z0-9_]*$`)
	pnamePattern   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_.-]*)?:([^\s<>"{}|^` + "`" + `\\]*)$`)
)

// termParser resolves term strings using the document's prefixes.
type termParser struct {
	prefixes map[string]string
}

// node parses a pattern position: a ?variable or a term.
func (tp *termParser) node(field string, v cue.Value) (algebra.Node, error) {
	if s, err := v.String(); err == nil && varPattern.MatchString(s) {
		return algebra.V(s), nil
	}
	t, err := tp.term(field, v)
	if err != nil {
		return algebra.Node{}, err
	}
	return algebra.T(t), nil
}

// term parses a constant. Strings use N-Triples syntax plus Turtle
// shorthands (prefixed names, "a", numbers and booleans). Non-string CUE
// scalars map to xsd:integer, xsd:decimal, xsd:double and xsd:boolean.
func (tp *termParser) term(field string, v cue.Value) (rdf.Term, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		t, err := tp.parse(s)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return t, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return rdf.NewTypedLiteral(fmt.Sprint(b), rdf.XSDBoolean), nil
	case cue.IntKind:
		bi, err := v.Int(nil)
		if err != nil {
			return nil, formatCUEError(err)
		}
		return rdf.NewTypedLiteral(bi.String(), rdf.XSDInteger), nil
	case cue.FloatKind, cue.NumberKind:
		lex, ok := floatLexical(v.Syntax(cue.Final()))
		if !ok {
			return nil, &CompileError{Field: field, Message: "number must be a literal", Pos: v.Pos()}
		}
		return numberTerm(lex), nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected a term, got %s", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func (tp *termParser) parse(s string) (rdf.Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty term")
	case s == "a":
		return rdf.NewIRI(rdf.RDFType), nil
	case s == "true" || s == "false":
		return rdf.NewTypedLiteral(s, rdf.XSDBoolean), nil
	case strings.HasPrefix(s, "<"), strings.HasPrefix(s, "_:"), strings.HasPrefix(s, `"`):
		return rdf.ParseTerm(s)
	case integerPattern.MatchString(s), decimalPattern.MatchString(s), doublePattern.MatchString(s):
		return numberTerm(s), nil
	case strings.HasPrefix(s, "?"):
		return nil, fmt.Errorf("invalid variable %q", s)
	}
	if m := pnamePattern.FindStringSubmatch(s); m != nil {
		ns, ok := tp.prefixes[m[1]]
		if !ok {
			return nil, fmt.Errorf("undefined prefix %q", m[1])
		}
		return rdf.NewIRI(ns + m[2]), nil
	}
	return nil, fmt.Errorf("cannot parse term %q", s)
}

func floatLexical(n ast.Node) (string, bool) {
	switch n := n.(type) {
	case *ast.BasicLit:
		return n.Value, true
	case *ast.UnaryExpr:
		lex, ok := floatLexical(n.X)
		if !ok || n.Op != token.SUB {
			return "", false
		}
		return "-" + lex, true
	default:
		return "", false
	}
}

func numberTerm(lex string) rdf.Term {
	switch {
	case integerPattern.MatchString(lex):
		return rdf.NewTypedLiteral(lex, rdf.XSDInteger)
	case strings.ContainsAny(lex, "eE"):
		return rdf.NewTypedLiteral(lex, rdf.XSDDouble)
	default:
		return rdf.NewTypedLiteral(lex, rdf.XSDDecimal)
	}
}
