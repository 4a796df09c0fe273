package parse

import (
	"context"
	"io"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/rdf"
)

const (
	owlSameAs  = "http://www.w3.org/2002/07/owl#sameAs"
	logImplies = "http://www.w3.org/2000/10/swap/log#implies"
)

func parseTurtle(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	return newTurtleParser(ctx, r, format.Turtle, opts, h).run()
}

func parseTriG(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	p := newTurtleParser(ctx, r, format.TriG, opts, h)
	p.trig = true
	return p.run()
}

// parseN3 accepts the Turtle subset of Notation3 plus the '=' and '=>'
// verbs. Formulae, paths and quantifiers are rejected as syntax errors.
func parseN3(ctx context.Context, r io.Reader, opts Options, h Handler) error {
	p := newTurtleParser(ctx, r, format.N3, opts, h)
	p.n3 = true
	p.lex.n3 = true
	return p.run()
}

// turtleParser is a recursive-descent parser over the token stream. It emits
// each statement as soon as its object is complete.
type turtleParser struct {
	ctx      context.Context
	lex      *lexer
	tok      token
	format   string
	trig     bool
	n3       bool
	base     string
	prefixes map[string]string
	bnodes   *bnodeScope
	graph    rdf.Term
	h        Handler
}

func newTurtleParser(ctx context.Context, r io.Reader, formatName string, opts Options, h Handler) *turtleParser {
	return &turtleParser{
		ctx:      ctx,
		lex:      newLexer(r, formatName, false),
		format:   formatName,
		base:     opts.BaseIRI,
		prefixes: map[string]string{},
		bnodes:   newBNodeScope(),
		h:        h,
	}
}

func (p *turtleParser) run() error {
	if err := p.advance(); err != nil {
		return err
	}
	for p.tok.kind != tokEOF {
		if err := p.statement(); err != nil {
			return err
		}
	}
	return nil
}

func (p *turtleParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *turtleParser) errorf(msg string, args ...any) error {
	return syntaxErrorf(p.format, p.tok.line, p.tok.col, msg, args...)
}

func (p *turtleParser) expect(kind tokenKind) error {
	if p.tok.kind != kind {
		return p.errorf("expected %s, found %s", kind, p.tok)
	}
	return p.advance()
}

func (p *turtleParser) emit(s rdf.Term, pred rdf.IRI, o rdf.Term) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	return p.h(rdf.Statement{Subject: s, Predicate: pred, Object: o, Context: p.graph})
}

func (p *turtleParser) statement() error {
	switch p.tok.kind {
	case tokPrefix:
		return p.prefixDirective()
	case tokBase:
		return p.baseDirective()
	case tokGraph:
		if !p.trig {
			return p.errorf("GRAPH is only allowed in TriG")
		}
		if err := p.advance(); err != nil {
			return err
		}
		label, err := p.graphLabel()
		if err != nil {
			return err
		}
		if p.tok.kind != tokLBrace {
			return p.errorf("expected '{' after graph label")
		}
		return p.graphBlock(label)
	case tokLBrace:
		if !p.trig {
			return p.errorf("unexpected '{'")
		}
		return p.graphBlock(nil)
	}

	subj, propList, err := p.subject()
	if err != nil {
		return err
	}
	if p.trig && p.tok.kind == tokLBrace {
		if propList {
			return p.errorf("graph label cannot have properties")
		}
		return p.graphBlock(subj)
	}
	if err := p.triplesAfterSubject(subj, propList); err != nil {
		return err
	}
	return p.expect(tokDot)
}

func (p *turtleParser) triplesAfterSubject(subj rdf.Term, propList bool) error {
	if propList && (p.tok.kind == tokDot || p.tok.kind == tokRBrace) {
		return nil
	}
	return p.predicateObjectList(subj)
}

func (p *turtleParser) prefixDirective() error {
	sparql := p.tok.sparql
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokPName || p.tok.value != "" {
		return p.errorf("expected prefix name, found %s", p.tok)
	}
	name := p.tok.prefix
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIRI {
		return p.errorf("expected IRI, found %s", p.tok)
	}
	p.prefixes[name] = resolveIRI(p.base, p.tok.value)
	if err := p.advance(); err != nil {
		return err
	}
	if sparql {
		return nil
	}
	return p.expect(tokDot)
}

func (p *turtleParser) baseDirective() error {
	sparql := p.tok.sparql
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIRI {
		return p.errorf("expected IRI, found %s", p.tok)
	}
	p.base = resolveIRI(p.base, p.tok.value)
	if err := p.advance(); err != nil {
		return err
	}
	if sparql {
		return nil
	}
	return p.expect(tokDot)
}

func (p *turtleParser) graphLabel() (rdf.Term, error) {
	switch p.tok.kind {
	case tokIRI, tokPName:
		iri, err := p.iri()
		return iri, err
	case tokBNode:
		b := p.bnodes.named(p.tok.value)
		return b, p.advance()
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		return p.bnodes.anon(), nil
	default:
		return nil, p.errorf("expected graph label, found %s", p.tok)
	}
}

func (p *turtleParser) graphBlock(label rdf.Term) error {
	if err := p.advance(); err != nil { // {
		return err
	}
	outer := p.graph
	p.graph = label
	defer func() { p.graph = outer }()

	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokEOF {
			return p.errorf("unterminated graph block")
		}
		subj, propList, err := p.subject()
		if err != nil {
			return err
		}
		if err := p.triplesAfterSubject(subj, propList); err != nil {
			return err
		}
		if p.tok.kind == tokDot {
			if err := p.advance(); err != nil {
				return err
			}
		} else if p.tok.kind != tokRBrace {
			return p.errorf("expected '.' or '}', found %s", p.tok)
		}
	}
	if err := p.advance(); err != nil { // }
		return err
	}
	if p.tok.kind == tokDot {
		return p.advance()
	}
	return nil
}

// subject parses a statement subject. propList is true when the subject was
// a non-empty blank node property list, after which predicates are optional.
func (p *turtleParser) subject() (rdf.Term, bool, error) {
	switch p.tok.kind {
	case tokIRI, tokPName:
		iri, err := p.iri()
		return iri, false, err
	case tokBNode:
		b := p.bnodes.named(p.tok.value)
		return b, false, p.advance()
	case tokLBracket:
		return p.blankNodePropertyList()
	case tokLParen:
		t, err := p.collection()
		return t, false, err
	default:
		return nil, false, p.errorf("expected subject, found %s", p.tok)
	}
}

func (p *turtleParser) predicateObjectList(subj rdf.Term) error {
	for {
		pred, err := p.verb()
		if err != nil {
			return err
		}
		if err := p.objectList(subj, pred); err != nil {
			return err
		}
		if p.tok.kind != tokSemicolon {
			return nil
		}
		for p.tok.kind == tokSemicolon {
			if err := p.advance(); err != nil {
				return err
			}
		}
		switch p.tok.kind {
		case tokDot, tokRBracket, tokRBrace, tokEOF:
			return nil
		}
	}
}

func (p *turtleParser) verb() (rdf.IRI, error) {
	switch p.tok.kind {
	case tokA:
		return rdf.NewIRI(rdf.RDFType), p.advance()
	case tokIRI, tokPName:
		return p.iri()
	case tokEquals:
		return rdf.NewIRI(owlSameAs), p.advance()
	case tokImplies:
		return rdf.NewIRI(logImplies), p.advance()
	default:
		return rdf.IRI{}, p.errorf("expected predicate, found %s", p.tok)
	}
}

func (p *turtleParser) objectList(subj rdf.Term, pred rdf.IRI) error {
	for {
		obj, err := p.object()
		if err != nil {
			return err
		}
		if err := p.emit(subj, pred, obj); err != nil {
			return err
		}
		if p.tok.kind != tokComma {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

func (p *turtleParser) object() (rdf.Term, error) {
	switch p.tok.kind {
	case tokIRI, tokPName:
		return p.iri()
	case tokBNode:
		b := p.bnodes.named(p.tok.value)
		return b, p.advance()
	case tokLBracket:
		t, _, err := p.blankNodePropertyList()
		return t, err
	case tokLParen:
		return p.collection()
	case tokString:
		return p.literal()
	case tokInteger:
		return p.numeric(rdf.XSDInteger)
	case tokDecimal:
		return p.numeric(rdf.XSDDecimal)
	case tokDouble:
		return p.numeric(rdf.XSDDouble)
	case tokTrue, tokFalse:
		lit := rdf.NewTypedLiteral(p.tok.kind.String(), rdf.XSDBoolean)
		return lit, p.advance()
	case tokLBrace:
		if p.n3 {
			return nil, p.errorf("N3 formulae are not supported")
		}
	}
	return nil, p.errorf("expected object, found %s", p.tok)
}

func (p *turtleParser) numeric(datatype string) (rdf.Term, error) {
	lit := rdf.NewTypedLiteral(p.tok.value, datatype)
	return lit, p.advance()
}

func (p *turtleParser) literal() (rdf.Term, error) {
	lexical := p.tok.value
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch p.tok.kind {
	case tokLangTag:
		lit := rdf.NewLangLiteral(lexical, p.tok.value)
		return lit, p.advance()
	case tokCaret:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokIRI && p.tok.kind != tokPName {
			return nil, p.errorf("expected datatype IRI, found %s", p.tok)
		}
		dt, err := p.iri()
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lexical, dt.Value), nil
	default:
		return rdf.NewLiteral(lexical), nil
	}
}

// iri resolves the current IRI or prefixed-name token and advances.
func (p *turtleParser) iri() (rdf.IRI, error) {
	var value string
	switch p.tok.kind {
	case tokIRI:
		value = resolveIRI(p.base, p.tok.value)
	case tokPName:
		ns, ok := p.prefixes[p.tok.prefix]
		if !ok {
			return rdf.IRI{}, p.errorf("undefined prefix %q", p.tok.prefix)
		}
		value = ns + p.tok.value
	default:
		return rdf.IRI{}, p.errorf("expected IRI, found %s", p.tok)
	}
	return rdf.NewIRI(value), p.advance()
}

func (p *turtleParser) blankNodePropertyList() (rdf.Term, bool, error) {
	if err := p.advance(); err != nil { // [
		return nil, false, err
	}
	node := p.bnodes.anon()
	if p.tok.kind == tokRBracket {
		return node, false, p.advance()
	}
	if err := p.predicateObjectList(node); err != nil {
		return nil, false, err
	}
	if err := p.expect(tokRBracket); err != nil {
		return nil, false, err
	}
	return node, true, nil
}

func (p *turtleParser) collection() (rdf.Term, error) {
	if err := p.advance(); err != nil { // (
		return nil, err
	}
	var items []rdf.Term
	for p.tok.kind != tokRParen {
		if p.tok.kind == tokEOF {
			return nil, p.errorf("unterminated collection")
		}
		item, err := p.object()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := p.advance(); err != nil { // )
		return nil, err
	}
	if len(items) == 0 {
		return rdf.NewIRI(rdf.RDFNil), nil
	}

	first, rest, nilIRI := rdf.NewIRI(rdf.RDFFirst), rdf.NewIRI(rdf.RDFRest), rdf.NewIRI(rdf.RDFNil)
	head := p.bnodes.anon()
	cur := head
	for i, item := range items {
		if err := p.emit(cur, first, item); err != nil {
			return nil, err
		}
		var next rdf.Term = nilIRI
		if i < len(items)-1 {
			next = p.bnodes.anon()
		}
		if err := p.emit(cur, rest, next); err != nil {
			return nil, err
		}
		if b, ok := next.(rdf.BlankNode); ok {
			cur = b
		}
	}
	return head, nil
}
