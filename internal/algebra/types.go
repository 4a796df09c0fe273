package algebra

import (
	"strings"

	"github.com/roach88/rdfio/internal/rdf"
)

// Node is a pattern position: either a variable or a constant term.
// The zero Node is only meaningful as Pattern.G, where it selects the
// default graph.
type Node struct {
	Var  string
	Term rdf.Term
}

// V returns a variable node. A leading '?' is stripped.
func V(name string) Node { return Node{Var: strings.TrimPrefix(name, "?")} }

// T returns a constant node.
func T(t rdf.Term) Node { return Node{Term: t} }

// IsVar reports whether n is a variable.
func (n Node) IsVar() bool { return n.Var != "" }

// IsZero reports whether n is neither a variable nor a term.
func (n Node) IsZero() bool { return n.Var == "" && n.Term == nil }

// String renders the node in SPARQL syntax.
func (n Node) String() string {
	switch {
	case n.IsVar():
		return "?" + n.Var
	case n.Term != nil:
		return rdf.FormatTerm(n.Term)
	default:
		return ""
	}
}

// Pattern is a triple or quad pattern.
type Pattern struct {
	S, P, O Node
	G       Node // zero = default graph
}

// InDefaultGraph reports whether the pattern matches the default graph.
func (p Pattern) InDefaultGraph() bool { return p.G.IsZero() }

// Nodes returns the positions of the pattern in s, p, o, g order. G is
// omitted for default-graph patterns.
func (p Pattern) Nodes() []Node {
	if p.InDefaultGraph() {
		return []Node{p.S, p.P, p.O}
	}
	return []Node{p.S, p.P, p.O, p.G}
}

func (p Pattern) String() string {
	var b strings.Builder
	if !p.InDefaultGraph() {
		b.WriteString("GRAPH ")
		b.WriteString(p.G.String())
		b.WriteString(" { ")
	}
	b.WriteString(p.S.String())
	b.WriteByte(' ')
	b.WriteString(p.P.String())
	b.WriteByte(' ')
	b.WriteString(p.O.String())
	b.WriteString(" .")
	if !p.InDefaultGraph() {
		b.WriteString(" }")
	}
	return b.String()
}

// Query is a sealed interface. Only types in this package implement it.
type Query interface {
	queryNode()
}

// Select returns solutions of Where.
//
// Projection lists the returned variables; empty means every variable in
// Where in order of first appearance. Limit 0 means no limit.
type Select struct {
	Projection []string
	Where      []Pattern
	Filter     Predicate
	Distinct   bool
	Order      []string
	Limit      int
	Offset     int
}

// Ask reports whether Where has any solution.
type Ask struct {
	Where  []Pattern
	Filter Predicate
}

// Construct instantiates Template once per solution of Where. Template
// patterns with a zero G produce triples.
type Construct struct {
	Template []Pattern
	Where    []Pattern
	Filter   Predicate
}

// Describe returns every statement whose subject is one of Resources.
// Variables in Resources are bound by Where.
type Describe struct {
	Resources []Node
	Where     []Pattern
	Filter    Predicate
}

// Modify deletes and inserts instantiated templates for each solution of
// Where. An empty Where has exactly one empty solution, so ground templates
// act as plain DELETE DATA / INSERT DATA.
type Modify struct {
	Delete []Pattern
	Insert []Pattern
	Where  []Pattern
	Filter Predicate
}

func (*Select) queryNode()    {}
func (*Ask) queryNode()       {}
func (*Construct) queryNode() {}
func (*Describe) queryNode()  {}
func (*Modify) queryNode()    {}

// Predicate is a sealed interface for filter conditions.
type Predicate interface {
	predicateNode()
}

// Equals holds when Var is bound to Term.
type Equals struct {
	Var  string
	Term rdf.Term
}

// NotEquals holds when Var is bound to something other than Term.
type NotEquals struct {
	Var  string
	Term rdf.Term
}

// And holds when every predicate holds. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (*Equals) predicateNode()    {}
func (*NotEquals) predicateNode() {}
func (*And) predicateNode()       {}

// Form returns the lowercase name of the query form.
func Form(q Query) string {
	switch q.(type) {
	case *Select:
		return "select"
	case *Ask:
		return "ask"
	case *Construct:
		return "construct"
	case *Describe:
		return "describe"
	case *Modify:
		return "modify"
	default:
		return "unknown"
	}
}

// WhereOf returns the graph pattern and filter of any query form.
func WhereOf(q Query) ([]Pattern, Predicate) {
	switch q := q.(type) {
	case *Select:
		return q.Where, q.Filter
	case *Ask:
		return q.Where, q.Filter
	case *Construct:
		return q.Where, q.Filter
	case *Describe:
		return q.Where, q.Filter
	case *Modify:
		return q.Where, q.Filter
	default:
		return nil, nil
	}
}
