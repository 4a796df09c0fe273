package algebra

import (
	"maps"

	"github.com/roach88/rdfio/internal/rdf"
)

// Solution maps variable names to the terms they are bound to.
type Solution map[string]rdf.Term

// GraphName returns the string form used for contexts in a Dataset: the
// IRI value, "_:"+ID for a blank node and "" for the default graph.
func GraphName(t rdf.Term) string {
	switch t := t.(type) {
	case nil:
		return ""
	case rdf.IRI:
		return t.Value
	case rdf.BlankNode:
		return t.String()
	default:
		return t.String()
	}
}

// GraphTerm is the inverse of GraphName.
func GraphTerm(name string) rdf.Term {
	switch {
	case name == "":
		return nil
	case len(name) > 2 && name[:2] == "_:":
		return rdf.NewBlankNode(name)
	default:
		return rdf.NewIRI(name)
	}
}

// Match extends sol with the bindings that make p match st. It returns
// false if a constant or an already bound variable disagrees with st.
// Graph visibility is not checked; see Dataset.Visible.
func (p Pattern) Match(st rdf.Statement, sol Solution) (Solution, bool) {
	out := sol
	cloned := false
	bind := func(n Node, t rdf.Term) bool {
		if !n.IsVar() {
			return n.Term == t
		}
		if cur, ok := out[n.Var]; ok {
			return cur == t
		}
		if !cloned {
			out = maps.Clone(sol)
			if out == nil {
				out = Solution{}
			}
			cloned = true
		}
		out[n.Var] = t
		return true
	}
	if !bind(p.S, st.Subject) || !bind(p.P, st.Predicate) || !bind(p.O, st.Object) {
		return nil, false
	}
	if p.InDefaultGraph() {
		return out, true
	}
	if st.Context == nil || !bind(p.G, st.Context) {
		return nil, false
	}
	return out, true
}

// Resolve substitutes bound variables in n.
func (n Node) Resolve(sol Solution) Node {
	if n.IsVar() {
		if t, ok := sol[n.Var]; ok {
			return T(t)
		}
	}
	return n
}

// Resolve substitutes bound variables in every position of p.
func (p Pattern) Resolve(sol Solution) Pattern {
	out := Pattern{S: p.S.Resolve(sol), P: p.P.Resolve(sol), O: p.O.Resolve(sol)}
	if !p.InDefaultGraph() {
		out.G = p.G.Resolve(sol)
	}
	return out
}

// Instantiate turns a template pattern into a statement under sol. It
// returns false when a variable is unbound or the result is not a valid
// statement, in which case the template is skipped for that solution.
func (p Pattern) Instantiate(sol Solution) (rdf.Statement, bool) {
	r := p.Resolve(sol)
	for _, n := range r.Nodes() {
		if n.IsVar() {
			return rdf.Statement{}, false
		}
	}
	pred, ok := r.P.Term.(rdf.IRI)
	if !ok {
		return rdf.Statement{}, false
	}
	st := rdf.NewTriple(r.S.Term, pred, r.O.Term)
	if !r.InDefaultGraph() {
		st.Context = r.G.Term
	}
	if st.Validate() != nil {
		return rdf.Statement{}, false
	}
	return st, true
}

// Eval reports whether pred holds under sol. A nil predicate is true.
// Comparisons against an unbound variable are false.
func Eval(pred Predicate, sol Solution) bool {
	switch p := pred.(type) {
	case nil:
		return true
	case *Equals:
		t, ok := sol[p.Var]
		return ok && t == p.Term
	case *NotEquals:
		t, ok := sol[p.Var]
		return ok && t != p.Term
	case *And:
		for _, sub := range p.Predicates {
			if !Eval(sub, sol) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Project returns a copy of sol restricted to vars.
func (sol Solution) Project(vars []string) Solution {
	out := make(Solution, len(vars))
	for _, v := range vars {
		if t, ok := sol[v]; ok {
			out[v] = t
		}
	}
	return out
}

// Key returns a string identifying the projection of sol onto vars, used
// for DISTINCT.
func (sol Solution) Key(vars []string) string {
	var b []byte
	for _, v := range vars {
		if t, ok := sol[v]; ok {
			b = append(b, rdf.FormatTerm(t)...)
		}
		b = append(b, 0)
	}
	return string(b)
}
