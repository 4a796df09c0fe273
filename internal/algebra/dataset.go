package algebra

import "slices"

// Dataset restricts which graphs a query sees.
//
// DefaultGraphs lists the contexts whose statements default-graph patterns
// match. NamedGraphs lists the contexts GRAPH patterns may match. A nil
// *Dataset is not the same as an empty one: nil means no restriction.
type Dataset struct {
	DefaultGraphs []string
	NamedGraphs   []string
}

// InDefault reports whether statements in context g (empty = the default
// graph) are visible to default-graph patterns.
func (d *Dataset) InDefault(g string) bool {
	if d == nil {
		return true
	}
	return slices.Contains(d.DefaultGraphs, g)
}

// InNamed reports whether context g is visible to GRAPH patterns. The
// default graph is never a named graph.
func (d *Dataset) InNamed(g string) bool {
	if g == "" {
		return false
	}
	if d == nil {
		return true
	}
	return slices.Contains(d.NamedGraphs, g)
}

// Visible reports whether a pattern in the default graph (named == false)
// or in a named graph (named == true) may match a statement in context g.
func (d *Dataset) Visible(g string, named bool) bool {
	if named {
		return d.InNamed(g)
	}
	return d.InDefault(g)
}
