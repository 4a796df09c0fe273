package algebra

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/rdfio/internal/rdf"
)

// Vars returns the variables of patterns in order of first appearance.
func Vars(patterns []Pattern) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range patterns {
		for _, n := range p.Nodes() {
			if n.IsVar() && !seen[n.Var] {
				seen[n.Var] = true
				out = append(out, n.Var)
			}
		}
	}
	return out
}

// ProjectedVars returns the variables a Select returns.
func (s *Select) ProjectedVars() []string {
	if len(s.Projection) > 0 {
		return s.Projection
	}
	return Vars(s.Where)
}

// PredicateVars returns the variables referenced by pred.
func PredicateVars(pred Predicate) []string {
	switch p := pred.(type) {
	case *Equals:
		return []string{p.Var}
	case *NotEquals:
		return []string{p.Var}
	case *And:
		var out []string
		for _, sub := range p.Predicates {
			out = append(out, PredicateVars(sub)...)
		}
		return out
	default:
		return nil
	}
}

// Validate checks the structural rules every backend relies on:
//   - constants sit in positions that accept them
//   - projected, ordered, filtered and template variables are bound by Where
//   - limit and offset are not negative
func Validate(q Query) error {
	if q == nil {
		return errors.New("nil query")
	}
	where, filter := WhereOf(q)
	if err := validatePatterns("where", where); err != nil {
		return err
	}
	bound := Vars(where)
	for _, v := range PredicateVars(filter) {
		if !slices.Contains(bound, v) {
			return fmt.Errorf("filter: variable ?%s is not bound by where", v)
		}
	}

	switch q := q.(type) {
	case *Select:
		if len(q.Where) == 0 {
			return errors.New("select: where is empty")
		}
		for _, v := range q.Projection {
			if !slices.Contains(bound, v) {
				return fmt.Errorf("select: projected variable ?%s is not bound by where", v)
			}
		}
		for _, v := range q.Order {
			if !slices.Contains(bound, v) {
				return fmt.Errorf("order: variable ?%s is not bound by where", v)
			}
		}
		if q.Limit < 0 || q.Offset < 0 {
			return errors.New("select: limit and offset must not be negative")
		}
	case *Ask:
		if len(q.Where) == 0 {
			return errors.New("ask: where is empty")
		}
	case *Construct:
		if len(q.Template) == 0 {
			return errors.New("construct: template is empty")
		}
		if err := validateTemplate("construct", q.Template, bound); err != nil {
			return err
		}
	case *Describe:
		if len(q.Resources) == 0 {
			return errors.New("describe: no resources")
		}
		for _, n := range q.Resources {
			if n.IsVar() && !slices.Contains(bound, n.Var) {
				return fmt.Errorf("describe: variable ?%s is not bound by where", n.Var)
			}
			if !n.IsVar() && !rdf.IsResource(n.Term) {
				return fmt.Errorf("describe: %s is not an IRI or blank node", n)
			}
		}
	case *Modify:
		if len(q.Delete) == 0 && len(q.Insert) == 0 {
			return errors.New("modify: nothing to delete or insert")
		}
		if err := validateTemplate("delete", q.Delete, bound); err != nil {
			return err
		}
		if err := validateTemplate("insert", q.Insert, bound); err != nil {
			return err
		}
	}
	return nil
}

func validateTemplate(name string, template []Pattern, bound []string) error {
	if err := validatePatterns(name, template); err != nil {
		return err
	}
	for _, v := range Vars(template) {
		if !slices.Contains(bound, v) {
			return fmt.Errorf("%s: variable ?%s is not bound by where", name, v)
		}
	}
	return nil
}

func validatePatterns(name string, patterns []Pattern) error {
	for i, p := range patterns {
		if p.S.IsZero() || p.P.IsZero() || p.O.IsZero() {
			return fmt.Errorf("%s[%d]: subject, predicate and object are required", name, i)
		}
		if !p.S.IsVar() && !rdf.IsResource(p.S.Term) {
			return fmt.Errorf("%s[%d]: subject %s is not an IRI or blank node", name, i, p.S)
		}
		if !p.P.IsVar() {
			if _, ok := p.P.Term.(rdf.IRI); !ok {
				return fmt.Errorf("%s[%d]: predicate %s is not an IRI", name, i, p.P)
			}
		}
		if !p.G.IsZero() && !p.G.IsVar() && !rdf.IsResource(p.G.Term) {
			return fmt.Errorf("%s[%d]: graph %s is not an IRI or blank node", name, i, p.G)
		}
	}
	return nil
}
