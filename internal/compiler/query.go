package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rdfio/internal/algebra"
)

// queryForms are the top-level fields that select the query form. Exactly
// one must be present; insert and delete may appear together.
var queryForms = []string{"select", "ask", "construct", "describe", "insert", "delete"}

// Compile parses a query document. The document is CUE; JSON is accepted
// since it is a subset of CUE.
//
//	prefixes: foaf: "http://xmlns.com/foaf/0.1/"
//	select: ["s", "name"]
//	where: [{s: "?s", p: "foaf:name", o: "?name"}]
//	limit: 10
func Compile(text string) (algebra.Query, error) {
	return CompileFile("query.cue", []byte(text))
}

// CompileFile is like Compile but names the source in error positions.
func CompileFile(filename string, src []byte) (algebra.Query, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileValue(v)
}

// CompileValue converts an already evaluated CUE value into a query and
// validates it.
func CompileValue(v cue.Value) (algebra.Query, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	tp, err := parsePrefixes(v)
	if err != nil {
		return nil, err
	}

	var present []string
	for _, name := range queryForms {
		if v.LookupPath(cue.ParsePath(name)).Exists() {
			present = append(present, name)
		}
	}
	updates := len(present) > 0 && (present[0] == "insert" || present[0] == "delete")
	if len(present) == 0 || (len(present) > 1 && !updates) {
		return nil, &CompileError{
			Field:   "query",
			Message: fmt.Sprintf("exactly one of %s is required, found [%s]", strings.Join(queryForms[:4], ", "), strings.Join(present, ", ")),
			Pos:     v.Pos(),
		}
	}

	where, err := parsePatterns(tp, v, "where")
	if err != nil {
		return nil, err
	}
	filter, err := parseFilter(tp, v)
	if err != nil {
		return nil, err
	}

	var q algebra.Query
	switch present[0] {
	case "select":
		q, err = parseSelect(v, where, filter)
	case "ask":
		q, err = parseAsk(v, where, filter)
	case "construct":
		var tpl []algebra.Pattern
		tpl, err = parsePatterns(tp, v, "construct")
		q = &algebra.Construct{Template: tpl, Where: where, Filter: filter}
	case "describe":
		q, err = parseDescribe(tp, v, where, filter)
	default:
		m := &algebra.Modify{Where: where, Filter: filter}
		if m.Delete, err = parsePatterns(tp, v, "delete"); err != nil {
			return nil, err
		}
		m.Insert, err = parsePatterns(tp, v, "insert")
		q = m
	}
	if err != nil {
		return nil, err
	}

	if err := algebra.Validate(q); err != nil {
		return nil, &CompileError{Field: algebra.Form(q), Message: err.Error(), Pos: v.Pos()}
	}
	return q, nil
}

func parsePrefixes(v cue.Value) (*termParser, error) {
	tp := &termParser{prefixes: map[string]string{}}
	pv := v.LookupPath(cue.ParsePath("prefixes"))
	if !pv.Exists() {
		return tp, nil
	}
	iter, err := pv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		ns, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: "prefixes." + iter.Label(), Message: "namespace must be a string", Pos: iter.Value().Pos()}
		}
		tp.prefixes[iter.Label()] = ns
	}
	return tp, nil
}

// parsePatterns reads a list of {s, p, o, g?} structs. A missing field
// yields nil.
func parsePatterns(tp *termParser, v cue.Value, field string) ([]algebra.Pattern, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of patterns", Pos: lv.Pos()}
	}
	var out []algebra.Pattern
	for i := 0; iter.Next(); i++ {
		pv := iter.Value()
		name := fmt.Sprintf("%s[%d]", field, i)
		var p algebra.Pattern
		for _, pos := range []struct {
			key      string
			dst      *algebra.Node
			optional bool
		}{
			{"s", &p.S, false},
			{"p", &p.P, false},
			{"o", &p.O, false},
			{"g", &p.G, true},
		} {
			nv := pv.LookupPath(cue.ParsePath(pos.key))
			if !nv.Exists() {
				if pos.optional {
					continue
				}
				return nil, &CompileError{Field: name, Message: pos.key + " is required", Pos: pv.Pos()}
			}
			n, err := tp.node(name+"."+pos.key, nv)
			if err != nil {
				return nil, err
			}
			*pos.dst = n
		}
		out = append(out, p)
	}
	return out, nil
}

func parseFilter(tp *termParser, v cue.Value) (algebra.Predicate, error) {
	fv := v.LookupPath(cue.ParsePath("filter"))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Field: "filter", Message: "must be a list of conditions", Pos: fv.Pos()}
	}
	var preds []algebra.Predicate
	for i := 0; iter.Next(); i++ {
		cv := iter.Value()
		name := fmt.Sprintf("filter[%d]", i)
		varName, err := cv.LookupPath(cue.ParsePath("var")).String()
		if err != nil {
			return nil, &CompileError{Field: name, Message: "var is required", Pos: cv.Pos()}
		}
		varName = strings.TrimPrefix(varName, "?")

		eq := cv.LookupPath(cue.ParsePath("equals"))
		ne := cv.LookupPath(cue.ParsePath("notEquals"))
		switch {
		case eq.Exists() && !ne.Exists():
			t, err := tp.term(name+".equals", eq)
			if err != nil {
				return nil, err
			}
			preds = append(preds, &algebra.Equals{Var: varName, Term: t})
		case ne.Exists() && !eq.Exists():
			t, err := tp.term(name+".notEquals", ne)
			if err != nil {
				return nil, err
			}
			preds = append(preds, &algebra.NotEquals{Var: varName, Term: t})
		default:
			return nil, &CompileError{Field: name, Message: "exactly one of equals, notEquals is required", Pos: cv.Pos()}
		}
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	default:
		return &algebra.And{Predicates: preds}, nil
	}
}

func parseSelect(v cue.Value, where []algebra.Pattern, filter algebra.Predicate) (*algebra.Select, error) {
	s := &algebra.Select{Where: where, Filter: filter}

	sv := v.LookupPath(cue.ParsePath("select"))
	if str, err := sv.String(); err == nil {
		if str != "*" {
			return nil, &CompileError{Field: "select", Message: `must be "*" or a list of variable names`, Pos: sv.Pos()}
		}
	} else {
		vars, err := stringList(sv, "select")
		if err != nil {
			return nil, err
		}
		s.Projection = trimVars(vars)
	}

	var err error
	if s.Distinct, err = optionalBool(v, "distinct"); err != nil {
		return nil, err
	}
	order := v.LookupPath(cue.ParsePath("order"))
	if order.Exists() {
		vars, err := stringList(order, "order")
		if err != nil {
			return nil, err
		}
		s.Order = trimVars(vars)
	}
	if s.Limit, err = optionalInt(v, "limit"); err != nil {
		return nil, err
	}
	if s.Offset, err = optionalInt(v, "offset"); err != nil {
		return nil, err
	}
	return s, nil
}

func parseAsk(v cue.Value, where []algebra.Pattern, filter algebra.Predicate) (*algebra.Ask, error) {
	av := v.LookupPath(cue.ParsePath("ask"))
	if b, err := av.Bool(); err != nil || !b {
		return nil, &CompileError{Field: "ask", Message: "must be true", Pos: av.Pos()}
	}
	return &algebra.Ask{Where: where, Filter: filter}, nil
}

func parseDescribe(tp *termParser, v cue.Value, where []algebra.Pattern, filter algebra.Predicate) (*algebra.Describe, error) {
	dv := v.LookupPath(cue.ParsePath("describe"))
	iter, err := dv.List()
	if err != nil {
		return nil, &CompileError{Field: "describe", Message: "must be a list of resources", Pos: dv.Pos()}
	}
	d := &algebra.Describe{Where: where, Filter: filter}
	for i := 0; iter.Next(); i++ {
		n, err := tp.node(fmt.Sprintf("describe[%d]", i), iter.Value())
		if err != nil {
			return nil, err
		}
		d.Resources = append(d.Resources, n)
	}
	return d, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	var out []string
	if err := v.Decode(&out); err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	return out, nil
}

func trimVars(vars []string) []string {
	out := make([]string, len(vars))
	for i, s := range vars {
		out[i] = strings.TrimPrefix(s, "?")
	}
	return out
}

func optionalBool(v cue.Value, field string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(field))
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, &CompileError{Field: field, Message: "must be a boolean", Pos: bv.Pos()}
	}
	return b, nil
}

func optionalInt(v cue.Value, field string) (int, error) {
	iv := v.LookupPath(cue.ParsePath(field))
	if !iv.Exists() {
		return 0, nil
	}
	n, err := iv.Int64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: "must be an integer", Pos: iv.Pos()}
	}
	if n < 0 {
		return 0, &CompileError{Field: field, Message: "must not be negative", Pos: iv.Pos()}
	}
	return int(n), nil
}
