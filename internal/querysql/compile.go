// Package querysql compiles algebra queries to parameterized SQLite SQL over
// the statements table.
//
// Each pattern becomes one alias of the statements table; shared variables
// become equality joins between aliases. Terms are compared in their
// N-Triples encoding, which is how the store keeps them.
//
// All values are parameterized, never interpolated. Every query has an
// ORDER BY so results are deterministic.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/rdf"
)

// DefaultTable is the name of the statements table.
const DefaultTable = "statements"

// SQLCompiler compiles algebra to SQL for SQLite.
type SQLCompiler struct {
	Table string
}

// NewSQLCompiler creates a compiler for DefaultTable.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

// Compiled is a query ready to run. Columns lists the variable bound to each
// result column, in order.
type Compiled struct {
	SQL     string
	Params  []any
	Columns []string
}

// builder accumulates FROM aliases, WHERE conditions and parameters.
type builder struct {
	table  string
	from   []string
	where  []string
	params []any
	refs   map[string]string // variable -> first column reference
}

func (c *SQLCompiler) newBuilder() *builder {
	table := c.Table
	if table == "" {
		table = DefaultTable
	}
	return &builder{table: table, refs: map[string]string{}}
}

func (b *builder) cond(sql string, params ...any) {
	b.where = append(b.where, sql)
	b.params = append(b.params, params...)
}

// node constrains column col by n: a parameter for constants, a join for
// variables already seen.
func (b *builder) node(col string, n algebra.Node) {
	if !n.IsVar() {
		b.cond(col+" = ?", rdf.FormatTerm(n.Term))
		return
	}
	if ref, ok := b.refs[n.Var]; ok {
		b.cond(col + " = " + ref)
		return
	}
	b.refs[n.Var] = col
}

// graphKeys encodes dataset graph names the way the g column stores them.
func graphKeys(names []string) []any {
	out := make([]any, len(names))
	for i, name := range names {
		if t := algebra.GraphTerm(name); t != nil {
			out[i] = rdf.FormatTerm(t)
		} else {
			out[i] = ""
		}
	}
	return out
}

func (b *builder) in(col string, names []string) {
	if len(names) == 0 {
		b.cond("0 = 1")
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	b.cond(col+" IN ("+marks+")", graphKeys(names)...)
}

func (b *builder) pattern(p algebra.Pattern, ds *algebra.Dataset) {
	alias := fmt.Sprintf("t%d", len(b.from))
	b.from = append(b.from, b.table+" "+alias)

	b.node(alias+".s", p.S)
	b.node(alias+".p", p.P)
	b.node(alias+".o", p.O)

	if p.InDefaultGraph() {
		if ds != nil {
			b.in(alias+".g", ds.DefaultGraphs)
		}
		return
	}
	b.cond(alias + ".g <> ''")
	if ds != nil {
		b.in(alias+".g", ds.NamedGraphs)
	}
	b.node(alias+".g", p.G)
}

func (b *builder) predicate(p algebra.Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case *algebra.Equals:
		ref, ok := b.refs[pred.Var]
		if !ok {
			return fmt.Errorf("filter references unbound variable ?%s", pred.Var)
		}
		b.cond(ref+" = ?", rdf.FormatTerm(pred.Term))
	case *algebra.NotEquals:
		ref, ok := b.refs[pred.Var]
		if !ok {
			return fmt.Errorf("filter references unbound variable ?%s", pred.Var)
		}
		b.cond(ref+" <> ?", rdf.FormatTerm(pred.Term))
	case *algebra.And:
		for _, sub := range pred.Predicates {
			if err := b.predicate(sub); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
	return nil
}

func (b *builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *builder) graph(where []algebra.Pattern, filter algebra.Predicate, ds *algebra.Dataset) error {
	if len(where) == 0 {
		return fmt.Errorf("cannot compile an empty graph pattern")
	}
	for _, p := range where {
		b.pattern(p, ds)
	}
	if err := b.predicate(filter); err != nil {
		return fmt.Errorf("compile filter: %w", err)
	}
	return nil
}

// CompileSelect compiles a SELECT. Rows hold one N-Triples term per entry in
// Columns.
func (c *SQLCompiler) CompileSelect(q *algebra.Select, ds *algebra.Dataset) (Compiled, error) {
	if q == nil {
		return Compiled{}, fmt.Errorf("cannot compile nil query")
	}
	b := c.newBuilder()
	if err := b.graph(q.Where, q.Filter, ds); err != nil {
		return Compiled{}, err
	}

	vars := q.ProjectedVars()
	cols := make([]string, len(vars))
	for i, v := range vars {
		ref, ok := b.refs[v]
		if !ok {
			return Compiled{}, fmt.Errorf("projected variable ?%s is not bound", v)
		}
		cols[i] = ref
	}

	var order []string
	for _, v := range q.Order {
		ref, ok := b.refs[v]
		if !ok {
			return Compiled{}, fmt.Errorf("order variable ?%s is not bound", v)
		}
		order = append(order, ref+" COLLATE BINARY ASC")
	}
	if q.Distinct {
		for _, col := range cols {
			order = append(order, col+" COLLATE BINARY ASC")
		}
	} else {
		for i := range b.from {
			order = append(order, fmt.Sprintf("t%d.id ASC", i))
		}
	}

	distinct := ""
	if q.Distinct {
		distinct = "DISTINCT "
	}
	sql := fmt.Sprintf("SELECT %s%s FROM %s%s ORDER BY %s",
		distinct,
		strings.Join(cols, ", "),
		strings.Join(b.from, ", "),
		b.whereClause(),
		strings.Join(order, ", "))

	params := b.params
	switch {
	case q.Limit > 0:
		sql += " LIMIT ?"
		params = append(params, q.Limit)
		if q.Offset > 0 {
			sql += " OFFSET ?"
			params = append(params, q.Offset)
		}
	case q.Offset > 0:
		sql += " LIMIT -1 OFFSET ?"
		params = append(params, q.Offset)
	}
	return Compiled{SQL: sql, Params: params, Columns: vars}, nil
}

// CompileAsk compiles an ASK to a query returning one row when the pattern
// has a solution and no rows otherwise.
func (c *SQLCompiler) CompileAsk(q *algebra.Ask, ds *algebra.Dataset) (Compiled, error) {
	if q == nil {
		return Compiled{}, fmt.Errorf("cannot compile nil query")
	}
	b := c.newBuilder()
	if err := b.graph(q.Where, q.Filter, ds); err != nil {
		return Compiled{}, err
	}
	sql := fmt.Sprintf("SELECT 1 FROM %s%s LIMIT 1", strings.Join(b.from, ", "), b.whereClause())
	return Compiled{SQL: sql, Params: b.params}, nil
}

// CompileMatch compiles a single pattern to a query returning whole rows
// (s, p, o, g) in insertion order.
func (c *SQLCompiler) CompileMatch(p algebra.Pattern, ds *algebra.Dataset) (Compiled, error) {
	b := c.newBuilder()
	b.pattern(p, ds)
	sql := fmt.Sprintf("SELECT t0.s, t0.p, t0.o, t0.g FROM %s%s ORDER BY t0.id ASC",
		b.from[0], b.whereClause())
	return Compiled{SQL: sql, Params: b.params}, nil
}
