package query

import (
	"errors"
	"io"
	"iter"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/convert"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
)

// Result is a sealed interface over the outcomes of Evaluate.
type Result interface {
	resultNode()
}

// BooleanResult is the answer to an ASK.
type BooleanResult struct {
	Value bool
}

// UnitResult is returned by updates, which run for effect only.
type UnitResult struct{}

// Binding maps variable names to native values. Unbound variables are
// absent.
type Binding map[string]any

// BindingsResult is a lazy sequence of solutions backed by a store cursor.
// The cursor is closed when Next returns io.EOF or an error, or by Close.
type BindingsResult struct {
	cur  store.BindingCursor
	conv *convert.Converter
}

// StatementsResult is a lazy sequence of distinct statements produced by
// CONSTRUCT or DESCRIBE.
type StatementsResult struct {
	next  func() (rdf.Statement, error)
	close func() error
	seen  map[string]bool
	done  bool
}

func (BooleanResult) resultNode()     {}
func (UnitResult) resultNode()        {}
func (*BindingsResult) resultNode()   {}
func (*StatementsResult) resultNode() {}

// Vars returns the projected variables in order.
func (r *BindingsResult) Vars() []string { return r.cur.Vars() }

// NextRaw returns the next solution as terms, or io.EOF.
func (r *BindingsResult) NextRaw() (algebra.Solution, error) {
	return r.cur.Next()
}

// Next returns the next solution decoded to native values, or io.EOF.
func (r *BindingsResult) Next() (Binding, error) {
	sol, err := r.cur.Next()
	if err != nil {
		return nil, err
	}
	out := make(Binding, len(sol))
	for name, t := range sol {
		out[name] = r.conv.FromTerm(t)
	}
	return out, nil
}

// All returns the remaining solutions as an iterator. The result is closed
// when the loop ends.
func (r *BindingsResult) All() iter.Seq2[Binding, error] {
	return func(yield func(Binding, error) bool) {
		defer r.Close()
		for {
			b, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Close releases the cursor. It is safe to call more than once.
func (r *BindingsResult) Close() error {
	return r.cur.Close()
}

// Next returns the next statement, or io.EOF. Statements already returned
// are skipped.
func (r *StatementsResult) Next() (rdf.Statement, error) {
	for {
		if r.done {
			return rdf.Statement{}, io.EOF
		}
		st, err := r.next()
		if err != nil {
			r.Close()
			return rdf.Statement{}, err
		}
		id := rdf.StatementID(st)
		if r.seen[id] {
			continue
		}
		r.seen[id] = true
		return st, nil
	}
}

// All returns the remaining statements as an iterator. The result is
// closed when the loop ends.
func (r *StatementsResult) All() iter.Seq2[rdf.Statement, error] {
	return func(yield func(rdf.Statement, error) bool) {
		defer r.Close()
		for {
			st, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(rdf.Statement{}, err)
				return
			}
			if !yield(st, nil) {
				return
			}
		}
	}
}

// Close releases the underlying cursor. It is safe to call more than once.
func (r *StatementsResult) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.close()
}
