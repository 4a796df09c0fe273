package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/store"
)

// AssertionContext gives assertions access to the store.
type AssertionContext struct {
	Conn store.Connection
	Ctx  context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Type {
		case EventLoad:
			fmt.Fprintf(&buf, "  [%d] load %s (%s): %d statements\n", i+1, event.Source, event.Format, event.Count)
		case EventQuery:
			fmt.Fprintf(&buf, "  [%d] %s: %d results\n", i+1, event.Form, event.Count)
		case EventError:
			fmt.Fprintf(&buf, "  [%d] error: %s\n", i+1, event.Error)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertSize:
			err = assertSize(actx, result.Trace, a)
		case AssertContains:
			err = assertContains(actx, result.Trace, a, true)
		case AssertAbsent:
			err = assertContains(actx, result.Trace, a, false)
		case AssertContexts:
			err = assertContexts(actx, result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertSize(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	n, err := actx.Conn.Size(actx.Ctx)
	if err != nil {
		return err
	}
	if n != int64(a.Count) {
		return &AssertionError{
			Type:     AssertSize,
			Expected: fmt.Sprintf("%d statements", a.Count),
			Actual:   fmt.Sprintf("%d statements", n),
			Trace:    trace,
		}
	}
	return nil
}

// assertContains matches the statement in exactly its own graph.
func assertContains(actx *AssertionContext, trace []TraceEvent, a Assertion, want bool) error {
	stmts, err := parse.Collect(actx.Ctx, strings.NewReader(a.Statement), format.NQuads, parse.Options{})
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}
	if len(stmts) != 1 {
		return fmt.Errorf("statement must be exactly one N-Quads line, got %d statements", len(stmts))
	}
	st := stmts[0]

	p := algebra.Pattern{S: algebra.T(st.Subject), P: algebra.T(st.Predicate), O: algebra.T(st.Object)}
	ds := &algebra.Dataset{DefaultGraphs: []string{algebra.GraphName(st.Context)}}
	cur, err := actx.Conn.Match(actx.Ctx, p, ds)
	if err != nil {
		return err
	}
	found, err := store.CollectStatements(cur)
	if err != nil {
		return err
	}

	if got := len(found) > 0; got != want {
		expected, actual := "statement present", "not found"
		if !want {
			expected, actual = "statement absent", "found"
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s: %s", expected, st),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return nil
}

func assertContexts(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	contexts, err := actx.Conn.Contexts(actx.Ctx)
	if err != nil {
		return err
	}
	got := make([]string, len(contexts))
	for i, c := range contexts {
		got[i] = algebra.GraphName(c)
	}
	want := slices.Clone(a.Graphs)
	sort.Strings(got)
	sort.Strings(want)
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertContexts,
			Expected: fmt.Sprintf("graphs %v", want),
			Actual:   fmt.Sprintf("graphs %v", got),
			Trace:    trace,
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, event := range trace {
		if event.Type == a.Event {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d %s events", n, a.Event),
			Trace:    trace,
		}
	}
	return nil
}
