package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/bridge"
	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/ingest"
	"github.com/roach88/rdfio/internal/query"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
	"github.com/roach88/rdfio/internal/testutil"
)

// Harness executes one scenario against one connection.
type Harness struct {
	conn   store.Connection
	exec   *query.Executor
	seq    *testutil.Sequence
	logger *slog.Logger
}

// Run executes a scenario against a fresh in-memory store.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	repo, err := store.Open(ctx, config.Store{Kind: config.KindMemory})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer repo.Close()
	return RunWith(ctx, repo, scenario)
}

// RunWith executes a scenario against repo. The store should be empty.
//
// Execution flow:
// 1. Load every setup document through the parse bridge
// 2. Evaluate the flow queries, checking expect clauses
// 3. Evaluate assertions against the trace and the store
func RunWith(ctx context.Context, repo store.Repository, scenario *Scenario) (*Result, error) {
	conn, err := repo.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	h := &Harness{
		conn:   conn,
		exec:   query.NewExecutor(),
		seq:    testutil.NewSequence(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	h.executeFlow(ctx, scenario.Flow, result)

	actx := &AssertionContext{
		Conn: conn,
		Ctx:  ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) executeSetup(ctx context.Context, setup []LoadStep, result *Result) error {
	for i, step := range setup {
		n, formatName, err := h.load(ctx, step)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		source := "inline"
		if step.File != "" {
			source = filepath.Base(step.File)
		}
		h.logger.Debug("loaded", "source", source, "format", formatName, "statements", n)
		result.AddLoadTrace(source, formatName, n, h.seq.Next())
	}
	return nil
}

func (h *Harness) load(ctx context.Context, step LoadStep) (int64, string, error) {
	src := bridge.Source{Format: step.Format}
	if step.File != "" {
		f, err := os.Open(step.File)
		if err != nil {
			return 0, "", err
		}
		defer f.Close()
		src.Name = step.File
		src.Reader = f
	} else {
		src.Reader = strings.NewReader(step.Data)
	}

	// Preserved labels keep traces identical across runs.
	stream, err := bridge.Open(ctx, src, bridge.PreserveBlankNodes())
	if err != nil {
		return 0, "", err
	}
	defer stream.Close()

	opts := ingest.Options{Target: "harness"}
	if step.Graph != "" {
		opts.Context = rdf.NewIRI(step.Graph)
	}
	n, err := ingest.Load(ctx, h.conn, stream.All(), opts)
	return n, stream.Format().Name, err
}

func (h *Harness) executeFlow(ctx context.Context, flow []QueryStep, result *Result) {
	for i, step := range flow {
		event, err := h.evaluate(ctx, step)
		if err != nil {
			result.AddErrorTrace(err, h.seq.Next())
			switch {
			case step.Expect == nil || step.Expect.Error == "":
				result.AddError(fmt.Sprintf("flow[%d]: %v", i, err))
			case !strings.Contains(err.Error(), step.Expect.Error):
				result.AddError(fmt.Sprintf("flow[%d]: expected error containing %q, got %v", i, step.Expect.Error, err))
			}
			continue
		}
		event.Seq = h.seq.Next()
		result.Trace = append(result.Trace, event)
		if step.Expect != nil {
			for _, msg := range checkExpect(i, step.Expect, event) {
				result.AddError(msg)
			}
		}
	}
}

func (h *Harness) evaluate(ctx context.Context, step QueryStep) (TraceEvent, error) {
	var ds *algebra.Dataset
	if step.Dataset != nil {
		ds = h.exec.BuildRestriction(step.Dataset.Default, step.Dataset.Named)
	}
	pq, err := h.exec.Prepare(h.conn, step.Query, ds)
	if err != nil {
		return TraceEvent{}, err
	}
	res, err := pq.Evaluate(ctx)
	if err != nil {
		return TraceEvent{}, err
	}

	event := TraceEvent{Type: EventQuery, Form: pq.Form()}
	switch r := res.(type) {
	case query.BooleanResult:
		b := r.Value
		event.Boolean = &b
	case *query.BindingsResult:
		sel, _ := pq.Query().(*algebra.Select)
		event.Rows, err = bindingRows(r, sel != nil && len(sel.Order) > 0)
	case *query.StatementsResult:
		var stmts []rdf.Statement
		for st, serr := range r.All() {
			if serr != nil {
				return TraceEvent{}, serr
			}
			stmts = append(stmts, st)
		}
		event.Rows = testutil.SortedLines(stmts)
	case query.UnitResult:
	}
	if err != nil {
		return TraceEvent{}, err
	}
	event.Count = int64(len(event.Rows))
	return event, nil
}

// bindingRows renders each solution as space-separated name=term pairs in
// variable order.
func bindingRows(r *query.BindingsResult, ordered bool) ([]string, error) {
	defer r.Close()
	var rows []string
	for {
		sol, err := r.NextRaw()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(sol))
		for name := range sol {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + "=" + rdf.FormatTerm(sol[name])
		}
		rows = append(rows, strings.Join(parts, " "))
	}
	if !ordered {
		sort.Strings(rows)
	}
	return rows, nil
}

func checkExpect(index int, e *ExpectClause, event TraceEvent) []string {
	var errs []string
	if e.Error != "" {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected error containing %q, query succeeded", index, e.Error))
	}
	if e.Count != nil && int64(*e.Count) != event.Count {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected %d results, got %d", index, *e.Count, event.Count))
	}
	if e.Boolean != nil {
		switch {
		case event.Boolean == nil:
			errs = append(errs, fmt.Sprintf("flow[%d]: expected boolean %t, got %s result", index, *e.Boolean, event.Form))
		case *event.Boolean != *e.Boolean:
			errs = append(errs, fmt.Sprintf("flow[%d]: expected boolean %t, got %t", index, *e.Boolean, *event.Boolean))
		}
	}
	if e.Rows != nil && !slices.Equal(e.Rows, event.Rows) {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected rows %q, got %q", index, e.Rows, event.Rows))
	}
	return errs
}
