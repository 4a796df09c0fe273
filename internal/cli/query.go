package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/compiler"
	"github.com/roach88/rdfio/internal/query"
	"github.com/roach88/rdfio/internal/rdf"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	DefaultGraphs []string
	NamedGraphs   []string
}

// QueryResult is the query command payload. Terms are rendered in
// N-Triples syntax.
type QueryResult struct {
	Form       string              `json:"form"`
	Vars       []string            `json:"vars,omitempty"`
	Bindings   []map[string]string `json:"bindings,omitempty"`
	Boolean    *bool               `json:"boolean,omitempty"`
	Statements []string            `json:"statements,omitempty"`
}

// Text implements Texter.
func (r QueryResult) Text(w io.Writer) error {
	switch {
	case r.Boolean != nil:
		_, err := fmt.Fprintln(w, *r.Boolean)
		return err
	case r.Form == "select":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(r.Vars, "\t"))
		for _, b := range r.Bindings {
			row := make([]string, len(r.Vars))
			for i, v := range r.Vars {
				row[i] = b[v]
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	case r.Form == "modify":
		_, err := fmt.Fprintln(w, "OK")
		return err
	default:
		for _, line := range r.Statements {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query.cue>",
		Short: "Evaluate a query document against the store",
		Long: `Evaluate a CUE or JSON query document against the configured store.

Without graph flags the query sees every graph. --default-graph and
--named-graph restrict the dataset; giving only --named-graph leaves the
default graph empty.

Examples:
  rdfio query --store sqlite --path ./graph.db people.cue
  rdfio query --store native --path ./graph --default-graph http://ex.org/g q.cue
  echo 'ask: true, where: [{s: "?s", p: "?p", o: "?o"}]' | rdfio query -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.DefaultGraphs, "default-graph", nil, "graph IRI visible to default-graph patterns (repeatable)")
	cmd.Flags().StringArrayVar(&opts.NamedGraphs, "named-graph", nil, "graph IRI visible to GRAPH patterns (repeatable)")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, file string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		text []byte
		err  error
	)
	if file == "-" {
		text, err = io.ReadAll(cmd.InOrStdin())
	} else {
		text, err = os.ReadFile(file)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read query", err)
	}

	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	exec := query.NewExecutor(query.WithMetrics(opts.metrics))
	var ds *algebra.Dataset
	if len(opts.DefaultGraphs) > 0 || len(opts.NamedGraphs) > 0 {
		ds = exec.BuildRestriction(opts.DefaultGraphs, opts.NamedGraphs)
	}

	pq, err := exec.Prepare(sess.conn, string(text), ds)
	if err != nil {
		if compiler.IsCompileError(err) {
			return WrapExitError(ExitCommandError, "invalid query", err)
		}
		return WrapExitError(ExitFailure, "failed to prepare query", err)
	}

	res, err := pq.Evaluate(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	out, err := collectResult(pq.Form(), res)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}

	f := &OutputFormatter{Format: opts.Output, Writer: cmd.OutOrStdout()}
	return f.Success(out)
}

// collectResult drains a lazy result into the command payload.
func collectResult(form string, res query.Result) (QueryResult, error) {
	out := QueryResult{Form: form}
	switch r := res.(type) {
	case query.BooleanResult:
		b := r.Value
		out.Boolean = &b
	case *query.BindingsResult:
		defer r.Close()
		out.Vars = r.Vars()
		out.Bindings = []map[string]string{}
		for {
			sol, err := r.NextRaw()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return out, err
			}
			row := make(map[string]string, len(sol))
			for name, t := range sol {
				row[name] = rdf.FormatTerm(t)
			}
			out.Bindings = append(out.Bindings, row)
		}
	case *query.StatementsResult:
		out.Statements = []string{}
		for st, err := range r.All() {
			if err != nil {
				return out, err
			}
			out.Statements = append(out.Statements, st.String())
		}
	case query.UnitResult:
	}
	return out, nil
}
