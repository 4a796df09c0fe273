package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfio/internal/algebra"
	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/serialize"
)

// defaultGraphName selects the default graph in --graph.
const defaultGraphName = "default"

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Format string
	Graphs []string
	Out    string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store's statements in a serialization format",
		Long: `Write every statement of the configured store, or of the selected
graphs, to standard output or a file.

--graph may be repeated; the value "default" selects the default graph.
N-Triples and RDF/JSON output drop graph names.

Examples:
  rdfio export --store sqlite --path ./graph.db
  rdfio export --store native --path ./graph --format jsonld --out graph.jsonld
  rdfio export --store sqlite --path ./graph.db --graph http://ex.org/g --graph default`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", format.NQuads, "output format (nquads|ntriples|rdfjson|jsonld)")
	cmd.Flags().StringArrayVarP(&opts.Graphs, "graph", "g", nil, "graph to export (repeatable, \"default\" for the default graph)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default: stdout)")

	return cmd
}

func runExport(ctx context.Context, opts *ExportOptions, cmd *cobra.Command) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.Out != "" {
		f, cerr := os.Create(opts.Out)
		if cerr != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = WrapExitError(ExitFailure, "failed to write output file", cerr)
			}
		}()
		out = f
	}

	w, err := serialize.New(out, opts.Format)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --format", err)
	}

	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	var ds *algebra.Dataset
	if len(opts.Graphs) > 0 {
		ds = &algebra.Dataset{}
		for _, g := range opts.Graphs {
			if g == defaultGraphName {
				g = ""
			}
			ds.DefaultGraphs = append(ds.DefaultGraphs, g)
		}
	}

	all := algebra.Pattern{S: algebra.V("s"), P: algebra.V("p"), O: algebra.V("o")}
	cur, err := sess.conn.Match(ctx, all, ds)
	if err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}
	defer cur.Close()

	var n int
	for {
		st, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return WrapExitError(ExitFailure, "export failed", err)
		}
		if err := w.Write(st); err != nil {
			return WrapExitError(ExitFailure, "export failed", err)
		}
		n++
	}
	if err := w.Close(); err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}
	slog.Debug("exported", "statements", n, "format", opts.Format)
	if opts.Out != "" && opts.Output == "json" {
		f := &OutputFormatter{Format: opts.Output, Writer: cmd.OutOrStdout()}
		return f.Success(map[string]any{"file": opts.Out, "statements": n})
	}
	if opts.Out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d statements to %s\n", n, opts.Out)
	}
	return nil
}
