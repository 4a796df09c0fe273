package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rdfio/internal/bridge"
	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/ingest"
	"github.com/roach88/rdfio/internal/rdf"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Format    string
	Graph     string
	BatchSize int
}

// FileResult reports one loaded document.
type FileResult struct {
	File       string `json:"file"`
	Format     string `json:"format"`
	Statements int64  `json:"statements"`
}

// LoadResult is the load command payload.
type LoadResult struct {
	Files []FileResult `json:"files"`
	Total int64        `json:"total"`
}

// Text implements Texter.
func (r LoadResult) Text(w io.Writer) error {
	for _, f := range r.Files {
		fmt.Fprintf(w, "Loaded %d statements from %s (%s)\n", f.Statements, f.File, f.Format)
	}
	_, err := fmt.Fprintf(w, "Total: %d statements\n", r.Total)
	return err
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <file>...",
		Short: "Parse documents and write them to the store",
		Long: `Parse RDF documents and write their statements to the configured store.

The format is inferred from each file's extension unless --format is given.
Use "-" to read standard input; --format is then required. Statements are
committed in batches, one transaction per batch.

Examples:
  rdfio load --store sqlite --path ./graph.db data.ttl more.nq
  rdfio load --store native --path ./graph --graph http://ex.org/g people.nt
  cat data.nq | rdfio load --format nquads -`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "input format name (default: inferred from extension)")
	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "place triples into this named graph")
	cmd.Flags().IntVar(&opts.BatchSize, "batch", 0, "statements per transaction (default: write.batch_size)")

	return cmd
}

func runLoad(ctx context.Context, opts *LoadOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Format != "" {
		if _, err := format.ByName(opts.Format); err != nil {
			return WrapExitError(ExitCommandError, "invalid --format", err)
		}
	}
	if opts.BatchSize < 0 {
		return NewExitError(ExitCommandError, "--batch must not be negative")
	}

	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	ingestOpts := ingest.Options{
		BatchSize: sess.cfg.Write.BatchSize,
		Target:    sess.cfg.Store.Kind,
		Metrics:   opts.metrics,
	}
	if opts.BatchSize > 0 {
		ingestOpts.BatchSize = opts.BatchSize
	}
	if opts.Graph != "" {
		ingestOpts.Context = rdf.NewIRI(opts.Graph)
	}

	result := LoadResult{Files: []FileResult{}}
	for _, file := range files {
		fr, err := loadFile(ctx, sess, opts, file, ingestOpts)
		result.Total += fr.Statements
		if err != nil {
			return err
		}
		result.Files = append(result.Files, fr)
	}

	f := &OutputFormatter{Format: opts.Output, Writer: cmd.OutOrStdout()}
	return f.Success(result)
}

func loadFile(ctx context.Context, sess *session, opts *LoadOptions, file string, ingestOpts ingest.Options) (FileResult, error) {
	fr := FileResult{File: file}

	src := bridge.Source{Name: file, Format: opts.Format}
	if file == "-" {
		if opts.Format == "" {
			return fr, NewExitError(ExitCommandError, "--format is required when reading standard input")
		}
		src.Name = ""
		src.Reader = io.NopCloser(os.Stdin)
	} else {
		in, err := os.Open(file)
		if err != nil {
			return fr, WrapExitError(ExitCommandError, "failed to open input", err)
		}
		src.Reader = in
	}

	bopts := []bridge.Option{
		bridge.WithCapacity(sess.cfg.Parse.Capacity),
		bridge.WithMetrics(opts.metrics),
	}
	if sess.cfg.Parse.BaseIRI != "" {
		bopts = append(bopts, bridge.WithBaseIRI(sess.cfg.Parse.BaseIRI))
	}
	if sess.cfg.Parse.PreserveBlankNodes {
		bopts = append(bopts, bridge.PreserveBlankNodes())
	}

	stream, err := bridge.Open(ctx, src, bopts...)
	if err != nil {
		if c, ok := src.Reader.(io.Closer); ok {
			c.Close()
		}
		return fr, WrapExitError(ExitCommandError, fmt.Sprintf("cannot read %s", file), err)
	}
	// Close also closes the input file.
	defer stream.Close()
	fr.Format = stream.Format().Name

	slog.Debug("loading", "file", file, "format", fr.Format, "batch", ingestOpts.BatchSize)
	n, err := ingest.Load(ctx, sess.conn, stream.All(), ingestOpts)
	fr.Statements = n
	if err != nil {
		return fr, WrapExitError(ExitFailure, fmt.Sprintf("failed to load %s after %d statements", file, n), err)
	}
	slog.Info("loaded", "file", file, "format", fr.Format, "statements", n)
	return fr, nil
}
