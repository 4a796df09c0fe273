package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/rdfio/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Store      string // overrides store.kind
	Path       string // overrides store.path
	URL        string // overrides store.url, or both sparql endpoints
	Verbose    bool
	Output     string // "json" | "text"

	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// ValidOutputs defines the allowed output formats.
var ValidOutputs = []string{"text", "json"}

// NewRootCommand creates the root command for the rdfio CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rdfio",
		Short: "rdfio - move RDF statements between files and stores",
		Long:  "Load RDF documents into a graph store, query it with structured query documents, and export it again.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidOutput(opts.Output) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, ValidOutputs))
			}
			setupLogging(cmd, opts.Verbose)
			return opts.setupMetrics()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.logMetrics()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "store kind (memory|sqlite|native|http|sparql)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "", "database file (sqlite) or directory (native)")
	cmd.PersistentFlags().StringVar(&opts.URL, "url", "", "repository or SPARQL endpoint URL")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Output, "output", "text", "output format (json|text)")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewFormatsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func setupLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func (o *RootOptions) setupMetrics() error {
	o.registry = prometheus.NewRegistry()
	m, err := metrics.New(o.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	o.metrics = m
	return nil
}

// logMetrics writes every non-zero counter as a debug record.
func (o *RootOptions) logMetrics() {
	if o.registry == nil {
		return
	}
	families, err := o.registry.Gather()
	if err != nil {
		slog.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			c := m.GetCounter()
			if c == nil || c.GetValue() == 0 {
				continue
			}
			attrs := []any{"metric", mf.GetName(), "value", c.GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			slog.Debug("metric", attrs...)
		}
	}
}

func isValidOutput(output string) bool {
	for _, f := range ValidOutputs {
		if f == output {
			return true
		}
	}
	return false
}
