// Package ingest writes statement sequences to a store in batches.
package ingest

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/roach88/rdfio/internal/metrics"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
	"github.com/roach88/rdfio/internal/txn"
)

// DefaultBatchSize is the number of statements committed per transaction.
const DefaultBatchSize = 1000

// Options configures Load.
type Options struct {
	// BatchSize is the number of statements per transaction. Zero means
	// DefaultBatchSize.
	BatchSize int

	// Context, if set, places triples into this graph. Statements that
	// already carry a context keep it.
	Context rdf.Term

	// Target labels the written-statements metric, e.g. the store kind.
	Target string

	Metrics *metrics.Metrics
}

// Load writes every statement of seq to conn, one transaction per batch.
// It returns the number of statements committed. When seq or a batch fails,
// that batch is rolled back and the error returned along with the count of
// statements committed before it.
func Load(ctx context.Context, conn store.Connection, seq iter.Seq2[rdf.Statement, error], opts Options) (int64, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	if opts.Context != nil && !rdf.IsResource(opts.Context) {
		return 0, fmt.Errorf("context %s is not an IRI or blank node", opts.Context)
	}

	var committed int64
	batch := make([]rdf.Statement, 0, size)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := txn.WithTransaction(ctx, conn, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, conn.Add(ctx, batch...)
		}, txn.WithMetrics(opts.Metrics))
		if err != nil {
			return err
		}
		committed += int64(len(batch))
		opts.Metrics.RecordWritten(opts.Target, len(batch))
		slog.Debug("batch committed", "statements", len(batch), "total", committed)
		batch = batch[:0]
		return nil
	}

	for st, err := range seq {
		if err != nil {
			return committed, err
		}
		if err := ctx.Err(); err != nil {
			return committed, err
		}
		if opts.Context != nil && st.IsTriple() {
			st = st.InGraph(opts.Context)
		}
		batch = append(batch, st)
		if len(batch) >= size {
			if err := flush(); err != nil {
				return committed, fmt.Errorf("write batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return committed, fmt.Errorf("write batch: %w", err)
	}
	return committed, nil
}
