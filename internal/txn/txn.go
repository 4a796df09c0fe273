// Package txn wraps a store connection's transaction primitives.
package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/rdfio/internal/metrics"
	"github.com/roach88/rdfio/internal/store"
)

// ErrNestedTransaction is returned by WithTransaction when the connection
// already has a transaction open. Savepoints are not supported.
var ErrNestedTransaction = errors.New("nested transactions are not supported")

// Option configures WithTransaction.
type Option func(*options)

type options struct {
	metrics *metrics.Metrics
}

// WithMetrics counts transaction outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Begin starts a transaction on conn.
func Begin(ctx context.Context, conn store.Connection) error {
	return conn.Begin(ctx)
}

// Commit commits the open transaction on conn.
func Commit(ctx context.Context, conn store.Connection) error {
	return conn.Commit(ctx)
}

// Rollback abandons the open transaction on conn.
func Rollback(ctx context.Context, conn store.Connection) error {
	return conn.Rollback(ctx)
}

// WithTransaction runs body inside a transaction on conn. If body returns
// nil the transaction is committed and body's result returned. If body
// fails or panics the transaction is rolled back and body's error is
// returned unchanged, or the panic resumed. A failed rollback is logged,
// never returned in place of body's error.
func WithTransaction[T any](ctx context.Context, conn store.Connection, body func(ctx context.Context) (T, error), opts ...Option) (result T, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	if conn.InTransaction() {
		return zero, ErrNestedTransaction
	}
	if err := conn.Begin(ctx); err != nil {
		return zero, fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Roll back even when ctx is already cancelled.
		if rbErr := conn.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, store.ErrNoTransaction) {
			slog.Warn("rollback failed", "error", rbErr)
		}
		o.metrics.RecordTransaction(metrics.OutcomeRolledBack)
	}()

	result, err = body(ctx)
	if err != nil {
		return zero, err
	}
	if err := conn.Commit(ctx); err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	o.metrics.RecordTransaction(metrics.OutcomeCommitted)
	return result, nil
}
