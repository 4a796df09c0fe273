package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/metrics"
	"github.com/roach88/rdfio/internal/rdf"
	"github.com/roach88/rdfio/internal/store"
)

var (
	alice = rdf.NewIRI("http://ex.org/alice")
	knows = rdf.NewIRI("http://xmlns.com/foaf/0.1/knows")
	bob   = rdf.NewIRI("http://ex.org/bob")
)

func createTestConn(t *testing.T) store.Connection {
	t.Helper()
	repo, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	conn, err := repo.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func size(t *testing.T, conn store.Connection) int64 {
	t.Helper()
	n, err := conn.Size(context.Background())
	require.NoError(t, err)
	return n
}

func TestWithTransaction_Commits(t *testing.T) {
	conn := createTestConn(t)
	m, err := metrics.New(nil)
	require.NoError(t, err)

	got, err := WithTransaction(context.Background(), conn, func(ctx context.Context) (int, error) {
		return 1, conn.Add(ctx, rdf.NewTriple(alice, knows, bob))
	}, WithMetrics(m))
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.False(t, conn.InTransaction())
	assert.EqualValues(t, 1, size(t, conn))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues(metrics.OutcomeCommitted)))
}

func TestWithTransaction_RollbackLeavesNothingVisible(t *testing.T) {
	conn := createTestConn(t)
	m, err := metrics.New(nil)
	require.NoError(t, err)
	boom := errors.New("boom")

	_, err = WithTransaction(context.Background(), conn, func(ctx context.Context) (struct{}, error) {
		if err := conn.Add(ctx, rdf.NewTriple(alice, knows, bob)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, boom
	}, WithMetrics(m))
	assert.Same(t, boom, err, "the original error is returned unchanged")
	assert.False(t, conn.InTransaction())
	assert.Zero(t, size(t, conn))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues(metrics.OutcomeRolledBack)))
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	conn := createTestConn(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		WithTransaction(context.Background(), conn, func(ctx context.Context) (int, error) {
			conn.Add(ctx, rdf.NewTriple(alice, knows, bob))
			panic("kaboom")
		})
	})
	assert.False(t, conn.InTransaction())
	assert.Zero(t, size(t, conn))
}

func TestWithTransaction_RejectsNesting(t *testing.T) {
	conn := createTestConn(t)
	ctx := context.Background()

	_, err := WithTransaction(ctx, conn, func(ctx context.Context) (int, error) {
		return WithTransaction(ctx, conn, func(ctx context.Context) (int, error) {
			return 0, nil
		})
	})
	assert.ErrorIs(t, err, ErrNestedTransaction)
	assert.False(t, conn.InTransaction())
}

func TestWithTransaction_CancelledContextStillRollsBack(t *testing.T) {
	conn := createTestConn(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := WithTransaction(ctx, conn, func(ctx context.Context) (int, error) {
		cancel()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, conn.InTransaction())
}

// failingCommit fails every commit.
type failingCommit struct {
	store.Connection
}

var errCommit = errors.New("disk full")

func (f failingCommit) Commit(ctx context.Context) error {
	f.Connection.Rollback(ctx)
	return errCommit
}

func TestWithTransaction_CommitFailure(t *testing.T) {
	conn := failingCommit{createTestConn(t)}

	_, err := WithTransaction(context.Background(), conn, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, errCommit)
	assert.False(t, conn.InTransaction())
}

func TestPassThrough(t *testing.T) {
	conn := createTestConn(t)
	ctx := context.Background()

	require.NoError(t, Begin(ctx, conn))
	assert.True(t, conn.InTransaction())
	require.NoError(t, conn.Add(ctx, rdf.NewTriple(alice, knows, bob)))
	require.NoError(t, Rollback(ctx, conn))
	assert.Zero(t, size(t, conn))

	require.NoError(t, Begin(ctx, conn))
	require.NoError(t, conn.Add(ctx, rdf.NewTriple(alice, knows, bob)))
	require.NoError(t, Commit(ctx, conn))
	assert.EqualValues(t, 1, size(t, conn))

	assert.ErrorIs(t, Commit(ctx, conn), store.ErrNoTransaction)
}
