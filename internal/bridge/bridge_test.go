package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/metrics"
	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/rdf"
)

type closingReader struct {
	io.Reader
	closed atomic.Bool
}

func (r *closingReader) Close() error {
	r.closed.Store(true)
	return nil
}

func stmt(i int) rdf.Statement {
	return rdf.NewTriple(
		rdf.NewIRI(fmt.Sprintf("http://ex.org/s%d", i)),
		rdf.NewIRI("http://ex.org/p"),
		rdf.NewLiteral(fmt.Sprint(i)),
	)
}

// floodParser emits n statements as fast as the bridge accepts them and
// counts how many it has handed over.
func floodParser(n int, produced *atomic.Int64) parse.Func {
	return func(ctx context.Context, _ io.Reader, _ parse.Options, h parse.Handler) error {
		for i := 0; i < n; i++ {
			produced.Add(1)
			if err := h(stmt(i)); err != nil {
				return err
			}
		}
		return nil
	}
}

func drain(t *testing.T, s *Stream) ([]rdf.Statement, error) {
	t.Helper()
	var out []rdf.Statement
	for {
		st, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, st)
	}
}

func TestOrderedDrain(t *testing.T) {
	var b strings.Builder
	var want []rdf.Statement
	for i := 0; i < 200; i++ {
		want = append(want, stmt(i))
		b.WriteString(stmt(i).String())
		b.WriteByte('\n')
	}

	s, err := Open(context.Background(), Source{Name: "data.nt", Reader: strings.NewReader(b.String())}, WithCapacity(4))
	require.NoError(t, err)
	assert.Equal(t, format.NTriples, s.Format().Name)

	got, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 200, s.Delivered())

	// The end sentinel is sticky.
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrefixThenReadingAborted(t *testing.T) {
	input := `<http://ex.org/a> <http://ex.org/p> "1" .
<http://ex.org/b> <http://ex.org/p> "2" .
<http://ex.org/c> <http://ex.org/p> "3
`
	s, err := Open(context.Background(), Source{Reader: strings.NewReader(input), Format: "ntriples"})
	require.NoError(t, err)

	got, err := drain(t, s)
	require.Len(t, got, 2)
	assert.Equal(t, rdf.NewIRI("http://ex.org/b"), got[1].Subject)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadingAborted)
	assert.True(t, IsReadingAborted(err))

	var ra *ReadingAbortedError
	require.ErrorAs(t, err, &ra)
	assert.EqualValues(t, 2, ra.Delivered)
	assert.True(t, parse.IsSyntaxError(ra.Err))

	_, again := s.Next()
	assert.Same(t, err, again)
}

func TestBoundedMemory(t *testing.T) {
	const capacity = 8
	var produced atomic.Int64

	s, err := Open(context.Background(),
		Source{Name: "big.nt", Reader: strings.NewReader("")},
		WithCapacity(capacity),
		WithParser(floodParser(100_000, &produced)))
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, stmt(0), first)

	// The producer fills the channel, then blocks on the next send.
	require.Eventually(t, func() bool {
		return produced.Load() == 1+capacity+1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1+capacity+1, produced.Load())
	assert.LessOrEqual(t, len(s.items), capacity)

	for i := 1; i <= 100; i++ {
		st, err := s.Next()
		require.NoError(t, err)
		require.Equal(t, stmt(i), st)
		require.LessOrEqual(t, produced.Load()-s.Delivered(), int64(capacity+1))
	}
}

func TestFormatResolution(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Source{Name: "data.ttl", Reader: strings.NewReader("")})
	require.NoError(t, err)
	assert.Equal(t, format.Turtle, s.Format().Name)

	_, err = Open(ctx, Source{Name: "data.xyz", Reader: strings.NewReader("")})
	assert.ErrorIs(t, err, format.ErrNoFormatSupplied)

	_, err = Open(ctx, Source{Name: "data.ttl", Format: "yaml", Reader: strings.NewReader("")})
	var ufe *format.UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "yaml", ufe.Value)

	s, err = Open(ctx, Source{MediaType: "application/n-quads; charset=utf-8", Reader: strings.NewReader("")})
	require.NoError(t, err)
	assert.Equal(t, format.NQuads, s.Format().Name)
}

func TestNoWorkerBeforeFirstPull(t *testing.T) {
	var produced atomic.Int64
	r := &closingReader{Reader: strings.NewReader("")}
	s, err := Open(context.Background(), Source{Name: "x.nt", Reader: r}, WithParser(floodParser(10, &produced)))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, produced.Load())

	require.NoError(t, s.Close())
	assert.True(t, r.closed.Load())
	assert.Zero(t, produced.Load())

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseReleasesWorker(t *testing.T) {
	var produced atomic.Int64
	r := &closingReader{Reader: strings.NewReader("")}
	s, err := Open(context.Background(), Source{Name: "x.nt", Reader: r},
		WithCapacity(2), WithParser(floodParser(1_000_000, &produced)))
	require.NoError(t, err)

	_, err = s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	select {
	case <-s.done:
	default:
		t.Fatal("worker still running after Close")
	}
	assert.True(t, r.closed.Load())
	assert.Less(t, produced.Load(), int64(10))

	_, err = s.Next()
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, s.Close())
}

func TestNextAfterCloseNeverDeliversBufferedItems(t *testing.T) {
	for i := 0; i < 200; i++ {
		var produced atomic.Int64
		s, err := Open(context.Background(), Source{Name: "x.nt", Reader: strings.NewReader("")},
			WithCapacity(4), WithParser(floodParser(1_000_000, &produced)))
		require.NoError(t, err)

		_, err = s.Next()
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = s.Next()
		require.ErrorIs(t, err, ErrClosed, "run %d", i)
	}
}

func TestCloseUnblocksClosableReader(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	s, err := Open(context.Background(), Source{Name: "x.nt", Reader: pr})
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := s.Next()
		errs <- err
	}()

	// Give the worker time to block in Read on the empty pipe.
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		_ = s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return while the parser was blocked in Read")
	}
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestAllBreakClosesStream(t *testing.T) {
	var produced atomic.Int64
	r := &closingReader{Reader: strings.NewReader("")}
	s, err := Open(context.Background(), Source{Name: "x.nt", Reader: r},
		WithParser(floodParser(1_000, &produced)))
	require.NoError(t, err)

	n := 0
	for st, err := range s.All() {
		require.NoError(t, err)
		assert.Equal(t, stmt(n), st)
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
	assert.True(t, r.closed.Load())
	<-s.done
}

func TestParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var produced atomic.Int64
	s, err := Open(ctx, Source{Name: "x.nt", Reader: strings.NewReader("")},
		WithCapacity(1), WithParser(floodParser(1_000_000, &produced)))
	require.NoError(t, err)

	_, err = s.Next()
	require.NoError(t, err)
	cancel()

	// Items still buffered are not delivered once the context is done.
	for i := 0; i < 10; i++ {
		if _, err = s.Next(); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, context.Canceled)
	<-s.done
}

func TestParserPanicBecomesError(t *testing.T) {
	panicky := func(ctx context.Context, _ io.Reader, _ parse.Options, h parse.Handler) error {
		if err := h(stmt(0)); err != nil {
			return err
		}
		panic("boom")
	}
	s, err := Open(context.Background(), Source{Name: "x.nt", Reader: strings.NewReader("")}, WithParser(panicky))
	require.NoError(t, err)

	got, err := drain(t, s)
	assert.Len(t, got, 1)
	assert.ErrorIs(t, err, ErrReadingAborted)
	assert.Contains(t, err.Error(), "boom")
}

func TestBlankNodeScoping(t *testing.T) {
	input := "_:a <http://ex.org/p> _:b .\n_:b <http://ex.org/p> _:a .\n"

	open := func(opts ...Option) []rdf.Statement {
		s, err := Open(context.Background(), Source{Name: "x.nt", Reader: strings.NewReader(input)}, opts...)
		require.NoError(t, err)
		got, err := drain(t, s)
		require.NoError(t, err)
		return got
	}

	first := open()
	second := open()
	require.Len(t, first, 2)
	assert.Equal(t, first[0].Subject, first[1].Object, "labels stay consistent within a session")
	assert.NotEqual(t, first[0].Subject, second[0].Subject, "labels differ across sessions")

	preserved := open(PreserveBlankNodes())
	assert.Equal(t, rdf.NewBlankNode("a"), preserved[0].Subject)
}

func TestBaseIRI(t *testing.T) {
	s, err := Open(context.Background(),
		Source{Name: "x.ttl", Reader: strings.NewReader("<a> <p> <b> .")},
		WithBaseIRI("http://ex.org/"))
	require.NoError(t, err)
	got, err := drain(t, s)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rdf.NewIRI("http://ex.org/a"), got[0].Subject)
}

func TestMetrics(t *testing.T) {
	m, err := metrics.New(nil)
	require.NoError(t, err)

	input := "<http://s> <http://p> <http://o> .\n<http://s> <http://p> .\n"
	s, err := Open(context.Background(), Source{Name: "x.nt", Reader: strings.NewReader(input)}, WithMetrics(m))
	require.NoError(t, err)
	_, err = drain(t, s)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatementsParsed.WithLabelValues(format.NTriples)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors.WithLabelValues(format.NTriples)))
}
