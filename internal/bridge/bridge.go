// Package bridge turns a push-style parser into a pull-style statement
// stream.
//
// Each Stream owns one worker goroutine that drives the parser and one
// bounded channel. The worker blocks when the channel is full, so memory use
// is bounded by the channel capacity rather than the input size. The worker
// is started by the first call to Next and is gone once Next has returned a
// terminal error or Close has returned.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/roach88/rdfio/internal/format"
	"github.com/roach88/rdfio/internal/parse"
	"github.com/roach88/rdfio/internal/rdf"
)

// Source is one input to parse.
//
// Format and MediaType are optional; when both are empty the format is
// inferred from the extension of Name.
type Source struct {
	Name      string
	Reader    io.Reader
	Format    string
	MediaType string
}

type itemKind uint8

const (
	itemStatement itemKind = iota
	itemEnd
	itemError
)

// item is what travels over the handoff channel: a statement or one of the
// two sentinels.
type item struct {
	kind itemKind
	stmt rdf.Statement
	err  error
}

// Stream is a lazily consumed sequence of statements.
//
// Next and All must be called from a single goroutine. Close may be called
// from any goroutine.
type Stream struct {
	source Source
	format format.Format
	parser parse.Func
	opts   options
	prefix string

	ctx    context.Context
	cancel context.CancelFunc
	items  chan item
	done   chan struct{}

	startOnce    sync.Once
	shutdownOnce sync.Once
	closed       atomic.Bool

	// consumer-side state
	delivered int64
	err       error
}

// Open resolves the format of src and prepares a stream. No goroutine is
// started and nothing is read until the first call to Next.
//
// Format resolution fails with *format.UnsupportedFormatError when an
// explicit format or media type is not recognized, and with
// format.ErrNoFormatSupplied when nothing is supplied and the name has no
// known extension.
func Open(ctx context.Context, src Source, opts ...Option) (*Stream, error) {
	if src.Reader == nil {
		return nil, errors.New("open stream: source has no reader")
	}
	f, err := format.Resolve(src.Format, src.MediaType, src.Name)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fn := o.parser
	if fn == nil {
		var ok bool
		fn, ok = parse.Lookup(f.Name)
		if !ok {
			return nil, fmt.Errorf("open stream: %w", &format.UnsupportedFormatError{Value: f.Name, By: "name"})
		}
	}

	sctx, cancel := context.WithCancel(ctx)
	return &Stream{
		source: src,
		format: f,
		parser: fn,
		opts:   o,
		prefix: sessionPrefix(),
		ctx:    sctx,
		cancel: cancel,
		items:  make(chan item, o.capacity),
		done:   make(chan struct{}),
	}, nil
}

// Format returns the resolved format.
func (s *Stream) Format() format.Format { return s.format }

// Delivered returns the number of statements returned by Next so far.
func (s *Stream) Delivered() int64 { return s.delivered }

// Next returns the next statement.
//
// At the end of the input it returns io.EOF. If the parser failed, it
// returns a *ReadingAbortedError once all statements preceding the failure
// have been returned. After Close it returns ErrClosed; if the parent
// context is cancelled it returns the context's error. Terminal errors are
// sticky.
func (s *Stream) Next() (rdf.Statement, error) {
	if s.err != nil {
		return rdf.Statement{}, s.err
	}
	if s.closed.Load() {
		return rdf.Statement{}, s.finish(ErrClosed)
	}
	if err := s.ctx.Err(); err != nil {
		return rdf.Statement{}, s.finish(err)
	}
	s.startOnce.Do(s.start)

	select {
	case it := <-s.items:
		switch it.kind {
		case itemStatement:
			s.delivered++
			s.opts.metrics.RecordParsed(s.format.Name)
			return it.stmt, nil
		case itemEnd:
			slog.Debug("parse session finished",
				"format", s.format.Name,
				"source", s.source.Name,
				"statements", s.delivered)
			return rdf.Statement{}, s.finish(io.EOF)
		default:
			s.opts.metrics.RecordParseError(s.format.Name)
			return rdf.Statement{}, s.finish(&ReadingAbortedError{
				Format:    s.format.Name,
				Source:    s.source.Name,
				Delivered: s.delivered,
				Err:       it.err,
			})
		}
	case <-s.ctx.Done():
		if s.closed.Load() {
			return rdf.Statement{}, s.finish(ErrClosed)
		}
		return rdf.Statement{}, s.finish(s.ctx.Err())
	}
}

// All returns the remaining statements as a range-over-func sequence. A
// terminal error other than io.EOF is yielded once as the last element.
// Breaking out of the loop closes the stream.
func (s *Stream) All() iter.Seq2[rdf.Statement, error] {
	return func(yield func(rdf.Statement, error) bool) {
		defer s.Close()
		for {
			st, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(rdf.Statement{}, err)
				return
			}
			if !yield(st, nil) {
				return
			}
		}
	}
}

// Close cancels the worker, closes the input if it is an io.Closer and waits
// for the worker to exit. It is safe to call more than once.
//
// Cancellation is observed by the parser between reads. A reader that is
// not an io.Closer and is blocked inside Read keeps Close waiting until
// that Read returns; wrap such inputs in a type whose Close unblocks Read
// (for example the read half of an io.Pipe or a net.Conn).
func (s *Stream) Close() error {
	s.closed.Store(true)
	s.shutdown()
	return nil
}

func (s *Stream) finish(err error) error {
	s.err = err
	s.shutdown()
	return err
}

func (s *Stream) shutdown() {
	s.shutdownOnce.Do(func() {
		s.cancel()
		if c, ok := s.source.Reader.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Debug("close parse input", "source", s.source.Name, "error", err)
			}
		}
		// A session that never started has no worker to wait for.
		s.startOnce.Do(func() { close(s.done) })
		<-s.done
	})
}

func (s *Stream) start() {
	slog.Debug("parse session started",
		"format", s.format.Name,
		"source", s.source.Name,
		"capacity", s.opts.capacity)
	go s.run()
}

func (s *Stream) run() {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.send(item{kind: itemError, err: fmt.Errorf("parser panic: %v", r)})
		}
	}()

	err := s.parser(s.ctx, s.source.Reader, parse.Options{BaseIRI: s.opts.baseIRI}, func(st rdf.Statement) error {
		if !s.opts.preserveBNodes {
			st = s.scope(st)
		}
		return s.send(item{kind: itemStatement, stmt: st})
	})
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		s.send(item{kind: itemError, err: err})
		return
	}
	s.send(item{kind: itemEnd})
}

// send blocks until the consumer has room or the session is cancelled.
func (s *Stream) send(it item) error {
	select {
	case s.items <- it:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *Stream) scope(st rdf.Statement) rdf.Statement {
	st.Subject = s.scopeTerm(st.Subject)
	st.Object = s.scopeTerm(st.Object)
	if st.Context != nil {
		st.Context = s.scopeTerm(st.Context)
	}
	return st
}

func (s *Stream) scopeTerm(t rdf.Term) rdf.Term {
	if b, ok := t.(rdf.BlankNode); ok {
		return rdf.BlankNode{ID: s.prefix + b.ID}
	}
	return t
}

// sessionPrefix returns a label prefix unique to one session, so blank nodes
// from different inputs never collide once loaded into the same store.
func sessionPrefix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "s" + id[:12] + "_"
}
