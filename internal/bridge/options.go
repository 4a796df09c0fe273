package bridge

import (
	"github.com/roach88/rdfio/internal/metrics"
	"github.com/roach88/rdfio/internal/parse"
)

// DefaultCapacity is the handoff queue size used when WithCapacity is not
// given.
const DefaultCapacity = 32

// Option configures a Stream.
type Option func(*options)

type options struct {
	capacity       int
	baseIRI        string
	preserveBNodes bool
	metrics        *metrics.Metrics
	parser         parse.Func
}

func defaultOptions() options {
	return options{capacity: DefaultCapacity}
}

// WithCapacity sets the number of statements the worker may run ahead of the
// consumer. Values below 1 are treated as 1.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.capacity = n
	}
}

// WithBaseIRI sets the base for relative IRI references.
func WithBaseIRI(base string) Option {
	return func(o *options) {
		o.baseIRI = base
	}
}

// PreserveBlankNodes keeps blank node labels exactly as the parser produced
// them instead of scoping them to the session.
func PreserveBlankNodes() Option {
	return func(o *options) {
		o.preserveBNodes = true
	}
}

// WithMetrics records parse counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithParser overrides the registered parser for the resolved format.
func WithParser(fn parse.Func) Option {
	return func(o *options) {
		o.parser = fn
	}
}
