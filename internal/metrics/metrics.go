// Package metrics defines the Prometheus collectors shared by the parse,
// write, transaction and query paths.
//
// A nil *Metrics is valid and records nothing, so components accept one
// unconditionally.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rdfio"

// Transaction outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// Metrics holds every collector.
type Metrics struct {
	StatementsParsed  *prometheus.CounterVec   // by format
	ParseErrors       *prometheus.CounterVec   // by format
	StatementsWritten *prometheus.CounterVec   // by target
	Transactions      *prometheus.CounterVec   // by outcome
	Queries           *prometheus.CounterVec   // by form and status
	QueryDuration     *prometheus.HistogramVec // by form
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which is useful in tests that read values directly.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StatementsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "statements_total",
			Help:      "Statements delivered by parse sessions",
		}, []string{"format"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parse",
			Name:      "errors_total",
			Help:      "Parse sessions aborted by a parser error",
		}, []string{"format"}),
		StatementsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "statements_written_total",
			Help:      "Statements committed to a store",
		}, []string{"target"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "transactions_total",
			Help:      "Finished transactions by outcome",
		}, []string{"outcome"}), // committed, rolled_back
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "evaluations_total",
			Help:      "Query evaluations by form and status",
		}, []string{"form", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate a query up to its first result",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"form"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.StatementsParsed, m.ParseErrors, m.StatementsWritten,
		m.Transactions, m.Queries, m.QueryDuration,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// RecordParsed counts one delivered statement.
func (m *Metrics) RecordParsed(format string) {
	if m == nil {
		return
	}
	m.StatementsParsed.WithLabelValues(format).Inc()
}

// RecordParseError counts one aborted parse session.
func (m *Metrics) RecordParseError(format string) {
	if m == nil {
		return
	}
	m.ParseErrors.WithLabelValues(format).Inc()
}

// RecordWritten counts n committed statements.
func (m *Metrics) RecordWritten(target string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StatementsWritten.WithLabelValues(target).Add(float64(n))
}

// RecordTransaction counts a finished transaction.
func (m *Metrics) RecordTransaction(outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(outcome).Inc()
}

// RecordQuery counts a query evaluation and observes its duration.
func (m *Metrics) RecordQuery(form string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Queries.WithLabelValues(form, status).Inc()
	m.QueryDuration.WithLabelValues(form).Observe(d.Seconds())
}
