package harness

// Trace event types.
const (
	EventLoad  = "load"
	EventQuery = "query"
	EventError = "error"
)

// TraceEvent records one setup or flow step.
type TraceEvent struct {
	Type    string   `json:"type"`
	Source  string   `json:"source,omitempty"`
	Format  string   `json:"format,omitempty"`
	Form    string   `json:"form,omitempty"`
	Count   int64    `json:"count"`
	Boolean *bool    `json:"boolean,omitempty"`
	Rows    []string `json:"rows,omitempty"`
	Error   string   `json:"error,omitempty"`
	Seq     int64    `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the setup and flow events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddLoadTrace records a completed load.
func (r *Result) AddLoadTrace(source, format string, n int64, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventLoad,
		Source: source,
		Format: format,
		Count:  n,
		Seq:    seq,
	})
}

// AddErrorTrace records a step that failed with err.
func (r *Result) AddErrorTrace(err error, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:  EventError,
		Error: err.Error(),
		Seq:   seq,
	})
}
