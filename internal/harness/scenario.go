package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup loads statements before the flow runs.
	Setup []LoadStep `yaml:"setup,omitempty"`

	// Flow contains the queries to evaluate, in order.
	Flow []QueryStep `yaml:"flow,omitempty"`

	// Assertions validate the final trace and store contents.
	Assertions []Assertion `yaml:"assertions"`
}

// LoadStep loads one document. Exactly one of File and Data is set.
type LoadStep struct {
	// File is a path, relative to the scenario file unless absolute.
	File string `yaml:"file,omitempty"`

	// Data is inline document text.
	Data string `yaml:"data,omitempty"`

	// Format names the syntax. Inferred from File's extension when empty.
	Format string `yaml:"format,omitempty"`

	// Graph places every triple of the document into this named graph.
	Graph string `yaml:"graph,omitempty"`
}

// QueryStep evaluates one query document.
type QueryStep struct {
	Query string `yaml:"query"`

	// Dataset restricts the graphs the query sees. Nil means no
	// restriction.
	Dataset *DatasetClause `yaml:"dataset,omitempty"`

	// Expect validates the result. If nil, the query only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// DatasetClause lists default and named graph IRIs.
type DatasetClause struct {
	Default []string `yaml:"default,omitempty"`
	Named   []string `yaml:"named,omitempty"`
}

// ExpectClause specifies the expected query outcome.
type ExpectClause struct {
	// Count is the expected number of rows or statements.
	Count *int `yaml:"count,omitempty"`

	// Boolean is the expected ASK answer.
	Boolean *bool `yaml:"boolean,omitempty"`

	// Rows are the expected rows, compared in trace order.
	Rows []string `yaml:"rows,omitempty"`

	// Error is a substring the query error must contain. A step with
	// Error set fails if the query succeeds.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final store contents.
type Assertion struct {
	// Type is one of size, contains, absent, contexts or trace_count.
	Type string `yaml:"type"`

	// Count is used by size and trace_count.
	Count int `yaml:"count,omitempty"`

	// Statement is one N-Quads line (contains, absent).
	Statement string `yaml:"statement,omitempty"`

	// Graphs are named graph IRIs (contexts).
	Graphs []string `yaml:"graphs,omitempty"`

	// Event is the trace event type counted by trace_count.
	Event string `yaml:"event,omitempty"`
}

// Assertion type constants.
const (
	AssertSize       = "size"
	AssertContains   = "contains"
	AssertAbsent     = "absent"
	AssertContexts   = "contexts"
	AssertTraceCount = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file. Setup files are
// resolved relative to the scenario's directory. Returns an error if the
// file doesn't exist, is malformed, contains unknown fields or is missing
// required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is like LoadScenario but resolves setup files
// relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, step := range scenario.Setup {
		if step.File != "" && !filepath.IsAbs(step.File) && basePath != "" {
			scenario.Setup[i].File = filepath.Join(basePath, step.File)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		switch {
		case step.File == "" && step.Data == "":
			return fmt.Errorf("setup[%d]: one of file or data is required", i)
		case step.File != "" && step.Data != "":
			return fmt.Errorf("setup[%d]: file and data are mutually exclusive", i)
		case step.Data != "" && step.Format == "":
			return fmt.Errorf("setup[%d]: format is required for inline data", i)
		}
		if step.File != "" {
			if _, err := os.Stat(step.File); os.IsNotExist(err) {
				return fmt.Errorf("setup[%d]: file not found: %s", i, step.File)
			}
		}
	}

	for i, step := range s.Flow {
		if step.Query == "" {
			return fmt.Errorf("flow[%d]: query is required", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && (e.Count != nil || e.Boolean != nil || e.Rows != nil) {
			return fmt.Errorf("flow[%d].expect: error cannot be combined with result expectations", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSize:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for size", index)
		}
	case AssertContains, AssertAbsent:
		if a.Statement == "" {
			return fmt.Errorf("assertions[%d]: statement is required for %s", index, a.Type)
		}
	case AssertContexts:
	case AssertTraceCount:
		switch a.Event {
		case EventLoad, EventQuery, EventError:
		default:
			return fmt.Errorf("assertions[%d]: event must be load, query or error for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
