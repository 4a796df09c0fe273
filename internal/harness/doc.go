// Package harness runs conformance scenarios against a store.
//
// A scenario loads statements through the parse bridge and the batched
// write path, evaluates query documents, and checks the resulting trace
// and final store contents.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	setup:
//	  - file: data.trig            # relative to the scenario file
//	  - data: |
//	      <http://ex.org/a> <http://ex.org/p> "x" .
//	    format: nquads
//	    graph: http://ex.org/g     # optional context override
//	flow:
//	  - query: |
//	      select: ["o"]
//	      where: [{s: "?s", p: "<http://ex.org/p>", o: "?o"}]
//	    dataset:
//	      default: ["http://ex.org/g"]
//	    expect:
//	      count: 1
//	      rows: ['o="x"']
//	assertions:
//	  - type: size
//	    count: 1
//	  - type: contains
//	    statement: '<http://ex.org/a> <http://ex.org/p> "x" <http://ex.org/g> .'
//
// # Assertion Types
//
//   - size: the store holds exactly count statements
//   - contains: the statement is in the store, in its graph
//   - absent: the statement is not in the store
//   - contexts: the named graphs are exactly graphs
//   - trace_count: the trace has count events of the given event type
//
// # Deterministic Testing
//
// Blank node labels are preserved, result rows are sorted unless the query
// orders them, and trace events are numbered by a testutil.Sequence. The
// same scenario always produces the same trace, so traces can be compared
// against golden files with RunWithGolden.
package harness
