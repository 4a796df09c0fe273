package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/store"
	_ "github.com/roach88/rdfio/internal/store/native"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

const people = `<http://ex.org/a> <http://ex.org/p> "x" .
<http://ex.org/b> <http://ex.org/p> "y" <http://ex.org/g> .
`

func TestRunWithGolden_NamedGraphs(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/named_graphs.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SameTraceTwice(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/named_graphs.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRunWith_NativeStore(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/named_graphs.yaml")
	require.NoError(t, err)

	ctx := context.Background()
	repo, err := store.Open(ctx, config.Store{Kind: config.KindNative, Path: t.TempDir()})
	require.NoError(t, err)
	defer repo.Close()

	result, err := RunWith(ctx, repo, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NoError(t, AssertGolden(t, "named_graphs", result))
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong count",
		Setup:       []LoadStep{{Data: people, Format: "nquads"}},
		Flow: []QueryStep{{
			Query:  `select: ["o"], where: [{s: "?s", p: "<http://ex.org/p>", o: "?o"}]`,
			Expect: &ExpectClause{Count: intPtr(5), Rows: []string{`o="x"`}},
		}},
		Assertions: []Assertion{{Type: AssertSize, Count: 2}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected 5 results, got 2")
	assert.Contains(t, result.Errors[1], "expected rows")
}

func TestRun_ExpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_limit",
		Description: "negative limits are rejected",
		Flow: []QueryStep{
			{
				Query:  `select: "*", where: [{s: "?s", p: "?p", o: "?o"}], limit: -1`,
				Expect: &ExpectClause{Error: "must not be negative"},
			},
			{
				Query:  `ask: true, where: [{s: "?s", p: "?p", o: "?o"}]`,
				Expect: &ExpectClause{Boolean: boolPtr(false)},
			},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Event: EventError, Count: 1},
			{Type: AssertTraceCount, Event: EventQuery, Count: 1},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, EventError, result.Trace[0].Type)
	assert.Contains(t, result.Trace[0].Error, "must not be negative")
	assert.Equal(t, int64(2), result.Trace[1].Seq)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "query does not compile",
		Flow:        []QueryStep{{Query: `select: [`}},
		Assertions:  []Assertion{{Type: AssertSize, Count: 0}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "flow[0]")
}

func TestRun_SetupParseErrorAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_data",
		Description: "setup data is not N-Quads",
		Setup:       []LoadStep{{Data: "<http://ex.org/a> oops\n", Format: "nquads"}},
		Assertions:  []Assertion{{Type: AssertSize, Count: 0}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0]")
}

func TestAssertions_Failures(t *testing.T) {
	scenario := &Scenario{
		Name:        "assertions",
		Description: "every assertion type fails",
		Setup:       []LoadStep{{Data: people, Format: "nquads"}},
		Assertions: []Assertion{
			{Type: AssertSize, Count: 3},
			{Type: AssertContains, Statement: `<http://ex.org/b> <http://ex.org/p> "y" .`},
			{Type: AssertAbsent, Statement: `<http://ex.org/a> <http://ex.org/p> "x" .`},
			{Type: AssertContexts, Graphs: []string{"http://ex.org/other"}},
			{Type: AssertTraceCount, Event: EventLoad, Count: 2},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Expected: 3 statements")
	assert.Contains(t, result.Errors[1], "statement present")
	assert.Contains(t, result.Errors[2], "statement absent")
	assert.Contains(t, result.Errors[3], "http://ex.org/other")
	assert.Contains(t, result.Errors[4], "1 load events")
	assert.Contains(t, result.Errors[4], "Full trace:")
}

func TestAssertContains_GraphSensitive(t *testing.T) {
	scenario := &Scenario{
		Name:        "graphs",
		Description: "contains matches the statement's own graph",
		Setup:       []LoadStep{{Data: people, Format: "nquads"}},
		Assertions: []Assertion{
			{Type: AssertContains, Statement: `<http://ex.org/a> <http://ex.org/p> "x" .`},
			{Type: AssertContains, Statement: `<http://ex.org/b> <http://ex.org/p> "y" <http://ex.org/g> .`},
			{Type: AssertAbsent, Statement: `<http://ex.org/a> <http://ex.org/p> "x" <http://ex.org/g> .`},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestLoadScenario_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown_field", "name: x\ndescription: y\nassertion: []\n", "failed to parse YAML"},
		{"no_name", "description: y\nassertions: [{type: size}]\n", "name is required"},
		{"no_description", "name: x\nassertions: [{type: size}]\n", "description is required"},
		{"no_assertions", "name: x\ndescription: y\n", "assertions list is required"},
		{"empty_setup", "name: x\ndescription: y\nsetup: [{format: nquads}]\nassertions: [{type: size}]\n", "one of file or data"},
		{"both_sources", "name: x\ndescription: y\nsetup: [{file: a.nt, data: z}]\nassertions: [{type: size}]\n", "mutually exclusive"},
		{"inline_no_format", "name: x\ndescription: y\nsetup: [{data: z}]\nassertions: [{type: size}]\n", "format is required"},
		{"missing_file", "name: x\ndescription: y\nsetup: [{file: missing.nt}]\nassertions: [{type: size}]\n", "file not found"},
		{"empty_query", "name: x\ndescription: y\nflow: [{query: ''}]\nassertions: [{type: size}]\n", "query is required"},
		{"error_and_count", "name: x\ndescription: y\nflow: [{query: q, expect: {error: e, count: 1}}]\nassertions: [{type: size}]\n", "cannot be combined"},
		{"unknown_assertion", "name: x\ndescription: y\nassertions: [{type: final_state}]\n", "unknown assertion type"},
		{"contains_no_statement", "name: x\ndescription: y\nassertions: [{type: contains}]\n", "statement is required"},
		{"trace_count_event", "name: x\ndescription: y\nassertions: [{type: trace_count, event: invoke}]\n", "event must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(write(tt.name+".yaml", tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadScenario(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ResolvesRelativeFiles(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/named_graphs.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "ages.ttl"), scenario.Setup[1].File)

	scenario, err = LoadScenarioWithBasePath("testdata/scenarios/named_graphs.yaml", "testdata/scenarios")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(scenario.Setup[1].File, "ages.ttl"))
}
