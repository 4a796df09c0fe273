package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdfio/internal/rdf"
)

func TestSequence_StartsAtZero(t *testing.T) {
	seq := NewSequence()
	assert.Equal(t, int64(0), seq.Current())
}

func TestSequence_NextIncrementsMonotonically(t *testing.T) {
	seq := NewSequence()

	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(3), seq.Next())
	assert.Equal(t, int64(3), seq.Current())
}

func TestSequence_Reset(t *testing.T) {
	seq := NewSequence()
	seq.Next()
	seq.Next()

	seq.Reset()
	assert.Equal(t, int64(0), seq.Current())
	assert.Equal(t, int64(1), seq.Next())
}

func TestSequence_Concurrent(t *testing.T) {
	seq := NewSequence()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), seq.Current())
}

func TestStatements(t *testing.T) {
	stmts := Statements(t, `<http://ex.org/a> <http://ex.org/p> "x" .
_:b1 <http://ex.org/p> <http://ex.org/a> <http://ex.org/g> .
`)
	require.Len(t, stmts, 2)
	assert.Nil(t, stmts[0].Context)
	assert.Equal(t, rdf.NewBlankNode("b1"), stmts[1].Subject)
	assert.Equal(t, rdf.NewIRI("http://ex.org/g"), stmts[1].Context)
}

func TestSortedLines(t *testing.T) {
	stmts := Statements(t, `<http://ex.org/b> <http://ex.org/p> "y" <http://ex.org/g> .
<http://ex.org/a> <http://ex.org/p> "x" .
`)
	assert.Equal(t, []string{
		`<http://ex.org/a> <http://ex.org/p> "x"`,
		`<http://ex.org/b> <http://ex.org/p> "y" <http://ex.org/g>`,
	}, SortedLines(stmts))
}
