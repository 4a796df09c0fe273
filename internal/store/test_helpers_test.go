package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rdfio/internal/rdf"
)

// createTestStore opens a file-backed repository in a temp dir.
func createTestStore(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// connectTestStore returns a connection closed at the end of the test.
func connectTestStore(t *testing.T, s *SQLiteRepository) Connection {
	t.Helper()
	conn, err := s.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testStatement(s, o string) rdf.Statement {
	return rdf.NewTriple(rdf.NewIRI("http://ex.org/"+s), rdf.NewIRI("http://ex.org/p"), rdf.NewLiteral(o))
}
