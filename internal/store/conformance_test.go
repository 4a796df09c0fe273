package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rdfio/internal/store"
	"github.com/roach88/rdfio/internal/store/storetest"
)

func TestMemoryConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Connection {
		repo, err := store.OpenMemory()
		if err != nil {
			t.Fatalf("OpenMemory() failed: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		conn, err := repo.Connect(context.Background())
		if err != nil {
			t.Fatalf("Connect() failed: %v", err)
		}
		return conn
	})
}

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Connection {
		repo, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("OpenSQLite() failed: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		conn, err := repo.Connect(context.Background())
		if err != nil {
			t.Fatalf("Connect() failed: %v", err)
		}
		return conn
	})
}
