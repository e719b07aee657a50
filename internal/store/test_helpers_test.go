package store

import (
	"fmt"
	"path/filepath"
	"testing"
)

// createTestStore creates a new journal in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run over two sources.
func createTestRun(id string) Run {
	return Run{
		ID:        id,
		Sources:   []string{"base.yaml", "override.yaml"},
		Format:    "yaml",
		MergeAt:   "/",
		Documents: 1,
	}
}

// createTestChange creates a change with minimal required fields.
func createTestChange(seq int64, location, action string) Change {
	return Change{
		Seq:      seq,
		Source:   "override.yaml",
		Location: location,
		Action:   action,
	}
}

// verifyPragma checks that a pragma is set to the expected value on the
// store's connection.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
