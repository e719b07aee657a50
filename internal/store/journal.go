package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Run is one successful merge run.
type Run struct {
	ID        string
	Sources   []string
	Format    string
	MergeAt   string
	Documents int
}

// Change is one merge decision recorded during a run.
type Change struct {
	RunID    string
	Seq      int64
	Source   string
	Document int
	Location string
	Action   string
	Policy   string
	Detail   string
}

// WriteRun records run and its changes in one transaction. Each change is
// stored under run.ID whatever its RunID field says.
func (s *Store) WriteRun(ctx context.Context, run Run, changes []Change) error {
	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return fmt.Errorf("write run: marshal sources: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, sources, format, merge_at, documents)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, string(sources), run.Format, run.MergeAt, run.Documents)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (run_id, seq, source, document, location, action, policy, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare changes: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, run.ID, c.Seq, c.Source, c.Document, c.Location, c.Action, c.Policy, c.Detail); err != nil {
			return fmt.Errorf("write run: change %d: %w", c.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// Runs returns every recorded run ordered by id.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sources, format, merge_at, documents
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var sources string
		if err := rows.Scan(&r.ID, &sources, &r.Format, &r.MergeAt, &r.Documents); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &r.Sources); err != nil {
			return nil, fmt.Errorf("run %s: decode sources: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Changes returns the changes of run runID ordered by seq.
//
// Returns an empty slice (not nil) if the run has no changes.
func (s *Store) Changes(ctx context.Context, runID string) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, source, document, location, action, policy, detail
		FROM changes
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.RunID, &c.Seq, &c.Source, &c.Document, &c.Location, &c.Action, &c.Policy, &c.Detail); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return changes, nil
}

// History returns every change recorded at location across runs, oldest
// run first.
func (s *Store) History(ctx context.Context, location string) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, source, document, location, action, policy, detail
		FROM changes
		WHERE location = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC
	`, location)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.RunID, &c.Seq, &c.Source, &c.Document, &c.Location, &c.Action, &c.Policy, &c.Detail); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return changes, nil
}
