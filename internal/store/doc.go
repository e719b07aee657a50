// Package store provides the SQLite-backed merge journal.
//
// The journal is append-only and records successful merge runs:
//   - Runs: one row per run (run id, ordered source list, output format,
//     merge target)
//   - Changes: one row per merge decision of a run, keyed by (run_id, seq)
//
// A run and all of its changes are written in a single transaction after
// the merged document has been emitted, so a failed run leaves no trace.
//
// # Ordering
//
//   - Changes are ordered by seq, the logical clock of the run, never by
//     wall time
//   - Runs are ordered by id; run ids are UUIDv7 and sort by creation time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
