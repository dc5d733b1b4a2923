// Package repositories implements SQLite persistence for shuffle history.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// They support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [ShuffleRunRepository] : one row per shuffle attempt with status tracking
//   - [RunRecorder] : adapts the repository to the engine's pending → completed/failed transitions
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Access tokens and code verifiers are never written to the database.
package repositories
