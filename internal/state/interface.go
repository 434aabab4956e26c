// Package state provides SQLite-based run history for weft.
package state

import "io"

// RunStore handles run-history persistence operations.
type RunStore interface {
	SaveRun(r *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
	SaveRunTasks(tasks []RunTask) error
	ListRunTasks(runID string) ([]RunTask, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for run-history persistence.
// This interface allows the CLI to work with any backend without
// depending on the concrete SQLite implementation.
type Store interface {
	io.Closer
	Migrator
	RunStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store    = (*DB)(nil)
	_ Migrator = (*DB)(nil)
	_ RunStore = (*DB)(nil)
)
