// Package vcs defines the version-control boundary used by checkpointing.
// Rollback correctness is testable without a real repository through the
// in-memory implementation.
package vcs

import "errors"

// ErrNoRepository indicates the workspace is not under version control.
var ErrNoRepository = errors.New("no repository found")

// Port is the narrow version-control surface the checkpoint manager
// depends on. A checkpoint records the current revision as a secondary
// restore path; rollback may restore declared paths from that revision.
type Port interface {
	// Revision returns the identifier of the current revision.
	Revision() (string, error)
	// RestorePaths restores the given workspace-relative paths to their
	// content at revision. Paths absent from the revision are removed
	// from the workspace.
	RestorePaths(revision string, paths []string) error
}
