// Package checkpoint snapshots workspace state before a task runs and
// restores it byte-for-byte when the task fails or is rejected.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/internal/vcs"
	"github.com/weftworks/weft/pkg/models"
)

// FileState is the pre-task state of a single path.
type FileState struct {
	// Existed is false when the path was absent before the task ran;
	// restore removes it.
	Existed bool
	// Content is the pre-task file content when Existed.
	Content []byte
}

// Checkpoint is a restorable snapshot of everything one task is permitted
// to touch. One checkpoint exists per task attempt: it is consumed on
// failure and discarded on success.
type Checkpoint struct {
	// ID is the unique identifier for this checkpoint.
	ID string
	// TaskID is the task this checkpoint was created for.
	TaskID string
	// Files maps workspace-relative paths to their pre-task state.
	Files map[string]FileState
	// VCSRevision is the repository revision at capture time, when the
	// workspace is under version control. It is the secondary restore path.
	VCSRevision string
	// Metrics is the run counter snapshot at capture time.
	Metrics models.RunMetrics
	// CreatedAt is when the checkpoint was captured.
	CreatedAt time.Time
}

// Manager captures and restores checkpoints over one workspace root.
type Manager struct {
	root string
	vcs  vcs.Port
}

// NewManager creates a checkpoint manager for the workspace root. The
// VCS port is optional; pass nil when the workspace is not under version
// control.
func NewManager(root string, port vcs.Port) *Manager {
	return &Manager{root: root, vcs: port}
}

// Capture snapshots the given paths and the current metrics before a task
// is dispatched. Capture must complete before the agent runs; a capture
// failure aborts the task with an IOError before any agent code executes.
func (m *Manager) Capture(taskID string, paths []string, metrics models.RunMetrics) (*Checkpoint, error) {
	cp := &Checkpoint{
		ID:        uuid.New().String()[:8],
		TaskID:    taskID,
		Files:     make(map[string]FileState, len(paths)),
		Metrics:   metrics,
		CreatedAt: time.Now(),
	}

	for _, rel := range paths {
		abs := filepath.Join(m.root, filepath.FromSlash(rel))
		content, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				cp.Files[rel] = FileState{Existed: false}
				continue
			}
			return nil, &errs.IOError{Op: "snapshot", Path: rel, Cause: err}
		}
		cp.Files[rel] = FileState{Existed: true, Content: content}
	}

	if m.vcs != nil {
		rev, err := m.vcs.Revision()
		if err != nil {
			// Revision capture is best effort; file snapshots alone are a
			// complete restore path.
			cp.VCSRevision = ""
		} else {
			cp.VCSRevision = rev
		}
	}

	return cp, nil
}

// Restore reverts every checkpointed path to its pre-task state,
// byte-for-byte. When the file-by-file revert fails and a VCS revision
// was captured, the VCS reset is attempted as the secondary restore path.
// An error from Restore means workspace state can no longer be trusted.
func (m *Manager) Restore(cp *Checkpoint) error {
	fileErr := m.restoreFiles(cp)
	if fileErr == nil {
		return nil
	}

	if m.vcs != nil && cp.VCSRevision != "" {
		paths := make([]string, 0, len(cp.Files))
		for rel := range cp.Files {
			paths = append(paths, rel)
		}
		if vcsErr := m.vcs.RestorePaths(cp.VCSRevision, paths); vcsErr == nil {
			return nil
		}
	}

	return fileErr
}

func (m *Manager) restoreFiles(cp *Checkpoint) error {
	for rel, state := range cp.Files {
		abs := filepath.Join(m.root, filepath.FromSlash(rel))

		if !state.Existed {
			if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", rel, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
		if err := os.WriteFile(abs, state.Content, 0644); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
	}
	return nil
}
