package vcs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Port used in tests and in workspaces without
// version control. Revisions are explicit snapshots of tracked paths.
type Memory struct {
	root string

	mu        sync.Mutex
	revisions map[string]map[string][]byte
	head      string
}

// NewMemory creates a Memory port over the given workspace root, with an
// initial empty revision as HEAD.
func NewMemory(root string) *Memory {
	m := &Memory{
		root:      root,
		revisions: make(map[string]map[string][]byte),
	}
	m.head = m.record(map[string][]byte{})
	return m
}

// Commit snapshots the current content of the given workspace-relative
// paths as a new revision and advances HEAD to it. Missing files are
// recorded as absent.
func (m *Memory) Commit(paths []string) (string, error) {
	snapshot := make(map[string][]byte, len(paths))
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(m.root, filepath.FromSlash(rel)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("snapshot %s: %w", rel, err)
		}
		snapshot[rel] = content
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = m.record(snapshot)
	return m.head, nil
}

// record stores a snapshot under a fresh revision id. Caller must hold
// the lock except during construction.
func (m *Memory) record(snapshot map[string][]byte) string {
	rev := uuid.New().String()[:8]
	m.revisions[rev] = snapshot
	return rev
}

// Revision returns the current HEAD revision id.
func (m *Memory) Revision() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.head, nil
}

// RestorePaths restores the given paths to their content at revision.
// Paths absent from the revision are removed from the workspace.
func (m *Memory) RestorePaths(revision string, paths []string) error {
	m.mu.Lock()
	snapshot, ok := m.revisions[revision]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown revision %s", revision)
	}

	for _, rel := range paths {
		abs := filepath.Join(m.root, filepath.FromSlash(rel))
		content, exists := snapshot[rel]
		if !exists {
			if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
		if err := os.WriteFile(abs, content, 0644); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
	}
	return nil
}
