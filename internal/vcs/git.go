package vcs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git is the go-git backed Port over a workspace repository.
type Git struct {
	root string
	repo *git.Repository
}

// OpenGit opens the repository containing root. Returns ErrNoRepository
// when the workspace is not under version control, so callers can fall
// back to file snapshots alone.
func OpenGit(root string) (*Git, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Git{root: root, repo: repo}, nil
}

// InitGit creates a repository at root if none exists and returns it.
// An already-initialized root is opened, not an error.
func InitGit(root string) (*Git, error) {
	repo, err := git.PlainInit(root, false)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return OpenGit(root)
		}
		return nil, fmt.Errorf("init repository: %w", err)
	}
	return &Git{root: root, repo: repo}, nil
}

// Revision returns the hash of the current HEAD commit.
func (g *Git) Revision() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// RestorePaths restores the given workspace-relative paths to their
// content at revision. A path with no entry in the revision's tree is
// removed from the workspace.
func (g *Git) RestorePaths(revision string, paths []string) error {
	commit, err := g.repo.CommitObject(plumbing.NewHash(revision))
	if err != nil {
		return fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("read tree for %s: %w", revision, err)
	}

	for _, rel := range paths {
		abs := filepath.Join(g.root, filepath.FromSlash(rel))

		file, err := tree.File(rel)
		if err != nil {
			if errors.Is(err, object.ErrFileNotFound) {
				if rmErr := os.Remove(abs); rmErr != nil && !os.IsNotExist(rmErr) {
					return fmt.Errorf("remove %s: %w", rel, rmErr)
				}
				continue
			}
			return fmt.Errorf("look up %s at %s: %w", rel, revision, err)
		}

		reader, err := file.Reader()
		if err != nil {
			return fmt.Errorf("read %s at %s: %w", rel, revision, err)
		}
		content, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return fmt.Errorf("read %s at %s: %w", rel, revision, err)
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
