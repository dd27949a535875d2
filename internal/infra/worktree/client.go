// Package worktree provides git worktree operations for session isolation.
package worktree

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"orchd/internal/domain"
)

// Client manages per-session git worktrees under the state root.
type Client struct {
	rootDir string
}

// NewClient creates a worktree client rooted at the state directory.
// Worktrees are created under <root>/worktrees.
func NewClient(rootDir string) *Client {
	return &Client{rootDir: rootDir}
}

// Ensure Client implements domain.WorktreeManager interface.
var _ domain.WorktreeManager = (*Client)(nil)

// Create adds a worktree on a fresh branch and returns its path.
// The branch is created from baseBranch; an orphaned registration from a
// crashed earlier run is pruned and the add retried once.
func (c *Client) Create(id, repoPath, baseBranch string) (string, error) {
	branch := domain.WorktreeBranch(id)
	path := domain.WorktreePath(c.rootDir, id)

	args := []string{"worktree", "add", "-b", branch, path, baseBranch}
	out, err := c.git(repoPath, args...)
	if err != nil {
		if !strings.Contains(out, "already registered") {
			return "", fmt.Errorf("create worktree: %w: %s", err, out)
		}
		if _, pruneErr := c.git(repoPath, "worktree", "prune"); pruneErr != nil {
			return "", fmt.Errorf("prune stale worktrees: %w", pruneErr)
		}
		if out, err = c.git(repoPath, args...); err != nil {
			return "", fmt.Errorf("create worktree after prune: %w: %s", err, out)
		}
	}

	return path, nil
}

// Remove deletes the worktree and its branch. Uncommitted
// changes in the worktree are discarded; callers decide when the
// work inside is no longer needed.
func (c *Client) Remove(id string) error {
	branch := domain.WorktreeBranch(id)
	path := domain.WorktreePath(c.rootDir, id)

	// The main repository is resolved from the worktree itself; worktree
	// commands must run against the repository that registered it.
	common, err := c.git(path, "rev-parse", "--git-common-dir")
	if err != nil {
		// Directory already gone; nothing left to unregister from here.
		return nil
	}
	repoDir := filepath.Dir(strings.TrimSpace(common))

	if out, err := c.git(repoDir, "worktree", "remove", "--force", path); err != nil {
		if !strings.Contains(out, "is not a working tree") {
			return fmt.Errorf("remove worktree: %w: %s", err, out)
		}
	}

	// Branch removal is best effort: the operator may have deleted it
	// already after merging.
	_, _ = c.git(repoDir, "branch", "-D", branch)
	return nil
}

func (c *Client) git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}
