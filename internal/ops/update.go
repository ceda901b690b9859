package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.abhg.dev/loom/internal/git"
)

// UpdateHandler implements the Update operation: syncing the
// integration branch with its upstream.
type UpdateHandler struct {
	*Session
}

// Update runs 'git pull --rebase --autostash' on the integration
// branch, then updates submodules if the worktree has a .gitmodules
// file, per SPEC_FULL.md's supplemented `update` feature
// (original_source/src/update.rs's run).
func (h *UpdateHandler) Update(ctx context.Context) error {
	// Scan first purely for its precondition checks: a detached HEAD
	// or a branch with no upstream must fail before anything runs.
	if _, err := h.Scanner.Scan(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	h.Log.Info("Pulling latest changes")
	if err := h.Worktree.Pull(ctx, git.PullOptions{Rebase: true, Autostash: true}); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	h.Log.Info("Pulled latest changes")

	if _, err := os.Stat(filepath.Join(h.Worktree.RootDir(), ".gitmodules")); err == nil {
		h.Log.Info("Updating submodules")
		if err := h.Worktree.UpdateSubmodules(ctx); err != nil {
			return fmt.Errorf("update submodules: %w", err)
		}
		h.Log.Info("Updated submodules")
	}

	return nil
}
