package git

import (
	"context"
	"fmt"
)

// Stage adds the given pathspecs to the index.
// This wraps 'git add -- <pathspecs>'.
func (w *Worktree) Stage(ctx context.Context, pathspecs ...string) error {
	args := append([]string{"add", "--"}, pathspecs...)
	if err := w.gitCmd(ctx, args...).Run(w.exec); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

// StageAll stages every staged, unstaged, and untracked change in the
// worktree. This wraps 'git add -A'.
func (w *Worktree) StageAll(ctx context.Context) error {
	if err := w.gitCmd(ctx, "add", "-A").Run(w.exec); err != nil {
		return fmt.Errorf("git add -A: %w", err)
	}
	return nil
}
