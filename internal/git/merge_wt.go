package git

import (
	"context"
	"fmt"
)

// MergeOptions configures the behavior of Merge.
type MergeOptions struct {
	// NoFF forces a merge commit even when a fast-forward is possible.
	// Absorb and the branch-creation weave rely on this to guarantee
	// the resulting history always has a merge commit to serialize
	// into a BranchSection.
	NoFF bool

	// Message overrides the default merge commit message.
	// When empty, git's default "Merge branch '<name>'" message is
	// used, matching what the Rebase Driver's todo-script merge
	// entries expect.
	Message string
}

// Merge merges the given commitish into the current branch.
// This wraps 'git merge [--no-ff] <commitish> --no-edit'.
func (w *Worktree) Merge(ctx context.Context, commitish string, opts MergeOptions) error {
	args := []string{"merge"}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, commitish, "--no-edit")

	if err := w.gitCmd(ctx, args...).Run(w.exec); err != nil {
		return fmt.Errorf("git merge: %w", err)
	}
	return nil
}

// MergeAbort aborts an in-progress merge, restoring the pre-merge
// state of the working tree and index.
func (w *Worktree) MergeAbort(ctx context.Context) error {
	if err := w.gitCmd(ctx, "merge", "--abort").Run(w.exec); err != nil {
		return fmt.Errorf("git merge --abort: %w", err)
	}
	return nil
}
