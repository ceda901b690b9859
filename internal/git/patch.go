package git

import (
	"context"
	"fmt"
)

// DiffPatch returns a patch of the working tree's current changes
// (staged and unstaged) to the given pathspecs, relative to HEAD, in a
// form suitable for a later ApplyPatch. An empty pathspecs list diffs
// the whole tree.
func (w *Worktree) DiffPatch(ctx context.Context, pathspecs ...string) (string, error) {
	args := append([]string{"diff", "--no-color", "HEAD", "--"}, pathspecs...)
	out, err := w.gitCmd(ctx, args...).OutputString(w.exec)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return out, nil
}

// ApplyPatch applies a patch produced by DiffPatch to the working tree
// and index. A blank patch is a no-op.
func (w *Worktree) ApplyPatch(ctx context.Context, patch string) error {
	if patch == "" {
		return nil
	}

	cmd := w.gitCmd(ctx, "apply", "--index", "-").StdinString(patch)
	if err := cmd.Run(w.exec); err != nil {
		return fmt.Errorf("git apply: %w", err)
	}
	return nil
}
