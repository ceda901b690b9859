package ops

import (
	"context"
	"errors"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
)

// beginEdit starts an edit-and-continue rebase paused at commit,
// confirming the pause was deliberate rather than a conflict. Any
// other outcome aborts the rebase in progress.
func beginEdit(ctx context.Context, wt GitWorktree, op string, commit git.Hash) error {
	err := wt.RebaseEdit(ctx, commit)

	var interrupt *git.RebaseInterruptError
	if errors.As(err, &interrupt) && interrupt.Kind == git.RebaseInterruptDeliberate {
		return nil
	}

	wt.RebaseAbort(ctx)
	if err == nil {
		return fmt.Errorf("%s: rebase edit did not pause as expected", op)
	}
	return &loomerr.ConflictError{Op: op, Err: err}
}

// finishEdit continues a rebase paused by beginEdit, confirming it
// runs to completion. A conflict on continue is reported as-is (the
// autostash discipline means the caller must not pop a stash in this
// path); an unexpected second pause is treated as a failure and
// aborted.
func finishEdit(ctx context.Context, wt GitWorktree, op string) error {
	err := wt.RebaseContinue(ctx, nil)
	if err == nil {
		return nil
	}

	var interrupt *git.RebaseInterruptError
	if !errors.As(err, &interrupt) {
		return fmt.Errorf("%s: rebase continue: %w", op, err)
	}
	if interrupt.Kind == git.RebaseInterruptConflict {
		return &loomerr.ConflictError{Op: op, Err: err}
	}

	wt.RebaseAbort(ctx)
	return fmt.Errorf("%s: unexpected rebase pause: %w", op, err)
}
