package ops

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
)

// RewordRequest requests a new message for Target.
type RewordRequest struct {
	Target  string
	Message string
}

// RewordHandler implements the Reword operation.
type RewordHandler struct {
	*Session
}

// Reword runs the Reword operation: HEAD is amended directly, any
// other commit goes through an edit-and-continue rebase.
func (h *RewordHandler) Reword(ctx context.Context, req *RewordRequest) error {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	target, err := ResolveTarget(ctx, h.Repository, info, req.Target)
	if err != nil {
		return err
	}
	if target.Kind != TargetCommit {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("reword: %s is not a commit", target)}
	}

	snap := snapshotOf(info)

	if target.Commit == info.HeadOid {
		if err := h.Worktree.Commit(ctx, git.CommitRequest{Amend: true, Message: req.Message}); err != nil {
			h.rollback(ctx, snap)
			return fmt.Errorf("amend: %w", err)
		}
		return nil
	}

	if err := beginEdit(ctx, h.Worktree, "reword", target.Commit); err != nil {
		h.rollback(ctx, snap)
		return err
	}

	if err := h.Worktree.Commit(ctx, git.CommitRequest{Amend: true, Message: req.Message}); err != nil {
		h.Worktree.RebaseAbort(ctx)
		h.rollback(ctx, snap)
		return fmt.Errorf("amend: %w", err)
	}

	if err := finishEdit(ctx, h.Worktree, "reword"); err != nil {
		h.rollback(ctx, snap)
		return err
	}
	return nil
}
