package ops

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
)

// CommitRequest creates a new commit on the integration branch and
// places it onto Branch's section.
type CommitRequest struct {
	// Branch is the target branch the new commit should land on.
	Branch string

	// Message is the commit message.
	Message string

	// Files restricts staging to these paths. Empty stages every
	// pending change.
	Files []string
}

// CommitHandler implements the on-integration Commit operation.
type CommitHandler struct {
	*Session
}

// Commit runs the Commit operation per spec §4.5.
func (h *CommitHandler) Commit(ctx context.Context, req *CommitRequest) error {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	tip, known := info.BranchTips[req.Branch]
	if !known {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("commit: unknown branch %q", req.Branch)}
	}

	if len(req.Files) > 0 {
		if err := h.Worktree.Stage(ctx, req.Files...); err != nil {
			return fmt.Errorf("stage: %w", err)
		}
	} else if err := h.Worktree.StageAll(ctx); err != nil {
		return fmt.Errorf("stage: %w", err)
	}

	snap := snapshotOf(info)
	preCommitHead := info.HeadOid

	if err := h.Worktree.Commit(ctx, git.CommitRequest{Message: req.Message}); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	newHead, err := h.Worktree.Head(ctx)
	if err != nil {
		h.rollback(ctx, snap)
		return fmt.Errorf("resolve new commit: %w", err)
	}

	if tip == info.MergeBaseOid {
		// Empty section: the target branch has no history of its own
		// yet, so there's nothing to replay. Point its ref directly
		// at the new commit, restore the integration branch to its
		// pre-commit state, then weave the two together with an
		// explicit merge -- the only way to produce the merge
		// topology an initially-empty section needs.
		if err := h.Repository.ForceUpdateBranch(ctx, req.Branch, newHead.String()); err != nil {
			h.rollback(ctx, snap)
			return fmt.Errorf("update branch %s: %w", req.Branch, err)
		}
		if err := h.Worktree.Reset(ctx, preCommitHead.String(), git.ResetOptions{Mode: git.ResetHard}); err != nil {
			h.rollback(ctx, snap)
			return fmt.Errorf("reset integration: %w", err)
		}
		if err := h.Worktree.Merge(ctx, req.Branch, git.MergeOptions{NoFF: true}); err != nil {
			h.Worktree.MergeAbort(ctx)
			h.rollback(ctx, snap)
			return &loomerr.ConflictError{Op: "commit", Err: err}
		}
		return nil
	}

	// Non-empty section: re-scan to pick up the new commit, then fold
	// it into the target branch's section via move_commit.
	freshInfo, err := h.Scanner.Scan(ctx)
	if err != nil {
		h.rollback(ctx, snap)
		return fmt.Errorf("rescan: %w", err)
	}

	w, err := h.Scanner.BuildWeave(ctx, freshInfo)
	if err != nil {
		h.rollback(ctx, snap)
		return fmt.Errorf("build weave: %w", err)
	}

	w = w.MoveCommit(newHead.String(), req.Branch)
	return h.drive(ctx, "commit", freshInfo, w, snap)
}
