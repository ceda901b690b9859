package ops

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/sliceutil"
)

// SplitRequest requests that Target be partitioned into two commits.
// FilesA is the first subset's paths (the CLI presents the full list
// via a picker before building this request); every other changed
// path in the commit goes into the second commit.
type SplitRequest struct {
	Target   string
	FilesA   []string
	MessageA string
	MessageB string
}

// SplitHandler implements the Split operation.
type SplitHandler struct {
	*Session
}

// Split runs the Split operation per spec §4.5.
func (h *SplitHandler) Split(ctx context.Context, req *SplitRequest) error {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	target, err := ResolveTarget(ctx, h.Repository, info, req.Target)
	if err != nil {
		return err
	}
	if target.Kind != TargetCommit {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("split: %s is not a commit", target)}
	}

	files, err := sliceutil.CollectErr(h.Repository.DiffTree(ctx, target.Commit.String()+"^", target.Commit.String()))
	if err != nil {
		return fmt.Errorf("diff-tree %s: %w", target.Commit.Short(), err)
	}
	if len(files) < 2 {
		return &loomerr.DomainRuleError{Msg: "split: cannot split a single-file commit"}
	}

	all := make(map[string]bool, len(files))
	for _, f := range files {
		all[f.Path] = true
	}
	setA := make(map[string]bool, len(req.FilesA))
	for _, p := range req.FilesA {
		if !all[p] {
			return &loomerr.DomainRuleError{Msg: fmt.Sprintf("split: %q is not in %s", p, target.Commit.Short())}
		}
		setA[p] = true
	}
	if len(setA) == 0 || len(setA) >= len(files) {
		return &loomerr.DomainRuleError{Msg: "split: both subsets must be non-empty"}
	}

	var filesB []string
	for _, f := range files {
		if !setA[f.Path] {
			filesB = append(filesB, f.Path)
		}
	}

	snap := snapshotOf(info)

	if target.Commit == info.HeadOid {
		if err := h.Worktree.Reset(ctx, "HEAD^1", git.ResetOptions{Mode: git.ResetMixed}); err != nil {
			h.rollback(ctx, snap)
			return fmt.Errorf("reset: %w", err)
		}
		if err := h.splitCommits(ctx, req.FilesA, req.MessageA, filesB, req.MessageB); err != nil {
			h.rollback(ctx, snap)
			return err
		}
		return nil
	}

	if err := beginEdit(ctx, h.Worktree, "split", target.Commit); err != nil {
		h.rollback(ctx, snap)
		return err
	}

	if err := h.Worktree.Reset(ctx, "HEAD^1", git.ResetOptions{Mode: git.ResetMixed}); err != nil {
		h.Worktree.RebaseAbort(ctx)
		h.rollback(ctx, snap)
		return fmt.Errorf("reset: %w", err)
	}
	if err := h.splitCommits(ctx, req.FilesA, req.MessageA, filesB, req.MessageB); err != nil {
		h.Worktree.RebaseAbort(ctx)
		h.rollback(ctx, snap)
		return err
	}

	if err := finishEdit(ctx, h.Worktree, "split"); err != nil {
		h.rollback(ctx, snap)
		return err
	}
	return nil
}

func (h *SplitHandler) splitCommits(ctx context.Context, filesA []string, msgA string, filesB []string, msgB string) error {
	if err := h.Worktree.Stage(ctx, filesA...); err != nil {
		return fmt.Errorf("stage %v: %w", filesA, err)
	}
	if err := h.Worktree.Commit(ctx, git.CommitRequest{Message: msgA}); err != nil {
		return fmt.Errorf("commit %q: %w", msgA, err)
	}
	if err := h.Worktree.Stage(ctx, filesB...); err != nil {
		return fmt.Errorf("stage %v: %w", filesB, err)
	}
	if err := h.Worktree.Commit(ctx, git.CommitRequest{Message: msgB}); err != nil {
		return fmt.Errorf("commit %q: %w", msgB, err)
	}
	return nil
}
