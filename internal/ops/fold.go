package ops

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/scan"
)

// FoldRequest requests that Sources be folded into Target. Sources is
// either a set of pending working-tree files or a single commit
// reference; Target is always a commit or branch reference.
type FoldRequest struct {
	Sources []string
	Target  string
}

// FoldHandler implements the Fold operation.
type FoldHandler struct {
	*Session
}

// Fold runs the Fold operation per spec §4.5, classifying the request
// into one of its three arms by the types of Sources and Target.
func (h *FoldHandler) Fold(ctx context.Context, req *FoldRequest) error {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	target, err := ResolveTarget(ctx, h.Repository, info, req.Target)
	if err != nil {
		return err
	}

	if h.sourcesAreFiles(req.Sources, info) {
		if target.Kind != TargetCommit {
			return &loomerr.DomainRuleError{Msg: "fold: target must be a commit when folding files"}
		}
		return h.foldFiles(ctx, info, req.Sources, target.Commit)
	}

	if len(req.Sources) != 1 {
		return &loomerr.DomainRuleError{Msg: "fold: exactly one commit source is supported"}
	}

	source, err := ResolveTarget(ctx, h.Repository, info, req.Sources[0])
	if err != nil {
		return err
	}
	if source.Kind != TargetCommit {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("fold: %s is not a commit", source)}
	}

	switch target.Kind {
	case TargetCommit:
		return h.foldCommitIntoCommit(ctx, info, source.Commit, target.Commit)
	case TargetBranch:
		return h.foldCommitIntoBranch(ctx, info, source.Commit, target.Branch)
	default:
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("fold: %s is not a valid fold target", target)}
	}
}

func (h *FoldHandler) sourcesAreFiles(sources []string, info *scan.RepoInfo) bool {
	if len(sources) == 0 {
		return false
	}
	pending := make(map[string]bool, len(info.WorkingChanges))
	for _, c := range info.WorkingChanges {
		pending[c.Path] = true
	}
	for _, s := range sources {
		if !pending[s] {
			return false
		}
	}
	return true
}

func (h *FoldHandler) foldFiles(ctx context.Context, info *scan.RepoInfo, files []string, target git.Hash) error {
	if err := h.Worktree.Stage(ctx, files...); err != nil {
		return fmt.Errorf("stage %v: %w", files, err)
	}

	snap := snapshotOf(info)

	if target == info.HeadOid {
		if err := h.Worktree.Commit(ctx, git.CommitRequest{Amend: true, NoEdit: true}); err != nil {
			h.rollback(ctx, snap)
			return fmt.Errorf("amend: %w", err)
		}
		return nil
	}

	msg := fmt.Sprintf("fixup! %s", target.Short())
	if err := h.Worktree.Commit(ctx, git.CommitRequest{Message: msg}); err != nil {
		h.rollback(ctx, snap)
		return fmt.Errorf("commit fixup: %w", err)
	}

	newHead, err := h.Worktree.Head(ctx)
	if err != nil {
		h.rollback(ctx, snap)
		return fmt.Errorf("resolve fixup commit: %w", err)
	}

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

	w = w.FixupCommit(newHead.String(), target.String())
	return h.drive(ctx, "fold", freshInfo, w, snap)
}

func (h *FoldHandler) foldCommitIntoCommit(ctx context.Context, info *scan.RepoInfo, source, target git.Hash) error {
	if source == target {
		return &loomerr.DomainRuleError{Msg: "fold: source and target are the same commit"}
	}
	if !h.Repository.IsAncestor(ctx, target, source) {
		return &loomerr.DomainRuleError{Msg: "fold: source must be newer than target"}
	}

	snap := snapshotOf(info)
	w, err := h.Scanner.BuildWeave(ctx, info)
	if err != nil {
		return fmt.Errorf("build weave: %w", err)
	}
	w = w.FixupCommit(source.String(), target.String())
	return h.drive(ctx, "fold", info, w, snap)
}

func (h *FoldHandler) foldCommitIntoBranch(ctx context.Context, info *scan.RepoInfo, source git.Hash, branch string) error {
	snap := snapshotOf(info)
	w, err := h.Scanner.BuildWeave(ctx, info)
	if err != nil {
		return fmt.Errorf("build weave: %w", err)
	}
	w = w.MoveCommit(source.String(), branch)
	return h.drive(ctx, "fold", info, w, snap)
}
