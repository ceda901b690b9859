package ops

import (
	"context"
	"fmt"
	"sort"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/weave"
)

// DropHandler implements the Drop operation.
type DropHandler struct {
	*Session
}

// Drop runs the Drop operation per spec §4.5, dispatching on the
// resolved target's kind.
func (h *DropHandler) Drop(ctx context.Context, rawTarget string) error {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	target, err := ResolveTarget(ctx, h.Repository, info, rawTarget)
	if err != nil {
		return err
	}

	switch target.Kind {
	case TargetBranch:
		return h.dropBranch(ctx, info, target.Branch)
	case TargetCommit:
		return h.dropCommit(ctx, info, target.Commit)
	default:
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("drop: %s cannot be dropped", target)}
	}
}

func (h *DropHandler) dropCommit(ctx context.Context, info *scan.RepoInfo, commit git.Hash) error {
	snap := snapshotOf(info)
	w, err := h.Scanner.BuildWeave(ctx, info)
	if err != nil {
		return fmt.Errorf("build weave: %w", err)
	}
	w = w.DropCommit(commit.String())
	return h.drive(ctx, "drop", info, w, snap)
}

func (h *DropHandler) dropBranch(ctx context.Context, info *scan.RepoInfo, branch string) error {
	if branch == info.Branch {
		return &loomerr.DomainRuleError{Msg: "drop: cannot drop the integration branch"}
	}

	tip, known := info.BranchTips[branch]
	if !known {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("drop: unknown branch %q", branch)}
	}

	if tip == info.MergeBaseOid {
		// Empty section: nothing woven, nothing to rebase.
		if err := h.Repository.DeleteBranch(ctx, branch, git.BranchDeleteOptions{Force: true}); err != nil {
			return fmt.Errorf("delete branch %s: %w", branch, err)
		}
		return nil
	}

	snap := snapshotOf(info)
	w, err := h.Scanner.BuildWeave(ctx, info)
	if err != nil {
		return fmt.Errorf("build weave: %w", err)
	}

	section := w.SectionFor(branch)
	if section == nil {
		// Non-woven: branch merely labels an existing commit via
		// update_refs. Drop the commit if this branch is its only
		// owner; otherwise just detach the label from it.
		w = stripOrDropRef(w, tip.String(), branch)
		if err := h.drive(ctx, "drop", info, w, snap); err != nil {
			return err
		}
		if err := h.Repository.DeleteBranch(ctx, branch, git.BranchDeleteOptions{Force: true}); err != nil {
			return fmt.Errorf("delete branch %s: %w", branch, err)
		}
		return nil
	}

	if len(section.BranchNames) > 1 {
		// Co-located sibling: reassign the section to a surviving
		// name instead of dropping its commits.
		names := append([]string(nil), section.BranchNames...)
		sort.Strings(names)
		var keep string
		for _, n := range names {
			if n != branch {
				keep = n
				break
			}
		}
		w = w.ReassignBranch(branch, keep)
	} else {
		w = w.DropBranch(branch)
	}

	if err := h.drive(ctx, "drop", info, w, snap); err != nil {
		return err
	}
	if err := h.Repository.DeleteBranch(ctx, branch, git.BranchDeleteOptions{Force: true}); err != nil {
		return fmt.Errorf("delete branch %s: %w", branch, err)
	}
	return nil
}

// stripOrDropRef finds the commit at oid and either drops it entirely
// (name was its sole owner) or removes name from its update_refs,
// leaving the commit and any other owners intact.
func stripOrDropRef(w *weave.Weave, oid, name string) *weave.Weave {
	refs := updateRefsAt(w, oid)
	if len(refs) <= 1 {
		return w.DropCommit(oid)
	}

	nw := w.Clone()
	for _, s := range nw.Sections {
		for i, c := range s.Commits {
			if c.Oid == oid {
				s.Commits[i].UpdateRefs = removeRef(c.UpdateRefs, name)
				return nw
			}
		}
	}
	for i, e := range nw.Integration {
		if e.Kind == weave.KindPick && e.Pick.Oid == oid {
			nw.Integration[i].Pick.UpdateRefs = removeRef(e.Pick.UpdateRefs, name)
			return nw
		}
	}
	return nw
}

func updateRefsAt(w *weave.Weave, oid string) []string {
	for _, s := range w.Sections {
		for _, c := range s.Commits {
			if c.Oid == oid {
				return c.UpdateRefs
			}
		}
	}
	for _, e := range w.Integration {
		if e.Kind == weave.KindPick && e.Pick.Oid == oid {
			return e.Pick.UpdateRefs
		}
	}
	return nil
}

func removeRef(refs []string, name string) []string {
	out := refs[:0:0]
	for _, r := range refs {
		if r != name {
			out = append(out, r)
		}
	}
	return out
}
