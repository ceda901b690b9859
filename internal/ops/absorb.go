package ops

import (
	"context"
	"fmt"
	"sort"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/weave"
)

// AbsorbRequest requests that pending working-tree changes be folded
// back into the commits that introduced the lines they touch.
type AbsorbRequest struct {
	// Files restricts absorption to these paths. Empty considers
	// every pending change reported by 'status'.
	Files []string

	// DryRun reports the plan without committing or rebasing.
	DryRun bool
}

// AbsorbFixup is one scheduled fixup: the files whose changes will be
// folded into Target.
type AbsorbFixup struct {
	Target git.Hash
	Files  []string
}

// AbsorbSkip records why a candidate file was left untouched.
type AbsorbSkip struct {
	File   string
	Reason string
}

// Skip reasons, per spec §4.5's Absorb bullet.
const (
	SkipNoChanges      = "no changes"
	SkipBinaryFile     = "binary file"
	SkipPureAddition   = "pure-addition (no removed lines)"
	SkipNewFile        = "new file (no blame)"
	SkipMultiCommit    = "multi-commit blame"
	SkipOutOfScope     = "out-of-scope commit"
)

// AbsorbPlan is what Absorb did, or would do under DryRun.
type AbsorbPlan struct {
	Fixups  []AbsorbFixup
	Skipped []AbsorbSkip
}

// AbsorbHandler implements the Absorb operation.
type AbsorbHandler struct {
	*Session
}

// Absorb runs the Absorb operation per spec §4.5.
func (h *AbsorbHandler) Absorb(ctx context.Context, req *AbsorbRequest) (*AbsorbPlan, error) {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	changesByPath := make(map[string]git.WorkingChange, len(info.WorkingChanges))
	for _, c := range info.WorkingChanges {
		changesByPath[c.Path] = c
	}

	var paths []string
	if len(req.Files) > 0 {
		paths = req.Files
	} else {
		for _, c := range info.WorkingChanges {
			paths = append(paths, c.Path)
		}
	}

	inScope := make(map[git.Hash]bool, len(info.Commits))
	for _, c := range info.Commits {
		inScope[c.Oid] = true
	}

	plan := &AbsorbPlan{}
	groups := make(map[git.Hash][]string)
	var groupOrder []git.Hash

	for _, path := range paths {
		change, tracked := changesByPath[path]
		if !tracked {
			plan.Skipped = append(plan.Skipped, AbsorbSkip{File: path, Reason: SkipNoChanges})
			continue
		}
		if change.IndexStatus == '?' && change.WorktreeStatus == '?' {
			plan.Skipped = append(plan.Skipped, AbsorbSkip{File: path, Reason: SkipNewFile})
			continue
		}

		removed, binary, err := h.Worktree.RemovedLines(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", path, err)
		}
		if binary {
			plan.Skipped = append(plan.Skipped, AbsorbSkip{File: path, Reason: SkipBinaryFile})
			continue
		}
		if len(removed) == 0 {
			plan.Skipped = append(plan.Skipped, AbsorbSkip{File: path, Reason: SkipPureAddition})
			continue
		}

		blameLines, err := h.Worktree.Blame(ctx, "HEAD", path)
		if err != nil {
			return nil, fmt.Errorf("blame %s: %w", path, err)
		}
		byLine := make(map[int]git.Hash, len(blameLines))
		for _, bl := range blameLines {
			byLine[bl.Line] = bl.Commit
		}

		owners := make(map[git.Hash]bool)
		for _, l := range removed {
			if oid, ok := byLine[l]; ok {
				owners[oid] = true
			}
		}
		if len(owners) != 1 {
			plan.Skipped = append(plan.Skipped, AbsorbSkip{File: path, Reason: SkipMultiCommit})
			continue
		}

		var target git.Hash
		for oid := range owners {
			target = oid
		}
		if !inScope[target] {
			plan.Skipped = append(plan.Skipped, AbsorbSkip{File: path, Reason: SkipOutOfScope})
			continue
		}

		if _, ok := groups[target]; !ok {
			groupOrder = append(groupOrder, target)
		}
		groups[target] = append(groups[target], path)
	}

	for _, target := range groupOrder {
		plan.Fixups = append(plan.Fixups, AbsorbFixup{Target: target, Files: groups[target]})
	}

	if req.DryRun || len(groupOrder) == 0 {
		return plan, nil
	}

	var skippedPaths []string
	for _, s := range plan.Skipped {
		if _, wasCandidate := changesByPath[s.File]; wasCandidate {
			skippedPaths = append(skippedPaths, s.File)
		}
	}
	sort.Strings(skippedPaths)

	snap := snapshotOf(info)

	var skipPatch string
	if len(skippedPaths) > 0 {
		skipPatch, err = h.Worktree.DiffPatch(ctx, skippedPaths...)
		if err != nil {
			return nil, fmt.Errorf("save skipped changes: %w", err)
		}
		if err := h.Worktree.CheckoutFiles(ctx, &git.CheckoutFilesRequest{
			Pathspecs: skippedPaths,
			TreeIsh:   "HEAD",
		}); err != nil {
			return nil, fmt.Errorf("restore skipped files to HEAD: %w", err)
		}
	}

	w, err := h.Scanner.BuildWeave(ctx, info)
	if err != nil {
		h.rollback(ctx, snap)
		return nil, fmt.Errorf("build weave: %w", err)
	}

	for _, target := range groupOrder {
		files := groups[target]
		if err := h.Worktree.Stage(ctx, files...); err != nil {
			h.rollback(ctx, snap)
			return nil, fmt.Errorf("stage %v: %w", files, err)
		}

		msg := fmt.Sprintf("fixup! absorb into %s", target.Short())
		if err := h.Worktree.Commit(ctx, git.CommitRequest{Message: msg}); err != nil {
			h.rollback(ctx, snap)
			return nil, fmt.Errorf("commit fixup for %s: %w", target.Short(), err)
		}

		fixupOid, err := h.Worktree.Head(ctx)
		if err != nil {
			h.rollback(ctx, snap)
			return nil, fmt.Errorf("resolve fixup commit: %w", err)
		}

		entry := weave.CommitEntry{
			Oid:       fixupOid.String(),
			ShortHash: fixupOid.Short(),
			Summary:   msg,
			Command:   weave.Fixup,
		}
		w = w.InsertFixup(entry, target.String())
	}

	if err := h.drive(ctx, "absorb", info, w, snap); err != nil {
		return nil, err
	}

	if skipPatch != "" {
		if err := h.Worktree.ApplyPatch(ctx, skipPatch); err != nil {
			return nil, fmt.Errorf("reapply skipped changes: %w", err)
		}
	}

	return plan, nil
}
