package ops

import (
	"context"
	"errors"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/shortid"
)

// TargetKind discriminates the variants of Target, per spec §9's
// "tagged variants for targets" design note.
type TargetKind int

// The variants a Target may hold.
const (
	TargetBranch TargetKind = iota
	TargetCommit
	TargetFile
	TargetUnstaged
)

// Target is the resolved form of a user-supplied argument: a branch
// name, a commit, a working-tree file, or the unstaged pseudo-entity.
type Target struct {
	Kind   TargetKind
	Branch string
	Commit git.Hash
	File   string
}

func (t Target) String() string {
	switch t.Kind {
	case TargetBranch:
		return t.Branch
	case TargetCommit:
		return t.Commit.Short()
	case TargetFile:
		return t.File
	case TargetUnstaged:
		return "(unstaged)"
	default:
		return fmt.Sprintf("Target(%d)", int(t.Kind))
	}
}

// ResolveTarget implements the target-argument-resolution algorithm
// from spec §6: an exact branch-name match takes priority over a
// revision resolver match, which in turn takes priority over a
// short-ID lookup.
func ResolveTarget(ctx context.Context, repo GitRepository, info *scan.RepoInfo, raw string) (Target, error) {
	if raw == info.Branch {
		return Target{Kind: TargetBranch, Branch: raw}, nil
	}
	for _, b := range info.Branches {
		if b == raw {
			return Target{Kind: TargetBranch, Branch: raw}, nil
		}
	}

	if oid, err := repo.PeelToCommit(ctx, raw); err == nil {
		return Target{Kind: TargetCommit, Commit: oid}, nil
	} else if !errors.Is(err, git.ErrNotExist) {
		return Target{}, fmt.Errorf("resolve %q: %w", raw, err)
	}

	assigns := shortid.Assign(info.Entities())
	if e, ok := shortid.Lookup(assigns, raw); ok {
		return targetFromEntity(ctx, repo, e)
	}

	var candidates []string
	for _, a := range shortid.FuzzyRank(assigns, raw) {
		candidates = append(candidates, a.ID)
		if len(candidates) >= 5 {
			break
		}
	}
	return Target{}, &loomerr.AmbiguousTargetError{Target: raw, Candidates: candidates}
}

func targetFromEntity(ctx context.Context, repo GitRepository, e shortid.Entity) (Target, error) {
	switch e.Kind {
	case shortid.KindUnstaged:
		return Target{Kind: TargetUnstaged}, nil
	case shortid.KindBranch:
		return Target{Kind: TargetBranch, Branch: e.Value}, nil
	case shortid.KindFile:
		return Target{Kind: TargetFile, File: e.Value}, nil
	case shortid.KindCommit:
		oid, err := repo.PeelToCommit(ctx, e.Value)
		if err != nil {
			return Target{}, fmt.Errorf("resolve commit %s: %w", e.Value, err)
		}
		return Target{Kind: TargetCommit, Commit: oid}, nil
	default:
		return Target{}, fmt.Errorf("unknown entity kind %d", e.Kind)
	}
}
