package scan

import (
	"context"

	"go.abhg.dev/container/ring"
	"go.abhg.dev/loom/internal/git"
)

// branchLookupWindow is a bounded cache over Repository.BranchesAt,
// avoiding repeat subprocess calls for oids visited more than once
// while walking the first-parent and second-parent lines of the same
// commit range.
type branchLookupWindow struct {
	repo   gitRepository
	window *ring.Ring[cacheEntry]
}

type cacheEntry struct {
	oid      git.Hash
	branches []string
	valid    bool
}

func newBranchLookupWindow(repo gitRepository, size int) *branchLookupWindow {
	return &branchLookupWindow{
		repo:   repo,
		window: ring.New[cacheEntry](size),
	}
}

// At returns the branch names whose tip is oid, consulting the window
// before falling back to a fresh BranchesAt call.
func (w *branchLookupWindow) At(ctx context.Context, oid git.Hash) ([]string, error) {
	var hit cacheEntry
	w.window.Do(func(e cacheEntry) {
		if !hit.valid && e.valid && e.oid == oid {
			hit = e
		}
	})
	if hit.valid {
		return hit.branches, nil
	}

	branches, err := w.repo.BranchesAt(ctx, oid)
	if err != nil {
		return nil, err
	}

	w.window.Value = cacheEntry{oid: oid, branches: branches, valid: true}
	w.window = w.window.Next()
	return branches, nil
}
