package ops

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/silog/silogtest"
	"go.abhg.dev/loom/internal/weave"
)

func newDropSession(t *testing.T, info *scan.RepoInfo, w *weave.Weave, repo *fakeRepo, wt *fakeWorktree, driver *fakeDriver) *DropHandler {
	t.Helper()
	return &DropHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   wt,
		Scanner:    &fakeScanner{info: info, weave: w},
		Driver:     driver,
	}}
}

// TestDrop_BranchAtMergeBase covers the "empty section" branch: no
// commits woven in, so dropping it is a direct branch delete with no
// rebase at all.
func TestDrop_BranchAtMergeBase(t *testing.T) {
	info := &scan.RepoInfo{
		Branch:       "loom",
		MergeBaseOid: "base0000",
		Branches:     []string{"untouched"},
		BranchTips:   map[string]git.Hash{"untouched": "base0000"},
	}
	repo := &fakeRepo{}
	driver := &fakeDriver{}
	h := newDropSession(t, info, weave.New("base0000"), repo, &fakeWorktree{}, driver)

	err := h.Drop(context.Background(), "untouched")
	require.NoError(t, err)
	assert.Equal(t, []string{"untouched"}, repo.deletedBranches)
	assert.Nil(t, driver.lastReq, "an empty section never drives a rebase")
}

// TestDrop_WovenBranchTwoCommits is spec.md S3: dropping a woven
// branch removes its section and its merge entry, leaving the rest of
// the integration line intact.
func TestDrop_WovenBranchTwoCommits(t *testing.T) {
	base := "base0000"
	w := weave.New(base)
	w.Sections = append(w.Sections, &weave.BranchSection{
		ResetTarget: "onto",
		Label:       "feature-a",
		BranchNames: []string{"feature-a"},
		Commits: []weave.CommitEntry{
			{Oid: "a1000000", ShortHash: "a1", Summary: "A1", Command: weave.Pick},
			{Oid: "a2000000", ShortHash: "a2", Summary: "A2", Command: weave.Pick},
		},
	})
	w.Integration = append(w.Integration,
		weave.NewPick(weave.CommitEntry{Oid: "int00000", ShortHash: "int", Summary: "Int", Command: weave.Pick}),
		weave.NewMerge("feature-a", "merge0000"),
	)

	info := &scan.RepoInfo{
		Branch:       "loom",
		MergeBaseOid: git.Hash(base),
		Branches:     []string{"feature-a"},
		BranchTips:   map[string]git.Hash{"feature-a": "a2000000"},
	}
	repo := &fakeRepo{}
	driver := &fakeDriver{}
	h := newDropSession(t, info, w, repo, &fakeWorktree{}, driver)

	err := h.Drop(context.Background(), "feature-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"feature-a"}, repo.deletedBranches)
	require.NotNil(t, driver.lastReq)

	// The serialized todo that was driven must no longer mention the
	// dropped section's commits or its merge.
	assert.NotContains(t, driver.lastReq.Todo, "a1")
	assert.NotContains(t, driver.lastReq.Todo, "a2")
	assert.Contains(t, driver.lastReq.Todo, "Int", "the rest of the integration line survives")
}

func TestDrop_CannotDropIntegrationBranch(t *testing.T) {
	info := &scan.RepoInfo{Branch: "loom"}
	h := newDropSession(t, info, weave.New("base"), &fakeRepo{}, &fakeWorktree{}, &fakeDriver{})

	err := h.Drop(context.Background(), "loom")
	var domainErr *loomerr.DomainRuleError
	require.ErrorAs(t, err, &domainErr)
}

func TestDrop_RollsBackOnConflict(t *testing.T) {
	base := "base0000"
	w := weave.New(base)
	w.Sections = append(w.Sections, &weave.BranchSection{
		ResetTarget: "onto",
		Label:       "feature-a",
		BranchNames: []string{"feature-a"},
		Commits: []weave.CommitEntry{
			{Oid: "a1000000", ShortHash: "a1", Summary: "A1", Command: weave.Pick},
		},
	})
	w.Integration = append(w.Integration, weave.NewMerge("feature-a", "merge0000"))

	info := &scan.RepoInfo{
		Branch:       "loom",
		HeadOid:      "merge0000",
		MergeBaseOid: git.Hash(base),
		Branches:     []string{"feature-a"},
		BranchTips:   map[string]git.Hash{"feature-a": "a1000000"},
	}
	repo := &fakeRepo{}
	wt := &fakeWorktree{}
	driver := &fakeDriver{err: &loomerr.ConflictError{Op: "drop", Err: errors.New("CONFLICT")}}
	h := newDropSession(t, info, w, repo, wt, driver)

	err := h.Drop(context.Background(), "feature-a")
	require.Error(t, err)
	var conflict *loomerr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, wt.resetCalls, "rollback resets HEAD to the snapshot")
	assert.Empty(t, repo.deletedBranches, "the branch ref is never deleted once the rebase fails")
}
