package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/silog/silogtest"
)

func TestInit_InvalidBranchName(t *testing.T) {
	repo := &fakeRepo{validBranchNames: false}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   &fakeWorktree{},
	}}

	err := h.Init(context.Background(), &InitRequest{Name: "bad name"})
	var domainErr *loomerr.DomainRuleError
	require.ErrorAs(t, err, &domainErr)
}

func TestInit_RejectsExistingBranch(t *testing.T) {
	repo := &fakeRepo{
		validBranchNames: true,
		localBranches:    []git.LocalBranch{{Name: "loom"}},
	}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   &fakeWorktree{},
	}}

	err := h.Init(context.Background(), &InitRequest{Name: "loom"})
	var domainErr *loomerr.DomainRuleError
	require.ErrorAs(t, err, &domainErr)
}

func TestInit_DefaultsNameToLoom(t *testing.T) {
	repo := &fakeRepo{validBranchNames: true}
	wt := &fakeWorktree{}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   wt,
	}}

	err := h.Init(context.Background(), &InitRequest{Upstream: "origin/main"})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "loom", repo.created[0].Name)
	assert.Equal(t, "origin/main", repo.created[0].Head)
	assert.Equal(t, "origin/main", repo.setUpstreams["loom"])
	assert.Equal(t, "loom", wt.checkedOut)
}

func TestInit_DetectsSingleCandidateUpstream(t *testing.T) {
	repo := &fakeRepo{
		validBranchNames: true,
		remotes:          []string{"origin"},
		remoteDefaults:   map[string]string{"origin": "main"},
	}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   &fakeWorktree{},
	}}

	err := h.Init(context.Background(), &InitRequest{})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "origin/main", repo.created[0].Head)
}

func TestInit_AmbiguousUpstreamAmongMultipleRemotes(t *testing.T) {
	repo := &fakeRepo{
		validBranchNames: true,
		remotes:          []string{"origin", "upstream"},
		remoteDefaults:   map[string]string{"origin": "main", "upstream": "main"},
	}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   &fakeWorktree{},
	}}

	err := h.Init(context.Background(), &InitRequest{})
	var ambiguous *loomerr.AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)
	assert.ElementsMatch(t, []string{"origin/main", "upstream/main"}, ambiguous.Candidates)
}

func TestInit_NoRemotesFails(t *testing.T) {
	repo := &fakeRepo{validBranchNames: true}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   &fakeWorktree{},
	}}

	err := h.Init(context.Background(), &InitRequest{})
	var domainErr *loomerr.DomainRuleError
	require.ErrorAs(t, err, &domainErr)
}

func TestDetectUpstream_PrefersCurrentBranchTracking(t *testing.T) {
	repo := &fakeRepo{upstreams: map[string]string{"main": "origin/main"}}
	wt := &fakeWorktree{currentBranch: "main"}
	h := &InitHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   wt,
	}}

	up, candidates, err := h.DetectUpstream(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "origin/main", up)
	assert.Empty(t, candidates)
}
