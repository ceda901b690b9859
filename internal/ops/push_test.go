package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/loom/internal/config"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/silog/silogtest"
)

func TestPush_PlainRemote(t *testing.T) {
	info := &scan.RepoInfo{Branch: "loom", Upstream: "origin/main"}
	repo := &fakeRepo{}
	wt := &fakeWorktree{}
	h := &PushHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: repo,
		Worktree:   wt,
		Scanner:    &fakeScanner{info: info},
	}}

	err := h.Push(context.Background(), &PushRequest{})
	require.NoError(t, err)
	require.Len(t, wt.pushed, 1)
	assert.Equal(t, "origin", wt.pushed[0].Remote)
	assert.Empty(t, wt.pushed[0].Refspec)
}

func TestPush_GerritRemoteViaConfigOverride(t *testing.T) {
	info := &scan.RepoInfo{Branch: "loom", Upstream: "origin/main"}
	wt := &fakeWorktree{}
	h := &PushHandler{
		Session: &Session{
			Log:        silogtest.New(t),
			Repository: &fakeRepo{},
			Worktree:   wt,
			Scanner:    &fakeScanner{info: info},
		},
		Config: &config.Config{RemoteType: "gerrit"},
	}

	err := h.Push(context.Background(), &PushRequest{})
	require.NoError(t, err)
	require.Len(t, wt.pushed, 1)
	assert.Equal(t, git.Refspec("HEAD:refs/for/main"), wt.pushed[0].Refspec)
}

func TestPush_CannotDetermineRemote(t *testing.T) {
	info := &scan.RepoInfo{Branch: "loom", Upstream: "no-slash-here"}
	h := &PushHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: &fakeRepo{},
		Worktree:   &fakeWorktree{},
		Scanner:    &fakeScanner{info: info},
	}}

	err := h.Push(context.Background(), &PushRequest{})
	var domainErr *loomerr.DomainRuleError
	require.ErrorAs(t, err, &domainErr)
}

func TestParseGitHubOwnerRepo(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"git@github.com:foo/bar.git", "foo", "bar", true},
		{"https://github.com/foo/bar.git", "foo", "bar", true},
		{"https://github.com/foo/bar", "foo", "bar", true},
		{"https://example.com/foo/bar", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := parseGitHubOwnerRepo(tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		if tt.wantOK {
			assert.Equal(t, tt.wantOwner, owner, tt.url)
			assert.Equal(t, tt.wantRepo, repo, tt.url)
		}
	}
}

func TestGithubCompareURL(t *testing.T) {
	url, ok := githubCompareURL("git@github.com:foo/bar.git", "main", "feature-a")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/foo/bar/compare/main...feature-a", url)

	_, ok = githubCompareURL("https://example.com/foo/bar", "main", "feature-a")
	assert.False(t, ok)
}
