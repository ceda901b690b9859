package ops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/silog/silogtest"
)

func TestUpdate_PullsWithRebaseAndAutostash(t *testing.T) {
	info := &scan.RepoInfo{Branch: "loom"}
	wt := &fakeWorktree{rootDir: t.TempDir()}
	h := &UpdateHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: &fakeRepo{},
		Worktree:   wt,
		Scanner:    &fakeScanner{info: info},
	}}

	err := h.Update(context.Background())
	require.NoError(t, err)
	require.Len(t, wt.pulled, 1)
	assert.True(t, wt.pulled[0].Rebase)
	assert.True(t, wt.pulled[0].Autostash)
	assert.False(t, wt.submodulesRun, "no .gitmodules file present")
}

func TestUpdate_UpdatesSubmodulesWhenGitmodulesExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitmodules"), nil, 0o644))

	info := &scan.RepoInfo{Branch: "loom"}
	wt := &fakeWorktree{rootDir: dir}
	h := &UpdateHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: &fakeRepo{},
		Worktree:   wt,
		Scanner:    &fakeScanner{info: info},
	}}

	err := h.Update(context.Background())
	require.NoError(t, err)
	assert.True(t, wt.submodulesRun)
}

func TestUpdate_ScanFailurePropagates(t *testing.T) {
	h := &UpdateHandler{Session: &Session{
		Log:        silogtest.New(t),
		Repository: &fakeRepo{},
		Worktree:   &fakeWorktree{},
		Scanner:    &fakeScanner{scanErr: errors.New("scan failed")},
	}}

	err := h.Update(context.Background())
	require.Error(t, err)
}
