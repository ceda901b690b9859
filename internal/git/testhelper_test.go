package git

import (
	"testing"

	"go.abhg.dev/loom/internal/silog/silogtest"
)

// NewTestRepository builds a Repository backed by the given execer,
// rooted at dir, for unit tests that stub out the subprocess layer
// instead of running real Git commands.
func NewTestRepository(t *testing.T, dir string, exec execer) *Repository {
	t.Helper()
	return newRepository(dir, dir, silogtest.New(t), exec)
}

// NewTestWorktree builds a Worktree backed by the given execer,
// rooted at dir, for unit tests that stub out the subprocess layer
// instead of running real Git commands.
func NewTestWorktree(t *testing.T, dir string, exec execer) *Worktree {
	t.Helper()
	repo := NewTestRepository(t, dir, exec)
	return newWorktree(dir, dir, repo, silogtest.New(t), exec)
}
