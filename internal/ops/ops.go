// Package ops implements the Operation Layer: the user-facing
// mutations (absorb, split, drop, fold, commit, reword, branch
// creation, push, update) that each follow spec §4.5's template --
// snapshot, mutate the Weave, serialize, drive a rebase, and roll back
// to the snapshot on failure.
package ops

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/rebase"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/silog"
	"go.abhg.dev/loom/internal/weave"
)

// GitRepository is the subset of *git.Repository the operation layer
// needs: everything that doesn't require a working tree.
type GitRepository interface {
	PeelToCommit(ctx context.Context, ref string) (git.Hash, error)
	MergeBase(ctx context.Context, a, b string) (git.Hash, error)
	IsAncestor(ctx context.Context, a, b git.Hash) bool
	ReadCommit(ctx context.Context, commitish string) (git.CommitInfo, error)
	BranchesAt(ctx context.Context, oid git.Hash) ([]string, error)
	DiffTree(ctx context.Context, treeish1, treeish2 string) iter.Seq2[git.FileStatus, error]
	CreateBranch(ctx context.Context, req git.CreateBranchRequest) error
	DeleteBranch(ctx context.Context, branch string, opts git.BranchDeleteOptions) error
	ForceUpdateBranch(ctx context.Context, name, commitish string) error
	SetRef(ctx context.Context, req git.SetRefRequest) error
	RemoteURL(ctx context.Context, remote string) (string, error)
	ListRemotes(ctx context.Context) ([]string, error)
	RemoteDefaultBranch(ctx context.Context, remote string) (string, error)
	BranchUpstream(ctx context.Context, branch string) (string, error)
	SetBranchUpstream(ctx context.Context, branch, upstream string) error
	ValidateBranchName(ctx context.Context, name string) bool
	LocalBranches(ctx context.Context, opts *git.LocalBranchesOptions) iter.Seq2[git.LocalBranch, error]
}

var _ GitRepository = (*git.Repository)(nil)

// GitWorktree is the subset of *git.Worktree the operation layer
// needs.
type GitWorktree interface {
	Head(ctx context.Context) (git.Hash, error)
	CurrentBranch(ctx context.Context) (string, error)
	Checkout(ctx context.Context, branch string) error
	Status(ctx context.Context) ([]git.WorkingChange, error)
	Stage(ctx context.Context, pathspecs ...string) error
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, req git.CommitRequest) error
	Reset(ctx context.Context, commit string, opts git.ResetOptions) error
	CheckoutFiles(ctx context.Context, req *git.CheckoutFilesRequest) error
	Restore(ctx context.Context, req *git.RestoreRequest) error
	Blame(ctx context.Context, rev, path string) ([]git.BlameLine, error)
	RemovedLines(ctx context.Context, path string) ([]int, bool, error)
	DiffPatch(ctx context.Context, pathspecs ...string) (string, error)
	ApplyPatch(ctx context.Context, patch string) error
	Merge(ctx context.Context, commitish string, opts git.MergeOptions) error
	MergeAbort(ctx context.Context) error
	RebaseEdit(ctx context.Context, commit git.Hash) error
	RebaseContinue(ctx context.Context, opts *git.RebaseContinueOptions) error
	RebaseAbort(ctx context.Context) error
	Push(ctx context.Context, opts git.PushOptions) error
	Pull(ctx context.Context, opts git.PullOptions) error
	UpdateSubmodules(ctx context.Context) error
	GitDir() string
	RootDir() string
}

var _ GitWorktree = (*git.Worktree)(nil)

// Scanner builds RepoInfo and Weave snapshots from live repository
// state.
type Scanner interface {
	Scan(ctx context.Context) (*scan.RepoInfo, error)
	BuildWeave(ctx context.Context, info *scan.RepoInfo) (*weave.Weave, error)
}

var _ Scanner = (*scan.Scanner)(nil)

// Driver replays a serialized todo script through the VCS's
// interactive-rebase engine.
type Driver interface {
	Run(ctx context.Context, req rebase.Request) error
}

var _ Driver = (*rebase.Driver)(nil)

// Session bundles every collaborator an operation needs. Each
// operation's Handler embeds a *Session (or the narrower interfaces
// directly) so it can snapshot, mutate, and drive a rebase.
type Session struct {
	Log        *silog.Logger // required
	Repository GitRepository // required
	Worktree   GitWorktree   // required
	Scanner    Scanner       // required
	Driver     Driver        // required
}

// snapshot captures enough repository state to roll an operation back
// to its pre-mutation state on rebase failure, per spec §4.5.
type snapshot struct {
	head     git.Hash
	branches map[string]git.Hash
}

// snapshotOf captures info's HEAD and every weave-visible branch's
// tip, for rollback.
func snapshotOf(info *scan.RepoInfo) snapshot {
	branches := make(map[string]git.Hash, len(info.Branches))
	for _, name := range info.Branches {
		branches[name] = info.BranchTips[name]
	}
	return snapshot{head: info.HeadOid, branches: branches}
}

// rollback hard-resets the worktree to the snapshot's HEAD and forces
// every snapshotted branch ref back to its recorded tip. Errors are
// logged, not returned: rollback runs from inside an error path, and a
// partial rollback is still better than giving up partway through.
func (s *Session) rollback(ctx context.Context, snap snapshot) {
	if err := s.Worktree.Reset(ctx, snap.head.String(), git.ResetOptions{Mode: git.ResetHard}); err != nil {
		s.Log.Error("rollback: reset HEAD failed", "error", err)
	}
	for name, oid := range snap.branches {
		if oid == "" {
			continue
		}
		if err := s.Repository.ForceUpdateBranch(ctx, name, oid.String()); err != nil {
			s.Log.Error("rollback: restore branch failed", "branch", name, "error", err)
		}
	}
}

// drive validates w, serializes it, and replays it through the Rebase
// Driver. On failure it rolls the repository back to snap and returns
// the driver's error (already a *loomerr.ConflictError).
func (s *Session) drive(ctx context.Context, op string, info *scan.RepoInfo, w *weave.Weave, snap snapshot) error {
	if err := w.Validate(); err != nil {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("%s: invalid weave: %v", op, err)}
	}

	todo := weave.Serialize(w)
	if err := s.Driver.Run(ctx, rebase.Request{
		Op:       op,
		Upstream: info.MergeBaseOid,
		Todo:     todo,
	}); err != nil {
		s.rollback(ctx, snap)

		var conflict *loomerr.ConflictError
		if errors.As(err, &conflict) {
			return conflict
		}
		return err
	}

	return nil
}
