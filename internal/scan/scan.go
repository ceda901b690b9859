// Package scan implements the Repo Scanner: it extracts a RepoInfo
// snapshot from live repository state and decomposes that snapshot's
// first-parent line into a Weave ready for mutation.
package scan

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/shortid"
	"go.abhg.dev/loom/internal/silog"
	"go.abhg.dev/loom/internal/sliceutil"
)

// gitRepository is the subset of *git.Repository the scanner needs.
type gitRepository interface {
	BranchUpstream(ctx context.Context, branch string) (string, error)
	PeelToCommit(ctx context.Context, ref string) (git.Hash, error)
	MergeBase(ctx context.Context, a, b string) (git.Hash, error)
	ReadCommit(ctx context.Context, commitish string) (git.CommitInfo, error)
	WalkCommits(ctx context.Context, from, to string) iter.Seq2[git.CommitInfo, error]
	LocalBranches(ctx context.Context, opts *git.LocalBranchesOptions) iter.Seq2[git.LocalBranch, error]
	BranchesAt(ctx context.Context, oid git.Hash) ([]string, error)
}

var _ gitRepository = (*git.Repository)(nil)

// gitWorktree is the subset of *git.Worktree the scanner needs.
type gitWorktree interface {
	CurrentBranch(ctx context.Context) (string, error)
	Head(ctx context.Context) (git.Hash, error)
	Status(ctx context.Context) ([]git.WorkingChange, error)
}

var _ gitWorktree = (*git.Worktree)(nil)

// RepoInfo is a snapshot of repository state relevant to the woven
// integration-branch workflow.
type RepoInfo struct {
	// Branch is the current (integration) branch name.
	Branch string

	// Upstream is the tracking reference for Branch.
	Upstream string

	// HeadOid is the commit HEAD currently points at.
	HeadOid git.Hash

	// UpstreamOid is the commit Upstream currently points at.
	UpstreamOid git.Hash

	// MergeBaseOid is the common ancestor of HeadOid and UpstreamOid;
	// the "onto" target of every replay.
	MergeBaseOid git.Hash

	// MergeBaseCommit carries the merge-base commit's own summary and
	// author time, for status/log rendering's "(common base)" marker.
	MergeBaseCommit git.CommitInfo

	// Ahead is how many commits Upstream is ahead of MergeBaseOid.
	Ahead int

	// Commits holds non-merge commits from HeadOid down to (exclusive)
	// MergeBaseOid, newest first.
	Commits []git.CommitInfo

	// Branches holds weave-visible local branches: those whose tip
	// lies in the walked commit set or exactly at the merge-base,
	// excluding Branch itself and any branch tracking Upstream.
	Branches []string

	// BranchTips maps each entry in Branches to the commit it points
	// at, so callers (status/log rendering, shortid assignment) don't
	// need to re-resolve it.
	BranchTips map[string]git.Hash

	// WorkingChanges holds pending working-tree and index changes.
	WorkingChanges []git.WorkingChange
}

// Entities builds the ordered entity list short-ID assignment uses,
// per spec §6: the unstaged pseudo-entity first, then branches,
// commits, and finally files, so that a collision always favors the
// entity kind presented earlier in this order.
func (info *RepoInfo) Entities() []shortid.Entity {
	entities := make([]shortid.Entity, 0, 1+len(info.Branches)+len(info.Commits)+len(info.WorkingChanges))
	entities = append(entities, shortid.Entity{Kind: shortid.KindUnstaged})

	for _, b := range info.Branches {
		entities = append(entities, shortid.Entity{Kind: shortid.KindBranch, Value: b})
	}
	for _, c := range info.Commits {
		entities = append(entities, shortid.Entity{Kind: shortid.KindCommit, Value: c.Oid.String()})
	}
	for _, f := range info.WorkingChanges {
		entities = append(entities, shortid.Entity{Kind: shortid.KindFile, Value: f.Path})
	}

	return entities
}

// Scanner extracts RepoInfo and Weave snapshots from a live repository.
type Scanner struct {
	repo gitRepository
	wt   gitWorktree
	log  *silog.Logger
}

// New builds a Scanner over the given repository and worktree.
func New(repo *git.Repository, wt *git.Worktree, log *silog.Logger) *Scanner {
	return &Scanner{repo: repo, wt: wt, log: log}
}

// Scan builds a RepoInfo from the current state of the repository, per
// the algorithm in spec §4.1.
//
// It requires HEAD to be attached to a branch with a configured
// upstream; violating either precondition yields a typed
// [loomerr.DetachedHeadError] or [loomerr.NoUpstreamError] before any
// state is read further.
func (s *Scanner) Scan(ctx context.Context) (*RepoInfo, error) {
	branch, err := s.wt.CurrentBranch(ctx)
	if err != nil {
		if errors.Is(err, git.ErrDetachedHead) {
			return nil, &loomerr.DetachedHeadError{}
		}
		return nil, fmt.Errorf("current branch: %w", err)
	}

	upstream, err := s.repo.BranchUpstream(ctx, branch)
	if err != nil {
		if errors.Is(err, git.ErrNotExist) {
			return nil, &loomerr.NoUpstreamError{Branch: branch}
		}
		return nil, fmt.Errorf("branch upstream: %w", err)
	}

	headOid, err := s.wt.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	upstreamOid, err := s.repo.PeelToCommit(ctx, upstream)
	if err != nil {
		return nil, fmt.Errorf("resolve upstream %s: %w", upstream, err)
	}

	mergeBase, err := s.repo.MergeBase(ctx, headOid.String(), upstreamOid.String())
	if err != nil {
		return nil, fmt.Errorf("merge-base: %w", err)
	}

	mergeBaseCommit, err := s.repo.ReadCommit(ctx, mergeBase.String())
	if err != nil {
		return nil, fmt.Errorf("read merge-base commit: %w", err)
	}

	ahead, err := s.countCommits(ctx, upstreamOid.String(), mergeBase.String())
	if err != nil {
		return nil, fmt.Errorf("count ahead: %w", err)
	}

	var commits []git.CommitInfo
	for info, err := range s.repo.WalkCommits(ctx, headOid.String(), mergeBase.String()) {
		if err != nil {
			return nil, fmt.Errorf("walk commits: %w", err)
		}
		if info.IsMerge() {
			continue
		}
		commits = append(commits, info)
	}

	inSet := make(map[git.Hash]bool, len(commits))
	for _, c := range commits {
		inSet[c.Oid] = true
	}

	allBranches, err := sliceutil.CollectErr(s.repo.LocalBranches(ctx, nil))
	if err != nil {
		return nil, fmt.Errorf("local branches: %w", err)
	}

	var branches []string
	branchTips := make(map[string]git.Hash)
	for _, b := range allBranches {
		if b.Name == branch {
			continue
		}
		if bUp, err := s.repo.BranchUpstream(ctx, b.Name); err == nil && bUp == upstream {
			continue
		}
		tip, err := s.repo.PeelToCommit(ctx, b.Name)
		if err != nil {
			continue
		}
		if inSet[tip] || tip == mergeBase {
			branches = append(branches, b.Name)
			branchTips[b.Name] = tip
		}
	}

	changes, err := s.wt.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	return &RepoInfo{
		Branch:          branch,
		Upstream:        upstream,
		HeadOid:         headOid,
		UpstreamOid:     upstreamOid,
		MergeBaseOid:    mergeBase,
		MergeBaseCommit: mergeBaseCommit,
		Ahead:           ahead,
		Commits:         commits,
		Branches:        branches,
		BranchTips:      branchTips,
		WorkingChanges: changes,
	}, nil
}

func (s *Scanner) countCommits(ctx context.Context, start, stop string) (int, error) {
	n := 0
	for _, err := range s.repo.WalkCommits(ctx, start, stop) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
