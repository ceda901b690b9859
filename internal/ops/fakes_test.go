package ops

import (
	"context"
	"iter"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/rebase"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/weave"
)

// fakeRepo implements GitRepository, recording calls that matter to
// the tests exercising it and embedding the (nil) interface so any
// unexercised method panics loudly rather than silently no-op-ing.
type fakeRepo struct {
	GitRepository

	commits         map[string]git.Hash
	deletedBranches []string
	deleteErr       error
	forcedUpdates   map[string]string

	created   []git.CreateBranchRequest
	createErr error

	ancestors map[[2]git.Hash]bool

	validBranchNames bool
	localBranches    []git.LocalBranch
	localBranchesErr error
	upstreams        map[string]string
	setUpstreams     map[string]string
	remotes          []string
	remoteDefaults   map[string]string
	remoteURLs       map[string]string

	diffFiles map[string][]git.FileStatus
}

func (f *fakeRepo) PeelToCommit(_ context.Context, ref string) (git.Hash, error) {
	if oid, ok := f.commits[ref]; ok {
		return oid, nil
	}
	return "", git.ErrNotExist
}

func (f *fakeRepo) DeleteBranch(_ context.Context, branch string, _ git.BranchDeleteOptions) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedBranches = append(f.deletedBranches, branch)
	return nil
}

func (f *fakeRepo) IsAncestor(_ context.Context, a, b git.Hash) bool {
	return f.ancestors != nil && f.ancestors[[2]git.Hash{a, b}]
}

func (f *fakeRepo) CreateBranch(_ context.Context, req git.CreateBranchRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, req)
	return nil
}

func (f *fakeRepo) ForceUpdateBranch(_ context.Context, name, commitish string) error {
	if f.forcedUpdates == nil {
		f.forcedUpdates = make(map[string]string)
	}
	f.forcedUpdates[name] = commitish
	return nil
}

func (f *fakeRepo) ValidateBranchName(context.Context, string) bool {
	return f.validBranchNames
}

func (f *fakeRepo) LocalBranches(_ context.Context, _ *git.LocalBranchesOptions) iter.Seq2[git.LocalBranch, error] {
	return func(yield func(git.LocalBranch, error) bool) {
		if f.localBranchesErr != nil {
			yield(git.LocalBranch{}, f.localBranchesErr)
			return
		}
		for _, b := range f.localBranches {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (f *fakeRepo) BranchUpstream(_ context.Context, branch string) (string, error) {
	if up, ok := f.upstreams[branch]; ok {
		return up, nil
	}
	return "", git.ErrNotExist
}

func (f *fakeRepo) SetBranchUpstream(_ context.Context, branch, upstream string) error {
	if f.setUpstreams == nil {
		f.setUpstreams = make(map[string]string)
	}
	f.setUpstreams[branch] = upstream
	return nil
}

func (f *fakeRepo) ListRemotes(context.Context) ([]string, error) {
	return f.remotes, nil
}

func (f *fakeRepo) RemoteDefaultBranch(_ context.Context, remote string) (string, error) {
	if def, ok := f.remoteDefaults[remote]; ok {
		return def, nil
	}
	return "", git.ErrNotExist
}

func (f *fakeRepo) RemoteURL(_ context.Context, remote string) (string, error) {
	if url, ok := f.remoteURLs[remote]; ok {
		return url, nil
	}
	return "", git.ErrNotExist
}

func (f *fakeRepo) DiffTree(_ context.Context, treeish1, _ string) iter.Seq2[git.FileStatus, error] {
	return func(yield func(git.FileStatus, error) bool) {
		for _, fs := range f.diffFiles[treeish1] {
			if !yield(fs, nil) {
				return
			}
		}
	}
}

// fakeWorktree implements GitWorktree, recording calls that matter.
type fakeWorktree struct {
	GitWorktree

	commits        []git.CommitRequest
	commitErr      error
	resetCalls     int
	rebaseEditErr  error
	rebaseEditKind *git.RebaseInterruptKind
	rebaseContinueErr error
	rebaseAborted  bool

	staged    []string
	stagedAll bool
	stageErr  error

	head    git.Hash
	headErr error

	merged    []string
	mergeErr  error
	mergeAborted bool

	currentBranch    string
	currentBranchErr error
	checkedOut       string
	checkoutErr      error

	pushed  []git.PushOptions
	pushErr error
	gitDir  string

	pulled        []git.PullOptions
	pullErr       error
	rootDir       string
	submodulesErr error
	submodulesRun bool

	removedLines    map[string][]int
	removedBinary   map[string]bool
	removedLinesErr error

	blame    map[string][]git.BlameLine
	blameErr error

	diffPatch    string
	diffPatchErr error

	checkedOutFiles []*git.CheckoutFilesRequest
	checkoutFilesErr error

	appliedPatches []string
	applyPatchErr  error
}

func (f *fakeWorktree) Commit(_ context.Context, req git.CommitRequest) error {
	f.commits = append(f.commits, req)
	return f.commitErr
}

func (f *fakeWorktree) Reset(context.Context, string, git.ResetOptions) error {
	f.resetCalls++
	return nil
}

func (f *fakeWorktree) Stage(_ context.Context, pathspecs ...string) error {
	f.staged = append(f.staged, pathspecs...)
	return f.stageErr
}

func (f *fakeWorktree) StageAll(context.Context) error {
	f.stagedAll = true
	return f.stageErr
}

func (f *fakeWorktree) Head(context.Context) (git.Hash, error) {
	return f.head, f.headErr
}

func (f *fakeWorktree) Merge(_ context.Context, commitish string, _ git.MergeOptions) error {
	f.merged = append(f.merged, commitish)
	return f.mergeErr
}

func (f *fakeWorktree) MergeAbort(context.Context) error {
	f.mergeAborted = true
	return nil
}

func (f *fakeWorktree) RebaseEdit(context.Context, git.Hash) error {
	if f.rebaseEditKind != nil {
		return &git.RebaseInterruptError{Kind: *f.rebaseEditKind, Err: f.rebaseEditErr}
	}
	return f.rebaseEditErr
}

func (f *fakeWorktree) RebaseContinue(context.Context, *git.RebaseContinueOptions) error {
	return f.rebaseContinueErr
}

func (f *fakeWorktree) RebaseAbort(context.Context) error {
	f.rebaseAborted = true
	return nil
}

func (f *fakeWorktree) CurrentBranch(context.Context) (string, error) {
	return f.currentBranch, f.currentBranchErr
}

func (f *fakeWorktree) Checkout(_ context.Context, branch string) error {
	if f.checkoutErr != nil {
		return f.checkoutErr
	}
	f.checkedOut = branch
	return nil
}

func (f *fakeWorktree) Push(_ context.Context, opts git.PushOptions) error {
	f.pushed = append(f.pushed, opts)
	return f.pushErr
}

func (f *fakeWorktree) GitDir() string {
	return f.gitDir
}

func (f *fakeWorktree) Pull(_ context.Context, opts git.PullOptions) error {
	f.pulled = append(f.pulled, opts)
	return f.pullErr
}

func (f *fakeWorktree) RootDir() string {
	return f.rootDir
}

func (f *fakeWorktree) UpdateSubmodules(context.Context) error {
	f.submodulesRun = true
	return f.submodulesErr
}

func (f *fakeWorktree) RemovedLines(_ context.Context, path string) ([]int, bool, error) {
	if f.removedLinesErr != nil {
		return nil, false, f.removedLinesErr
	}
	return f.removedLines[path], f.removedBinary[path], nil
}

func (f *fakeWorktree) Blame(_ context.Context, _ string, path string) ([]git.BlameLine, error) {
	return f.blame[path], f.blameErr
}

func (f *fakeWorktree) DiffPatch(context.Context, ...string) (string, error) {
	return f.diffPatch, f.diffPatchErr
}

func (f *fakeWorktree) CheckoutFiles(_ context.Context, req *git.CheckoutFilesRequest) error {
	f.checkedOutFiles = append(f.checkedOutFiles, req)
	return f.checkoutFilesErr
}

func (f *fakeWorktree) ApplyPatch(_ context.Context, patch string) error {
	f.appliedPatches = append(f.appliedPatches, patch)
	return f.applyPatchErr
}

// fakeScanner implements Scanner with canned results.
type fakeScanner struct {
	info     *scan.RepoInfo
	scanErr  error
	weave    *weave.Weave
	weaveErr error
}

func (f *fakeScanner) Scan(context.Context) (*scan.RepoInfo, error) {
	return f.info, f.scanErr
}

func (f *fakeScanner) BuildWeave(context.Context, *scan.RepoInfo) (*weave.Weave, error) {
	return f.weave, f.weaveErr
}

// fakeDriver implements Driver, recording the last request it ran.
type fakeDriver struct {
	err     error
	lastReq *rebase.Request
}

func (f *fakeDriver) Run(_ context.Context, req rebase.Request) error {
	f.lastReq = &req
	return f.err
}

func deliberate() *git.RebaseInterruptKind {
	k := git.RebaseInterruptDeliberate
	return &k
}
