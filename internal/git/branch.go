package git

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// LocalBranch is a single local branch reported by [Repository.LocalBranches].
type LocalBranch struct {
	// Name is the branch's short name (e.g. "main").
	Name string

	// Worktree is the absolute path of the worktree the branch is
	// checked out in, or empty if it isn't checked out anywhere.
	Worktree string
}

// LocalBranchesOptions customizes [Repository.LocalBranches].
type LocalBranchesOptions struct {
	// Sort is a 'git for-each-ref'-style sort key (e.g.
	// "committerdate"). Empty uses git's default (refname) order.
	Sort string

	// Patterns, if non-empty, restricts the listing to branches
	// matching any of these glob patterns.
	Patterns []string
}

// LocalBranches lists local branches in the repository, in the order
// reported by 'git branch' (refname order unless Sort overrides it).
func (r *Repository) LocalBranches(ctx context.Context, opts *LocalBranchesOptions) iter.Seq2[LocalBranch, error] {
	return func(yield func(LocalBranch, error) bool) {
		args := []string{"branch", "--list", "--format=%(refname:short)%00%(worktreepath)"}
		if opts != nil && opts.Sort != "" {
			args = append(args, "--sort="+opts.Sort)
		}
		if opts != nil {
			args = append(args, opts.Patterns...)
		}

		cmd := r.gitCmd(ctx, args...)
		out, err := cmd.StdoutPipe()
		if err != nil {
			yield(LocalBranch{}, fmt.Errorf("git branch: %w", err))
			return
		}

		if err := cmd.Start(r.exec); err != nil {
			yield(LocalBranch{}, fmt.Errorf("start git branch: %w", err))
			return
		}

		scan := bufio.NewScanner(out)
		for scan.Scan() {
			line := scan.Text()
			if line == "" {
				continue
			}

			name, worktree, _ := strings.Cut(line, "\x00")
			if !yield(LocalBranch{Name: name, Worktree: worktree}, nil) {
				_ = cmd.Wait(r.exec)
				return
			}
		}

		if err := scan.Err(); err != nil {
			yield(LocalBranch{}, fmt.Errorf("read output: %w", err))
			return
		}

		if err := cmd.Wait(r.exec); err != nil {
			yield(LocalBranch{}, fmt.Errorf("git branch: %w", err))
		}
	}
}

// ErrDetachedHead indicates that the repository is
// unexpectedly in detached HEAD state.
var ErrDetachedHead = errors.New("in detached HEAD state")

// CurrentBranch reports the current branch name.
// It returns [ErrDetachedHead] if the repository is in detached HEAD state.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.gitCmd(ctx, "branch", "--show-current").
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		// Per man git-branch, --show-current returns an empty string
		// if the repository is in detached HEAD state.
		return "", ErrDetachedHead
	}
	return name, nil
}

// CreateBranchRequest specifies the parameters for creating a new branch.
type CreateBranchRequest struct {
	// Name of the branch.
	Name string

	// Head is the commitish to start the branch from.
	// Defaults to the current HEAD.
	Head string
}

// CreateBranch creates a new branch in the repository.
// This operation fails if a branch with the same name already exists.
func (r *Repository) CreateBranch(ctx context.Context, req CreateBranchRequest) error {
	args := []string{"branch", req.Name}
	if req.Head != "" {
		args = append(args, req.Head)
	}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// DetachHead detaches the HEAD from the current branch
// while staying at the same commit.
func (r *Repository) DetachHead(ctx context.Context, commitish string) error {
	args := []string{"checkout", "--detach"}
	if len(commitish) > 0 {
		args = append(args, commitish)
	}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}
	return nil
}

// Checkout switches to the specified branch.
// If the branch does not exist, it returns an error.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if err := r.gitCmd(ctx, "checkout", branch).Run(r.exec); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}
	return nil
}

// BranchDeleteOptions specifies options for deleting a branch.
type BranchDeleteOptions struct {
	// Force specifies that a branch should be deleted
	// even if it has unmerged changes.
	Force bool
}

// DeleteBranch deletes a branch from the repository.
// It returns an error if the branch does not exist,
// or if it has unmerged changes and the Force option is not set.
func (r *Repository) DeleteBranch(
	ctx context.Context,
	branch string,
	opts BranchDeleteOptions,
) error {
	args := []string{"branch", "--delete"}
	if opts.Force {
		args = append(args, "--force")
	}
	args = append(args, branch)

	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// ForceUpdateBranch moves an existing branch's tip to the given
// commitish, creating the branch if it does not already exist.
// This wraps 'git branch --force <name> <commitish>'.
//
// The Rebase Driver's --update-refs flushing updates branch tips by
// replaying them through the rebase itself; this method exists for
// operations (branch creation onto an arbitrary target, reassignment
// after a drop) that move a ref outside of a rebase.
func (r *Repository) ForceUpdateBranch(ctx context.Context, name, commitish string) error {
	if err := r.gitCmd(ctx, "branch", "--force", name, commitish).Run(r.exec); err != nil {
		return fmt.Errorf("git branch --force: %w", err)
	}
	return nil
}

// RenameBranchRequest specifies the parameters for renaming a branch.
type RenameBranchRequest struct {
	// OldName is the current name of the branch.
	OldName string

	// NewName is the new name for the branch.
	NewName string
}

// RenameBranch renames a branch in the repository.
func (r *Repository) RenameBranch(ctx context.Context, req RenameBranchRequest) error {
	args := []string{"branch", "--move", req.OldName, req.NewName}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// BranchUpstream reports the upstream branch of a local branch.
// Returns [ErrNotExist] if the branch has no upstream configured.
func (r *Repository) BranchUpstream(ctx context.Context, branch string) (string, error) {
	upstream, err := r.gitCmd(ctx,
		"rev-parse",
		"--abbrev-ref",
		"--verify",
		"--quiet",
		"--end-of-options",
		branch+"@{upstream}",
	).OutputString(r.exec)
	if err != nil {
		return "", ErrNotExist
	}
	return upstream, nil
}

// SetBranchUpstream sets the upstream ref for a local branch.
// The upstream must be in the form "remote/branch".
// An empty upstream removes the branch's upstream configuration.
func (r *Repository) SetBranchUpstream(
	ctx context.Context,
	branch, upstream string,
) error {
	args := []string{"branch"}
	if upstream == "" {
		args = append(args, "--unset-upstream")
	} else {
		args = append(args, "--set-upstream-to="+upstream)
	}
	args = append(args, branch)
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// ValidateBranchName reports whether name is a well-formed branch name,
// per 'git check-ref-format --branch'.
func (r *Repository) ValidateBranchName(ctx context.Context, name string) bool {
	err := r.gitCmd(ctx, "check-ref-format", "--branch", name).Run(r.exec)
	return err == nil
}
