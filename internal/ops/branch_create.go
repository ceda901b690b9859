package ops

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
)

// BranchCreateRequest requests a new branch. An empty Target creates
// the branch at the integration branch's merge-base, ready to receive
// its first commit via the Commit operation's empty-section arm.
type BranchCreateRequest struct {
	Name   string
	Target string
}

// BranchCreateHandler implements branch creation.
type BranchCreateHandler struct {
	*Session
}

// Create runs the branch-creation operation. Unlike the other
// operations in this package, creating a branch at an arbitrary
// commit never touches the Weave: an empty-section branch is simply a
// ref pinned at the merge-base, and the scanner already treats it as
// weave-visible by that rule alone.
func (h *BranchCreateHandler) Create(ctx context.Context, req *BranchCreateRequest) error {
	if req.Name == "" {
		return &loomerr.DomainRuleError{Msg: "branch: name must not be empty"}
	}

	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if req.Name == info.Branch {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("branch: %q is the integration branch", req.Name)}
	}
	for _, b := range info.Branches {
		if b == req.Name {
			return &loomerr.DomainRuleError{Msg: fmt.Sprintf("branch: %q already exists", req.Name)}
		}
	}

	head := info.MergeBaseOid.String()
	if req.Target != "" {
		target, err := ResolveTarget(ctx, h.Repository, info, req.Target)
		if err != nil {
			return err
		}
		switch target.Kind {
		case TargetBranch:
			head = target.Branch
		case TargetCommit:
			head = target.Commit.String()
		default:
			return &loomerr.DomainRuleError{Msg: fmt.Sprintf("branch: %q cannot be a branch target", target)}
		}
	}

	if err := h.Repository.CreateBranch(ctx, git.CreateBranchRequest{Name: req.Name, Head: head}); err != nil {
		return fmt.Errorf("create branch %s: %w", req.Name, err)
	}
	return nil
}
