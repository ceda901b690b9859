package ops

import (
	"context"
	"fmt"
	"strings"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
)

// InitRequest requests a new integration branch. Upstream overrides
// auto-detection; when empty, DetectUpstream's result is used, failing
// if more than one candidate exists and none was chosen for the
// caller.
type InitRequest struct {
	Name     string
	Upstream string
}

// InitHandler implements the Init operation, per SPEC_FULL.md's
// supplemented `loom init` (original_source/src/init.rs).
type InitHandler struct {
	*Session
}

// Init creates req.Name (default "loom") tracking the resolved
// upstream and switches to it.
func (h *InitHandler) Init(ctx context.Context, req *InitRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "loom"
	}

	if !h.Repository.ValidateBranchName(ctx, name) {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("init: %q is not a valid branch name", name)}
	}

	for b, err := range h.Repository.LocalBranches(ctx, nil) {
		if err != nil {
			return fmt.Errorf("list branches: %w", err)
		}
		if b.Name == name {
			return &loomerr.DomainRuleError{Msg: fmt.Sprintf("init: branch %q already exists", name)}
		}
	}

	upstream := req.Upstream
	if upstream == "" {
		detected, candidates, err := h.DetectUpstream(ctx)
		if err != nil {
			return err
		}
		if detected == "" {
			return &loomerr.AmbiguousTargetError{Target: "upstream", Candidates: candidates}
		}
		upstream = detected
	}

	if err := h.Repository.CreateBranch(ctx, git.CreateBranchRequest{Name: name, Head: upstream}); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	if err := h.Repository.SetBranchUpstream(ctx, name, upstream); err != nil {
		return fmt.Errorf("set upstream %s -> %s: %w", name, upstream, err)
	}
	if err := h.Worktree.Checkout(ctx, name); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}

	h.Log.Infof("Initialized integration branch %q tracking %s", name, upstream)
	return nil
}

// DetectUpstream implements original_source/src/init.rs's
// detect_upstream: the current branch's configured upstream, if any;
// otherwise each remote's HEAD symref or a main/master/develop scan.
// It returns a non-empty upstream only when exactly one candidate was
// found; otherwise it returns every candidate found so the caller (the
// CLI, which owns interactive prompting) can ask the user to pick one.
func (h *InitHandler) DetectUpstream(ctx context.Context) (upstream string, candidates []string, err error) {
	if branch, err := h.Worktree.CurrentBranch(ctx); err == nil {
		if up, err := h.Repository.BranchUpstream(ctx, branch); err == nil && up != "" {
			return up, nil, nil
		}
	}

	remotes, err := h.Repository.ListRemotes(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list remotes: %w", err)
	}

	for _, remote := range remotes {
		if def, err := h.Repository.RemoteDefaultBranch(ctx, remote); err == nil && def != "" {
			candidates = append(candidates, remote+"/"+def)
			continue
		}
		for _, name := range []string{"main", "master", "develop"} {
			if _, err := h.Repository.PeelToCommit(ctx, remote+"/"+name); err == nil {
				candidates = append(candidates, remote+"/"+name)
				break
			}
		}
	}

	switch len(candidates) {
	case 0:
		return "", nil, &loomerr.DomainRuleError{Msg: "init: no remote tracking branches found; run 'git remote add origin <url>' first"}
	case 1:
		return candidates[0], nil, nil
	default:
		return "", candidates, nil
	}
}
