package ops

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cli/browser"
	"go.abhg.dev/loom/internal/config"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
)

// Remote-type dispatch values, mirroring loom.remote-type.
const (
	remoteTypePlain  = "plain"
	remoteTypeGitHub = "github"
	remoteTypeGerrit = "gerrit"
)

// PushRequest requests that the integration branch (or an explicit
// woven branch) be pushed to its upstream remote.
type PushRequest struct {
	// Branch overrides which branch to push. Empty pushes the
	// current integration branch.
	Branch string
}

// PushHandler implements the Push operation's remote-type dispatch:
// plain, GitHub, or Gerrit, per SPEC_FULL.md's supplemented push
// dispatch.
type PushHandler struct {
	*Session

	// Config supplies loom.remote-type's override, when set.
	Config *config.Config
}

// Push runs the Push operation.
func (h *PushHandler) Push(ctx context.Context, req *PushRequest) error {
	info, err := h.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	branch := req.Branch
	if branch == "" {
		branch = info.Branch
	}

	remote, upstreamBranch, ok := strings.Cut(info.Upstream, "/")
	if !ok {
		return &loomerr.DomainRuleError{Msg: fmt.Sprintf("push: cannot determine remote from upstream %q", info.Upstream)}
	}

	// An explicit branch is pushed by name; otherwise no refspec is
	// given and git's own push configuration picks the ref.
	src := "HEAD"
	var refspec git.Refspec
	if req.Branch != "" {
		src = req.Branch
		refspec = git.Refspec(req.Branch)
	}

	switch h.resolveRemoteType(ctx, remote) {
	case remoteTypeGerrit:
		gerritRefspec := git.Refspec(fmt.Sprintf("%s:refs/for/%s", src, upstreamBranch))
		if err := h.Worktree.Push(ctx, git.PushOptions{Remote: remote, Refspec: gerritRefspec}); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		return nil

	case remoteTypeGitHub:
		if err := h.Worktree.Push(ctx, git.PushOptions{Remote: remote, Refspec: refspec}); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		h.openCompareURL(ctx, remote, upstreamBranch, branch)
		return nil

	default:
		if err := h.Worktree.Push(ctx, git.PushOptions{Remote: remote, Refspec: refspec}); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		return nil
	}
}

func (h *PushHandler) resolveRemoteType(ctx context.Context, remote string) string {
	if h.Config != nil && h.Config.RemoteType != "" {
		return h.Config.RemoteType
	}
	if url, err := h.Repository.RemoteURL(ctx, remote); err == nil && strings.Contains(url, "github.com") {
		return remoteTypeGitHub
	}
	if h.hasGerritHook() {
		return remoteTypeGerrit
	}
	return remoteTypePlain
}

// hasGerritHook detects Gerrit's commit-msg hook, which it installs to
// append Change-Id trailers -- the same signal the original
// implementation used to auto-detect a Gerrit remote.
func (h *PushHandler) hasGerritHook() bool {
	data, err := os.ReadFile(filepath.Join(h.Worktree.GitDir(), "hooks", "commit-msg"))
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte("gerrit"))
}

// openCompareURL best-effort opens the GitHub compare view for the
// just-pushed branch. Failure to detect or open it is not an error:
// the push itself already succeeded.
func (h *PushHandler) openCompareURL(ctx context.Context, remote, base, branch string) {
	url, err := h.Repository.RemoteURL(ctx, remote)
	if err != nil {
		return
	}
	compareURL, ok := githubCompareURL(url, base, branch)
	if !ok {
		return
	}
	if err := browser.OpenURL(compareURL); err != nil {
		h.Log.Debug("failed to open browser", "error", err)
	}
}

func githubCompareURL(remoteURL, base, branch string) (string, bool) {
	owner, repo, ok := parseGitHubOwnerRepo(remoteURL)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s", owner, repo, base, branch), true
}

func parseGitHubOwnerRepo(remoteURL string) (owner, repo string, ok bool) {
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	switch {
	case strings.HasPrefix(remoteURL, "git@github.com:"):
		remoteURL = strings.TrimPrefix(remoteURL, "git@github.com:")
	case strings.Contains(remoteURL, "github.com/"):
		_, rest, found := strings.Cut(remoteURL, "github.com/")
		if !found {
			return "", "", false
		}
		remoteURL = rest
	default:
		return "", "", false
	}

	owner, repo, ok = strings.Cut(remoteURL, "/")
	return owner, repo, ok
}
