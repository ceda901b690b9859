// Package rebase implements the Rebase Driver: it executes a
// serialized todo script through the VCS's own interactive-rebase
// engine by reinvoking the current executable as the sequence editor,
// per spec §4.4.
package rebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/loomerr"
	"go.abhg.dev/loom/internal/osutil"
	"go.abhg.dev/loom/internal/silog"
)

// WriteTodoFlag is the flag name internal-write-todo expects: the path
// to the prepared todo file that should replace the one git presents.
const WriteTodoFlag = "--source"

// InternalWriteTodoCmd is the subcommand name the driver reinvokes
// itself with as GIT_SEQUENCE_EDITOR.
const InternalWriteTodoCmd = "internal-write-todo"

// Request describes one rebase replay.
type Request struct {
	// Op names the operation driving this rebase, for error context
	// (e.g. "absorb", "drop").
	Op string

	// Upstream is the oid that bounds the replayed range: commits
	// after it (exclusive) up to HEAD are rewritten. Empty means
	// replay from the root.
	Upstream git.Hash

	// Todo is the serialized todo script to replay, as produced by
	// [go.abhg.dev/loom/internal/weave.Serialize].
	Todo string
}

// worktree is the subset of *git.Worktree the driver needs to run and,
// on failure, abort a rebase.
type worktree interface {
	RebaseSequence(ctx context.Context, req git.RebaseSequenceRequest) error
	RebaseAbort(ctx context.Context) error
}

var _ worktree = (*git.Worktree)(nil)

// Driver executes todo scripts via git's interactive-rebase engine.
type Driver struct {
	wt  worktree
	log *silog.Logger
}

// New builds a Driver bound to the given worktree.
func New(wt *git.Worktree, log *silog.Logger) *Driver {
	return &Driver{wt: wt, log: log}
}

// osExecutable resolves the path to the running executable. Replaced
// in tests via [go.abhg.dev/testing/stub.Func].
var osExecutable = os.Executable

// Run writes req.Todo to a temporary file, then drives a rebase that
// replays it end-to-end. If the rebase fails, it is aborted and the
// error is returned as a [loomerr.ConflictError]; the repository is
// left in its original state, matching git's own abort semantics for
// the autostash it created. Failures before the rebase starts
// (resolving the executable, creating or writing the todo file) are
// returned as a [loomerr.GitFailureError].
func (d *Driver) Run(ctx context.Context, req Request) error {
	selfExe, err := osExecutable()
	if err != nil {
		return &loomerr.GitFailureError{Op: "resolve self executable", Err: err}
	}

	todoPath, err := osutil.TempFilePath("", "loom-todo-")
	if err != nil {
		return &loomerr.GitFailureError{Op: "create todo file", Err: err}
	}
	defer func() { _ = os.Remove(todoPath) }()

	if err := os.WriteFile(todoPath, []byte(req.Todo), 0o600); err != nil {
		return &loomerr.GitFailureError{Op: "write todo file", Err: err}
	}

	sequenceEditor := fmt.Sprintf("%s %s %s %s",
		shellQuote(selfExe), InternalWriteTodoCmd, WriteTodoFlag, shellQuote(todoPath))

	d.log.Debug("Driving rebase", "op", req.Op, "upstream", req.Upstream, "todoPath", todoPath)

	if err := d.wt.RebaseSequence(ctx, git.RebaseSequenceRequest{
		Upstream:       req.Upstream.String(),
		Root:           req.Upstream == "",
		SequenceEditor: sequenceEditor,
	}); err != nil {
		if abortErr := d.wt.RebaseAbort(ctx); abortErr != nil {
			err = errors.Join(err, fmt.Errorf("abort rebase: %w", abortErr))
		}
		return &loomerr.ConflictError{Op: req.Op, Err: err}
	}

	return nil
}

// shellQuote wraps s in single quotes for safe use inside a POSIX
// shell command string, escaping any embedded single quote. This
// mirrors the original implementation's use of shell_escape::unix;
// github.com/buildkite/shellwords (already used elsewhere in this
// module) only splits shell words, it has no quoting counterpart, so
// this one small escaper is hand-rolled rather than imported.
func shellQuote(s string) string {
	needsQuote := len(s) == 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.', r == '/':
			// safe unquoted
		default:
			needsQuote = true
		}
	}
	if !needsQuote {
		return s
	}

	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\\', '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
