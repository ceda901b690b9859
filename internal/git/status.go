package git

import (
	"context"
	"fmt"
	"iter"

	"go.abhg.dev/loom/internal/scanutil"
)

// WorkingChange is a single file with a pending change in the
// working tree or index, as reported by 'git status'.
type WorkingChange struct {
	// IndexStatus is the status of the file in the index,
	// relative to HEAD ('A', 'M', 'D', 'R', 'C', or ' ' if unchanged).
	IndexStatus byte

	// WorktreeStatus is the status of the file in the working tree,
	// relative to the index ('M', 'D', '?' for untracked, or ' ').
	WorktreeStatus byte

	// Path to the file, relative to the repository root.
	Path string
}

// Status reports every file with a pending change: staged, unstaged,
// or untracked.
func (w *Worktree) Status(ctx context.Context) ([]WorkingChange, error) {
	cmd := w.gitCmd(ctx,
		"status",
		"--porcelain=v1",
		"--untracked-files=all",
		"-z",
	)

	var changes []WorkingChange
	next, stop := iter.Pull2(cmd.Scan(w.exec, scanutil.SplitNull))
	defer stop()

	for {
		entry, err, ok := next()
		if !ok {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("git status: %w", err)
		}
		if len(entry) < 3 {
			continue
		}

		x, y := entry[0], entry[1]
		path := string(entry[3:])
		changes = append(changes, WorkingChange{
			IndexStatus:    x,
			WorktreeStatus: y,
			Path:           path,
		})

		// A rename or copy is followed by the original path as a
		// second NUL-terminated field; consume and discard it.
		if x == 'R' || x == 'C' {
			if _, _, ok := next(); !ok {
				break
			}
		}
	}

	return changes, nil
}
