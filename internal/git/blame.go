package git

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BlameLine attributes a single line of a blamed file to the commit
// that last touched it.
type BlameLine struct {
	// Commit is the oid that introduced or last changed the line.
	Commit Hash

	// Line is the 1-based line number in the blamed revision.
	Line int
}

// Blame reports, for every line currently in path at revision rev,
// the commit that last touched it. Absorb uses this to map the
// removed side of a diff hunk back to the commit whose lines it
// edited.
func (w *Worktree) Blame(ctx context.Context, rev, path string) ([]BlameLine, error) {
	args := []string{"blame", "--porcelain", rev, "--", path}

	cmd := w.gitCmd(ctx, args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("git blame: %w", err)
	}
	if err := cmd.Start(w.exec); err != nil {
		return nil, fmt.Errorf("start git blame: %w", err)
	}

	lines, err := parseBlamePorcelain(pipe)
	if err != nil {
		return nil, fmt.Errorf("parse blame: %w", err)
	}

	if err := cmd.Wait(w.exec); err != nil {
		return nil, fmt.Errorf("git blame: %w", err)
	}

	return lines, nil
}

// parseBlamePorcelain reads 'git blame --porcelain' output.
//
// The format repeats, for each line of the blamed file, a header of
// "<oid> <orig-line> <final-line> [<num-lines>]" followed by metadata
// lines (author, committer, summary, etc.) the first time an oid is
// seen, then a line starting with a tab holding the file content.
// Subsequent occurrences of an already-seen oid skip straight to the
// header and the tab-prefixed content line.
func parseBlamePorcelain(r io.Reader) ([]BlameLine, error) {
	var lines []BlameLine

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var pending *BlameLine
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "\t") {
			if pending != nil {
				lines = append(lines, *pending)
				pending = nil
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= 3 && isHexHash(fields[0]) {
			finalLine, err := strconv.Atoi(fields[2])
			if err != nil {
				continue
			}
			pending = &BlameLine{Commit: Hash(fields[0]), Line: finalLine}
		}
		// Other metadata lines (author, committer, summary,
		// previous, filename, boundary) are ignored; we only need
		// the oid-to-line mapping.
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func isHexHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
