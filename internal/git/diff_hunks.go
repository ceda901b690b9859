package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// RemovedLines reports the line numbers, in the HEAD revision of path,
// that the working tree's current changes remove or replace. It
// parses the "-U0" hunk headers of a HEAD-to-worktree diff rather than
// the full patch body, since Absorb only needs the old-side line
// numbers to feed into a blame lookup.
//
// Binary reports true (with removed always nil) when the file is
// detected as binary.
func (w *Worktree) RemovedLines(ctx context.Context, path string) (removed []int, binary bool, err error) {
	out, err := w.gitCmd(ctx, "diff", "--no-color", "-U0", "HEAD", "--", path).OutputString(w.exec)
	if err != nil {
		return nil, false, fmt.Errorf("git diff: %w", err)
	}

	if strings.Contains(out, "Binary files") {
		return nil, true, nil
	}

	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "@@ -") {
			continue
		}

		rest := line[len("@@ -"):]
		end := strings.Index(rest, " @@")
		if end < 0 {
			continue
		}
		oldRange, _, _ := strings.Cut(rest[:end], " ")

		startStr, countStr, hasCount := strings.Cut(oldRange, ",")
		start, convErr := strconv.Atoi(startStr)
		if convErr != nil {
			continue
		}

		count := 1
		if hasCount {
			count, convErr = strconv.Atoi(countStr)
			if convErr != nil {
				continue
			}
		}
		if count == 0 {
			// Pure addition at this hunk: nothing removed.
			continue
		}

		for l := start; l < start+count; l++ {
			removed = append(removed, l)
		}
	}

	return removed, false, nil
}
