package git

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"go.abhg.dev/loom/internal/scanutil"
)

// CommitInfo is a single commit's identity, parents, and subject —
// everything the Repo Scanner needs to decompose a first-parent line
// into Weave sections without re-reading each commit individually.
type CommitInfo struct {
	// Oid is the commit's full object id.
	Oid Hash

	// Parents holds the commit's parent oids, in order.
	// Empty for a root commit; two or more for a merge.
	Parents []Hash

	// Summary is the first line of the commit message.
	Summary string

	// AuthorTime is when the commit was authored, used to render a
	// relative age in status/log output.
	AuthorTime time.Time
}

// IsMerge reports whether the commit has two or more parents.
func (c CommitInfo) IsMerge() bool { return len(c.Parents) >= 2 }

// WalkCommits returns commits reachable from start but not stop (if
// stop is non-empty), newest first, each carrying its full parent
// list. Merge commits are included, as they are in ListCommits —
// callers that need only the first-parent line should filter on
// CommitInfo.IsMerge themselves, since distinguishing first- from
// second-parent commits is exactly the scanner's job.
func (r *Repository) WalkCommits(ctx context.Context, start, stop string) iter.Seq2[CommitInfo, error] {
	return func(yield func(CommitInfo, error) bool) {
		args := []string{"rev-list", `--format=%H` + "\x01" + `%P` + "\x01" + `%at` + "\x01" + `%s` + "\x00", start}
		if stop != "" {
			args = append(args, "--not", stop)
		}
		args = append(args, "--")

		cmd := r.gitCmd(ctx, args...)
		for chunk, err := range cmd.Scan(r.exec, scanutil.SplitNull) {
			if err != nil {
				yield(CommitInfo{}, fmt.Errorf("rev-list: %w", err))
				return
			}

			raw := strings.TrimSpace(string(chunk))
			if raw == "" {
				continue
			}

			// rev-list --format prefixes each record with a
			// "commit <hash>" line ahead of the expanded format;
			// drop it.
			_, raw, _ = strings.Cut(raw, "\n")

			parts := strings.SplitN(raw, "\x01", 4)
			if len(parts) != 4 {
				yield(CommitInfo{}, fmt.Errorf("rev-list: malformed record %q", raw))
				return
			}

			var parents []Hash
			if fields := strings.Fields(parts[1]); len(fields) > 0 {
				parents = make([]Hash, len(fields))
				for i, f := range fields {
					parents[i] = Hash(f)
				}
			}

			info := CommitInfo{
				Oid:        Hash(parts[0]),
				Parents:    parents,
				AuthorTime: parseUnixTime(parts[2]),
				Summary:    parts[3],
			}
			if !yield(info, nil) {
				return
			}
		}
	}
}

// ReadCommit reads the parents and subject of a single commit.
func (r *Repository) ReadCommit(ctx context.Context, commitish string) (CommitInfo, error) {
	out, err := r.gitCmd(ctx, "log", "-1", `--format=%H`+"\x01"+`%P`+"\x01"+`%at`+"\x01"+`%s`, commitish).
		OutputString(r.exec)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("log: %w", err)
	}

	parts := strings.SplitN(out, "\x01", 4)
	if len(parts) != 4 {
		return CommitInfo{}, fmt.Errorf("log: malformed output %q", out)
	}

	var parents []Hash
	if fields := strings.Fields(parts[1]); len(fields) > 0 {
		parents = make([]Hash, len(fields))
		for i, f := range fields {
			parents[i] = Hash(f)
		}
	}

	return CommitInfo{
		Oid:        Hash(parts[0]),
		Parents:    parents,
		AuthorTime: parseUnixTime(parts[2]),
		Summary:    parts[3],
	}, nil
}

func parseUnixTime(s string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// BranchesAt returns the names of local branches whose tip is
// exactly oid.
func (r *Repository) BranchesAt(ctx context.Context, oid Hash) ([]string, error) {
	out, err := r.gitCmd(ctx, "for-each-ref",
		"--format=%(refname:short)",
		"--points-at="+oid.String(),
		"refs/heads",
	).OutputString(r.exec)
	if err != nil {
		return nil, fmt.Errorf("for-each-ref: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
