package weave

import (
	"fmt"
	"strings"
)

// Serialize renders w as an interactive-rebase todo script per spec
// §4.3. Output depends only on w's contents: no timestamps, no
// locale-dependent formatting, no random suffixes, so two calls on
// equal Weaves produce byte-identical scripts.
func Serialize(w *Weave) string {
	var b strings.Builder

	b.WriteString("label onto\n")

	for _, s := range w.Sections {
		b.WriteString("\n")
		fmt.Fprintf(&b, "reset %s\n", s.ResetTarget)

		var pending []string
		for _, c := range s.Commits {
			if c.Command != Fixup {
				pending = flush(&b, pending)
			}
			writeCommitLine(&b, c)
			pending = append(pending, c.UpdateRefs...)
		}
		flush(&b, pending)

		fmt.Fprintf(&b, "label %s\n", s.Label)
		for _, name := range s.BranchNames {
			fmt.Fprintf(&b, "update-ref refs/heads/%s\n", name)
		}
	}

	b.WriteString("\n")
	b.WriteString("reset onto\n")

	var pending []string
	for _, e := range w.Integration {
		switch e.Kind {
		case KindPick:
			if e.Pick.Command != Fixup {
				pending = flush(&b, pending)
			}
			writeCommitLine(&b, e.Pick)
			pending = append(pending, e.Pick.UpdateRefs...)
		case KindMerge:
			pending = flush(&b, pending)
			if e.MergeOriginalOid != "" {
				fmt.Fprintf(&b, "merge -C %s %s # Merge branch '%s'\n",
					abbrev(e.MergeOriginalOid), e.MergeLabel, e.MergeLabel)
			} else {
				fmt.Fprintf(&b, "merge %s # Merge branch '%s'\n", e.MergeLabel, e.MergeLabel)
			}
		}
	}
	flush(&b, pending)

	return b.String()
}

// flush emits an update-ref line for each pending ref, in order, and
// returns the now-empty pending slice. Deferring update-ref until the
// next non-fixup directive (or the end of a section/line) ensures a
// ref tracks the final, post-fixup hash rather than a pre-fixup one.
func flush(b *strings.Builder, pending []string) []string {
	for _, name := range pending {
		fmt.Fprintf(b, "update-ref refs/heads/%s\n", name)
	}
	return pending[:0]
}

func writeCommitLine(b *strings.Builder, c CommitEntry) {
	hash := c.ShortHash
	if hash == "" {
		hash = c.Oid
	}
	fmt.Fprintf(b, "%s %s %s\n", c.Command, hash, c.Summary)
}

// abbrev returns a 7-character prefix of oid, matching the
// repository's common short-hash length (spec §3).
func abbrev(oid string) string {
	if len(oid) <= 7 {
		return oid
	}
	return oid[:7]
}
