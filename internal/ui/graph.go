// Package ui renders the woven repository state as a scriptable,
// colorized UTF-8 box-drawing graph, for `loom status` and `loom log`.
package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/scan"
	"go.abhg.dev/loom/internal/shortid"
)

// sectionKind discriminates one row group of the rendered graph,
// mirroring the original implementation's Section enum.
type sectionKind int

const (
	sectionWorking sectionKind = iota
	sectionBranch
	sectionLoose
	sectionUpstream
)

type section struct {
	kind    sectionKind
	name    string
	commits []git.CommitInfo
}

// Render builds the full status/log graph for info, mirroring
// original_source/src/graph.rs's render: group commits into working
// changes, per-branch, loose, and upstream sections, then draw them
// top to bottom with box-drawing glyphs. Each branch, commit, and the
// unstaged pseudo-entity is annotated with its assigned short ID so
// the caller can act on whatever the graph just showed them.
func Render(info *scan.RepoInfo, useColor bool) string {
	assigns := shortid.Assign(info.Entities())
	ids := idIndex(assigns)

	sections := buildSections(info)
	return renderSections(sections, info, ids, useColor)
}

// idIndex maps each entity's identity (branch name, commit oid, or the
// empty string for the unstaged pseudo-entity) to its assigned short
// ID, for O(1) badge lookup while rendering.
func idIndex(assigns []shortid.Assignment) map[string]string {
	m := make(map[string]string, len(assigns))
	for _, a := range assigns {
		switch a.Entity.Kind {
		case shortid.KindUnstaged:
			m[""] = a.ID
		case shortid.KindBranch, shortid.KindCommit, shortid.KindFile:
			m[a.Entity.Value] = a.ID
		}
	}
	return m
}

// buildSections groups info.Commits (already newest-first, first-parent
// only) into sections: working changes first, then a section per
// branch tip or run of loose commits in encounter order, then the
// upstream marker last.
func buildSections(info *scan.RepoInfo) []section {
	branchAt := make(map[git.Hash]string, len(info.BranchTips))
	for name, tip := range info.BranchTips {
		branchAt[tip] = name
	}

	sections := []section{{kind: sectionWorking}}

	commits := info.Commits
	for i := 0; i < len(commits); {
		if name, ok := branchAt[commits[i].Oid]; ok {
			j := i + 1
			for j < len(commits) {
				if _, ok := branchAt[commits[j].Oid]; ok {
					break
				}
				j++
			}
			sections = append(sections, section{kind: sectionBranch, name: name, commits: commits[i:j]})
			i = j
			continue
		}

		j := i + 1
		for j < len(commits) {
			if _, ok := branchAt[commits[j].Oid]; ok {
				break
			}
			j++
		}
		sections = append(sections, section{kind: sectionLoose, commits: commits[i:j]})
		i = j
	}

	sections = append(sections, section{kind: sectionUpstream})
	return sections
}

// isStackedWithNext reports whether sections[idx] is a branch section
// whose last commit is the parent of the first commit of the next
// branch section — the condition under which the renderer draws a
// continuous connector instead of closing the stack off.
func isStackedWithNext(sections []section, idx int) bool {
	if sections[idx].kind != sectionBranch || idx+1 >= len(sections) {
		return false
	}
	next := sections[idx+1]
	if next.kind != sectionBranch || len(sections[idx].commits) == 0 || len(next.commits) == 0 {
		return false
	}

	last := sections[idx].commits[len(sections[idx].commits)-1]
	nextFirst := next.commits[0]
	for _, p := range last.Parents {
		if p == nextFirst.Oid {
			return true
		}
	}
	return false
}

func renderSections(sections []section, info *scan.RepoInfo, ids map[string]string, useColor bool) string {
	var out strings.Builder
	lastIdx := len(sections) - 1

	for idx, s := range sections {
		switch s.kind {
		case sectionWorking:
			out.WriteString(glyph(useColor, "╭─ ", color.FgCyan))
			out.WriteString(badgeBracket(useColor, "unstaged changes", ids[""]))
			out.WriteString("\n")
			if len(info.WorkingChanges) == 0 {
				out.WriteString("│   no changes\n")
			} else {
				for _, c := range info.WorkingChanges {
					out.WriteString(fmt.Sprintf("│   %c%c %s\n", c.IndexStatus, c.WorktreeStatus, c.Path))
				}
			}
			out.WriteString("│\n")

		case sectionBranch:
			prevStacked := idx > 0 && isStackedWithNext(sections, idx-1)
			nextStacked := isStackedWithNext(sections, idx)

			if prevStacked {
				out.WriteString("│├─ ")
			} else {
				out.WriteString("│╭─ ")
			}
			out.WriteString(badgeBracket(useColor, s.name, ids[s.name]))
			out.WriteString("\n")

			for _, c := range s.commits {
				out.WriteString(fmt.Sprintf("│●   %s\n", commitLine(useColor, c, ids)))
			}

			if nextStacked {
				out.WriteString("││\n")
			} else {
				out.WriteString("├╯\n")
				if idx < lastIdx {
					out.WriteString("│\n")
				}
			}

		case sectionLoose:
			for _, c := range s.commits {
				out.WriteString(fmt.Sprintf("●   %s\n", commitLine(useColor, c, ids)))
			}
			if idx < lastIdx {
				out.WriteString("│\n")
			}

		case sectionUpstream:
			renderUpstream(&out, info, useColor)
		}
	}

	return out.String()
}

func commitLine(useColor bool, c git.CommitInfo, ids map[string]string) string {
	hash := c.Oid.Short()
	if id, ok := ids[c.Oid.String()]; ok {
		hash = hash + " [" + id + "]"
	}
	if useColor {
		hash = color.New(color.FgYellow).Sprint(hash)
	}
	age := humanize.Time(c.AuthorTime)
	if useColor {
		age = color.New(color.FgHiBlack).Sprint("(" + age + ")")
	} else {
		age = "(" + age + ")"
	}
	return fmt.Sprintf("%s %s %s", hash, c.Summary, age)
}

func renderUpstream(out *strings.Builder, info *scan.RepoInfo, useColor bool) {
	base := info.MergeBaseCommit
	baseHash := base.Oid.Short()
	baseAge := humanize.Time(base.AuthorTime)

	if info.Ahead > 0 {
		plural := "s"
		if info.Ahead == 1 {
			plural = ""
		}
		out.WriteString(fmt.Sprintf("│●  [%s] ⏫ %d new commit%s\n", info.Upstream, info.Ahead, plural))
		out.WriteString(fmt.Sprintf("├╯ %s (common base) %s %s\n", baseHash, baseAge, base.Summary))
		return
	}

	out.WriteString(fmt.Sprintf("● %s (upstream) [%s] %s\n", baseHash, info.Upstream, base.Summary))
}

func glyph(useColor bool, s string, attr color.Attribute) string {
	if !useColor {
		return s
	}
	return color.New(attr).Sprint(s)
}

func badgeBracket(useColor bool, name, id string) string {
	label := "[" + name + "]"
	if useColor {
		label = color.New(color.FgCyan, color.Bold).Sprint(label)
	}
	if id == "" {
		return label
	}
	badge := " (" + id + ")"
	if useColor {
		badge = color.New(color.FgMagenta).Sprint(badge)
	}
	return label + badge
}
