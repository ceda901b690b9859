package scan

import (
	"context"
	"fmt"

	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/weave"
)

// lookbackWindow bounds how many recent BranchesAt lookups the scanner
// caches while walking a single commit range.
const lookbackWindow = 64

// BuildWeave decomposes info's first-parent line, from HeadOid to
// MergeBaseOid, into a Weave, per the algorithm in spec §4.1.
func (s *Scanner) BuildWeave(ctx context.Context, info *RepoInfo) (*weave.Weave, error) {
	cache := newBranchLookupWindow(s.repo, lookbackWindow)
	assigned := make(map[string]bool) // branch names already placed in branch_names or update_refs

	w := weave.New(info.MergeBaseOid.String())

	oid := info.HeadOid
	for oid != info.MergeBaseOid {
		commit, err := s.repo.ReadCommit(ctx, oid.String())
		if err != nil {
			return nil, fmt.Errorf("read commit %s: %w", oid, err)
		}
		if len(commit.Parents) == 0 {
			return nil, fmt.Errorf("malformed history: %s has no parents above merge-base", oid)
		}

		switch {
		case len(commit.Parents) == 1:
			refs, err := unassignedRefs(ctx, cache, oid, assigned)
			if err != nil {
				return nil, err
			}
			entry := weave.NewPick(commitEntry(commit, refs))
			w.Integration = append(w.Integration, entry)

		default:
			tip := commit.Parents[1]
			branchNames, err := cache.At(ctx, tip)
			if err != nil {
				return nil, fmt.Errorf("branches at %s: %w", tip, err)
			}
			for _, n := range branchNames {
				assigned[n] = true
			}

			sectionCommits, err := s.walkSection(ctx, cache, tip, info.MergeBaseOid, assigned)
			if err != nil {
				return nil, err
			}

			label := sectionLabel(branchNames, tip)
			w.Sections = append(w.Sections, &weave.BranchSection{
				ResetTarget: "onto",
				Commits:     sectionCommits,
				Label:       label,
				BranchNames: branchNames,
			})
			w.Integration = append(w.Integration, weave.NewMerge(label, commit.Oid.String()))
		}

		oid = commit.Parents[0]
	}

	reverseIntegration(w.Integration)
	reverseSections(w.Sections)

	return w, nil
}

// walkSection walks the second-parent line from tip back to (exclusive)
// stop, skipping interior merge commits, and returns the section's
// commits oldest-first.
func (s *Scanner) walkSection(
	ctx context.Context,
	cache *branchLookupWindow,
	tip, stop git.Hash,
	assigned map[string]bool,
) ([]weave.CommitEntry, error) {
	var commits []weave.CommitEntry

	oid := tip
	for oid != stop {
		commit, err := s.repo.ReadCommit(ctx, oid.String())
		if err != nil {
			return nil, fmt.Errorf("read commit %s: %w", oid, err)
		}
		if len(commit.Parents) == 0 {
			return nil, fmt.Errorf("malformed history: %s has no parents above merge-base", oid)
		}

		if !commit.IsMerge() {
			refs, err := unassignedRefs(ctx, cache, oid, assigned)
			if err != nil {
				return nil, err
			}
			commits = append(commits, commitEntry(commit, refs))
		}

		oid = commit.Parents[0]
	}

	reverseCommitEntries(commits)
	return commits, nil
}

// unassignedRefs returns the branch names whose tip is oid and that
// have not yet been claimed elsewhere in the Weave, marking them
// claimed as a side effect (spec §4.1's "exclusive assignment" rule).
func unassignedRefs(
	ctx context.Context,
	cache *branchLookupWindow,
	oid git.Hash,
	assigned map[string]bool,
) ([]string, error) {
	names, err := cache.At(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("branches at %s: %w", oid, err)
	}

	var refs []string
	for _, n := range names {
		if assigned[n] {
			continue
		}
		assigned[n] = true
		refs = append(refs, n)
	}
	return refs, nil
}

func commitEntry(c git.CommitInfo, refs []string) weave.CommitEntry {
	return weave.CommitEntry{
		Oid:        c.Oid.String(),
		ShortHash:  c.Oid.Short(),
		Summary:    c.Summary,
		Command:    weave.Pick,
		UpdateRefs: refs,
	}
}

// sectionLabel picks the section's canonical label: the first
// co-located branch name, or a placeholder derived from the tip's
// short hash when the section has no branch ref at all.
func sectionLabel(branchNames []string, tip git.Hash) string {
	if len(branchNames) > 0 {
		return branchNames[0]
	}
	return "section-" + tip.Short()
}

func reverseIntegration(entries []weave.IntegrationEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

func reverseSections(sections []*weave.BranchSection) {
	for i, j := 0, len(sections)-1; i < j; i, j = i+1, j-1 {
		sections[i], sections[j] = sections[j], sections[i]
	}
}

func reverseCommitEntries(entries []weave.CommitEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
