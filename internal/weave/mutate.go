package weave

// This file implements the mutation API described in spec §4.2. Every
// method returns a freshly cloned, mutated Weave; the receiver is
// never modified. Mutations that find nothing to do are no-ops that
// still return a clone, keeping the API uniformly pure.

// DropCommit removes the commit with the given oid.
//
// If the commit is inside a section, it is removed from that
// section; if the section becomes empty, the section and its
// matching Merge entry are also removed. If the commit is a plain
// integration Pick, that entry is removed. Otherwise this is a
// no-op. Calling DropCommit twice with the same oid is idempotent.
func (w *Weave) DropCommit(oid string) *Weave {
	nw := w.Clone()

	for si, s := range nw.Sections {
		for ci, c := range s.Commits {
			if c.Oid != oid {
				continue
			}
			s.Commits = append(s.Commits[:ci], s.Commits[ci+1:]...)
			if len(s.Commits) == 0 {
				nw.removeSection(si)
			}
			return nw
		}
	}

	for i, e := range nw.Integration {
		if e.Kind == KindPick && e.Pick.Oid == oid {
			nw.Integration = append(nw.Integration[:i], nw.Integration[i+1:]...)
			return nw
		}
	}

	return nw
}

// removeSection deletes the section at index i and the Merge entry
// referencing its label.
func (nw *Weave) removeSection(i int) {
	label := nw.Sections[i].Label
	nw.Sections = append(nw.Sections[:i], nw.Sections[i+1:]...)
	nw.removeMergeEntry(label)
}

// removeMergeEntry deletes the first Merge entry referencing label.
func (nw *Weave) removeMergeEntry(label string) {
	for i, e := range nw.Integration {
		if e.Kind == KindMerge && e.MergeLabel == label {
			nw.Integration = append(nw.Integration[:i], nw.Integration[i+1:]...)
			return
		}
	}
}

// DropBranch removes the section identified by name — matched against
// its Label or its BranchNames — along with its matching Merge entry.
// If no such section exists, this is a no-op.
func (w *Weave) DropBranch(name string) *Weave {
	nw := w.Clone()
	idx := nw.sectionIndexFor(name)
	if idx < 0 {
		return nw
	}
	nw.removeSection(idx)
	return nw
}

func (w *Weave) sectionIndexFor(name string) int {
	for i, s := range w.Sections {
		if s.Label == name || s.hasBranch(name) {
			return i
		}
	}
	return -1
}

// findCommit locates the commit with the given oid anywhere in the
// Weave, returning the entry and a remove function that deletes it
// from wherever it was found.
func (w *Weave) findCommit(oid string) (CommitEntry, func(), bool) {
	for _, s := range w.Sections {
		for ci, c := range s.Commits {
			if c.Oid == oid {
				section, idx := s, ci
				return c, func() {
					section.Commits = append(section.Commits[:idx], section.Commits[idx+1:]...)
				}, true
			}
		}
	}
	for i, e := range w.Integration {
		if e.Kind == KindPick && e.Pick.Oid == oid {
			idx := i
			return e.Pick, func() {
				w.Integration = append(w.Integration[:idx], w.Integration[idx+1:]...)
			}, true
		}
	}
	return CommitEntry{}, nil, false
}

// MoveCommit relocates the commit with the given oid to the tip of
// targetBranch.
//
// If targetBranch resolves to a section with a single branch name
// (or to the section's own label with no co-location), the commit is
// simply appended to that section. If the section has multiple
// co-located branch names and targetBranch is one of them, the
// section is split: targetBranch is carved out into a new stacked
// section so the moved commit lands on only that branch. If no
// section matches targetBranch, this is a no-op.
func (w *Weave) MoveCommit(oid, targetBranch string) *Weave {
	targetIdx := w.sectionIndexFor(targetBranch)
	if targetIdx < 0 {
		return w.Clone()
	}

	nw := w.Clone()
	entry, remove, ok := nw.findCommit(oid)
	if !ok {
		return nw
	}
	remove()
	entry.Command = Pick

	target := nw.Sections[targetIdx]
	split := len(target.BranchNames) > 1 && target.hasBranch(targetBranch)
	if !split {
		target.Commits = append(target.Commits, entry)
		return nw
	}

	// Co-located split: carve targetBranch out of the original
	// section into a new stacked section of its own.
	target.BranchNames = removeString(target.BranchNames, targetBranch)

	stackedLabel := target.Label
	if target.Label == targetBranch {
		// The label itself is being carved out; rename the
		// original section to another remaining branch name.
		target.Label = target.BranchNames[0]
		renameMergeLabel(nw, stackedLabel, target.Label)
		stackedLabel = target.Label
	}

	newSection := &BranchSection{
		ResetTarget: stackedLabel,
		Commits:     []CommitEntry{entry},
		Label:       targetBranch,
		BranchNames: []string{targetBranch},
	}
	nw.Sections = append(nw.Sections[:targetIdx+1],
		append([]*BranchSection{newSection}, nw.Sections[targetIdx+1:]...)...)

	// The new, outermost stacked section now carries the weave point
	// that used to belong to the section it was split from.
	renameMergeLabel(nw, stackedLabel, targetBranch)

	return nw
}

func renameMergeLabel(w *Weave, from, to string) {
	for i, e := range w.Integration {
		if e.Kind == KindMerge && e.MergeLabel == from {
			w.Integration[i].MergeLabel = to
		}
	}
}

func removeString(ss []string, s string) []string {
	out := ss[:0:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// FixupCommit removes the commit with sourceOid, marks it Fixup, and
// reinserts it immediately after the commit with targetOid (in
// whichever collection targetOid resides). If either commit cannot
// be found, this is a no-op.
func (w *Weave) FixupCommit(sourceOid, targetOid string) *Weave {
	nw := w.Clone()

	entry, remove, ok := nw.findCommit(sourceOid)
	if !ok {
		return nw
	}
	if _, _, ok := nw.findCommit(targetOid); !ok {
		return nw
	}

	// Locate target after removing source, since source and target
	// are distinct commits and removal doesn't invalidate target's
	// position by oid (we re-search by oid, not index).
	remove()
	entry.Command = Fixup

	if insertAfterInSections(nw, targetOid, entry) {
		return nw
	}
	for i, e := range nw.Integration {
		if e.Kind == KindPick && e.Pick.Oid == targetOid {
			nw.Integration = append(nw.Integration[:i+1],
				append([]IntegrationEntry{NewPick(entry)}, nw.Integration[i+1:]...)...)
			return nw
		}
	}

	// Reached only when targetOid equals sourceOid: the removal above
	// took the target out too, so the source commit is dropped.
	return nw
}

// InsertFixup inserts entry, marked Fixup, immediately after the
// commit with targetOid, wherever targetOid resides. Unlike
// FixupCommit, entry is not expected to already be present in the
// Weave — this is how Absorb threads a freshly created fixup commit
// (never scanned) into the model next to the commit it fixes up. If
// targetOid cannot be found, this is a no-op.
func (w *Weave) InsertFixup(entry CommitEntry, targetOid string) *Weave {
	nw := w.Clone()
	entry = entry.clone()
	entry.Command = Fixup

	if insertAfterInSections(nw, targetOid, entry) {
		return nw
	}
	for i, e := range nw.Integration {
		if e.Kind == KindPick && e.Pick.Oid == targetOid {
			nw.Integration = append(nw.Integration[:i+1],
				append([]IntegrationEntry{NewPick(entry)}, nw.Integration[i+1:]...)...)
			return nw
		}
	}
	return nw
}

func insertAfterInSections(w *Weave, targetOid string, entry CommitEntry) bool {
	for _, s := range w.Sections {
		for ci, c := range s.Commits {
			if c.Oid == targetOid {
				s.Commits = append(s.Commits[:ci+1],
					append([]CommitEntry{entry}, s.Commits[ci+1:]...)...)
				return true
			}
		}
	}
	return false
}

// EditCommit marks the commit with the given oid for Edit, leaving
// its position unchanged. If the commit cannot be found, this is a
// no-op.
func (w *Weave) EditCommit(oid string) *Weave {
	nw := w.Clone()
	for _, s := range nw.Sections {
		for ci, c := range s.Commits {
			if c.Oid == oid {
				s.Commits[ci].Command = Edit
				return nw
			}
		}
	}
	for i, e := range nw.Integration {
		if e.Kind == KindPick && e.Pick.Oid == oid {
			nw.Integration[i].Pick.Command = Edit
			return nw
		}
	}
	return nw
}

// AddBranchSection appends a new section. The caller is responsible
// for also adding the corresponding Merge entry via AddMerge.
func (w *Weave) AddBranchSection(label string, branchNames []string, commits []CommitEntry, resetTarget string) *Weave {
	nw := w.Clone()
	nw.Sections = append(nw.Sections, &BranchSection{
		ResetTarget: resetTarget,
		Commits:     append([]CommitEntry(nil), commits...),
		Label:       label,
		BranchNames: append([]string(nil), branchNames...),
	})
	return nw
}

// AddMerge inserts a Merge entry for label at position, or appends it
// if position is nil.
func (w *Weave) AddMerge(label, originalOid string, position *int) *Weave {
	nw := w.Clone()
	entry := NewMerge(label, originalOid)
	if position == nil || *position >= len(nw.Integration) {
		nw.Integration = append(nw.Integration, entry)
		return nw
	}
	pos := *position
	if pos < 0 {
		pos = 0
	}
	nw.Integration = append(nw.Integration[:pos],
		append([]IntegrationEntry{entry}, nw.Integration[pos:]...)...)
	return nw
}

// WeaveBranch converts a non-woven branch — one referenced only via
// an integration Pick's UpdateRefs — into a woven section.
//
// It finds the Pick carrying name, moves every Pick up to and
// including that one into a new section (name removed from each
// moved commit's UpdateRefs), and appends a freshly created Merge
// entry for the new section at the end of the integration line. If
// no Pick carries name, this is a no-op.
func (w *Weave) WeaveBranch(name string) *Weave {
	k := -1
	for i, e := range w.Integration {
		if e.Kind != KindPick {
			continue
		}
		if containsString(e.Pick.UpdateRefs, name) {
			k = i
		}
	}
	if k < 0 {
		return w.Clone()
	}

	nw := w.Clone()
	var moved []CommitEntry
	var kept []IntegrationEntry
	for i, e := range nw.Integration {
		if i <= k && e.Kind == KindPick {
			c := e.Pick
			c.UpdateRefs = removeString(c.UpdateRefs, name)
			moved = append(moved, c)
			continue
		}
		kept = append(kept, e)
	}
	nw.Integration = kept

	nw.Sections = append(nw.Sections, &BranchSection{
		ResetTarget: "onto",
		Commits:     moved,
		Label:       name,
		BranchNames: []string{name},
	})
	nw.Integration = append(nw.Integration, NewMerge(name, ""))

	return nw
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ReassignBranch transfers a section from dropName to keepName: the
// section whose Label or BranchNames contains dropName is relabeled
// (if dropName was the label) and has dropName swapped for keepName
// in BranchNames, and every Merge entry referencing the old label is
// rewritten to the new one. If no section matches dropName, this is
// a no-op.
func (w *Weave) ReassignBranch(dropName, keepName string) *Weave {
	idx := w.sectionIndexFor(dropName)
	if idx < 0 {
		return w.Clone()
	}

	nw := w.Clone()
	s := nw.Sections[idx]
	oldLabel := s.Label
	if s.Label == dropName {
		s.Label = keepName
	}
	s.BranchNames = removeString(s.BranchNames, dropName)
	if !containsString(s.BranchNames, keepName) {
		s.BranchNames = append(s.BranchNames, keepName)
	}
	renameMergeLabel(nw, oldLabel, s.Label)
	return nw
}
