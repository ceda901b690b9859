// Package shortid assigns short, typeable identifiers to repository
// entities (commits, branches, files, the unstaged pseudo-entity) so
// that commands can refer to them without typing a full hash or path.
package shortid

import (
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the entity a short ID was assigned to.
type Kind int

const (
	// KindCommit identifies a commit by its object id.
	KindCommit Kind = iota
	// KindBranch identifies a local branch by name.
	KindBranch
	// KindFile identifies a working-tree file by path.
	KindFile
	// KindUnstaged is the single pseudo-entity representing
	// "the unstaged changes", always assigned the id "zz".
	KindUnstaged
)

// Entity is one candidate for short-ID assignment.
//
// Value holds the full identity: the commit's hex oid for KindCommit,
// the branch name for KindBranch, the file path for KindFile, and is
// ignored for KindUnstaged.
type Entity struct {
	Kind  Kind
	Value string
}

// Assignment pairs an Entity with the short ID it was given.
type Assignment struct {
	Entity Entity
	ID     string
}

// Assign gives every entity in order a unique short ID, earlier
// entities taking priority over later ones for any given candidate.
// The input order is significant: Entities presented first win
// collisions with ones presented later.
func Assign(entities []Entity) []Assignment {
	used := make(map[string]bool, len(entities))
	out := make([]Assignment, len(entities))

	for i, e := range entities {
		id := assignOne(e, used)
		used[id] = true
		out[i] = Assignment{Entity: e, ID: id}
	}

	return out
}

func assignOne(e Entity, used map[string]bool) string {
	for _, cand := range candidates(e) {
		if !used[cand] {
			return cand
		}
	}

	// Exhausted every generated candidate; fall back to a numeric
	// suffix on the shortest candidate we have.
	base := "id"
	if cs := candidates(e); len(cs) > 0 {
		base = cs[0]
	}
	for n := 2; ; n++ {
		cand := base + strconv.Itoa(n)
		if !used[cand] {
			return cand
		}
	}
}

// candidates generates, in preference order, the short-ID candidates
// for a single entity, per the allocation rules in spec §6.
func candidates(e Entity) []string {
	switch e.Kind {
	case KindUnstaged:
		return []string{"zz"}
	case KindCommit:
		return commitCandidates(e.Value)
	case KindBranch, KindFile:
		return wordCandidates(stem(e.Value))
	default:
		return nil
	}
}

func commitCandidates(oid string) []string {
	var cands []string
	for n := 2; n <= len(oid); n++ {
		cands = append(cands, oid[:n])
	}
	return cands
}

// stem reduces a file path to the component used for word splitting:
// its final path segment without a trailing extension.
func stem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// wordCandidates implements the branch/file candidate generation
// rule: split on '-', '_', '/', then prefer cross-word character
// pairs before falling back to interleaved or whole-word prefixes.
func wordCandidates(name string) []string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '/'
	})
	if len(words) == 0 {
		words = []string{name}
	}

	var cands []string
	if len(words) >= 2 {
		for i := 0; i < len(words); i++ {
			for j := i + 1; j < len(words); j++ {
				for _, c := range crossPairs(words[i], words[j]) {
					cands = append(cands, c)
				}
			}
		}
		cands = append(cands, interleavedPrefixes(words)...)
	} else {
		word := words[0]
		for i := 0; i < len(word); i++ {
			for j := i + 1; j < len(word); j++ {
				cands = append(cands, string(word[i])+string(word[j]))
			}
		}
		for n := 3; n <= len(word); n++ {
			cands = append(cands, word[:n])
		}
	}

	return dedup(cands)
}

// crossPairs returns every two-character candidate combining one
// character from a with one from b, shortest and earliest first.
func crossPairs(a, b string) []string {
	var out []string
	for _, ca := range a {
		for _, cb := range b {
			out = append(out, string(ca)+string(cb))
		}
	}
	return out
}

// interleavedPrefixes builds growing prefixes of length 3+ by taking
// one character at a time from each word in turn.
func interleavedPrefixes(words []string) []string {
	var out []string
	for n := 3; n <= totalLen(words); n++ {
		var b strings.Builder
		taken := make([]int, len(words))
		for b.Len() < n {
			progressed := false
			for i, w := range words {
				if b.Len() >= n {
					break
				}
				if taken[i] < len(w) {
					b.WriteByte(w[taken[i]])
					taken[i]++
					progressed = true
				}
			}
			if !progressed {
				break
			}
		}
		if b.Len() == n {
			out = append(out, b.String())
		}
	}
	return out
}

func totalLen(words []string) int {
	n := 0
	for _, w := range words {
		n += len(w)
	}
	return n
}

func dedup(cands []string) []string {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if len(c) < 2 || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// SortedValues returns the Value of every assignment, sorted, for
// tests and diagnostics that want a deterministic dump.
func SortedValues(assigns []Assignment) []string {
	vals := make([]string, len(assigns))
	for i, a := range assigns {
		vals[i] = a.Entity.Value
	}
	sort.Strings(vals)
	return vals
}
