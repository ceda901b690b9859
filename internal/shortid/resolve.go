package shortid

import "github.com/sahilm/fuzzy"

// Lookup finds the Entity assigned a given short ID.
func Lookup(assigns []Assignment, id string) (Entity, bool) {
	for _, a := range assigns {
		if a.ID == id {
			return a.Entity, true
		}
	}
	return Entity{}, false
}

// FuzzyRank ranks every assigned short ID and its entity's full value
// against query, best match first, for use when an exact short-ID or
// name match fails and the caller wants to suggest candidates.
func FuzzyRank(assigns []Assignment, query string) []Assignment {
	names := make([]string, len(assigns))
	for i, a := range assigns {
		names[i] = a.Entity.Value
	}

	matches := fuzzy.Find(query, names)
	ranked := make([]Assignment, len(matches))
	for i, m := range matches {
		ranked[i] = assigns[m.Index]
	}
	return ranked
}
