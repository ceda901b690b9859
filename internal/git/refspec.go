package git

import "strings"

// Refspec is a git refspec string (e.g. "refs/heads/*:refs/remotes/origin/*").
// It supports the same matching rules as 'git push'/'git fetch': an
// optional leading '+' (force-update marker, ignored for matching
// purposes), an optional ":destination" suffix (also ignored), and at
// most one '*' wildcard in the source side standing in for any run of
// characters.
type Refspec string

// String returns the refspec as a plain string.
func (r Refspec) String() string {
	return string(r)
}

// Matches reports whether ref is matched by the source side of the
// refspec.
func (r Refspec) Matches(ref string) bool {
	if r == "" || ref == "" {
		return false
	}

	src := strings.TrimPrefix(string(r), "+")
	if idx := strings.IndexByte(src, ':'); idx >= 0 {
		src = src[:idx]
	}

	star := strings.IndexByte(src, '*')
	if star < 0 {
		return src == ref
	}

	prefix, suffix := src[:star], src[star+1:]
	if len(ref) < len(prefix)+len(suffix) {
		return false
	}
	return strings.HasPrefix(ref, prefix) && strings.HasSuffix(ref, suffix)
}
