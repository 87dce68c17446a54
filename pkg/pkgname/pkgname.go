// Package pkgname pulls package tokens out of free-form text and holds them
// in sets.
package pkgname

import (
	"regexp"
	"sort"
	"strings"
)

var tokenRegexp = regexp.MustCompile(
	`([A-Za-z][A-Za-z0-9_\-]+` +
		// optional comparison and dotted numeric version, e.g. >=0.10.1
		`(((<|>|<=|>=|==|~=)[0-9]+\.[0-9]+(\.[0-9]+)*)` +
		// pre/post/dev release qualifiers, or a +local label
		`((\.?(a|b|rc|post|dev)[0-9]+)|\+[A-Za-z0-9_\-\.]+)*)?)`)

// Set is an unordered collection of package tokens.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(name string) {
	s[name] = struct{}{}
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Minus returns the members of s that are not in other.
func (s Set) Minus(other Set) Set {
	out := make(Set, len(s))
	for n := range s {
		if !other.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Intersect returns the members of s that are also in other.
func (s Set) Intersect(other Set) Set {
	out := Set{}
	for n := range s {
		if other.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s Set) String() string {
	return strings.Join(s.Sorted(), ", ")
}

// Extract finds every package token in the inputs. Multiple inputs are joined
// with a single space first, so Extract("a b") and Extract("a", "b") agree.
// Text that doesn't look like a package contributes nothing.
func Extract(inputs ...string) Set {
	joined := strings.Join(inputs, " ")
	out := Set{}
	for _, m := range tokenRegexp.FindAllString(joined, -1) {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		out[m] = struct{}{}
	}
	return out
}

// NormalizeName lowercases a name and replaces underscores with hyphens.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

func Normalize(s Set) Set {
	out := make(Set, len(s))
	for n := range s {
		out[NormalizeName(n)] = struct{}{}
	}
	return out
}
