// Package versionrange implements the opaque version-range type that
// spec.md's query surface treats as an external collaborator: a
// dependency or update-check constraint with a Satisfies(v) predicate.
// It uses the package ecosystem's interval notation, e.g. "[1.0,2.0)",
// "1.0" (minimum inclusive, unbounded above), "(,2.0]" (maximum
// inclusive, unbounded below).
package versionrange

import (
	"fmt"
	"strings"

	"github.com/feedkeeper/feedkeeper/src/pkgver"
)

// Range is a version interval with optionally inclusive/exclusive
// bounds on either side.
type Range struct {
	raw          string
	min          *pkgver.Version
	minInclusive bool
	max          *pkgver.Version
	maxInclusive bool
}

// Satisfies reports whether v falls within the range.
func (r Range) Satisfies(v pkgver.Version) bool {
	if r.min != nil {
		c := v.Compare(*r.min)
		if c < 0 || (c == 0 && !r.minInclusive) {
			return false
		}
	}
	if r.max != nil {
		c := v.Compare(*r.max)
		if c > 0 || (c == 0 && !r.maxInclusive) {
			return false
		}
	}
	return true
}

// String returns the original range text.
func (r Range) String() string { return r.raw }

// IsSemVer2 reports whether either bound of the range pins a
// SemVer2-only version (multi-identifier prerelease or build
// metadata). A dependency whose range requires SemVer2 parsing makes
// the depending package itself SemVer2-only, per spec.md §3.
func (r Range) IsSemVer2() bool {
	if r.min != nil && r.min.IsSemVer2() {
		return true
	}
	if r.max != nil && r.max.IsSemVer2() {
		return true
	}
	return false
}

// All matches every version; it is the range applied when a dependency
// or update check specifies no version constraint.
func All() Range { return Range{raw: ""} }

// Parse parses interval notation into a Range. A bare version number
// ("1.0.0") is treated as a minimum-inclusive, unbounded-above range,
// matching the convention for a dependency's minimum required version.
func Parse(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All(), nil
	}

	if !strings.ContainsAny(s, "[(") {
		v, err := pkgver.Parse(s)
		if err != nil {
			return Range{}, fmt.Errorf("versionrange: %q: %w", s, err)
		}
		return Range{raw: s, min: &v, minInclusive: true}, nil
	}

	if len(s) < 2 {
		return Range{}, fmt.Errorf("versionrange: %q is too short", s)
	}

	minInclusive := s[0] == '['
	maxInclusive := s[len(s)-1] == ']'
	if (s[0] != '[' && s[0] != '(') || (s[len(s)-1] != ']' && s[len(s)-1] != ')') {
		return Range{}, fmt.Errorf("versionrange: %q must start with '[' or '(' and end with ']' or ')'", s)
	}

	body := s[1 : len(s)-1]
	parts := strings.SplitN(body, ",", 2)

	r := Range{raw: s}
	if len(parts) == 2 && strings.TrimSpace(parts[0]) == "" && strings.TrimSpace(parts[1]) == "" {
		return Range{}, fmt.Errorf("versionrange: %q has neither a lower nor an upper bound", s)
	}
	if len(parts) == 1 {
		// "[1.0.0]" — exact version
		v, err := pkgver.Parse(strings.TrimSpace(parts[0]))
		if err != nil {
			return Range{}, fmt.Errorf("versionrange: %q: %w", s, err)
		}
		r.min, r.max = &v, &v
		r.minInclusive, r.maxInclusive = true, true
		return r, nil
	}

	if lo := strings.TrimSpace(parts[0]); lo != "" {
		v, err := pkgver.Parse(lo)
		if err != nil {
			return Range{}, fmt.Errorf("versionrange: %q: %w", s, err)
		}
		r.min = &v
		r.minInclusive = minInclusive
	}
	if hi := strings.TrimSpace(parts[1]); hi != "" {
		v, err := pkgver.Parse(hi)
		if err != nil {
			return Range{}, fmt.Errorf("versionrange: %q: %w", s, err)
		}
		r.max = &v
		r.maxInclusive = maxInclusive
	}
	return r, nil
}
