// Package pkgver implements the package ecosystem's version scheme: a
// numeric release of one to four dot-separated components, an optional
// dot-separated prerelease identifier sequence, and optional build
// metadata. It is deliberately not a strict three-component SemVer
// implementation — the source format allows a fourth "revision"
// component that neither github.com/Masterminds/semver/v3 nor
// github.com/blang/semver/v4 model, so the comparison and
// normalization rules below are hand-rolled against the scheme
// described by the repository engine's data model instead of adapted
// from either library.
package pkgver

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// identifier is a single dot-separated prerelease component. Per SemVer
// precedence rule 11, identifiers consisting only of digits are compared
// numerically; all others are compared as strings ignoring case, and numeric
// identifiers always sort below alphanumeric ones.
type identifier struct {
	numeric bool
	num     uint64
	text    string
}

func parseIdentifier(s string) identifier {
	if s != "" && isAllDigits(s) {
		// A leading-zero run like "01" is not a valid numeric identifier
		// under strict SemVer, but the source format tolerates it; treat
		// it as numeric anyway using its integer value.
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return identifier{numeric: true, num: n}
		}
	}
	return identifier{text: s}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (id identifier) String() string {
	if id.numeric {
		return strconv.FormatUint(id.num, 10)
	}
	return id.text
}

func compareIdentifier(a, b identifier) int {
	switch {
	case a.numeric && b.numeric:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	case a.numeric && !b.numeric:
		return -1 // numeric identifiers always sort below alphanumeric ones
	case !a.numeric && b.numeric:
		return 1
	default:
		return strings.Compare(strings.ToLower(a.text), strings.ToLower(b.text))
	}
}

// Version is one (id, version) pair's version half. The zero Version is
// not meaningful on its own; construct one with Parse.
type Version struct {
	release  []uint64
	pre      []identifier
	metadata string
	original string
}

// Parse parses a version string in the scheme described by the package
// repository's data model: a numeric release of 1-4 dot-separated
// components, an optional "-"-introduced dot-separated prerelease
// identifier sequence, and an optional "+"-introduced build metadata tag.
func Parse(s string) (Version, error) {
	original := s
	if s == "" {
		return Version{}, fmt.Errorf("pkgver: empty version string")
	}

	metadata := ""
	if i := strings.IndexByte(s, '+'); i >= 0 {
		metadata = s[i+1:]
		s = s[:i]
		if metadata == "" {
			return Version{}, fmt.Errorf("pkgver: %q has an empty build metadata tag", original)
		}
	}

	prerelease := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		prerelease = s[i+1:]
		s = s[:i]
		if prerelease == "" {
			return Version{}, fmt.Errorf("pkgver: %q has an empty prerelease tag", original)
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) < 1 || len(parts) > 4 {
		return Version{}, fmt.Errorf("pkgver: %q must have between 1 and 4 release components", original)
	}
	release := make([]uint64, len(parts))
	for i, p := range parts {
		if p == "" {
			return Version{}, fmt.Errorf("pkgver: %q has an empty release component", original)
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("pkgver: %q release component %q is not a non-negative integer", original, p)
		}
		release[i] = n
	}

	var pre []identifier
	if prerelease != "" {
		for _, p := range strings.Split(prerelease, ".") {
			if p == "" {
				return Version{}, fmt.Errorf("pkgver: %q has an empty prerelease identifier", original)
			}
			pre = append(pre, parseIdentifier(p))
		}
	}

	return Version{release: release, pre: pre, metadata: metadata, original: original}, nil
}

// MustParse is Parse but panics on error; intended for tests and literal
// version constants, not for parsing untrusted input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Original returns the exact string the Version was parsed from,
// including build metadata.
func (v Version) Original() string { return v.original }

// IsPrerelease reports whether the version carries a prerelease tag.
func (v Version) IsPrerelease() bool { return len(v.pre) > 0 }

// IsSemVer2 reports whether this version requires SemVer2-aware
// consumers: a multi-identifier prerelease (e.g. "1.0-beta.1") or
// non-empty build metadata. A version with at most one prerelease
// identifier and no build metadata is SemVer1-compatible.
func (v Version) IsSemVer2() bool {
	return len(v.pre) > 1 || v.metadata != ""
}

// releaseAt returns the release component at index i, treating missing
// trailing components as zero.
func (v Version) releaseAt(i int) uint64 {
	if i < len(v.release) {
		return v.release[i]
	}
	return 0
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than other. Build metadata never affects the result (data model
// invariant: "two versions compare equal iff release and prerelease are
// equal").
func (v Version) Compare(other Version) int {
	for i := 0; i < 4; i++ {
		a, b := v.releaseAt(i), other.releaseAt(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}

	switch {
	case len(v.pre) == 0 && len(other.pre) == 0:
		return 0
	case len(v.pre) == 0:
		return 1 // no prerelease outranks any prerelease
	case len(other.pre) == 0:
		return -1
	}

	for i := 0; i < len(v.pre) && i < len(other.pre); i++ {
		if c := compareIdentifier(v.pre[i], other.pre[i]); c != 0 {
			return c
		}
	}
	// A larger set of prerelease fields has higher precedence when all
	// preceding identifiers are equal.
	switch {
	case len(v.pre) < len(other.pre):
		return -1
	case len(v.pre) > len(other.pre):
		return 1
	default:
		return 0
	}
}

// Equal reports semantic version equality: equal release and prerelease,
// ignoring build metadata. This is the equality used throughout the
// repository engine for package identity.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Normalize returns the normalized string form: build metadata dropped,
// the release padded to at least three components, and a trailing
// fourth component of zero dropped.
func (v Version) Normalize() string {
	release := append([]uint64(nil), v.release...)
	for len(release) < 3 {
		release = append(release, 0)
	}
	if len(release) == 4 && release[3] == 0 {
		release = release[:3]
	}

	var buf bytes.Buffer
	for i, c := range release {
		if i > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(strconv.FormatUint(c, 10))
	}
	if len(v.pre) > 0 {
		buf.WriteByte('-')
		for i, id := range v.pre {
			if i > 0 {
				buf.WriteByte('.')
			}
			buf.WriteString(id.String())
		}
	}
	return buf.String()
}

// String returns the original, unnormalized version text as parsed.
func (v Version) String() string { return v.original }

// MarshalJSON round-trips the original version string, including build
// metadata, per the cache file format's requirement that versions
// "round-trip their original string form".
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.original)), nil
}

// UnmarshalJSON parses a quoted version string.
func (v *Version) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("pkgver: invalid JSON version: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
