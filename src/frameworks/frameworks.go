// Package frameworks implements the target-framework compatibility
// helper that spec.md's query surface treats as an external
// collaborator: given a package's supported framework identifiers and a
// caller's requested frameworks, decide whether any pair is compatible.
//
// Framework identifiers follow the short-form convention ("net6.0",
// "net472", "netstandard2.0"): a family prefix plus a dotted version.
// "net" monikers without a dot (net472, net48) form their own family,
// separate from dotted ones such as net6.0. Compatibility here is intentionally modest — same family, package
// version <= requested version — sufficient to exercise
// enableFrameworkFiltering without reimplementing the full moniker
// compatibility matrix, which spec.md's Non-goals never asks for.
package frameworks

import (
	"strconv"
	"strings"
)

// moniker is a parsed target framework identifier.
type moniker struct {
	family string
	major  int
	minor  int
	raw    string
}

func parse(tfm string) (moniker, bool) {
	tfm = strings.ToLower(strings.TrimSpace(tfm))
	i := strings.IndexAny(tfm, "0123456789")
	if i <= 0 {
		return moniker{}, false
	}
	family, version := tfm[:i], tfm[i:]
	if family == "net" && !strings.Contains(version, ".") {
		// Dot-less "net" monikers (net472, net48) name .NET Framework,
		// a family of its own apart from the dotted net5.0+ line.
		family = "netframework"
	}
	parts := strings.SplitN(version, ".", 2)
	major, err := strconv.Atoi(strings.TrimSuffix(parts[0], "."))
	if err != nil {
		return moniker{}, false
	}
	minor := 0
	if len(parts) > 1 {
		// Only the leading numeric run of the minor segment matters
		// (e.g. netstandard2.0, net472's "472" is parsed whole above).
		minorDigits := parts[1]
		for i, r := range minorDigits {
			if r < '0' || r > '9' {
				minorDigits = minorDigits[:i]
				break
			}
		}
		if minorDigits != "" {
			minor, _ = strconv.Atoi(minorDigits)
		}
	}
	return moniker{family: family, major: major, minor: minor, raw: tfm}, true
}

// Compatible reports whether a package supporting "supported" can serve
// a request for "requested": same framework family, and the supported
// moniker's version is less than or equal to the requested one.
func Compatible(supported, requested string) bool {
	s, ok := parse(supported)
	if !ok {
		return strings.EqualFold(supported, requested)
	}
	r, ok := parse(requested)
	if !ok {
		return strings.EqualFold(supported, requested)
	}
	if s.family != r.family {
		return false
	}
	if s.major != r.major {
		return s.major < r.major
	}
	return s.minor <= r.minor
}

// AnyCompatible reports whether any of supported is compatible with any
// of requested. An empty requested list means "no filter" — the caller
// (Search) is responsible for skipping this check entirely in that case.
func AnyCompatible(supported, requested []string) bool {
	for _, s := range supported {
		for _, r := range requested {
			if Compatible(s, r) {
				return true
			}
		}
	}
	return false
}
