// Package query implements the query surface (spec.md §4.F): pure
// functions over a snapshot of metadata cache records. Nothing here
// touches the filesystem or the cache's locking; every function takes
// a []pkgmeta.ServerPackage snapshot and returns a filtered/derived
// view of it.
package query

import (
	"strings"

	"github.com/feedkeeper/feedkeeper/src/frameworks"
	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
	"github.com/feedkeeper/feedkeeper/src/versionrange"
)

// Compatibility selects whether a caller tolerates SemVer2-only
// versions. Default excludes them; Max includes everything.
type Compatibility int

const (
	Default Compatibility = iota
	Max
)

func allowSemVer2(c Compatibility) bool { return c == Max }

// GetPackages returns the subset of snapshot allowed under compatibility.
func GetPackages(snapshot []pkgmeta.ServerPackage, compat Compatibility) []pkgmeta.ServerPackage {
	if allowSemVer2(compat) {
		out := make([]pkgmeta.ServerPackage, len(snapshot))
		copy(out, snapshot)
		return out
	}
	var out []pkgmeta.ServerPackage
	for _, p := range snapshot {
		if !p.IsSemVer2 {
			out = append(out, p)
		}
	}
	return out
}

// FindPackage returns the first record matching id (case-insensitive)
// and version (semantic equality), or ok=false.
func FindPackage(snapshot []pkgmeta.ServerPackage, id string, v pkgver.Version) (pkgmeta.ServerPackage, bool) {
	for _, p := range snapshot {
		if !strings.EqualFold(p.ID, id) {
			continue
		}
		pv, err := p.Version()
		if err == nil && pv.Equal(v) {
			return p, true
		}
	}
	return pkgmeta.ServerPackage{}, false
}

// FindPackagesById returns every version of id allowed under compat.
func FindPackagesById(snapshot []pkgmeta.ServerPackage, id string, compat Compatibility) []pkgmeta.ServerPackage {
	var out []pkgmeta.ServerPackage
	for _, p := range GetPackages(snapshot, compat) {
		if strings.EqualFold(p.ID, id) {
			out = append(out, p)
		}
	}
	return out
}

// matchesTerm reports whether every whitespace-split token of term is a
// case-insensitive substring of id, tags, description, or authors.
func matchesTerm(p pkgmeta.ServerPackage, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	haystack := strings.ToLower(p.ID + " " + p.Tags + " " + p.Description + " " + p.Authors)
	for _, tok := range strings.Fields(strings.ToLower(term)) {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

// SearchOptions bundles Search's filters, mirroring enableDelisting and
// enableFrameworkFiltering configuration switches the engine holds.
type SearchOptions struct {
	Term                     string
	TargetFrameworks         []string
	AllowPrerelease          bool
	AllowUnlisted            bool
	Compatibility            Compatibility
	EnableDelisting          bool
	EnableFrameworkFiltering bool
}

// Search applies the five-step filter chain from spec.md §4.E.
func Search(snapshot []pkgmeta.ServerPackage, opts SearchOptions) []pkgmeta.ServerPackage {
	var out []pkgmeta.ServerPackage
	for _, p := range GetPackages(snapshot, opts.Compatibility) {
		if !matchesTerm(p, opts.Term) {
			continue
		}
		if !opts.AllowPrerelease {
			if v, err := p.Version(); err == nil && v.IsPrerelease() {
				continue
			}
		}
		if opts.EnableDelisting && !opts.AllowUnlisted && !p.Listed {
			continue
		}
		if opts.EnableFrameworkFiltering && len(opts.TargetFrameworks) > 0 {
			if !frameworks.AnyCompatible(p.SupportedTargetFrameworks, opts.TargetFrameworks) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// UpdateQuery is a single (id, version, optional range) to check updates for.
type UpdateQuery struct {
	ID      string
	Version pkgver.Version
	Range   versionrange.Range
}

// GetUpdatesOptions bundles GetUpdates' filters.
type GetUpdatesOptions struct {
	IncludePrerelease bool
	IncludeAllVersions bool
	TargetFrameworks  []string
	Compatibility     Compatibility
	EnableFrameworkFiltering bool
}

// GetUpdates returns, for each input query, every strictly-greater
// version of that id satisfying the compatibility/prerelease/range
// filters; when IncludeAllVersions is false only the single highest
// qualifying version per input is returned.
func GetUpdates(snapshot []pkgmeta.ServerPackage, queries []UpdateQuery, opts GetUpdatesOptions) []pkgmeta.ServerPackage {
	pool := GetPackages(snapshot, opts.Compatibility)

	var out []pkgmeta.ServerPackage
	for _, q := range queries {
		var candidates []pkgmeta.ServerPackage
		for _, p := range pool {
			if !strings.EqualFold(p.ID, q.ID) {
				continue
			}
			pv, err := p.Version()
			if err != nil || pv.Compare(q.Version) <= 0 {
				continue
			}
			if !opts.IncludePrerelease && pv.IsPrerelease() {
				continue
			}
			if q.Range.String() != "" && !q.Range.Satisfies(pv) {
				continue
			}
			if opts.EnableFrameworkFiltering && len(opts.TargetFrameworks) > 0 {
				if !frameworks.AnyCompatible(p.SupportedTargetFrameworks, opts.TargetFrameworks) {
					continue
				}
			}
			candidates = append(candidates, p)
		}
		if len(candidates) == 0 {
			continue
		}
		if !opts.IncludeAllVersions {
			out = append(out, highest(candidates))
			continue
		}
		out = append(out, candidates...)
	}
	return out
}

func highest(packages []pkgmeta.ServerPackage) pkgmeta.ServerPackage {
	best := packages[0]
	bestV, _ := best.Version()
	for _, p := range packages[1:] {
		v, err := p.Version()
		if err != nil {
			continue
		}
		if v.Compare(bestV) > 0 {
			best, bestV = p, v
		}
	}
	return best
}
