package query

import (
	"strings"

	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
)

// ComputeLatestFlags recomputes the four "latest" flags across every
// record in packages, grouped by case-insensitive id, per the
// algorithm in spec.md §4.E. It mutates packages in place and also
// returns it for convenience.
func ComputeLatestFlags(packages []pkgmeta.ServerPackage) []pkgmeta.ServerPackage {
	byID := map[string][]int{}
	for i, p := range packages {
		key := strings.ToLower(p.ID)
		byID[key] = append(byID[key], i)
	}

	for _, indexes := range byID {
		for _, i := range indexes {
			packages[i].SemVer1IsLatest = false
			packages[i].SemVer1IsAbsoluteLatest = false
			packages[i].SemVer2IsLatest = false
			packages[i].SemVer2IsAbsoluteLatest = false
		}

		s1AbsIdx, s1Idx := -1, -1
		s2AbsIdx, s2Idx := -1, -1

		for _, i := range indexes {
			p := packages[i]
			if !p.Listed {
				continue
			}
			v, err := p.Version()
			if err != nil {
				continue
			}

			// S2 = all listed versions.
			if s2AbsIdx == -1 || greater(packages, i, s2AbsIdx) {
				s2AbsIdx = i
			}
			if !v.IsPrerelease() && (s2Idx == -1 || greater(packages, i, s2Idx)) {
				s2Idx = i
			}

			// S1 = non-SemVer2 listed versions.
			if p.IsSemVer2 {
				continue
			}
			if s1AbsIdx == -1 || greater(packages, i, s1AbsIdx) {
				s1AbsIdx = i
			}
			if !v.IsPrerelease() && (s1Idx == -1 || greater(packages, i, s1Idx)) {
				s1Idx = i
			}
		}

		if s1AbsIdx != -1 {
			packages[s1AbsIdx].SemVer1IsAbsoluteLatest = true
		}
		if s1Idx != -1 {
			packages[s1Idx].SemVer1IsLatest = true
		}
		if s2AbsIdx != -1 {
			packages[s2AbsIdx].SemVer2IsAbsoluteLatest = true
		}
		if s2Idx != -1 {
			packages[s2Idx].SemVer2IsLatest = true
		}
	}

	return packages
}

func greater(packages []pkgmeta.ServerPackage, i, j int) bool {
	vi, erri := packages[i].Version()
	vj, errj := packages[j].Version()
	if erri != nil || errj != nil {
		return false
	}
	return vi.Compare(vj) > 0
}
