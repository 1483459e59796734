package query_test

import (
	"testing"
	"time"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
	"github.com/feedkeeper/feedkeeper/src/query"
	"github.com/feedkeeper/feedkeeper/src/versionrange"
)

func pkg(id, version string, listed bool) pkgmeta.ServerPackage {
	return pkgWithDeps(id, version, listed, nil)
}

// pkgWithDeps builds a ServerPackage the way pkgmeta.FromArchive does:
// IsSemVer2 is derived from both the version itself and its dependency
// ranges, not set directly by the caller.
func pkgWithDeps(id, version string, listed bool, deps []pkgmeta.DependencySet) pkgmeta.ServerPackage {
	v := pkgver.MustParse(version)
	return pkgmeta.ServerPackage{
		ID:                id,
		VersionOriginal:   v.Original(),
		VersionNormalized: v.Normalize(),
		IsSemVer2:         pkgmeta.ComputeIsSemVer2(v, deps),
		DependencySets:    deps,
		Listed:            listed,
		CreatedUtc:        time.Unix(0, 0).UTC(),
		LastUpdatedUtc:    time.Unix(0, 0).UTC(),
	}
}

// TestSemVer2Filtering is scenario S6 from the end-to-end catalog: five
// records, one of them plain, three touching SemVer2-only shapes, and
// a default-compatibility GetPackages must drop every SemVer2 one.
// test5's own version is SemVer1-shaped, but one of its dependency
// ranges pins a multi-identifier prerelease, which spec.md §3 treats as
// making the depending package itself SemVer2-only.
func TestSemVer2Filtering(t *testing.T) {
	snapshot := []pkgmeta.ServerPackage{
		pkg("test1", "1.0", true),
		pkg("test2", "1.0-beta", true),
		pkg("test3", "1.0-beta.1", true),   // multi-identifier prerelease -> SemVer2
		pkg("test4", "1.0-beta+foo", true), // build metadata -> SemVer2
		pkgWithDeps("test5", "1.0-beta", true, []pkgmeta.DependencySet{
			{Dependencies: []archive.Dependency{{ID: "dep1", Range: "1.0.0-beta.1"}}},
		}), // SemVer2 dependency range -> SemVer2
	}

	got := query.GetPackages(snapshot, query.Default)
	if len(got) != 2 {
		t.Fatalf("GetPackages(default) returned %d records, want 2: %+v", len(got), got)
	}
	ids := map[string]bool{}
	for _, p := range got {
		ids[p.ID] = true
	}
	if !ids["test1"] || !ids["test2"] {
		t.Errorf("GetPackages(default) = %v, want {test1, test2}", ids)
	}

	gotMax := query.GetPackages(snapshot, query.Max)
	if len(gotMax) != 5 {
		t.Errorf("GetPackages(max) returned %d records, want 5", len(gotMax))
	}
}

// TestComputeLatestFlags is scenario S2: after removing four of seven
// seeded versions, the remaining three must yield version 2.0.0 as both
// semVer2IsLatest and semVer2IsAbsoluteLatest.
func TestComputeLatestFlags(t *testing.T) {
	remaining := []pkgmeta.ServerPackage{
		pkg("test", "1.9", true),
		pkg("test", "2.0.0", true),
		pkg("test", "2.0.0-test+tag", true),
	}

	out := query.ComputeLatestFlags(remaining)

	var absLatest, latest []string
	for _, p := range out {
		if p.SemVer2IsAbsoluteLatest {
			absLatest = append(absLatest, p.VersionOriginal)
		}
		if p.SemVer2IsLatest {
			latest = append(latest, p.VersionOriginal)
		}
	}
	if len(absLatest) != 1 || absLatest[0] != "2.0.0" {
		t.Errorf("semVer2IsAbsoluteLatest = %v, want exactly [2.0.0]", absLatest)
	}
	if len(latest) != 1 || latest[0] != "2.0.0" {
		t.Errorf("semVer2IsLatest = %v, want exactly [2.0.0]", latest)
	}
}

func TestComputeLatestFlagsIgnoresUnlisted(t *testing.T) {
	packages := []pkgmeta.ServerPackage{
		pkg("test", "1.0.0", true),
		pkg("test", "2.0.0", false),
	}
	out := query.ComputeLatestFlags(packages)
	if out[1].SemVer2IsLatest || out[1].SemVer2IsAbsoluteLatest {
		t.Error("unlisted record must never carry a latest flag")
	}
	if !out[0].SemVer2IsLatest || !out[0].SemVer2IsAbsoluteLatest {
		t.Error("only remaining listed record should carry both latest flags")
	}
}

func TestFindPackageCaseInsensitiveID(t *testing.T) {
	snapshot := []pkgmeta.ServerPackage{pkg("NuGet.Versioning", "3.5.0-beta2", true)}

	if _, ok := query.FindPackage(snapshot, "nuget.versioning", pkgver.MustParse("3.5.0-BETA2")); !ok {
		t.Error("FindPackage should match case-insensitively on id and on version")
	}
	if _, ok := query.FindPackage(snapshot, "NuGet.Frameworks", pkgver.MustParse("3.5.0-beta2")); ok {
		t.Error("FindPackage should not match a different id")
	}
}

func TestSearchFiltersPrereleaseAndUnlisted(t *testing.T) {
	snapshot := []pkgmeta.ServerPackage{
		pkg("Foo.Bar", "1.0.0", true),
		pkg("Foo.Baz", "1.0.0-beta", true),
		pkg("Foo.Qux", "1.0.0", false),
	}

	got := query.Search(snapshot, query.SearchOptions{
		Term:            "foo",
		AllowPrerelease: false,
		AllowUnlisted:   false,
		Compatibility:   query.Max,
		EnableDelisting: true,
	})
	if len(got) != 1 || got[0].ID != "Foo.Bar" {
		t.Errorf("Search = %+v, want exactly [Foo.Bar]", got)
	}
}

func TestGetUpdatesStrictlyGreaterAndRange(t *testing.T) {
	snapshot := []pkgmeta.ServerPackage{
		pkg("Foo", "1.0.0", true),
		pkg("Foo", "1.5.0", true),
		pkg("Foo", "2.0.0", true),
	}
	r, err := versionrange.Parse("[1.0.0,2.0.0)")
	if err != nil {
		t.Fatalf("Parse range: %v", err)
	}

	got := query.GetUpdates(snapshot, []query.UpdateQuery{
		{ID: "Foo", Version: pkgver.MustParse("1.0.0"), Range: r},
	}, query.GetUpdatesOptions{Compatibility: query.Max, IncludeAllVersions: true})

	if len(got) != 1 || got[0].VersionOriginal != "1.5.0" {
		t.Errorf("GetUpdates = %+v, want exactly [1.5.0]", got)
	}
}

func TestGetUpdatesHighestOnlyWhenNotIncludeAllVersions(t *testing.T) {
	snapshot := []pkgmeta.ServerPackage{
		pkg("Foo", "1.0.0", true),
		pkg("Foo", "1.5.0", true),
		pkg("Foo", "2.0.0", true),
	}

	got := query.GetUpdates(snapshot, []query.UpdateQuery{
		{ID: "Foo", Version: pkgver.MustParse("1.0.0"), Range: versionrange.All()},
	}, query.GetUpdatesOptions{Compatibility: query.Max, IncludeAllVersions: false})

	if len(got) != 1 || got[0].VersionOriginal != "2.0.0" {
		t.Errorf("GetUpdates(includeAllVersions=false) = %+v, want exactly [2.0.0]", got)
	}
}
