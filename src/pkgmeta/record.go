// Package pkgmeta defines ServerPackage, the metadata cache's entry type
// (spec.md §3), shared by src/cache, src/query, and src/repository.
package pkgmeta

import (
	"time"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
	"github.com/feedkeeper/feedkeeper/src/versionrange"
)

// DependencySet is one target framework's list of dependencies. An empty
// TargetFramework applies to every target framework.
type DependencySet struct {
	TargetFramework string                `json:"targetFramework,omitempty"`
	Dependencies    []archive.Dependency `json:"dependencies,omitempty"`
}

// ServerPackage is a single (id, version) cache entry: the essential
// attributes listed in spec.md §3, plus the four computed "latest" flags.
type ServerPackage struct {
	ID                string `json:"id"`
	VersionOriginal   string `json:"version"`
	VersionNormalized string `json:"versionNormalized"`
	IsSemVer2         bool   `json:"isSemVer2"`

	FullPath      string `json:"fullPath"`
	PackageSize   int64  `json:"packageSize"`
	PackageHash   string `json:"packageHash"`
	HashAlgorithm string `json:"hashAlgorithm"`

	Listed bool `json:"listed"`

	CreatedUtc     time.Time `json:"created"`
	LastUpdatedUtc time.Time `json:"lastUpdated"`

	SupportedTargetFrameworks []string         `json:"supportedFrameworks,omitempty"`
	DependencySets            []DependencySet  `json:"dependencySets,omitempty"`

	MinClientVersion         string `json:"minClientVersion,omitempty"`
	Authors                  string `json:"authors,omitempty"`
	Description              string `json:"description,omitempty"`
	Title                    string `json:"title,omitempty"`
	Tags                     string `json:"tags,omitempty"`
	ProjectURL               string `json:"projectUrl,omitempty"`
	LicenseURL               string `json:"licenseUrl,omitempty"`
	IconURL                  string `json:"iconUrl,omitempty"`
	RequireLicenseAcceptance bool   `json:"requireLicenseAcceptance,omitempty"`
	DevelopmentDependency    bool   `json:"developmentDependency,omitempty"`
	ReleaseNotes             string `json:"releaseNotes,omitempty"`
	Copyright                string `json:"copyright,omitempty"`
	Summary                  string `json:"summary,omitempty"`

	SemVer1IsLatest         bool `json:"semVer1IsLatest"`
	SemVer1IsAbsoluteLatest bool `json:"semVer1IsAbsoluteLatest"`
	SemVer2IsLatest         bool `json:"semVer2IsLatest"`
	SemVer2IsAbsoluteLatest bool `json:"semVer2IsAbsoluteLatest"`
}

// Version parses VersionOriginal. Cache records are always constructed
// with an already-valid version string, so this is only fallible if the
// cache file was hand-edited or corrupted.
func (p ServerPackage) Version() (pkgver.Version, error) {
	return pkgver.Parse(p.VersionOriginal)
}

// ComputeIsSemVer2 reports whether a package at version v, with
// dependency sets, requires SemVer2-aware consumers. A package is
// SemVer2-only if its own version is (pkgver.Version.IsSemVer2), or if
// any of its dependency ranges pins a SemVer2-only bound version —
// spec.md §3 extends "SemVer2-only" to a package whose own dependency
// constraints already demand SemVer2 parsing, independent of the
// depending package's own version string.
func ComputeIsSemVer2(v pkgver.Version, sets []DependencySet) bool {
	if v.IsSemVer2() {
		return true
	}
	for _, set := range sets {
		for _, dep := range set.Dependencies {
			r, err := versionrange.Parse(dep.Range)
			if err == nil && r.IsSemVer2() {
				return true
			}
		}
	}
	return false
}

// FromArchive builds a ServerPackage from a freshly-ingested archive's
// derived Info, the id/version identity, its path on disk, and its
// listed state.
func FromArchive(id string, v pkgver.Version, info archive.Info, fullPath string, listed bool, now time.Time, size int64) ServerPackage {
	m := info.Manifest

	var sets []DependencySet
	for _, g := range m.DependencyGroups {
		sets = append(sets, DependencySet{TargetFramework: g.TargetFramework, Dependencies: g.Dependencies})
	}

	return ServerPackage{
		ID:                        id,
		VersionOriginal:           v.Original(),
		VersionNormalized:         v.Normalize(),
		IsSemVer2:                 ComputeIsSemVer2(v, sets),
		FullPath:                  fullPath,
		PackageSize:               size,
		PackageHash:               info.HashBase64(),
		HashAlgorithm:             string(info.HashAlgo),
		Listed:                    listed,
		CreatedUtc:                now,
		LastUpdatedUtc:            now,
		SupportedTargetFrameworks: m.SupportedTargetFrameworks,
		DependencySets:            sets,
		MinClientVersion:          m.MinClientVersion,
		Authors:                   m.Authors,
		Description:               m.Description,
		Title:                     m.Title,
		Tags:                      m.Tags,
		ProjectURL:                m.ProjectURL,
		LicenseURL:                m.LicenseURL,
		IconURL:                   m.IconURL,
		RequireLicenseAcceptance:  m.RequireLicenseAcceptance,
		DevelopmentDependency:     m.DevelopmentDependency,
		ReleaseNotes:              m.ReleaseNotes,
		Copyright:                 m.Copyright,
		Summary:                   m.Summary,
	}
}
