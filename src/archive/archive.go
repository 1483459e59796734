// Package archive reads the zip-shaped package archive (spec.md §4.B):
// it opens an archive file, surfaces the manifest document and
// dependency/target-framework metadata packed inside it, detects
// symbols archives, and streams a content hash. Archives are opened
// with github.com/STARRY-S/zip, a drop-in-compatible fork of the
// standard library's archive/zip with broader large-file support,
// rather than archive/zip itself — this repository's whole point is to
// learn the ecosystem's way of doing things rather than defaulting to
// the standard library when a compatible third-party reader already
// covers the same ground.
package archive

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"hash"
	"io"
	"strings"

	zip "github.com/STARRY-S/zip"

	"github.com/feedkeeper/feedkeeper/src/pkgver"
)

// symbolsExtension is the reserved file extension that marks a symbols
// archive per spec.md §4.B ("detects 'symbols' archives by the presence
// of a reserved file extension inside the archive").
const symbolsExtension = ".pdb"

// Dependency is a single dependency entry from a manifest's dependency
// group.
type Dependency struct {
	ID    string `xml:"id,attr"`
	Range string `xml:"version,attr"`
}

// DependencyGroup is one <group> element: a target framework and the
// dependencies that apply to it. TargetFramework is empty for an
// ungrouped dependency list, which applies to every target framework.
type DependencyGroup struct {
	TargetFramework string       `xml:"targetFramework,attr"`
	Dependencies    []Dependency `xml:"dependency"`
}

// manifestXML mirrors the nuspec document's <metadata> element.
type manifestXML struct {
	XMLName xml.Name `xml:"package"`
	Meta    struct {
		ID                       string `xml:"id"`
		Version                  string `xml:"version"`
		Title                    string `xml:"title"`
		Authors                  string `xml:"authors"`
		Description              string `xml:"description"`
		Summary                  string `xml:"summary"`
		ReleaseNotes             string `xml:"releaseNotes"`
		Copyright                string `xml:"copyright"`
		Tags                     string `xml:"tags"`
		ProjectURL               string `xml:"projectUrl"`
		LicenseURL               string `xml:"licenseUrl"`
		IconURL                  string `xml:"iconUrl"`
		MinClientVersion         string `xml:"minClientVersion,attr"`
		RequireLicenseAcceptance bool   `xml:"requireLicenseAcceptance"`
		DevelopmentDependency    bool   `xml:"developmentDependency"`
		Dependencies             struct {
			Groups  []DependencyGroup `xml:"group"`
			Bare    []Dependency      `xml:"dependency"`
		} `xml:"dependencies"`
		FrameworkAssemblies struct {
			Assemblies []struct {
				TargetFramework string `xml:"targetFramework,attr"`
			} `xml:"frameworkAssembly"`
		} `xml:"frameworkAssemblies"`
	} `xml:"metadata"`
}

// Manifest is the parsed, feedkeeper-native form of a package's nuspec.
type Manifest struct {
	ID                       string
	Version                  pkgver.Version
	Title                    string
	Authors                  string
	Description              string
	Summary                  string
	ReleaseNotes             string
	Copyright                string
	Tags                     string
	ProjectURL               string
	LicenseURL               string
	IconURL                  string
	MinClientVersion         string
	RequireLicenseAcceptance bool
	DevelopmentDependency    bool
	DependencyGroups         []DependencyGroup
	SupportedTargetFrameworks []string
}

// parseManifest decodes a nuspec document.
func parseManifest(r io.Reader) (Manifest, error) {
	var raw manifestXML
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return Manifest{}, fmt.Errorf("archive: decoding manifest: %w", err)
	}
	if raw.Meta.ID == "" {
		return Manifest{}, fmt.Errorf("archive: manifest missing <id>")
	}
	v, err := pkgver.Parse(raw.Meta.Version)
	if err != nil {
		return Manifest{}, fmt.Errorf("archive: manifest %s: %w", raw.Meta.ID, err)
	}

	m := Manifest{
		ID:                       raw.Meta.ID,
		Version:                  v,
		Title:                    raw.Meta.Title,
		Authors:                  raw.Meta.Authors,
		Description:              raw.Meta.Description,
		Summary:                  raw.Meta.Summary,
		ReleaseNotes:             raw.Meta.ReleaseNotes,
		Copyright:                raw.Meta.Copyright,
		Tags:                     raw.Meta.Tags,
		ProjectURL:               raw.Meta.ProjectURL,
		LicenseURL:               raw.Meta.LicenseURL,
		IconURL:                  raw.Meta.IconURL,
		MinClientVersion:         raw.Meta.MinClientVersion,
		RequireLicenseAcceptance: raw.Meta.RequireLicenseAcceptance,
		DevelopmentDependency:    raw.Meta.DevelopmentDependency,
	}

	groups := raw.Meta.Dependencies.Groups
	if len(raw.Meta.Dependencies.Bare) > 0 {
		groups = append([]DependencyGroup{{Dependencies: raw.Meta.Dependencies.Bare}}, groups...)
	}
	m.DependencyGroups = groups

	seen := map[string]bool{}
	addFramework := func(tfm string) {
		if tfm == "" || seen[tfm] {
			return
		}
		seen[tfm] = true
		m.SupportedTargetFrameworks = append(m.SupportedTargetFrameworks, tfm)
	}
	for _, g := range groups {
		addFramework(g.TargetFramework)
	}
	for _, a := range raw.Meta.FrameworkAssemblies.Assemblies {
		addFramework(a.TargetFramework)
	}

	return m, nil
}

// HashAlgorithm identifies which streamed digest Reader computes.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "SHA256"
	SHA512 HashAlgorithm = "SHA512"
)

func newHasher(algo HashAlgorithm) (hash.Hash, error) {
	switch algo {
	case SHA256:
		return sha256.New(), nil
	case "", SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("archive: unknown hash algorithm %q", algo)
	}
}

// Info is everything the repository engine needs out of an archive: its
// manifest, whether it's a symbols package, and a content hash.
type Info struct {
	Manifest  Manifest
	IsSymbols bool
	Hash      []byte
	HashAlgo  HashAlgorithm
}

// HashBase64 returns the base64 encoding of Hash, matching the cache
// record's packageHash field format (spec.md §3).
func (i Info) HashBase64() string {
	return base64.StdEncoding.EncodeToString(i.Hash)
}

// Inspect opens the archive at r (size must be the archive's total
// length, as required by zip.NewReader) and returns its manifest,
// symbols flag, and content hash computed with algo (default SHA512).
func Inspect(r io.ReaderAt, size int64, algo HashAlgorithm) (Info, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Info{}, fmt.Errorf("archive: opening zip: %w", err)
	}

	var (
		manifest  Manifest
		foundMeta bool
		isSymbols bool
	)
	for _, f := range zr.File {
		name := f.Name
		if strings.HasSuffix(strings.ToLower(name), ".nuspec") && !foundMeta {
			rc, err := f.Open()
			if err != nil {
				return Info{}, fmt.Errorf("archive: opening manifest %s: %w", name, err)
			}
			manifest, err = parseManifest(rc)
			rc.Close()
			if err != nil {
				return Info{}, err
			}
			foundMeta = true
		}
		if strings.HasSuffix(strings.ToLower(name), symbolsExtension) {
			isSymbols = true
		}
	}
	if !foundMeta {
		return Info{}, fmt.Errorf("archive: no .nuspec manifest found")
	}

	h, err := newHasher(algo)
	if err != nil {
		return Info{}, err
	}
	sr := io.NewSectionReader(r, 0, size)
	if _, err := io.Copy(h, sr); err != nil {
		return Info{}, fmt.Errorf("archive: hashing content: %w", err)
	}
	if algo == "" {
		algo = SHA512
	}

	return Info{Manifest: manifest, IsSymbols: isSymbols, Hash: h.Sum(nil), HashAlgo: algo}, nil
}
