package layout

import (
	"encoding/xml"

	"github.com/feedkeeper/feedkeeper/src/archive"
)

// nuspecDoc mirrors the subset of the nuspec schema feedkeeper persists
// as the sidecar manifest copy next to each ingested archive.
type nuspecDoc struct {
	XMLName xml.Name `xml:"package"`
	Meta    struct {
		ID                       string                    `xml:"id"`
		Version                  string                    `xml:"version"`
		Title                    string                    `xml:"title,omitempty"`
		Authors                  string                    `xml:"authors"`
		Description              string                    `xml:"description"`
		Summary                  string                    `xml:"summary,omitempty"`
		ReleaseNotes             string                    `xml:"releaseNotes,omitempty"`
		Copyright                string                    `xml:"copyright,omitempty"`
		Tags                     string                    `xml:"tags,omitempty"`
		ProjectURL               string                    `xml:"projectUrl,omitempty"`
		LicenseURL               string                    `xml:"licenseUrl,omitempty"`
		IconURL                  string                    `xml:"iconUrl,omitempty"`
		MinClientVersion         string                    `xml:"minClientVersion,attr,omitempty"`
		RequireLicenseAcceptance bool                      `xml:"requireLicenseAcceptance"`
		DevelopmentDependency    bool                      `xml:"developmentDependency,omitempty"`
		Dependencies             struct {
			Groups []archive.DependencyGroup `xml:"group"`
		} `xml:"dependencies"`
	} `xml:"metadata"`
}

// renderManifest serializes a Manifest back to nuspec XML for the
// sidecar manifest copy the layout keeps next to each archive.
func renderManifest(m archive.Manifest) ([]byte, error) {
	var doc nuspecDoc
	doc.Meta.ID = m.ID
	doc.Meta.Version = m.Version.Original()
	doc.Meta.Title = m.Title
	doc.Meta.Authors = m.Authors
	doc.Meta.Description = m.Description
	doc.Meta.Summary = m.Summary
	doc.Meta.ReleaseNotes = m.ReleaseNotes
	doc.Meta.Copyright = m.Copyright
	doc.Meta.Tags = m.Tags
	doc.Meta.ProjectURL = m.ProjectURL
	doc.Meta.LicenseURL = m.LicenseURL
	doc.Meta.IconURL = m.IconURL
	doc.Meta.MinClientVersion = m.MinClientVersion
	doc.Meta.RequireLicenseAcceptance = m.RequireLicenseAcceptance
	doc.Meta.DevelopmentDependency = m.DevelopmentDependency
	doc.Meta.Dependencies.Groups = m.DependencyGroups

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
