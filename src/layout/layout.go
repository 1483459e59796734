// Package layout implements the expanded on-disk layout (spec.md §4.C):
// it maps an (id, version) package identity to its canonical subpath
// under the repository root, ingests archives into that layout, and
// supports both delisting (flip the hidden marker) and hard delete.
package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/ferrors"
	"github.com/feedkeeper/feedkeeper/src/fsx"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
)

// ArchiveExtension is the distribution unit's file extension.
const ArchiveExtension = ".nupkg"

// Layout manages the canonical directory tree under an FS root:
//
//	<id-lower>/<normalized-version>/<id>.<normalized-version>.nupkg
//	<id-lower>/<normalized-version>/<id>.<normalized-version>.nupkg.sha512
//	<id-lower>/<normalized-version>/<id>.nuspec
type Layout struct {
	FS       *fsx.FS
	HashAlgo archive.HashAlgorithm
}

// New constructs a Layout over fs using the given hash algorithm (zero
// value defaults to SHA512 per spec.md §4.B).
func New(fs *fsx.FS, algo archive.HashAlgorithm) *Layout {
	return &Layout{FS: fs, HashAlgo: algo}
}

// Dir returns the root-relative directory for (id, version).
func Dir(id string, v pkgver.Version) string {
	return strings.ToLower(id) + "/" + v.Normalize()
}

// ArchivePath returns the root-relative archive path for (id, version).
func ArchivePath(id string, v pkgver.Version) string {
	return fmt.Sprintf("%s/%s.%s%s", Dir(id, v), id, v.Normalize(), ArchiveExtension)
}

func hashPath(id string, v pkgver.Version, algo archive.HashAlgorithm) string {
	ext := ".sha512"
	if algo == archive.SHA256 {
		ext = ".sha256"
	}
	return ArchivePath(id, v) + ext
}

func manifestPath(id string, v pkgver.Version) string {
	return Dir(id, v) + "/" + id + ".nuspec"
}

// Added is what Add returns: the ingested archive's derived metadata
// plus the paths it was written to, for the caller to build a cache
// record from.
type Added struct {
	Info        archive.Info
	ArchivePath string
	Size        int64
}

// Add ingests the archive readable through content (size bytes long)
// into the canonical layout.
// Fails with ferrors.AlreadyExists if the target is already present and
// overwrite is false; on overwrite it replaces the archive and both
// sidecars.
func (l *Layout) Add(id string, v pkgver.Version, content io.ReaderAt, size int64, overwrite bool) (Added, error) {
	info, err := archive.Inspect(content, size, l.HashAlgo)
	if err != nil {
		return Added{}, ferrors.Wrap(ferrors.InvalidArgument, "layout.Add", err)
	}

	archivePath := ArchivePath(id, v)
	exists, err := l.FS.Exists(archivePath)
	if err != nil {
		return Added{}, ferrors.Wrap(ferrors.Internal, "layout.Add", err)
	}
	if exists && !overwrite {
		return Added{}, ferrors.New(ferrors.AlreadyExists, "layout.Add", fmt.Sprintf("%s %s already exists", id, v))
	}

	sr := io.NewSectionReader(content, 0, size)
	if err := l.FS.CreateAtomic(archivePath, func(w io.Writer) error {
		_, err := io.Copy(w, sr)
		return err
	}); err != nil {
		return Added{}, ferrors.Wrap(ferrors.Internal, "layout.Add", err)
	}

	hashB64 := info.HashBase64()
	if err := l.FS.CreateAtomic(hashPath(id, v, l.HashAlgo), func(w io.Writer) error {
		_, err := w.Write([]byte(hashB64))
		return err
	}); err != nil {
		return Added{}, ferrors.Wrap(ferrors.Internal, "layout.Add", err)
	}

	manifestContent, err := renderManifest(info.Manifest)
	if err != nil {
		return Added{}, ferrors.Wrap(ferrors.Internal, "layout.Add", err)
	}
	if err := l.FS.CreateAtomic(manifestPath(id, v), func(w io.Writer) error {
		_, err := w.Write(manifestContent)
		return err
	}); err != nil {
		return Added{}, ferrors.Wrap(ferrors.Internal, "layout.Add", err)
	}

	return Added{Info: info, ArchivePath: archivePath, Size: size}, nil
}

// Remove removes (id, version): if enableDelisting, it flips the hidden
// marker on the archive file; otherwise it deletes the whole
// <id>/<version> subtree.
func (l *Layout) Remove(id string, v pkgver.Version, enableDelisting bool) error {
	if enableDelisting {
		return l.FS.SetHidden(ArchivePath(id, v), true)
	}
	return l.FS.RemoveAll(Dir(id, v))
}

// Relist clears a previously-set delisting marker.
func (l *Layout) Relist(id string, v pkgver.Version) error {
	return l.FS.SetHidden(ArchivePath(id, v), false)
}

// Exists reports whether (id, version)'s archive is present on disk
// (regardless of its listed/hidden state).
func (l *Layout) Exists(id string, v pkgver.Version) (bool, error) {
	return l.FS.Exists(ArchivePath(id, v))
}

// Entry describes one archive discovered by GetAll.
type Entry struct {
	ID          string
	Version     pkgver.Version
	ArchivePath string
}

// KnownPath parses rel against the canonical layout and, if it matches,
// returns the (id, version) it encodes. This is the "known path"
// predicate from spec.md §6, used by the watcher to recognize the
// engine's own writes.
func KnownPath(rel string) (id string, v pkgver.Version, ok bool) {
	rel = strings.TrimPrefix(rel, "./")
	parts := strings.Split(rel, "/")
	if len(parts) != 3 {
		return "", pkgver.Version{}, false
	}
	idLower, versionDir, filename := parts[0], parts[1], parts[2]
	if !strings.HasSuffix(filename, ArchiveExtension) {
		return "", pkgver.Version{}, false
	}
	base := strings.TrimSuffix(filename, ArchiveExtension)
	prefix := strings.ToLower(base)
	if !strings.HasPrefix(prefix, idLower+".") {
		return "", pkgver.Version{}, false
	}
	versionPart := base[len(idLower)+1:]
	parsed, err := pkgver.Parse(versionPart)
	if err != nil || parsed.Normalize() != versionDir {
		return "", pkgver.Version{}, false
	}
	return base[:len(idLower)], parsed, true
}

// GetAll enumerates every archive under the layout.
func (l *Layout) GetAll() ([]Entry, error) {
	var entries []Entry
	err := l.FS.Walk(".", func(rel string) error {
		id, v, ok := KnownPath(rel)
		if !ok {
			return nil
		}
		entries = append(entries, Entry{ID: id, Version: v, ArchivePath: rel})
		return nil
	})
	return entries, err
}
