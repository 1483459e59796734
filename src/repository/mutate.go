package repository

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/ferrors"
	"github.com/feedkeeper/feedkeeper/src/layout"
	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
)

// AddPackage writes content (size bytes, readable at arbitrary offsets)
// to the expanded layout under (id, version), reads its derived fields
// back, and inserts the resulting record into the cache.
func (e *Engine) AddPackage(ctx context.Context, id string, v pkgver.Version, content io.ReaderAt, size int64) (pkgmeta.ServerPackage, error) {
	if id == "" {
		return pkgmeta.ServerPackage{}, ferrors.New(ferrors.InvalidArgument, "AddPackage", "id must not be empty")
	}

	if err := e.lockWriter(ctx); err != nil {
		return pkgmeta.ServerPackage{}, ferrors.Wrap(ferrors.Internal, "AddPackage", err)
	}
	defer e.unlockWriter()

	info, err := archive.Inspect(content, size, e.layout.HashAlgo)
	if err != nil {
		return pkgmeta.ServerPackage{}, ferrors.Wrap(ferrors.InvalidArgument, "AddPackage", err)
	}
	if e.cfg.IgnoreSymbolsPackages && info.IsSymbols {
		return pkgmeta.ServerPackage{}, ferrors.New(ferrors.SymbolsRejected, "AddPackage", fmt.Sprintf("%s %s is a symbols archive", id, v))
	}

	added, err := e.layout.Add(id, v, content, size, e.cfg.AllowOverrideExistingPackageOnPush)
	if err != nil {
		return pkgmeta.ServerPackage{}, err
	}
	e.markSuppressed(added.ArchivePath)

	abs, err := e.fs.Abs(added.ArchivePath)
	if err != nil {
		return pkgmeta.ServerPackage{}, ferrors.Wrap(ferrors.Internal, "AddPackage", err)
	}

	pkg := pkgmeta.FromArchive(id, v, added.Info, abs, true, time.Now().UTC(), added.Size)
	e.cache.Add(pkg, e.cfg.EnableDelisting)
	e.recomputeAndStore()

	if err := e.cache.PersistIfDirty(); err != nil {
		return pkgmeta.ServerPackage{}, ferrors.Wrap(ferrors.Internal, "AddPackage", err)
	}

	updated, _ := e.cache.Find(id, v)
	return updated, nil
}

// RemovePackage removes (id, version): delist (flip hidden + listed)
// if enableDelisting, otherwise hard-delete the archive and its cache
// entry. Removing an absent package is a no-op, per spec.md §7.
func (e *Engine) RemovePackage(ctx context.Context, id string, v pkgver.Version) error {
	if err := e.lockWriter(ctx); err != nil {
		return ferrors.Wrap(ferrors.Internal, "RemovePackage", err)
	}
	defer e.unlockWriter()

	exists, err := e.layout.Exists(id, v)
	if err != nil {
		return ferrors.Wrap(ferrors.Internal, "RemovePackage", err)
	}
	if !exists {
		return nil
	}

	// Mark the archive's own path as self-induced. Delisting writes an
	// "<archive>.hidden" marker and hard delete removes the whole
	// <id>/<version> directory, so events from those carry other paths.
	e.markSuppressed(layout.ArchivePath(id, v))
	if err := e.layout.Remove(id, v, e.cfg.EnableDelisting); err != nil {
		return ferrors.Wrap(ferrors.Internal, "RemovePackage", err)
	}

	e.cache.Remove(id, v, e.cfg.EnableDelisting)
	e.recomputeAndStore()

	if err := e.cache.PersistIfDirty(); err != nil {
		return ferrors.Wrap(ferrors.Internal, "RemovePackage", err)
	}
	return nil
}

// AddPackagesFromDropFolder scans the repository root for loose archive
// files and ingests each, per spec.md §4.E.
func (e *Engine) AddPackagesFromDropFolder(ctx context.Context) error {
	if err := e.lockWriter(ctx); err != nil {
		return ferrors.Wrap(ferrors.Internal, "AddPackagesFromDropFolder", err)
	}
	defer e.unlockWriter()

	if err := e.ingestDropFolderLocked(ctx); err != nil {
		return err
	}
	e.recomputeAndStore()
	return e.cache.PersistIfDirty()
}
