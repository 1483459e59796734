package repository

import (
	"context"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/ferrors"
	"github.com/feedkeeper/feedkeeper/src/layout"
	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
	"github.com/feedkeeper/feedkeeper/src/query"
)

// Rebuild runs the five-step rebuild algorithm from spec.md §4.E under
// the writer lock, marking the cache file it persists as a self-induced
// write for the watcher.
func (e *Engine) Rebuild(ctx context.Context) error {
	if err := e.lockWriter(ctx); err != nil {
		return ferrors.Wrap(ferrors.Internal, "Rebuild", err)
	}
	defer e.unlockWriter()
	return e.rebuildLocked(ctx)
}

func (e *Engine) rebuildLocked(ctx context.Context) error {
	e.log.Info().Msg("rebuilding catalog from disk")

	entries, err := e.layout.GetAll()
	if err != nil {
		return ferrors.Wrap(ferrors.Internal, "Rebuild", err)
	}

	now := time.Now().UTC()
	var packages []pkgmeta.ServerPackage
	for _, entry := range entries {
		pkg, err := e.deriveRecord(entry, now)
		if err != nil {
			e.log.Warn().Err(err).Str("path", entry.ArchivePath).Msg("skipping unreadable archive during rebuild")
			continue
		}
		packages = append(packages, pkg)
	}

	e.cache.Replace(packages)

	if err := e.ingestDropFolderLocked(ctx); err != nil {
		e.log.Warn().Err(err).Msg("drop-folder ingest reported errors during rebuild")
	}

	e.recomputeAndStore()

	e.markSuppressed(e.cache.FileName())
	if err := e.cache.PersistIfDirty(); err != nil {
		return ferrors.Wrap(ferrors.Internal, "Rebuild", err)
	}
	e.needsRebuild.Store(false)
	return nil
}

// recomputeAndStore recomputes the latest flags over the current cache
// snapshot and writes the recomputed records back in, since
// ComputeLatestFlags mutates a detached copy returned by GetAll.
func (e *Engine) recomputeAndStore() {
	all := e.cache.GetAll()
	query.ComputeLatestFlags(all)
	e.cache.Replace(all)
}

// deriveRecord re-derives a ServerPackage from an on-disk archive entry:
// read the manifest, compute size, compute or read the hash, and set
// Listed from the hidden-attribute marker iff delisting is enabled.
func (e *Engine) deriveRecord(entry layout.Entry, now time.Time) (pkgmeta.ServerPackage, error) {
	size, err := e.fs.Size(entry.ArchivePath)
	if err != nil {
		return pkgmeta.ServerPackage{}, err
	}

	rc, err := e.fs.Open(entry.ArchivePath)
	if err != nil {
		return pkgmeta.ServerPackage{}, err
	}
	defer rc.Close()

	ra, ok := rc.(io.ReaderAt)
	if !ok {
		return pkgmeta.ServerPackage{}, ferrors.New(ferrors.Internal, "deriveRecord", "archive file does not support random access")
	}

	info, err := archive.Inspect(ra, size, e.layout.HashAlgo)
	if err != nil {
		return pkgmeta.ServerPackage{}, err
	}

	listed := true
	if e.cfg.EnableDelisting {
		hidden, err := e.fs.IsHidden(entry.ArchivePath)
		if err != nil {
			return pkgmeta.ServerPackage{}, err
		}
		listed = !hidden
	}

	abs, err := e.fs.Abs(entry.ArchivePath)
	if err != nil {
		return pkgmeta.ServerPackage{}, err
	}

	return pkgmeta.FromArchive(entry.ID, entry.Version, info, abs, listed, now, size), nil
}

// ingestDropFolderLocked scans the repository root for loose archive
// files directly under it and ingests each, per spec.md §4.E's
// drop-folder ingest algorithm. Caller must hold the writer lock.
func (e *Engine) ingestDropFolderLocked(ctx context.Context) error {
	candidates, err := e.fs.Glob(".", "*"+layout.ArchiveExtension)
	if err != nil {
		return ferrors.Wrap(ferrors.Internal, "AddPackagesFromDropFolder", err)
	}

	var errs *multierror.Error
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.ingestOne(path); err != nil {
			e.log.Warn().Err(err).Str("path", path).Msg("drop-folder ingest skipped a file")
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (e *Engine) ingestOne(path string) error {
	size, err := e.fs.Size(path)
	if err != nil {
		return ferrors.Wrap(ferrors.Transient, "ingestOne", err)
	}
	rc, err := e.fs.Open(path)
	if err != nil {
		return ferrors.Wrap(ferrors.Transient, "ingestOne", err)
	}
	defer rc.Close()

	ra, ok := rc.(io.ReaderAt)
	if !ok {
		return ferrors.New(ferrors.Internal, "ingestOne", "drop-folder file does not support random access")
	}

	info, err := archive.Inspect(ra, size, e.layout.HashAlgo)
	if err != nil {
		return ferrors.Wrap(ferrors.Transient, "ingestOne", err)
	}

	if e.cfg.IgnoreSymbolsPackages && info.IsSymbols {
		return nil
	}

	id := info.Manifest.ID
	v := info.Manifest.Version

	if e.cache.Exists(id, v) && !e.cfg.AllowOverrideExistingPackageOnPush {
		return nil
	}

	added, err := e.layout.Add(id, v, ra, size, e.cfg.AllowOverrideExistingPackageOnPush)
	if err != nil {
		if kind, ok := ferrors.KindOf(err); ok && kind == ferrors.AlreadyExists {
			// A concurrent writer raced us to this (id, version); safe
			// to skip, the other writer's record already covers it.
			return nil
		}
		return ferrors.Wrap(ferrors.Transient, "ingestOne", err)
	}

	abs, err := e.fs.Abs(added.ArchivePath)
	if err != nil {
		return ferrors.Wrap(ferrors.Transient, "ingestOne", err)
	}

	pkg := pkgmeta.FromArchive(id, v, added.Info, abs, true, time.Now().UTC(), added.Size)
	e.cache.Add(pkg, e.cfg.EnableDelisting)

	if err := e.fs.Remove(path); err != nil {
		return ferrors.Wrap(ferrors.Transient, "ingestOne", err)
	}
	return nil
}
