// Package repository implements the repository engine (spec.md §4.E),
// the orchestrator that ties the filesystem abstraction, archive
// reader, on-disk layout, and metadata cache into a single concurrent,
// self-healing index: single-writer mutation, concurrent reads, a
// background filesystem watcher, and periodic rebuild/persistence
// timers.
package repository

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/feedkeeper/feedkeeper/src/archive"
	"github.com/feedkeeper/feedkeeper/src/cache"
	"github.com/feedkeeper/feedkeeper/src/config"
	"github.com/feedkeeper/feedkeeper/src/ferrors"
	"github.com/feedkeeper/feedkeeper/src/fsx"
	"github.com/feedkeeper/feedkeeper/src/layout"
	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
	"github.com/feedkeeper/feedkeeper/src/pkgver"
	"github.com/feedkeeper/feedkeeper/src/query"
	"github.com/feedkeeper/feedkeeper/src/versionrange"
)

// suppressionCacheSize bounds the LRU of paths the engine recently
// wrote itself, used to ignore watcher events triggered by its own
// writes instead of holding a process-wide mutable cache.
const suppressionCacheSize = 2048

// Engine is the repository engine. Construct with New.
type Engine struct {
	cfg    *config.Config
	fs     *fsx.FS
	layout *layout.Layout
	cache  *cache.Cache
	log    zerolog.Logger

	writer *semaphore.Weighted

	needsRebuild atomic.Bool
	suppress     *lru.Cache[string, struct{}]

	watcher *watcher

	persistTicker *time.Ticker
	rebuildTimer  *time.Timer
	rebuildTicker *time.Ticker
	stopBackground chan struct{}

	machineID string
}

// New constructs an Engine rooted at cfg.Root. It does not start
// background jobs or the watcher; call Start for that.
func New(cfg *config.Config, log zerolog.Logger) (*Engine, error) {
	fs, err := fsx.NewOS(cfg.Root)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Internal, "repository.New", err)
	}
	return newEngine(cfg, fs, log)
}

// NewWithFS constructs an Engine over a caller-supplied filesystem
// abstraction, for tests that use an in-memory afero.Fs.
func NewWithFS(cfg *config.Config, fs *fsx.FS, log zerolog.Logger) (*Engine, error) {
	return newEngine(cfg, fs, log)
}

func newEngine(cfg *config.Config, fs *fsx.FS, log zerolog.Logger) (*Engine, error) {
	algo := archiveHashAlgorithm(cfg.HashAlgorithm)

	machineID, err := loadOrCreateMachineID(fs)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Internal, "repository.New", err)
	}

	cacheFileName := cfg.CacheFileName
	if cacheFileName == "" {
		cacheFileName = machineID + ".cache.bin"
	}

	suppress, err := lru.New[string, struct{}](suppressionCacheSize)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Internal, "repository.New", err)
	}

	e := &Engine{
		cfg:            cfg,
		fs:             fs,
		layout:         layout.New(fs, algo),
		cache:          cache.New(fs, cacheFileName),
		log:            log.With().Str("component", "repository").Logger(),
		writer:         semaphore.NewWeighted(1),
		suppress:       suppress,
		stopBackground: make(chan struct{}),
		machineID:      machineID,
	}
	e.needsRebuild.Store(true)

	if err := e.cache.Load(); err != nil {
		return nil, ferrors.Wrap(ferrors.Internal, "repository.New", err)
	}

	return e, nil
}

// Source returns the repository root path.
func (e *Engine) Source() string { return e.fs.Root }

// Start launches the watcher (if enabled) and the background timers.
// Callers should call Stop when done.
func (e *Engine) Start(ctx context.Context) error {
	if e.cfg.EnableFileSystemMonitoring {
		w, err := newWatcher(e)
		if err != nil {
			return ferrors.Wrap(ferrors.Internal, "repository.Start", err)
		}
		e.watcher = w
		go e.watcher.run(ctx)
	}
	e.startTimers(ctx)
	return nil
}

// Stop releases the watcher and background timers.
func (e *Engine) Stop() {
	close(e.stopBackground)
	if e.watcher != nil {
		e.watcher.close()
	}
	if e.persistTicker != nil {
		e.persistTicker.Stop()
	}
	if e.rebuildTimer != nil {
		e.rebuildTimer.Stop()
	}
	if e.rebuildTicker != nil {
		e.rebuildTicker.Stop()
	}
}

func archiveHashAlgorithm(algo config.HashAlgorithm) archive.HashAlgorithm {
	if algo == config.SHA256 {
		return archive.SHA256
	}
	return archive.SHA512
}

// lockWriter acquires the single-writer permit, honoring ctx
// cancellation while waiting.
func (e *Engine) lockWriter(ctx context.Context) error {
	return e.writer.Acquire(ctx, 1)
}

func (e *Engine) unlockWriter() {
	e.writer.Release(1)
}

// ensureFresh triggers a rebuild if the "needs rebuild" flag is set,
// per spec.md §4.E: "triggered on first query after construction,
// after ClearCache, on timer, or when the cache is empty".
func (e *Engine) ensureFresh(ctx context.Context) error {
	if !e.needsRebuild.Load() && len(e.cache.GetAll()) > 0 {
		return nil
	}
	return e.Rebuild(ctx)
}

// snapshot returns a latest-flag-computed, query-ready copy of the
// cache contents, rebuilding first if necessary.
func (e *Engine) snapshot(ctx context.Context) ([]pkgmeta.ServerPackage, error) {
	if err := e.ensureFresh(ctx); err != nil {
		return nil, err
	}
	return e.cache.GetAll(), nil
}

// GetPackages returns every record allowed under compat.
func (e *Engine) GetPackages(ctx context.Context, compat query.Compatibility) ([]pkgmeta.ServerPackage, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.GetPackages(snap, compat), nil
}

// FindPackage returns the single record for (id, version), or a
// NotFound error.
func (e *Engine) FindPackage(ctx context.Context, id string, v pkgver.Version) (pkgmeta.ServerPackage, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return pkgmeta.ServerPackage{}, err
	}
	p, ok := query.FindPackage(snap, id, v)
	if !ok {
		return pkgmeta.ServerPackage{}, ferrors.New(ferrors.NotFound, "FindPackage", fmt.Sprintf("%s %s", id, v))
	}
	return p, nil
}

// Exists is the shortcut the HTTP layer uses per spec.md §6.
func (e *Engine) Exists(ctx context.Context, id string, v pkgver.Version) (bool, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return false, err
	}
	_, ok := query.FindPackage(snap, id, v)
	return ok, nil
}

// FindPackagesById returns every version of id allowed under compat.
func (e *Engine) FindPackagesById(ctx context.Context, id string, compat query.Compatibility) ([]pkgmeta.ServerPackage, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.FindPackagesById(snap, id, compat), nil
}

// Search applies spec.md §4.E's five-step filter chain.
func (e *Engine) Search(ctx context.Context, term string, targetFrameworks []string, allowPrerelease, allowUnlisted bool, compat query.Compatibility) ([]pkgmeta.ServerPackage, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.Search(snap, query.SearchOptions{
		Term:                     term,
		TargetFrameworks:         targetFrameworks,
		AllowPrerelease:          allowPrerelease,
		AllowUnlisted:            allowUnlisted,
		Compatibility:            compat,
		EnableDelisting:          e.cfg.EnableDelisting,
		EnableFrameworkFiltering: e.cfg.EnableFrameworkFiltering,
	}), nil
}

// UpdateCheck is one (id, version, range) query for GetUpdates.
type UpdateCheck struct {
	ID      string
	Version pkgver.Version
	Range   versionrange.Range
}

// GetUpdates implements spec.md §4.E's update-check operation.
func (e *Engine) GetUpdates(ctx context.Context, checks []UpdateCheck, includePrerelease, includeAllVersions bool, targetFrameworks []string, compat query.Compatibility) ([]pkgmeta.ServerPackage, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	queries := make([]query.UpdateQuery, len(checks))
	for i, c := range checks {
		queries[i] = query.UpdateQuery{ID: c.ID, Version: c.Version, Range: c.Range}
	}
	return query.GetUpdates(snap, queries, query.GetUpdatesOptions{
		IncludePrerelease:        includePrerelease,
		IncludeAllVersions:       includeAllVersions,
		TargetFrameworks:         targetFrameworks,
		Compatibility:            compat,
		EnableFrameworkFiltering: e.cfg.EnableFrameworkFiltering,
	}), nil
}

// ClearCache empties the cache, persists the empty state, and marks the
// engine as needing a rebuild on the next query.
func (e *Engine) ClearCache(ctx context.Context) error {
	if err := e.lockWriter(ctx); err != nil {
		return ferrors.Wrap(ferrors.Internal, "ClearCache", err)
	}
	defer e.unlockWriter()

	e.cache.Clear()
	if err := e.cache.Persist(); err != nil {
		return ferrors.Wrap(ferrors.Internal, "ClearCache", err)
	}
	e.needsRebuild.Store(true)
	return nil
}

func loadOrCreateMachineID(fs *fsx.FS) (string, error) {
	const idFile = ".feedkeeper-id"
	exists, err := fs.Exists(idFile)
	if err != nil {
		return "", err
	}
	if exists {
		rc, err := fs.Open(idFile)
		if err != nil {
			return "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		if id := string(data); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := fs.CreateAtomic(idFile, func(w io.Writer) error {
		_, err := w.Write([]byte(id))
		return err
	}); err != nil {
		return "", err
	}
	return id, nil
}
