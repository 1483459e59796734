package repository

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/feedkeeper/feedkeeper/src/layout"
)

// watcher translates raw fsnotify events on the repository root into
// drop-folder ingests or "needs rebuild" signals, filtering out events
// the engine caused itself. A dedicated goroutine (run) reads
// fsnotify's Events/Errors channels and handles each event inline;
// errors are logged or dropped, never returned from the loop. Only the
// root directory itself is registered with fsnotify, which does not
// recurse, so events arrive for entries directly under root; changes
// inside <id>/<version> subdirectories produce no event.
type watcher struct {
	engine *Engine
	fw     *fsnotify.Watcher
}

func newWatcher(e *Engine) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(e.fs.Root); err != nil {
		fw.Close()
		return nil, err
	}
	return &watcher{engine: e, fw: fw}, nil
}

func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.engine.stopBackground:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.engine.log.Warn().Err(err).Msg("filesystem watcher error")
		}
	}
}

// handle implements spec.md §5's event-filtering contract: a loose
// archive dropped directly under root schedules drop-folder ingest;
// any other unsuppressed event that reaches it — a top-level directory
// created or deleted, or anything else directly under root — is treated
// coarsely by forcing a full rebuild on the next query, per spec.md §9's Open
// Question ("a finer-grained invalidation would be preferable but is
// deferred; note the coarser behavior as the current contract").
func (w *watcher) handle(ctx context.Context, ev fsnotify.Event) {
	rel, err := w.engine.fs.Rel(ev.Name)
	if err != nil {
		return
	}

	if w.engine.isSuppressed(rel) {
		return
	}

	if isLooseArchive(rel) {
		w.engine.log.Debug().Str("path", rel).Msg("detected drop-folder archive, scheduling ingest")
		go w.engine.scheduleDropFolderIngest(ctx)
		return
	}

	w.engine.log.Debug().Str("path", rel).Str("op", ev.Op.String()).Msg("detected external filesystem change, forcing rebuild")
	w.engine.needsRebuild.Store(true)
}

// scheduleDropFolderIngest runs AddPackagesFromDropFolder on its own
// goroutine so the watcher's dispatch loop never blocks on the writer
// lock; failures are logged and discarded, never propagated, per
// spec.md §9 "Async void event handlers".
func (e *Engine) scheduleDropFolderIngest(ctx context.Context) {
	if err := e.AddPackagesFromDropFolder(ctx); err != nil {
		e.log.Warn().Err(err).Msg("watcher-triggered drop-folder ingest failed")
	}
}

func isLooseArchive(rel string) bool {
	return len(rel) > len(layout.ArchiveExtension) && rel[len(rel)-len(layout.ArchiveExtension):] == layout.ArchiveExtension
}

func (w *watcher) close() {
	w.fw.Close()
}

// markSuppressed records rel as an engine-induced write so the watcher
// ignores the filesystem event it triggers.
func (e *Engine) markSuppressed(rel string) {
	e.suppress.Add(rel, struct{}{})
}

func (e *Engine) isSuppressed(rel string) bool {
	_, ok := e.suppress.Get(rel)
	if ok {
		e.suppress.Remove(rel)
	}
	return ok
}
