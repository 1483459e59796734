package repository

import (
	"context"
	"time"
)

const persistenceInterval = time.Minute

// startTimers launches the persistence timer and the rebuild timer
// (initial delay then periodic) described in spec.md §4.E and §6.
// Background jobs never propagate errors; they log and continue on the
// next tick, per spec.md §7.
func (e *Engine) startTimers(ctx context.Context) {
	e.persistTicker = time.NewTicker(persistenceInterval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stopBackground:
				return
			case <-e.persistTicker.C:
				if err := e.cache.PersistIfDirty(); err != nil {
					e.log.Warn().Err(err).Msg("periodic cache persist failed")
				}
			}
		}
	}()

	initialDelay := time.Duration(e.cfg.InitialCacheRebuildAfterSeconds) * time.Second
	frequency := time.Duration(e.cfg.CacheRebuildFrequencyInMinutes) * time.Minute

	e.rebuildTimer = time.AfterFunc(initialDelay, func() {
		e.runScheduledRebuild(ctx)
		e.rebuildTicker = time.NewTicker(frequency)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-e.stopBackground:
					return
				case <-e.rebuildTicker.C:
					e.runScheduledRebuild(ctx)
				}
			}
		}()
	})
}

func (e *Engine) runScheduledRebuild(ctx context.Context) {
	if err := e.Rebuild(ctx); err != nil {
		e.log.Warn().Err(err).Msg("scheduled rebuild failed")
	}
}
