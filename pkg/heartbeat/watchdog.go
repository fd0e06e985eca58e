// Package heartbeat supervises long-lived components: a watchdog that polls
// liveness and triggers rebuilds, and a coordinator for graceful shutdown.
package heartbeat

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether the supervised component needs rebuilding. The
// websocket manager's IsDead satisfies this.
type Probe func() bool

// Rebuild replaces a dead component. Returning an error leaves the watchdog
// polling; it will retry on the next dead observation.
type Rebuild func(ctx context.Context) error

// Watchdog polls a probe on an interval and invokes the rebuild callback
// when the probe reports dead. The decision to give up and rebuild stays
// external to the supervised component.
type Watchdog struct {
	name     string
	interval time.Duration
	probe    Probe
	rebuild  Rebuild
	logger   *zap.Logger
}

func NewWatchdog(name string, interval time.Duration, probe Probe, rebuild Rebuild, logger *zap.Logger) *Watchdog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watchdog{
		name:     name,
		interval: interval,
		probe:    probe,
		rebuild:  rebuild,
		logger:   logger.With(zap.String("watchdog", name)),
	}
}

// Run polls until ctx is cancelled. Blocking; callers usually run it in a
// goroutine.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Debug("watchdog started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watchdog stopped")
			return
		case <-ticker.C:
			if !w.probe() {
				continue
			}

			w.logger.Warn("probe reports dead, rebuilding")
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("rebuild failed", zap.Error(err))
				continue
			}
			w.logger.Info("rebuild complete")
		}
	}
}
