package alert

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/pkg/ratelimit"
)

// Dispatcher fans events out to all registered notifiers, rate limited so a
// flapping connection cannot flood a sink.
type Dispatcher struct {
	notifiers []Notifier
	limiter   ratelimit.Limiter
	logger    *zap.Logger
	timeout   time.Duration
}

func NewDispatcher(logger *zap.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifiers: notifiers,
		limiter:   ratelimit.New(30, time.Minute),
		logger:    logger,
		timeout:   10 * time.Second,
	}
}

// Dispatch delivers the event to every notifier. Failures are logged, not
// returned: alerting must never take the data path down with it.
func (d *Dispatcher) Dispatch(event Event) {
	if !d.limiter.Allow() {
		d.logger.Warn("alert dropped by rate limit",
			zap.String("source", event.Source),
			zap.String("message", event.Message))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			d.logger.Error("alert delivery failed",
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
}

// ConnectionHooks returns OnConnect/OnDisconnect functions suitable for the
// websocket manager's hook slots, labelled with source.
func (d *Dispatcher) ConnectionHooks(source string) (onConnect func(), onDisconnect func(reason string)) {
	onConnect = func() {
		d.Dispatch(NewEvent(LevelInfo, source, "connection established", nil))
	}
	onDisconnect = func(reason string) {
		level := LevelWarning
		if reason == "shutdown" || reason == "normal_close" {
			level = LevelInfo
		}
		d.Dispatch(NewEvent(level, source, "connection lost", map[string]any{
			"reason": reason,
		}))
	}
	return onConnect, onDisconnect
}
