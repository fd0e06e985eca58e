package infrastructure

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RegisterLifecycle sets up application shutdown hooks.
func RegisterLifecycle(lc fx.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down")
			// Sync flushes buffered log entries; stdout sync errors are benign.
			_ = logger.Sync()
			return nil
		},
	})
}
