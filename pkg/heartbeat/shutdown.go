package heartbeat

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownCoordinator invokes registered stop functions when the process
// receives a termination signal, bounded by a grace period.
type ShutdownCoordinator struct {
	grace  time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	stops []func(ctx context.Context) error
}

func NewShutdownCoordinator(grace time.Duration, logger *zap.Logger) *ShutdownCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShutdownCoordinator{grace: grace, logger: logger}
}

// Register adds a stop function, invoked concurrently with the others on
// shutdown.
func (sc *ShutdownCoordinator) Register(stop func(ctx context.Context) error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.stops = append(sc.stops, stop)
}

// Wait blocks until SIGINT/SIGTERM arrives or ctx is cancelled, then runs
// all registered stop functions within the grace period.
func (sc *ShutdownCoordinator) Wait(ctx context.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		sc.logger.Info("termination signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	return sc.Stop()
}

// Stop runs all registered stop functions now.
func (sc *ShutdownCoordinator) Stop() error {
	sc.mu.Lock()
	stops := make([]func(ctx context.Context) error, len(sc.stops))
	copy(stops, sc.stops)
	sc.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sc.grace)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, stop := range stops {
		stop := stop
		g.Go(func() error {
			return stop(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		sc.logger.Error("shutdown finished with errors", zap.Error(err))
		return err
	}

	sc.logger.Info("shutdown complete")
	return nil
}
