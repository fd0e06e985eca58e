package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/internal/config"
	"github.com/quantmesh/streamkit/pkg/alert"
	"github.com/quantmesh/streamkit/pkg/heartbeat"
	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

// managerConfig builds a connection config from app config plus the --url flag.
func managerConfig(cmd *cobra.Command, cfg *config.Config) connection.Config {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = cfg.Stream.URL
	}

	conn := connection.DefaultConfig()
	conn.URL = url
	conn.PingInterval = cfg.Stream.PingInterval
	conn.PingTimeout = cfg.Stream.PingTimeout
	conn.ConnectTimeout = cfg.Stream.ConnectTimeout
	conn.ReconnectStrategy = connection.StrategyKind(cfg.Stream.ReconnectStrategy)
	conn.ReconnectDelay = cfg.Stream.ReconnectDelay
	conn.MaxReconnectAttempts = cfg.Stream.MaxReconnectAttempts
	conn.AutoReconnect = cfg.Stream.AutoReconnect
	conn.QueueSize = cfg.Stream.QueueSize
	return conn
}

// supervisedStream holds the live manager; the watchdog swaps in a fresh one
// when the current manager dies.
type supervisedStream struct {
	mu  sync.Mutex
	mgr *connection.Manager
}

func (s *supervisedStream) current() *connection.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr
}

func (s *supervisedStream) replace(mgr *connection.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mgr = mgr
}

// RunStream connects, subscribes, and prints the message stream until a
// termination signal arrives. A watchdog rebuilds the manager if it dies.
func RunStream(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, dispatcher *alert.Dispatcher) error {
	channels, _ := cmd.Flags().GetStringSlice("subscribe")

	connCfg := managerConfig(cmd, cfg)

	onConnect, onDisconnect := dispatcher.ConnectionHooks(connCfg.URL)
	connCfg.Hooks = connection.Hooks{
		OnConnect: onConnect,
		OnDisconnect: func(reason connection.DisconnectReason) {
			onDisconnect(reason.String())
		},
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stream := &supervisedStream{}

	start := func(ctx context.Context) error {
		mgr, err := connection.NewManager(connCfg, nil, logger)
		if err != nil {
			return err
		}
		if err := mgr.Subscribe(channels...); err != nil {
			return err
		}
		if err := mgr.Connect(ctx); err != nil {
			mgr.ForceClose()
			return err
		}

		stream.replace(mgr)
		go func() {
			for msg := range mgr.Stream(ctx) {
				fmt.Println(msg.Text)
			}
		}()
		return nil
	}

	if err := start(ctx); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}

	// Supervision: when the manager exhausts its retry budget or is killed,
	// retire it and build a replacement.
	watchdog := heartbeat.NewWatchdog("stream", cfg.Stream.WatchdogInterval,
		func() bool { return stream.current().IsDead() },
		func(ctx context.Context) error {
			stream.current().ForceClose()
			return start(ctx)
		},
		logger)
	go watchdog.Run(ctx)

	coordinator := heartbeat.NewShutdownCoordinator(30*time.Second, logger)
	coordinator.Register(func(context.Context) error {
		stream.current().Shutdown()
		return nil
	})

	return coordinator.Wait(ctx)
}
