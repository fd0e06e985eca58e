package handlers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/internal/config"
	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

// RunProbe performs a one-shot connectivity check: connect, wait for the
// connected signal, report, and close.
func RunProbe(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	connCfg := managerConfig(cmd, cfg)
	connCfg.AutoReconnect = false

	mgr, err := connection.NewManager(connCfg, nil, logger)
	if err != nil {
		return fmt.Errorf("build manager: %w", err)
	}

	return mgr.Session(cmd.Context(), func(mgr *connection.Manager) error {
		if !mgr.WaitConnected(connCfg.ConnectTimeout) {
			return fmt.Errorf("no connection to %s within %s", connCfg.URL, connCfg.ConnectTimeout)
		}

		stats := mgr.Stats().Snapshot()
		fmt.Printf("connected to %s (state=%s, uptime=%s, connects=%d)\n",
			connCfg.URL, mgr.State(), mgr.ConnectionDuration().Round(time.Millisecond), stats.Connects)
		return nil
	})
}
