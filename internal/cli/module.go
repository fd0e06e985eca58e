package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/internal/cli/handlers"
	"github.com/quantmesh/streamkit/internal/config"
	"github.com/quantmesh/streamkit/pkg/alert"
)

// Module provides the CLI commands
var Module = fx.Module("cli",
	fx.Provide(
		NewStreamCmd,
		NewProbeCmd,
	),
	fx.Invoke(RunCLI),
)

// CmdParams groups the commands for root registration.
type CmdParams struct {
	fx.In

	Stream *cobra.Command `name:"stream"`
	Probe  *cobra.Command `name:"probe"`
}

// NewStreamCmd creates the stream command
func NewStreamCmd() StreamCmdResult {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Connect to a WebSocket endpoint and tail its messages",
	}

	cmd.Flags().StringP("url", "u", "", "WebSocket URL (wss://...)")
	cmd.Flags().StringSliceP("subscribe", "s", nil, "Channels to subscribe to")

	return StreamCmdResult{Cmd: cmd}
}

type StreamCmdResult struct {
	fx.Out

	Cmd *cobra.Command `name:"stream"`
}

// NewProbeCmd creates the probe command
func NewProbeCmd() ProbeCmdResult {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "One-shot connectivity check against a WebSocket endpoint",
	}

	cmd.Flags().StringP("url", "u", "", "WebSocket URL (wss://...)")

	return ProbeCmdResult{Cmd: cmd}
}

type ProbeCmdResult struct {
	fx.Out

	Cmd *cobra.Command `name:"probe"`
}

// RunCLI executes the cobra CLI with fx dependencies
func RunCLI(
	params CmdParams,
	cfg *config.Config,
	logger *zap.Logger,
	dispatcher *alert.Dispatcher,
	shutdowner fx.Shutdowner,
) {
	rootCmd := &cobra.Command{
		Use:   "streamkit",
		Short: "StreamKit streaming infrastructure CLI",
	}

	rootCmd.AddCommand(params.Stream, params.Probe)

	params.Stream.RunE = func(cmd *cobra.Command, args []string) error {
		return handlers.RunStream(cmd, cfg, logger, dispatcher)
	}
	params.Probe.RunE = func(cmd *cobra.Command, args []string) error {
		return handlers.RunProbe(cmd, cfg, logger)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	_ = shutdowner.Shutdown()
}
