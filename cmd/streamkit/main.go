package main

import (
	"go.uber.org/fx"

	"github.com/quantmesh/streamkit/internal/cli"
	"github.com/quantmesh/streamkit/internal/infrastructure"
)

func main() {
	fx.New(
		infrastructure.Module,

		// CLI commands
		cli.Module,

		fx.NopLogger,
	).Run()
}
