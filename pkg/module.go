package pkg

import (
	"go.uber.org/fx"

	"github.com/quantmesh/streamkit/pkg/websocket/connection"
)

// Module aggregates the streamkit library components.
var Module = fx.Options(
	connection.Module,
)
