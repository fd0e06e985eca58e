package connection

import "go.uber.org/fx"

// Module provides the production WebSocket connection components.
var Module = fx.Module("websocket-connection",
	fx.Provide(
		NewGorillaDialer,
		NewManager,
	),
)
