package connection

import "errors"

var (
	// ErrConnectionClosed is returned by operations that need a live
	// connection when the manager is not connected or has been retired.
	ErrConnectionClosed = errors.New("websocket connection closed")

	// ErrReceiveTimeout is returned by Receive when no message arrives
	// within the timeout window.
	ErrReceiveTimeout = errors.New("websocket receive timeout")
)
