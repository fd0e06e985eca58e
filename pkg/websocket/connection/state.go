package connection

// ConnectionState is the lifecycle state of a managed connection.
type ConnectionState int

const (
	// StateDisconnected means no connection is open. The manager can be
	// connected again, by a caller or by the reconnect loop's supervisor.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateConnected means the transport is open and the read and keepalive
	// loops are running.
	StateConnected

	// StateReconnecting means the reconnect loop is waiting out a backoff
	// delay before the next attempt.
	StateReconnecting

	// StateClosed is terminal: the manager has been retired and will never
	// connect again.
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CanConnect reports whether Connect is permitted from this state. Only the
// terminal Closed state forbids it.
func (s ConnectionState) CanConnect() bool {
	return s != StateClosed
}

// DisconnectReason classifies why a connection went down.
type DisconnectReason int

const (
	// ReasonNormalClose is an orderly local teardown.
	ReasonNormalClose DisconnectReason = iota

	// ReasonServerClose means the remote sent a close frame.
	ReasonServerClose

	// ReasonNetworkError covers transport read and write failures.
	ReasonNetworkError

	// ReasonPingTimeout means the keepalive probe got no pong in time.
	ReasonPingTimeout

	// ReasonKilled is a caller-forced drop via Kill.
	ReasonKilled

	// ReasonProactiveReconnect is a deliberate cycle via TriggerReconnect or
	// the ShouldDisconnect hook.
	ReasonProactiveReconnect

	// ReasonShutdown is the permanent retirement via Shutdown.
	ReasonShutdown
)

func (r DisconnectReason) String() string {
	switch r {
	case ReasonNormalClose:
		return "normal_close"
	case ReasonServerClose:
		return "server_close"
	case ReasonNetworkError:
		return "network_error"
	case ReasonPingTimeout:
		return "ping_timeout"
	case ReasonKilled:
		return "killed"
	case ReasonProactiveReconnect:
		return "proactive_reconnect"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Proactive reports whether the disconnect was a deliberate cycle rather
// than a failure or a teardown.
func (r DisconnectReason) Proactive() bool {
	return r == ReasonProactiveReconnect
}
