package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager owns one logical WebSocket connection at a time: it dials the
// transport, runs the read and keepalive loops, schedules reconnects, and
// exposes backpressured message delivery to consumers.
//
// A manager is retired permanently by Shutdown or ForceClose; once Closed it
// never resurrects, and a new manager must be built to resume streaming.
type Manager struct {
	cfg      Config
	logger   *zap.Logger
	dialer   Dialer
	strategy ReconnectStrategy

	mu            sync.RWMutex
	state         ConnectionState
	conn          Conn
	connCancel    context.CancelFunc
	connectedAt   time.Time
	shutdown      bool
	autoReconnect bool
	reconnecting  bool

	writeMu sync.Mutex

	subsMu   sync.Mutex
	subs     []string
	subIndex map[string]struct{}

	// Bounded inbound queue. The read loop is the sole producer; Receive and
	// Stream are the consumers. A full queue blocks the read loop rather
	// than dropping messages.
	queue chan Message

	stats *Stats

	connected    *signal
	disconnected *signal

	lifetime  context.Context
	endOfLife context.CancelFunc
}

// NewManager builds a manager for url-and-config. A nil dialer selects the
// production gorilla-backed dialer; a nil logger disables logging.
func NewManager(cfg Config, dialer Dialer, logger *zap.Logger) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}

	if dialer == nil {
		dialer = NewGorillaDialer(cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	lifetime, endOfLife := context.WithCancel(context.Background())

	return &Manager{
		cfg:           cfg,
		logger:        logger.With(zap.String("url", cfg.URL)),
		dialer:        dialer,
		strategy:      strategyFromConfig(cfg),
		state:         StateDisconnected,
		autoReconnect: cfg.AutoReconnect,
		subIndex:      make(map[string]struct{}),
		queue:         make(chan Message, cfg.QueueSize),
		stats:         NewStats(),
		connected:     newSignal(),
		disconnected:  newSignal(),
		lifetime:      lifetime,
		endOfLife:     endOfLife,
	}, nil
}

// Connect opens the transport and starts the read and keepalive loops.
// A no-op (logged, nil error) when already connected, connecting, or Closed.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if !m.state.CanConnect() {
		m.mu.Unlock()
		m.logger.Warn("connect ignored: manager is closed")
		return nil
	}
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		m.logger.Debug("connect ignored: already connected or connecting")
		return nil
	}
	m.setState(StateConnecting)
	m.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	conn, _, err := m.dialer.DialContext(dialCtx, m.cfg.URL, nil)
	if err != nil {
		m.mu.Lock()
		if m.state == StateConnecting {
			m.setState(StateDisconnected)
		}
		m.mu.Unlock()
		return fmt.Errorf("dial %s: %w", m.cfg.URL, err)
	}

	m.mu.Lock()
	if m.state == StateClosed {
		// Retired while dialing.
		m.mu.Unlock()
		_ = conn.Close()
		return ErrConnectionClosed
	}

	connCtx, connCancel := context.WithCancel(m.lifetime)
	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	m.conn = conn
	m.connCancel = connCancel
	m.connectedAt = time.Now()
	m.setState(StateConnected)
	m.stats.IncrementConnects()
	m.mu.Unlock()

	// Replay the persistent subscription set before the read loop starts so
	// consumers see their subscriptions survive reconnection transparently.
	m.replaySubscriptions(conn)

	go m.readLoop(connCtx, conn)
	go m.keepaliveLoop(connCtx, conn, pong)

	m.disconnected.Reset()
	m.connected.Fire()

	if hook := m.cfg.Hooks.OnConnect; hook != nil {
		hook()
	}

	m.logger.Info("websocket connected")
	return nil
}

// Kill forces a reactive disconnect. The manager stays Disconnected (not
// Closed) so reconnection remains possible; no reconnect is scheduled.
// A warned no-op when the manager is Closed.
func (m *Manager) Kill() {
	if m.State() == StateClosed {
		m.logger.Warn("kill ignored: manager is closed")
		return
	}

	m.logger.Info("killing connection")
	m.dropConnection(ReasonKilled)
}

// TriggerReconnect proactively tears the connection down and, when
// auto-reconnect is enabled, re-enters the reconnect loop exactly as a
// reactive failure would, tagged proactive for observability.
func (m *Manager) TriggerReconnect() {
	m.logger.Info("proactive reconnect triggered")

	if m.dropConnection(ReasonProactiveReconnect) && m.shouldAutoReconnect() {
		go m.runReconnectLoop()
	}
}

// Shutdown permanently retires the manager by operator intent. Idempotent.
func (m *Manager) Shutdown() {
	m.retire(ReasonShutdown, true)
}

// ForceClose permanently retires the manager without marking it shut down,
// distinguishing "superseded internally" from "retired by operator intent".
func (m *Manager) ForceClose() {
	m.retire(ReasonNormalClose, false)
}

// Close is ForceClose under the conventional name, for use with defer.
func (m *Manager) Close() error {
	m.ForceClose()
	return nil
}

// Session connects, runs fn, and guarantees the manager is closed on every
// exit path.
func (m *Manager) Session(ctx context.Context, fn func(*Manager) error) error {
	if err := m.Connect(ctx); err != nil {
		m.ForceClose()
		return err
	}
	defer m.ForceClose()
	return fn(m)
}

// Send transmits one message. Structured values are serialized to compact
// JSON; strings and byte slices pass through unchanged. Returns
// ErrConnectionClosed unless the manager is connected.
func (m *Manager) Send(v any) error {
	payload, err := encodePayload(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	m.mu.RLock()
	state := m.state
	conn := m.conn
	m.mu.RUnlock()

	if state != StateConnected || conn == nil {
		return ErrConnectionClosed
	}

	if err := m.writeFrame(conn, payload); err != nil {
		return err
	}

	m.stats.AddSent(len(payload))
	return nil
}

// writeFrame serializes data writes; the transport permits one writer at a time.
func (m *Manager) writeFrame(conn Conn, payload []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether the manager is in the Connected state.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// IsDead reports whether the manager needs external supervision to resume:
// it is Disconnected (retry budget spent or killed) or Closed.
func (m *Manager) IsDead() bool {
	state := m.State()
	return state == StateDisconnected || state == StateClosed
}

// IsShutdown reports whether Shutdown retired the manager.
func (m *Manager) IsShutdown() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shutdown
}

// ConnectionDuration is the time since the last successful connect, or zero
// when not connected.
func (m *Manager) ConnectionDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateConnected {
		return 0
	}
	return time.Since(m.connectedAt)
}

// Stats returns the manager-owned counters. Use Snapshot for a consistent read.
func (m *Manager) Stats() *Stats {
	return m.stats
}

// WaitConnected blocks until the manager connects or the timeout elapses.
func (m *Manager) WaitConnected(timeout time.Duration) bool {
	return m.connected.Wait(timeout)
}

// WaitDisconnected blocks until the manager disconnects or the timeout elapses.
func (m *Manager) WaitDisconnected(timeout time.Duration) bool {
	return m.disconnected.Wait(timeout)
}

// setState records a transition. Callers must hold mu.
func (m *Manager) setState(state ConnectionState) {
	if m.state == state {
		return
	}
	m.logger.Debug("connection state changed",
		zap.String("from", m.state.String()),
		zap.String("to", state.String()))
	m.state = state
}

// dropConnection is the single non-terminal disconnect transition: close the
// transport if live, move to Disconnected, classify in stats, fire the
// disconnect hook and signal. Returns false when the manager is Closed or
// when a stale reactive failure races a transition that already happened.
func (m *Manager) dropConnection(reason DisconnectReason) bool {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return false
	}

	reactive := reason == ReasonNetworkError || reason == ReasonPingTimeout ||
		reason == ReasonServerClose || reason == ReasonNormalClose
	if reactive && m.state != StateConnected {
		// A loop belonging to an already-torn-down connection lost a race;
		// the transition it reports has been performed.
		m.mu.Unlock()
		return false
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.setState(StateDisconnected)
	m.mu.Unlock()

	m.stats.IncrementDisconnects(reason.Proactive())

	m.connected.Reset()
	m.disconnected.Fire()

	if hook := m.cfg.Hooks.OnDisconnect; hook != nil {
		hook(reason)
	}

	m.logger.Info("websocket disconnected", zap.String("reason", reason.String()))
	return true
}

// retire is the single terminal transition, shared by Shutdown and ForceClose.
func (m *Manager) retire(reason DisconnectReason, markShutdown bool) {
	m.mu.Lock()
	if markShutdown {
		m.shutdown = true
	}
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}

	wasConnected := m.state == StateConnected
	m.autoReconnect = false
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.setState(StateClosed)
	m.mu.Unlock()

	// Cancels the read, keepalive, and reconnect loops together and lets
	// Stream terminate once the queue drains.
	m.endOfLife()

	m.connected.Reset()
	m.disconnected.Fire()

	if wasConnected {
		m.stats.IncrementDisconnects(false)
		if hook := m.cfg.Hooks.OnDisconnect; hook != nil {
			hook(reason)
		}
	}

	m.logger.Info("websocket manager retired", zap.String("reason", reason.String()))
}

func (m *Manager) shouldAutoReconnect() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.autoReconnect && !m.shutdown && m.state != StateClosed
}

// readLoop decodes inbound frames and pushes them onto the bounded queue.
// Sole producer for the queue.
func (m *Manager) readLoop(ctx context.Context, conn Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}

			reason := ReasonNetworkError
			if isNormalCloseError(err) {
				reason = ReasonServerClose
				m.logger.Info("websocket closed by server")
			} else {
				m.logger.Warn("websocket read error", zap.Error(err))
			}

			if m.dropConnection(reason) && m.shouldAutoReconnect() {
				go m.runReconnectLoop()
			}
			return
		}

		msg := decodeMessage(raw)
		m.stats.AddReceived(len(raw))

		if hook := m.cfg.Hooks.OnMessage; hook != nil {
			hook(msg)
		}

		// Blocks when the queue is full: delivery completeness and order
		// are preferred over socket-read throughput.
		select {
		case m.queue <- msg:
		case <-m.lifetime.Done():
			return
		}
	}
}

// keepaliveLoop probes liveness every PingInterval and treats a missing pong
// within PingTimeout as a reactive failure. The ShouldDisconnect hook is
// polled on the same cadence.
func (m *Manager) keepaliveLoop(ctx context.Context, conn Conn, pong <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if hook := m.cfg.Hooks.ShouldDisconnect; hook != nil && hook() {
			m.logger.Info("proactive disconnect requested by hook")
			m.TriggerReconnect()
			return
		}

		deadline := time.Now().Add(m.cfg.WriteTimeout)
		if err := conn.WriteControl(PingMessage, nil, deadline); err != nil {
			m.logger.Warn("ping write failed", zap.Error(err))
			if m.dropConnection(ReasonNetworkError) && m.shouldAutoReconnect() {
				go m.runReconnectLoop()
			}
			return
		}

		select {
		case <-pong:
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.PingTimeout):
			m.logger.Warn("ping timeout",
				zap.Duration("ping_timeout", m.cfg.PingTimeout))
			if m.dropConnection(ReasonPingTimeout) && m.shouldAutoReconnect() {
				go m.runReconnectLoop()
			}
			return
		}
	}
}
