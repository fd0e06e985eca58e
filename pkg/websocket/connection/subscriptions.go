package connection

import (
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// subscriptionRequest is the wire form of a subscribe/unsubscribe command.
type subscriptionRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}

// Subscribe adds channels to the persistent subscription set and, when
// connected, sends the subscribe message immediately. The set survives
// reconnects: it is replayed in full before post-reconnect delivery resumes.
func (m *Manager) Subscribe(channels ...string) error {
	if len(channels) == 0 {
		return nil
	}

	m.subsMu.Lock()
	added := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := m.subIndex[ch]; ok {
			continue
		}
		m.subIndex[ch] = struct{}{}
		m.subs = append(m.subs, ch)
		added = append(added, ch)
	}
	m.subsMu.Unlock()

	if len(added) == 0 || !m.IsConnected() {
		return nil
	}

	err := m.Send(subscriptionRequest{Op: "subscribe", Channels: added})
	if errors.Is(err, ErrConnectionClosed) {
		// Connection dropped underneath us; the set is updated and will be
		// replayed on reconnect.
		return nil
	}
	return err
}

// Unsubscribe removes channels from the subscription set and, when
// connected, sends the unsubscribe message for the channels that were
// present. Removing an absent channel is a no-op.
func (m *Manager) Unsubscribe(channels ...string) error {
	if len(channels) == 0 {
		return nil
	}

	m.subsMu.Lock()
	removed := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := m.subIndex[ch]; !ok {
			continue
		}
		delete(m.subIndex, ch)
		removed = append(removed, ch)
	}
	if len(removed) > 0 {
		kept := m.subs[:0]
		for _, ch := range m.subs {
			if _, ok := m.subIndex[ch]; ok {
				kept = append(kept, ch)
			}
		}
		m.subs = kept
	}
	m.subsMu.Unlock()

	if len(removed) == 0 || !m.IsConnected() {
		return nil
	}

	err := m.Send(subscriptionRequest{Op: "unsubscribe", Channels: removed})
	if errors.Is(err, ErrConnectionClosed) {
		return nil
	}
	return err
}

// Subscriptions returns the current subscription set in subscribe order.
func (m *Manager) Subscriptions() []string {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	out := make([]string, len(m.subs))
	copy(out, m.subs)
	return out
}

// replaySubscriptions re-sends the full subscription set on a fresh
// connection, before the read loop starts delivering.
func (m *Manager) replaySubscriptions(conn Conn) {
	channels := m.Subscriptions()
	if len(channels) == 0 {
		return
	}

	payload, err := json.Marshal(subscriptionRequest{Op: "subscribe", Channels: channels})
	if err != nil {
		m.logger.Error("marshal subscription replay", zap.Error(err))
		return
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	if err := conn.WriteMessage(TextMessage, payload); err != nil {
		m.logger.Warn("subscription replay failed", zap.Error(err))
		return
	}

	m.stats.AddSent(len(payload))
	m.logger.Debug("replayed subscriptions", zap.Int("count", len(channels)))
}
