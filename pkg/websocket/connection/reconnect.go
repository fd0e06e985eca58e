package connection

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReconnectStrategy computes the wait before a reconnect attempt.
type ReconnectStrategy interface {
	NextDelay(attempt int) time.Duration
}

// fixedDelayStrategy waits a constant interval between attempts.
type fixedDelayStrategy struct {
	delay time.Duration
}

func NewFixedDelayStrategy(delay time.Duration) ReconnectStrategy {
	return &fixedDelayStrategy{delay: delay}
}

func (fds *fixedDelayStrategy) NextDelay(int) time.Duration {
	return fds.delay
}

// exponentialBackoffStrategy doubles the wait per attempt, capped at
// maxDelay, with ±10% jitter to avoid thundering herds.
type exponentialBackoffStrategy struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       bool
	randSource   *rand.Rand
	mu           sync.Mutex
}

func NewExponentialBackoffStrategy(initialDelay, maxDelay time.Duration) ReconnectStrategy {
	return &exponentialBackoffStrategy{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		multiplier:   2.0,
		jitter:       true,
		randSource:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (ebs *exponentialBackoffStrategy) NextDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return ebs.initialDelay
	}

	delay := float64(ebs.initialDelay) * math.Pow(ebs.multiplier, float64(attempt-1))

	if delay > float64(ebs.maxDelay) {
		delay = float64(ebs.maxDelay)
	}

	if ebs.jitter {
		ebs.mu.Lock()
		jitterFactor := 2*ebs.randSource.Float64() - 1
		ebs.mu.Unlock()

		delay += delay * 0.1 * jitterFactor

		if delay < 0 {
			delay = float64(ebs.initialDelay)
		}
	}

	return time.Duration(delay)
}

// strategyFromConfig builds the backoff policy the config selects.
func strategyFromConfig(cfg Config) ReconnectStrategy {
	switch cfg.ReconnectStrategy {
	case FixedDelay:
		return NewFixedDelayStrategy(cfg.ReconnectDelay)
	default:
		return NewExponentialBackoffStrategy(cfg.ReconnectDelay, cfg.MaxReconnectDelay)
	}
}

// runReconnectLoop retries Connect until it succeeds, the attempt budget is
// exhausted, the ShouldReconnect hook declines, or the manager is retired.
// At most one loop runs per manager at a time.
func (m *Manager) runReconnectLoop() {
	m.mu.Lock()
	if m.reconnecting || m.state == StateClosed || !m.autoReconnect {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.reconnecting = false
		m.mu.Unlock()
	}()

	for attempt := 1; attempt <= m.cfg.MaxReconnectAttempts; attempt++ {
		select {
		case <-m.lifetime.Done():
			m.logger.Debug("reconnect loop cancelled")
			return
		default:
		}

		if hook := m.cfg.Hooks.ShouldReconnect; hook != nil && !hook() {
			m.logger.Info("reconnect declined by hook, staying disconnected")
			m.setStateLocked(StateDisconnected)
			return
		}

		m.setStateLocked(StateReconnecting)

		delay := m.strategy.NextDelay(attempt)
		m.logger.Debug("waiting before reconnect attempt",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))

		select {
		case <-m.lifetime.Done():
			return
		case <-time.After(delay):
		}

		if err := m.Connect(context.Background()); err != nil {
			m.logger.Warn("reconnect attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		if m.IsConnected() {
			m.logger.Info("reconnected", zap.Int("attempt", attempt))
			return
		}
	}

	// Budget exhausted: leave Disconnected, not Closed, so a supervisor can
	// observe IsDead and rebuild.
	m.logger.Error("max reconnect attempts reached, giving up",
		zap.Int("max_attempts", m.cfg.MaxReconnectAttempts))
	m.setStateLocked(StateDisconnected)
}

// setStateLocked performs a guarded transition for the reconnect loop: it
// never overwrites a terminal state or a concurrent successful connect.
func (m *Manager) setStateLocked(state ConnectionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed || m.state == StateConnected {
		return
	}
	m.setState(state)
}
