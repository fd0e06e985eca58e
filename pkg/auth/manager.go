package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// refreshMargin is how far ahead of expiry credentials are renewed.
const refreshMargin = 5 * time.Minute

// Manager wraps a Provider with refresh-ahead-of-expiry behaviour and a
// periodic refresh loop.
type Manager struct {
	provider Provider
	logger   *zap.Logger

	refreshMu sync.Mutex
}

func NewManager(provider Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{provider: provider, logger: logger}
}

// SecureHeaders returns auth headers for method+path, refreshing credentials
// when they are invalid or close to expiry. A refresh failure is fatal only
// when the credentials are unusable; expiring-but-valid credentials are
// served with a warning.
func (m *Manager) SecureHeaders(ctx context.Context, method, path string) (http.Header, error) {
	if m.needsRefresh() {
		if err := m.refresh(ctx); err != nil {
			if !m.provider.Valid() {
				return nil, fmt.Errorf("authentication failed: %w", err)
			}
			m.logger.Warn("failed to refresh expiring credentials", zap.Error(err))
		}
	}

	return m.provider.Headers(ctx, method, path)
}

// needsRefresh reports whether credentials are invalid or inside the
// refresh margin before expiry.
func (m *Manager) needsRefresh() bool {
	if !m.provider.Valid() {
		return true
	}
	expiry := m.provider.Expiry()
	return !expiry.IsZero() && time.Until(expiry) < refreshMargin
}

func (m *Manager) refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Double-check under the lock: a concurrent caller may have refreshed.
	if !m.needsRefresh() {
		return nil
	}

	if err := m.provider.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh credentials: %w", err)
	}

	m.logger.Debug("credentials refreshed")
	return nil
}

// Validate reports whether current credentials would be accepted.
func (m *Manager) Validate() error {
	if !m.provider.Valid() {
		return fmt.Errorf("not authenticated")
	}

	if expiry := m.provider.Expiry(); !expiry.IsZero() && time.Now().After(expiry) {
		return fmt.Errorf("credentials expired")
	}

	return nil
}

// PeriodicRefresh renews credentials on an interval until ctx is cancelled.
func (m *Manager) PeriodicRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.refresh(ctx); err != nil {
				m.logger.Error("periodic credential refresh failed", zap.Error(err))
			}
		}
	}
}
