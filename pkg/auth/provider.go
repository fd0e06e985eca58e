// Package auth provisions credentials for outbound connections: OAuth2
// client-credentials tokens and HMAC request signatures.
package auth

import (
	"context"
	"net/http"
	"time"
)

// Provider supplies authentication material for a connection or request.
type Provider interface {
	// Headers returns the auth headers for a request to method+path.
	Headers(ctx context.Context, method, path string) (http.Header, error)

	// Valid reports whether current credentials are usable.
	Valid() bool

	// Refresh renews credentials.
	Refresh(ctx context.Context) error

	// Expiry is when current credentials stop being usable; zero when they
	// do not expire.
	Expiry() time.Time
}
