package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

// HMACProvider signs requests with a shared secret. The signed message is
// timestamp_ms + method + path, SHA-256 HMAC, base64-encoded.
type HMACProvider struct {
	keyID  string
	secret []byte

	// now is replaceable for deterministic signatures in tests.
	now func() time.Time
}

// NewHMACProvider builds a provider from a key id and shared secret.
func NewHMACProvider(keyID string, secret []byte) (*HMACProvider, error) {
	if keyID == "" {
		return nil, fmt.Errorf("key id is required")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret is required")
	}
	return &HMACProvider{keyID: keyID, secret: secret, now: time.Now}, nil
}

func (p *HMACProvider) Headers(_ context.Context, method, path string) (http.Header, error) {
	timestampMs := p.now().UnixMilli()
	signature := p.Sign(timestampMs, method, path)

	headers := make(http.Header)
	headers.Set("X-Access-Key", p.keyID)
	headers.Set("X-Access-Timestamp", fmt.Sprintf("%d", timestampMs))
	headers.Set("X-Access-Signature", signature)
	return headers, nil
}

// Sign computes the base64 HMAC-SHA256 of timestamp_ms + method + path.
func (p *HMACProvider) Sign(timestampMs int64, method, path string) string {
	message := fmt.Sprintf("%d%s%s", timestampMs, method, path)

	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(message))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Valid always holds: shared-secret credentials do not expire.
func (p *HMACProvider) Valid() bool { return true }

func (p *HMACProvider) Refresh(context.Context) error { return nil }

func (p *HMACProvider) Expiry() time.Time { return time.Time{} }
