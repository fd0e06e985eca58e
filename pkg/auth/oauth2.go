package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider issues bearer tokens via the OAuth2 client-credentials flow.
type TokenProvider struct {
	config clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenProvider builds a provider against an OAuth2/OIDC token endpoint.
func NewTokenProvider(clientID, clientSecret, tokenURL string, scopes []string) *TokenProvider {
	return &TokenProvider{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
	}
}

func (p *TokenProvider) Headers(ctx context.Context, _, _ string) (http.Header, error) {
	token, err := p.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	token.SetAuthHeader(&http.Request{Header: headers})
	return headers, nil
}

func (p *TokenProvider) currentToken(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token.Valid() {
		return p.token, nil
	}

	token, err := p.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}

	p.token = token
	return token, nil
}

func (p *TokenProvider) Valid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token.Valid()
}

func (p *TokenProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	token, err := p.config.Token(ctx)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	p.token = token
	return nil
}

func (p *TokenProvider) Expiry() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token == nil {
		return time.Time{}
	}
	return p.token.Expiry
}
