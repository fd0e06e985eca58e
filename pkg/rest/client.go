// Package rest provides a declarative HTTP client with auth header
// injection, request signing, retries, and rate limiting.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/pkg/auth"
	"github.com/quantmesh/streamkit/pkg/ratelimit"
)

// Config holds REST client configuration.
type Config struct {
	BaseURL    string        `json:"base_url" validate:"required,url"`
	Timeout    time.Duration `json:"timeout"`
	RetryCount int           `json:"retry_count"`
	RetryWait  time.Duration `json:"retry_wait"`
	UserAgent  string        `json:"user_agent"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryWait:  time.Second,
		UserAgent:  "streamkit/1.0",
	}
}

// Client wraps resty with streamkit auth and rate limiting.
type Client struct {
	http    *resty.Client
	authMgr *auth.Manager
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithAuth injects auth headers from the manager into every request.
func WithAuth(mgr *auth.Manager) Option {
	return func(c *Client) { c.authMgr = mgr }
}

// WithRateLimit paces requests through the limiter.
func WithRateLimit(limiter ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// NewClient builds a REST client for the given base URL.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("User-Agent", cfg.UserAgent)

	c := &Client{
		http:   httpClient,
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(req.Context()); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}
		if c.authMgr != nil {
			headers, err := c.authMgr.SecureHeaders(req.Context(), req.Method, req.URL)
			if err != nil {
				return fmt.Errorf("auth headers: %w", err)
			}
			for key, values := range headers {
				for _, v := range values {
					req.Header.Set(key, v)
				}
			}
		}
		return nil
	})

	return c
}

// Request is a declarative description of one HTTP call.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
	Result  any // decoded response target, optional
}

// Do executes the request and returns the raw response.
func (c *Client) Do(ctx context.Context, req Request) (*resty.Response, error) {
	r := c.http.R().SetContext(ctx)

	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}
	if req.Result != nil {
		r.SetResult(req.Result)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	if resp.IsError() {
		c.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode()))
		return resp, fmt.Errorf("%s %s: status %d", req.Method, req.Path, resp.StatusCode())
	}

	return resp, nil
}

// Get is a convenience for GET with a decoded result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Result: result})
	return err
}

// Post is a convenience for POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Result: result})
	return err
}
