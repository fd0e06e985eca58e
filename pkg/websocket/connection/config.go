package connection

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// StrategyKind selects the backoff policy used between reconnect attempts.
type StrategyKind string

const (
	FixedDelay         StrategyKind = "fixed_delay"
	ExponentialBackoff StrategyKind = "exponential_backoff"
)

// Hooks are optional callbacks invoked at documented lifecycle points. Each
// is independently nilable.
type Hooks struct {
	// OnConnect fires after every successful connect, including reconnects.
	OnConnect func()

	// OnDisconnect fires once per disconnect with the reason.
	OnDisconnect func(reason DisconnectReason)

	// OnMessage fires for every decoded inbound frame, before the frame is
	// queued for consumers.
	OnMessage func(msg Message)

	// ShouldDisconnect is polled on the keepalive cadence; returning true
	// forces a proactive disconnect-and-reconnect cycle.
	ShouldDisconnect func() bool

	// ShouldReconnect is consulted before each reconnect attempt; returning
	// false stops retrying and leaves the manager disconnected.
	ShouldReconnect func() bool
}

// Config holds connection manager configuration.
type Config struct {
	URL string `json:"url" validate:"required,url"`

	// Transport settings
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	HandshakeTimeout time.Duration `json:"handshake_timeout"`
	WriteTimeout     time.Duration `json:"write_timeout"`
	ReadBufferSize   int           `json:"read_buffer_size"`
	WriteBufferSize  int           `json:"write_buffer_size"`
	MaxMessageSize   int64         `json:"max_message_size"`

	// Keepalive settings
	PingInterval time.Duration `json:"ping_interval"`
	PingTimeout  time.Duration `json:"ping_timeout"`

	// Reconnection settings
	AutoReconnect        bool          `json:"auto_reconnect"`
	ReconnectStrategy    StrategyKind  `json:"reconnect_strategy"`
	ReconnectDelay       time.Duration `json:"reconnect_delay"`
	MaxReconnectDelay    time.Duration `json:"max_reconnect_delay"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`

	// Inbound queue capacity. The read loop blocks when the queue is full;
	// messages are never dropped.
	QueueSize int `json:"queue_size"`

	Hooks Hooks `json:"-"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:       30 * time.Second,
		HandshakeTimeout:     45 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReadBufferSize:       4096,
		WriteBufferSize:      4096,
		MaxMessageSize:       1024 * 1024, // 1MB
		PingInterval:         30 * time.Second,
		PingTimeout:          10 * time.Second,
		AutoReconnect:        true,
		ReconnectStrategy:    ExponentialBackoff,
		ReconnectDelay:       5 * time.Second,
		MaxReconnectDelay:    2 * time.Minute,
		MaxReconnectAttempts: 10,
		QueueSize:            1000,
	}
}

// ApplyDefaults fills in missing values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.PingInterval == 0 {
		c.PingInterval = defaults.PingInterval
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = defaults.PingTimeout
	}
	if c.ReconnectStrategy == "" {
		c.ReconnectStrategy = defaults.ReconnectStrategy
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = defaults.ReconnectDelay
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = defaults.MaxReconnectDelay
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = defaults.MaxReconnectAttempts
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaults.QueueSize
	}
}

// MergeSettings applies a nested settings mapping underneath the explicitly
// set fields. Precedence: explicit field > settings mapping > default.
// Recognized keys:
//
//	websocket.ping.interval
//	websocket.ping.timeout
//	websocket.reconnect.delay
//	websocket.reconnect.max_attempts
func (c *Config) MergeSettings(settings map[string]any) error {
	if settings == nil {
		return nil
	}

	if v, ok := lookupSetting(settings, "websocket", "ping", "interval"); ok && c.PingInterval == 0 {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("invalid websocket.ping.interval: %w", err)
		}
		c.PingInterval = d
	}

	if v, ok := lookupSetting(settings, "websocket", "ping", "timeout"); ok && c.PingTimeout == 0 {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("invalid websocket.ping.timeout: %w", err)
		}
		c.PingTimeout = d
	}

	if v, ok := lookupSetting(settings, "websocket", "reconnect", "delay"); ok && c.ReconnectDelay == 0 {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("invalid websocket.reconnect.delay: %w", err)
		}
		c.ReconnectDelay = d
	}

	if v, ok := lookupSetting(settings, "websocket", "reconnect", "max_attempts"); ok && c.MaxReconnectAttempts == 0 {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("invalid websocket.reconnect.max_attempts: %w", err)
		}
		c.MaxReconnectAttempts = n
	}

	return nil
}

// lookupSetting walks a nested string-keyed mapping. Both nested maps and
// flat dotted keys ("websocket.ping.interval") are accepted.
func lookupSetting(settings map[string]any, path ...string) (any, bool) {
	flat := ""
	for i, p := range path {
		if i > 0 {
			flat += "."
		}
		flat += p
	}
	if v, ok := settings[flat]; ok {
		return v, true
	}

	current := settings
	for i, p := range path {
		v, ok := current[p]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("URL is required")
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.PingInterval <= 0 {
		return fmt.Errorf("ping interval must be positive")
	}

	if c.PingTimeout <= 0 {
		return fmt.Errorf("ping timeout must be positive")
	}

	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive")
	}

	if c.AutoReconnect && c.MaxReconnectAttempts <= 0 {
		return fmt.Errorf("max reconnect attempts must be positive when auto-reconnect is enabled")
	}

	switch c.ReconnectStrategy {
	case FixedDelay, ExponentialBackoff:
	default:
		return fmt.Errorf("unknown reconnect strategy: %s", c.ReconnectStrategy)
	}

	return nil
}

// TestConfig returns a configuration suitable for fast tests.
func TestConfig(url string) Config {
	config := DefaultConfig()
	config.URL = url
	config.ConnectTimeout = 5 * time.Second
	config.HandshakeTimeout = 10 * time.Second
	config.PingInterval = 5 * time.Second
	config.PingTimeout = 2 * time.Second
	config.MaxReconnectAttempts = 3
	config.ReconnectDelay = 50 * time.Millisecond
	config.MaxReconnectDelay = 200 * time.Millisecond
	config.QueueSize = 16
	return config
}
