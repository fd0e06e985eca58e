package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Stream  StreamConfig  `mapstructure:"stream"`
	Alert   AlertConfig   `mapstructure:"alert"`
	Secrets SecretsConfig `mapstructure:"secrets"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StreamConfig configures the WebSocket connection manager.
type StreamConfig struct {
	// URL may also come from the --url flag; the manager validates that one
	// is present at construction.
	URL                  string        `mapstructure:"url" validate:"omitempty,url"`
	PingInterval         time.Duration `mapstructure:"ping_interval"`
	PingTimeout          time.Duration `mapstructure:"ping_timeout"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	ReconnectStrategy    string        `mapstructure:"reconnect_strategy" validate:"oneof=fixed_delay exponential_backoff"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts" validate:"gt=0"`
	AutoReconnect        bool          `mapstructure:"auto_reconnect"`
	QueueSize            int           `mapstructure:"queue_size" validate:"gt=0"`
	WatchdogInterval     time.Duration `mapstructure:"watchdog_interval"`
}

// AlertConfig configures alert delivery.
type AlertConfig struct {
	SlackWebhookSecret string `mapstructure:"slack_webhook_secret"`
	SlackChannel       string `mapstructure:"slack_channel"`
}

// SecretsConfig configures the secret store chain.
type SecretsConfig struct {
	EnvPrefix      string `mapstructure:"env_prefix"`
	SOPSFile       string `mapstructure:"sops_file"`
	KeyringService string `mapstructure:"keyring_service"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

// LoadConfig loads configuration from environment variables and an optional
// .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("STREAMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Stream defaults
	v.SetDefault("stream.url", "")
	v.SetDefault("stream.ping_interval", 30*time.Second)
	v.SetDefault("stream.ping_timeout", 10*time.Second)
	v.SetDefault("stream.connect_timeout", 30*time.Second)
	v.SetDefault("stream.reconnect_strategy", "exponential_backoff")
	v.SetDefault("stream.reconnect_delay", 5*time.Second)
	v.SetDefault("stream.max_reconnect_attempts", 10)
	v.SetDefault("stream.auto_reconnect", true)
	v.SetDefault("stream.queue_size", 1000)
	v.SetDefault("stream.watchdog_interval", 30*time.Second)

	// Alert defaults
	v.SetDefault("alert.slack_webhook_secret", "slack.webhook")
	v.SetDefault("alert.slack_channel", "")

	// Secrets defaults
	v.SetDefault("secrets.env_prefix", "STREAMKIT")
	v.SetDefault("secrets.sops_file", "")
	v.SetDefault("secrets.keyring_service", "streamkit")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}
