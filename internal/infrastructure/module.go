package infrastructure

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/internal/config"
	"github.com/quantmesh/streamkit/pkg/alert"
	"github.com/quantmesh/streamkit/pkg/secrets"
)

// Module provides configuration, logging, secrets, and alerting.
var Module = fx.Module("infrastructure",
	fx.Provide(
		config.LoadConfig,
		NewLogger,
		NewSecretStore,
		NewAlertDispatcher,
	),
	fx.Invoke(RegisterLifecycle),
)

// NewSecretStore builds the layered secret resolution chain: environment
// first, then the SOPS file when configured, then the OS keyring.
func NewSecretStore(cfg *config.Config) secrets.Store {
	chain := secrets.Chain{
		secrets.NewEnvStore(cfg.Secrets.EnvPrefix),
	}
	if cfg.Secrets.SOPSFile != "" {
		chain = append(chain, secrets.NewSOPSStore(cfg.Secrets.SOPSFile))
	}
	if cfg.Secrets.KeyringService != "" {
		chain = append(chain, secrets.NewKeyringStore(cfg.Secrets.KeyringService))
	}
	return chain
}

// NewAlertDispatcher wires alert sinks: Slack when a webhook secret
// resolves, and the structured log always.
func NewAlertDispatcher(cfg *config.Config, store secrets.Store, logger *zap.Logger) *alert.Dispatcher {
	notifiers := []alert.Notifier{alert.NewLogNotifier(logger)}

	if cfg.Alert.SlackWebhookSecret != "" {
		webhook, err := store.Get(cfg.Alert.SlackWebhookSecret)
		if err != nil {
			logger.Debug("slack webhook not configured, alerts go to log only", zap.Error(err))
		} else {
			notifiers = append(notifiers, alert.NewSlackNotifier(webhook, cfg.Alert.SlackChannel, logger))
		}
	}

	return alert.NewDispatcher(logger, notifiers...)
}
