package alert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantmesh/streamkit/pkg/rest"
)

// SlackNotifier posts events to a Slack incoming webhook.
type SlackNotifier struct {
	client  *rest.Client
	channel string
}

// NewSlackNotifier builds a notifier for the given webhook URL. channel is
// optional; empty uses the webhook default.
func NewSlackNotifier(webhookURL, channel string, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		client:  rest.NewClient(rest.DefaultConfig(webhookURL), logger),
		channel: channel,
	}
}

type slackPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	text := fmt.Sprintf("[%s] %s: %s", event.Level, event.Source, event.Message)
	for key, value := range event.Fields {
		text += fmt.Sprintf("\n• %s: %v", key, value)
	}

	return n.client.Post(ctx, "", slackPayload{Channel: n.channel, Text: text}, nil)
}

// LogNotifier writes events to the structured log. Useful as a development
// sink and as a fallback when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("alert",
		zap.String("event_id", event.ID),
		zap.String("level", string(event.Level)),
		zap.String("source", event.Source),
		zap.String("message", event.Message),
		zap.Any("fields", event.Fields))
	return nil
}
