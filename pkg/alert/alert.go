// Package alert delivers operational notifications (connection loss,
// reconnect exhaustion, recovery) to configured sinks.
package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of an alert.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Event is one alert occurrence.
type Event struct {
	ID      string         `json:"id"`
	Level   Level          `json:"level"`
	Source  string         `json:"source"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
	Time    time.Time      `json:"time"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(level Level, source, message string, fields map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Level:   level,
		Source:  source,
		Message: message,
		Fields:  fields,
		Time:    time.Now().UTC(),
	}
}

// Notifier delivers events to one sink.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
