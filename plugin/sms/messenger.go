// Package sms provides outbound messaging to students through an external
// provider.
package sms

import (
	"context"
	"log/slog"
)

// Messenger sends one text message to one address. Implementations return the
// provider-side message id on success.
type Messenger interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// LogMessenger logs messages instead of sending them. Used in development when
// no provider is configured.
type LogMessenger struct {
	logger *slog.Logger
}

// NewLogMessenger creates a Messenger that only logs.
func NewLogMessenger(logger *slog.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

func (m *LogMessenger) Send(_ context.Context, to, body string) (string, error) {
	m.logger.Info("sms send skipped (no provider configured)",
		slog.String("to", to),
		slog.Int("body_length", len(body)))
	return "log-only", nil
}
