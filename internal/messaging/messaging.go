package messaging

import (
	"context"
	"log/slog"
)

// Sender delivers an outbound chat message to a user. Template rendering and
// transport specifics live behind this interface, outside the core.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LoggerSender is a stub implementation that writes outbound messages to the
// structured logger.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging sender stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Send writes the message to the structured logger.
func (s *LoggerSender) Send(_ context.Context, to, body string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("outbound message", "to", to, "body", body)
	return nil
}
