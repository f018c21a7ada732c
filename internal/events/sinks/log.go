// Package sinks provides event sink implementations for observability.
package sinks

import (
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/events"
)

// LogSink mirrors the outbound event stream into structured logs. It is
// useful during development and when auditing the ordering contract.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Emit logs the event using structured fields.
func (s *LogSink) Emit(evt events.Event) {
	fields := []zap.Field{
		zap.String("type", string(evt.Type)),
	}
	if evt.Message != "" {
		fields = append(fields, zap.String("message", evt.Message))
	}
	if evt.Level != "" {
		fields = append(fields, zap.String("level", string(evt.Level)))
	}
	if evt.Percent != nil {
		fields = append(fields, zap.Int("percent", *evt.Percent))
	}
	if len(evt.Emails) > 0 {
		fields = append(fields, zap.Strings("emails", evt.Emails))
	}
	if len(evt.FailedURLs) > 0 {
		fields = append(fields, zap.Int("failed_urls", len(evt.FailedURLs)))
	}
	if len(evt.NoEmailURLs) > 0 {
		fields = append(fields, zap.Int("no_email_urls", len(evt.NoEmailURLs)))
	}
	s.logger.Debug("outbound event", fields...)
}
