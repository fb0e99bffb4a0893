// Package outbox delivers committed domain events to a pluggable sink with
// at-least-once semantics.
package outbox

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// EventSink is the delivery target for outbox messages. Implementations must
// tolerate redelivery: a crash between a successful publish and the
// mark-processed write causes the same event to be sent again.
type EventSink interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}

// LoggingSink writes events to the structured log. It is the default sink
// for environments without a broker.
type LoggingSink struct {
	logger *slog.Logger
}

// NewLoggingSink creates a LoggingSink.
func NewLoggingSink(logger *slog.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

func (s *LoggingSink) Publish(_ context.Context, eventType string, payload []byte) error {
	s.logger.Info("outbox publish", "type", eventType, "payload", string(payload))
	return nil
}

// WebhookSink delivers events as JSON POSTs to a configured endpoint.
type WebhookSink struct {
	client *http.Client
	url    string
}

// NewWebhookSink creates a WebhookSink for the given endpoint.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
}

func (s *WebhookSink) Publish(ctx context.Context, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do on close failure

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

var (
	_ EventSink = (*LoggingSink)(nil)
	_ EventSink = (*WebhookSink)(nil)
)
