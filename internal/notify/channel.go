package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/events"
)

// Channel delivers a text message to a destination (an email address or a
// phone number in international form).
type Channel interface {
	Send(ctx context.Context, destination, message string) error
}

// LogChannel writes the message to the log instead of delivering it.
// It is the test-mode channel and never fails.
type LogChannel struct {
	Logger *slog.Logger
	Kind   string
}

func (c *LogChannel) Send(_ context.Context, destination, message string) error {
	l := c.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("notification_test_mode", "channel", c.Kind, "to", destination, "message", message)
	return nil
}

// ErrNoPublisher means a KafkaChannel has nowhere to put the message.
var ErrNoPublisher = errors.New("no event publisher configured")

// KafkaChannel hands the message to an external mail/SMS worker through the
// notifications topic.
type KafkaChannel struct {
	Publisher events.Publisher
	Kind      string
}

func (c *KafkaChannel) Send(ctx context.Context, destination, message string) error {
	if !hasPublisher(c.Publisher) {
		return ErrNoPublisher
	}
	return c.Publisher.PublishEvent(ctx, events.TopicNotifications, destination, map[string]any{
		"id":          uuid.NewString(),
		"channel":     c.Kind,
		"destination": destination,
		"message":     message,
	})
}

// WebhookChannel posts the message as JSON to a provider endpoint.
type WebhookChannel struct {
	URL    string
	Kind   string
	Client *http.Client
}

func NewWebhookChannel(url, kind string) *WebhookChannel {
	return &WebhookChannel{
		URL:    url,
		Kind:   kind,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

type webhookPayload struct {
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
	Message     string `json:"message"`
}

func (c *WebhookChannel) Send(ctx context.Context, destination, message string) error {
	body, err := json.Marshal(webhookPayload{Channel: c.Kind, Destination: destination, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func hasPublisher(p events.Publisher) bool {
	switch p.(type) {
	case nil, events.Nop, *events.Nop:
		return false
	}
	return true
}

// Select picks the delivery backends: the log in test mode, otherwise a
// webhook when one is configured, otherwise the notifications topic. Without
// a real publisher the codes go to the log.
func Select(testMode bool, webhookURL string, publisher events.Publisher, logger *slog.Logger) (email, sms Channel) {
	switch {
	case testMode:
	case webhookURL != "":
		return NewWebhookChannel(webhookURL, "email"), NewWebhookChannel(webhookURL, "sms")
	case hasPublisher(publisher):
		return &KafkaChannel{Publisher: publisher, Kind: "email"}, &KafkaChannel{Publisher: publisher, Kind: "sms"}
	default:
		if logger != nil {
			logger.Warn("notify_no_channel", "fallback", "log")
		}
	}
	return &LogChannel{Logger: logger, Kind: "email"}, &LogChannel{Logger: logger, Kind: "sms"}
}
