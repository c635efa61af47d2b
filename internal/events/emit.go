package events

import (
	"context"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Emit publishes best effort: a failed publish is logged and never returned.
func Emit(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
