package messaging

import (
	"context"
	"log/slog"
	"sync"

	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

// Bus is the notification transport between the API process and the
// delivery worker. Current implementation is in-process publish/subscribe
// while runtime wiring is finalized for external brokers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan ports.NotificationMessage
	logger      *slog.Logger
}

func NewBus(_ []string, logger *slog.Logger) (*Bus, error) {
	return &Bus{
		subscribers: make(map[string][]chan ports.NotificationMessage),
		logger:      logger,
	}, nil
}

func (b *Bus) Publish(ctx context.Context, topic string, message ports.NotificationMessage) error {
	b.mu.RLock()
	subs := append([]chan ports.NotificationMessage(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- message:
		default:
			if b.logger != nil {
				b.logger.Warn("dropping message for slow subscriber",
					"event", "bus_publish_drop",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"message_id", message.MessageID,
				)
			}
		}
	}

	if b.logger != nil {
		b.logger.Info("message published",
			"event", "bus_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"message_id", message.MessageID,
			"recipient", message.Recipient,
		)
	}
	return nil
}

func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.NotificationMessage) error,
) error {
	ch := make(chan ports.NotificationMessage, 128)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, ch)
				return
			case message := <-ch:
				if err := handler(ctx, message); err != nil && b.logger != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"message_id", message.MessageID,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (b *Bus) removeSubscriber(topic string, target chan ports.NotificationMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan ports.NotificationMessage, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers[topic] = filtered
}

var _ ports.Publisher = (*Bus)(nil)
var _ ports.Subscriber = (*Bus)(nil)
