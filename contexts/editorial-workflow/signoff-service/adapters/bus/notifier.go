package bus

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	"signoff/contexts/editorial-workflow/signoff-service/ports"

	"github.com/google/uuid"
)

const DefaultTopic = "signoff.changes_done"

// Notifier implements ports.Notifier by queueing one message per recipient
// on the platform bus; the delivery worker drains the topic and hands each
// message to a mail sender. Publish failures surface to the caller, which
// treats them as per-recipient best-effort.
type Notifier struct {
	Publisher ports.Publisher
	Topic     string
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (n Notifier) Send(ctx context.Context, recipient entities.Moderator, subject string, body string) error {
	topic := strings.TrimSpace(n.Topic)
	if topic == "" {
		topic = DefaultTopic
	}
	message := ports.NotificationMessage{
		MessageID: uuid.NewString(),
		Recipient: strings.TrimSpace(recipient.Email),
		Name:      strings.TrimSpace(recipient.Name),
		Subject:   subject,
		Body:      body,
		QueuedAt:  n.now(),
	}
	if err := n.Publisher.Publish(ctx, topic, message); err != nil {
		return err
	}
	if n.Logger != nil {
		n.Logger.Debug("changes-done notification queued",
			"event", "signoff_notification_queued",
			"module", "editorial-workflow/signoff-service",
			"layer", "adapter",
			"message_id", message.MessageID,
			"recipient", message.Recipient,
		)
	}
	return nil
}

func (n Notifier) now() time.Time {
	if n.Clock != nil {
		return n.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

var _ ports.Notifier = Notifier{}
