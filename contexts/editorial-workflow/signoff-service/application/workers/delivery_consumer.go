package workers

import (
	"context"
	"log/slog"
	"strings"

	application "signoff/contexts/editorial-workflow/signoff-service/application"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

// DeliveryConsumer drains queued changes-done notifications and hands each
// one to the mail sender. Delivery is best-effort: a failed send is logged
// and dropped, never retried, matching the command-side contract that a
// messaging outage must not block the moderator workflow.
type DeliveryConsumer struct {
	Subscriber    ports.Subscriber
	Mailer        ports.MailSender
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c DeliveryConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	topic := strings.TrimSpace(c.Topic)
	if topic == "" {
		topic = "signoff.changes_done"
	}
	return c.Subscriber.Subscribe(ctx, topic, c.ConsumerGroup, func(ctx context.Context, message ports.NotificationMessage) error {
		if strings.TrimSpace(message.Recipient) == "" {
			logger.Warn("notification without recipient dropped",
				"event", "signoff_delivery_missing_recipient",
				"module", "editorial-workflow/signoff-service",
				"layer", "application",
				"message_id", message.MessageID,
			)
			return nil
		}
		if err := c.Mailer.SendMail(ctx, message.Recipient, message.Subject, message.Body); err != nil {
			logger.Warn("notification delivery failed; dropping",
				"event", "signoff_delivery_failed",
				"module", "editorial-workflow/signoff-service",
				"layer", "application",
				"message_id", message.MessageID,
				"recipient", message.Recipient,
				"error", err.Error(),
			)
			return nil
		}
		logger.Info("notification delivered",
			"event", "signoff_delivery_sent",
			"module", "editorial-workflow/signoff-service",
			"layer", "application",
			"message_id", message.MessageID,
			"recipient", message.Recipient,
		)
		return nil
	})
}
