package unit

import (
	"context"
	"testing"
	"time"

	busadapter "signoff/contexts/editorial-workflow/signoff-service/adapters/bus"
	"signoff/contexts/editorial-workflow/signoff-service/adapters/memory"
	workerapp "signoff/contexts/editorial-workflow/signoff-service/application/workers"
	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
	"signoff/internal/platform/messaging"
)

func waitForMailbox(t *testing.T, store *memory.Store, want int) []ports.NotificationMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mailbox := store.Mailbox(); len(mailbox) >= want {
			return mailbox
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("mailbox never reached %d messages", want)
	return nil
}

func TestDeliveryConsumerDrainsBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := messaging.NewBus(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}
	store := memory.NewStore()

	consumer := workerapp.DeliveryConsumer{
		Subscriber:    bus,
		Mailer:        store,
		ConsumerGroup: "unit-delivery-cg",
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer failed: %v", err)
	}

	notifier := busadapter.Notifier{Publisher: bus, Topic: busadapter.DefaultTopic}
	recipient := entities.Moderator{ID: 3, Name: "Linus", Email: "linus@example.com"}
	if err := notifier.Send(ctx, recipient, "Changes completed: Launch post", "body"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	mailbox := waitForMailbox(t, store, 1)
	if mailbox[0].Recipient != "linus@example.com" {
		t.Fatalf("expected delivery to linus, got %s", mailbox[0].Recipient)
	}
	if mailbox[0].Subject != "Changes completed: Launch post" {
		t.Fatalf("unexpected subject: %s", mailbox[0].Subject)
	}
}

func TestDeliveryConsumerDropsFailedSends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := messaging.NewBus(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}
	store := memory.NewStore()
	store.FailNotificationsTo("down@example.com", context.DeadlineExceeded)

	consumer := workerapp.DeliveryConsumer{
		Subscriber:    bus,
		Mailer:        store,
		ConsumerGroup: "unit-delivery-cg",
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer failed: %v", err)
	}

	notifier := busadapter.Notifier{Publisher: bus}
	if err := notifier.Send(ctx, entities.Moderator{ID: 4, Email: "down@example.com"}, "subject", "body"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := notifier.Send(ctx, entities.Moderator{ID: 5, Email: "up@example.com"}, "subject", "body"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// The failed delivery is dropped without blocking the next one.
	mailbox := waitForMailbox(t, store, 1)
	if mailbox[0].Recipient != "up@example.com" {
		t.Fatalf("expected only the healthy recipient, got %s", mailbox[0].Recipient)
	}
}

func TestDeliveryConsumerDropsMissingRecipient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := messaging.NewBus(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}
	store := memory.NewStore()

	consumer := workerapp.DeliveryConsumer{
		Subscriber: bus,
		Mailer:     store,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer failed: %v", err)
	}

	notifier := busadapter.Notifier{Publisher: bus}
	if err := notifier.Send(ctx, entities.Moderator{ID: 6}, "subject", "body"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := notifier.Send(ctx, entities.Moderator{ID: 7, Email: "ok@example.com"}, "subject", "body"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	mailbox := waitForMailbox(t, store, 1)
	if len(mailbox) != 1 || mailbox[0].Recipient != "ok@example.com" {
		t.Fatalf("recipientless message must be dropped, got %+v", mailbox)
	}
}
