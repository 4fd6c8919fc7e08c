package ports

import (
	"context"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

// DirectoryClient queries the host user directory. Missing directory data
// yields an empty slice, not an error.
type DirectoryClient interface {
	ListUsersByRole(ctx context.Context, roles []string) ([]entities.Moderator, error)
}

// AllowlistStore holds the single global moderator allow-list. An empty list
// means "no override": every role-qualified user is eligible.
type AllowlistStore interface {
	GetAllowlist(ctx context.Context) ([]entities.ModeratorID, error)
	SaveAllowlist(ctx context.Context, ids []entities.ModeratorID) error
}

// VoteStore persists the per-item vote sets and the changes-done marker.
// Reads return normalized sets regardless of what was written; writes are
// whole-set, last-write-wins.
type VoteStore interface {
	GetApprovals(ctx context.Context, itemID string) ([]entities.ModeratorID, error)
	GetChangeRequests(ctx context.Context, itemID string) ([]entities.ModeratorID, error)
	SetApprovals(ctx context.Context, itemID string, ids []entities.ModeratorID) error
	SetChangeRequests(ctx context.Context, itemID string, ids []entities.ModeratorID) error
	GetChangesDoneMarker(ctx context.Context, itemID string) (*time.Time, error)
	SetChangesDoneMarker(ctx context.Context, itemID string, at time.Time) error
}

type ContentItem struct {
	ItemID   string
	Title    string
	AuthorID entities.ModeratorID
	EditURL  string
}

// ContentClient resolves content items from the host CMS.
type ContentClient interface {
	GetItem(ctx context.Context, itemID string) (ContentItem, error)
}

// AuthorizationClient is the host's edit-rights and privilege check.
type AuthorizationClient interface {
	CanEdit(ctx context.Context, actorID entities.ModeratorID, itemID string) (bool, error)
	IsAdministrator(ctx context.Context, actorID entities.ModeratorID) (bool, error)
}

// Notifier delivers one message to one recipient. Errors are per-recipient
// and the caller swallows them.
type Notifier interface {
	Send(ctx context.Context, recipient entities.Moderator, subject string, body string) error
}

// TokenService issues and checks the per-action anti-replay tokens bound to
// (action, item, actor).
type TokenService interface {
	Issue(action string, itemID string, actorID entities.ModeratorID) string
	Validate(token string, action string, itemID string, actorID entities.ModeratorID) bool
}

// NotificationMessage is the bus payload for asynchronous delivery.
type NotificationMessage struct {
	MessageID string    `json:"message_id"`
	Recipient string    `json:"recipient"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
}

// Publisher and Subscriber are the message-bus boundary used by the
// bus-backed Notifier and the delivery worker.
type Publisher interface {
	Publish(ctx context.Context, topic string, message NotificationMessage) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, NotificationMessage) error) error
}

// MailSender is the terminal delivery hop behind the worker.
type MailSender interface {
	SendMail(ctx context.Context, recipient string, subject string, body string) error
}
