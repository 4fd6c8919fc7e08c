package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	domainerrors "signoff/contexts/editorial-workflow/signoff-service/domain/errors"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

// DirectoryUser is a directory entry with its role slug.
type DirectoryUser struct {
	Moderator entities.Moderator
	Role      string
}

// SentNotification records one Notifier.Send call for test inspection.
type SentNotification struct {
	Recipient entities.Moderator
	Subject   string
	Body      string
}

// Store is the in-memory adapter backing every signoff port. It doubles as
// the test double for the host CMS: user directory, content items, edit
// rights, vote sets, allow-list, and a recording notifier.
type Store struct {
	mu sync.RWMutex

	userOrder      []entities.ModeratorID
	users          map[entities.ModeratorID]DirectoryUser
	items          map[string]ports.ContentItem
	approvals      map[string][]entities.ModeratorID
	changeRequests map[string][]entities.ModeratorID
	changesDone    map[string]time.Time
	allowlist      []entities.ModeratorID
	editDenied     map[string]map[entities.ModeratorID]bool
	notifyFailures map[string]error
	notifications  []SentNotification
	mailbox        []ports.NotificationMessage
	fixedNow       time.Time
}

func NewStore() *Store {
	return &Store{
		users:          map[entities.ModeratorID]DirectoryUser{},
		items:          map[string]ports.ContentItem{},
		approvals:      map[string][]entities.ModeratorID{},
		changeRequests: map[string][]entities.ModeratorID{},
		changesDone:    map[string]time.Time{},
		editDenied:     map[string]map[entities.ModeratorID]bool{},
		notifyFailures: map[string]error{},
	}
}

func (s *Store) SetUser(user DirectoryUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Moderator.ID]; !exists {
		s.userOrder = append(s.userOrder, user.Moderator.ID)
	}
	s.users[user.Moderator.ID] = user
}

func (s *Store) SetItem(item ports.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ItemID] = item
}

// DenyEdit withdraws an actor's edit rights on one item. The default for a
// known directory user is allowed.
func (s *Store) DenyEdit(itemID string, actorID entities.ModeratorID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editDenied[itemID] == nil {
		s.editDenied[itemID] = map[entities.ModeratorID]bool{}
	}
	s.editDenied[itemID][actorID] = true
}

// FailNotificationsTo makes Send fail for one recipient address.
func (s *Store) FailNotificationsTo(email string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyFailures[strings.ToLower(strings.TrimSpace(email))] = err
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedNow = now.UTC()
}

func (s *Store) Notifications() []SentNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SentNotification(nil), s.notifications...)
}

func (s *Store) Mailbox() []ports.NotificationMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.NotificationMessage(nil), s.mailbox...)
}

func (s *Store) ListUsersByRole(ctx context.Context, roles []string) ([]entities.Moderator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Moderator, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		user := s.users[id]
		for _, role := range roles {
			if strings.EqualFold(strings.TrimSpace(role), user.Role) {
				out = append(out, user.Moderator)
				break
			}
		}
	}
	return out, nil
}

func (s *Store) GetAllowlist(ctx context.Context) ([]entities.ModeratorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ModeratorID(nil), s.allowlist...), nil
}

func (s *Store) SaveAllowlist(ctx context.Context, ids []entities.ModeratorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowlist = entities.NormalizeIDs(ids)
	return nil
}

func (s *Store) GetApprovals(ctx context.Context, itemID string) ([]entities.ModeratorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.NormalizeIDs(s.approvals[itemID]), nil
}

func (s *Store) GetChangeRequests(ctx context.Context, itemID string) ([]entities.ModeratorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.NormalizeIDs(s.changeRequests[itemID]), nil
}

func (s *Store) SetApprovals(ctx context.Context, itemID string, ids []entities.ModeratorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[itemID] = entities.NormalizeIDs(ids)
	return nil
}

func (s *Store) SetChangeRequests(ctx context.Context, itemID string, ids []entities.ModeratorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeRequests[itemID] = entities.NormalizeIDs(ids)
	return nil
}

func (s *Store) GetChangesDoneMarker(ctx context.Context, itemID string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	marker, ok := s.changesDone[itemID]
	if !ok {
		return nil, nil
	}
	at := marker.UTC()
	return &at, nil
}

func (s *Store) SetChangesDoneMarker(ctx context.Context, itemID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changesDone[itemID] = at.UTC()
	return nil
}

func (s *Store) GetItem(ctx context.Context, itemID string) (ports.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return ports.ContentItem{}, domainerrors.ErrItemNotFound
	}
	return item, nil
}

func (s *Store) CanEdit(ctx context.Context, actorID entities.ModeratorID, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.editDenied[itemID][actorID] {
		return false, nil
	}
	_, known := s.users[actorID]
	return known, nil
}

func (s *Store) IsAdministrator(ctx context.Context, actorID entities.ModeratorID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[actorID]
	return ok && strings.EqualFold(user.Role, "administrator"), nil
}

func (s *Store) Send(ctx context.Context, recipient entities.Moderator, subject string, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, failing := s.notifyFailures[strings.ToLower(strings.TrimSpace(recipient.Email))]; failing {
		return err
	}
	s.notifications = append(s.notifications, SentNotification{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	return nil
}

func (s *Store) SendMail(ctx context.Context, recipient string, subject string, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, failing := s.notifyFailures[strings.ToLower(strings.TrimSpace(recipient))]; failing {
		return err
	}
	s.mailbox = append(s.mailbox, ports.NotificationMessage{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fixedNow.IsZero() {
		return s.fixedNow
	}
	return time.Now().UTC()
}

var _ ports.DirectoryClient = (*Store)(nil)
var _ ports.AllowlistStore = (*Store)(nil)
var _ ports.VoteStore = (*Store)(nil)
var _ ports.ContentClient = (*Store)(nil)
var _ ports.AuthorizationClient = (*Store)(nil)
var _ ports.Notifier = (*Store)(nil)
var _ ports.MailSender = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
