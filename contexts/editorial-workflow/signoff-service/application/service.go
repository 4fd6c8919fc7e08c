package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	domainerrors "signoff/contexts/editorial-workflow/signoff-service/domain/errors"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

// Service is the approval state machine for one content item: readiness
// projection, the two vote toggles, the changes-done notification, and
// allow-list administration. Commands are synchronous read-modify-write over
// the whole vote sets; the store contract is last-write-wins (no optimistic
// concurrency), so concurrent toggles on the same item can lose one update.
type Service struct {
	Directory DirectoryResolver
	Votes     ports.VoteStore
	Content   ports.ContentClient
	Authz     ports.AuthorizationClient
	Notifier  ports.Notifier
	Clock     ports.Clock
	Logger    *slog.Logger
}

// ComputeView projects the current readiness state of one item for one
// viewer. Pure read; creates nothing.
func (s Service) ComputeView(ctx context.Context, itemID string, currentUser entities.ModeratorID) (entities.ReadinessView, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return entities.ReadinessView{}, domainerrors.ErrInvalidRequest
	}
	if _, err := s.Content.GetItem(ctx, itemID); err != nil {
		return entities.ReadinessView{}, err
	}

	moderators := s.Directory.Resolve(ctx)
	record, err := s.readRecord(ctx, itemID)
	if err != nil {
		return entities.ReadinessView{}, err
	}
	marker, err := s.Votes.GetChangesDoneMarker(ctx, itemID)
	if err != nil {
		return entities.ReadinessView{}, err
	}

	canToggle := false
	if currentUser > 0 && s.Directory.IsModerator(ctx, currentUser) {
		allowed, err := s.Authz.CanEdit(ctx, currentUser, itemID)
		if err != nil {
			ResolveLogger(s.Logger).Warn("edit-rights check failed; hiding toggle controls",
				"event", "signoff_can_edit_check_failed",
				"module", "editorial-workflow/signoff-service",
				"layer", "application",
				"item_id", itemID,
				"actor_id", int64(currentUser),
				"error", err.Error(),
			)
		} else {
			canToggle = allowed
		}
	}
	return entities.BuildView(moderators, record, marker, currentUser, canToggle), nil
}

// Summary is the compact list-column projection: approvals against quorum,
// change requests excluded.
func (s Service) Summary(ctx context.Context, itemID string) (entities.Summary, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return entities.Summary{}, domainerrors.ErrInvalidRequest
	}
	if _, err := s.Content.GetItem(ctx, itemID); err != nil {
		return entities.Summary{}, err
	}
	approvals, err := s.Votes.GetApprovals(ctx, itemID)
	if err != nil {
		return entities.Summary{}, err
	}
	moderators := s.Directory.Resolve(ctx)
	return entities.BuildSummary(len(moderators), len(entities.NormalizeIDs(approvals))), nil
}

// ToggleApproval flips the actor's approval: withdraw when present, otherwise
// approve and clear the actor's own change request. A flip, not a set
// operation: repeating the call alternates the effect.
func (s Service) ToggleApproval(ctx context.Context, itemID string, actor entities.ModeratorID) (entities.ReadinessView, error) {
	itemID = strings.TrimSpace(itemID)
	if err := s.authorizeModerator(ctx, itemID, actor); err != nil {
		return entities.ReadinessView{}, err
	}

	record, err := s.readRecord(ctx, itemID)
	if err != nil {
		return entities.ReadinessView{}, err
	}
	withdrawn := record.HasApproved(actor)
	if withdrawn {
		record = record.RemoveApproval(actor)
	} else {
		record = record.ApplyApproval(actor)
	}
	if err := s.writeRecord(ctx, itemID, record); err != nil {
		return entities.ReadinessView{}, err
	}

	ResolveLogger(s.Logger).Info("approval toggled",
		"event", "signoff_approval_toggled",
		"module", "editorial-workflow/signoff-service",
		"layer", "application",
		"item_id", itemID,
		"actor_id", int64(actor),
		"withdrawn", withdrawn,
		"total_approved", len(record.Approvals),
	)
	return s.ComputeView(ctx, itemID, actor)
}

// ToggleChangeRequest flips the actor's change request: withdraw when
// present, otherwise request changes and revoke the actor's own approval.
func (s Service) ToggleChangeRequest(ctx context.Context, itemID string, actor entities.ModeratorID) (entities.ReadinessView, error) {
	itemID = strings.TrimSpace(itemID)
	if err := s.authorizeModerator(ctx, itemID, actor); err != nil {
		return entities.ReadinessView{}, err
	}

	record, err := s.readRecord(ctx, itemID)
	if err != nil {
		return entities.ReadinessView{}, err
	}
	withdrawn := record.HasRequestedChanges(actor)
	if withdrawn {
		record = record.RemoveChangeRequest(actor)
	} else {
		record = record.ApplyChangeRequest(actor)
	}
	if err := s.writeRecord(ctx, itemID, record); err != nil {
		return entities.ReadinessView{}, err
	}

	ResolveLogger(s.Logger).Info("change request toggled",
		"event", "signoff_change_request_toggled",
		"module", "editorial-workflow/signoff-service",
		"layer", "application",
		"item_id", itemID,
		"actor_id", int64(actor),
		"withdrawn", withdrawn,
		"total_change_requests", len(record.ChangeRequests),
	)
	return s.ComputeView(ctx, itemID, actor)
}

// NotifyChangesDone messages every moderator currently requesting changes
// that the requested edits are in, then stamps the changes-done marker. The
// change requests themselves stay: each moderator withdraws their own.
// Any moderator with edit rights may trigger this, not just the author.
func (s Service) NotifyChangesDone(ctx context.Context, itemID string, actor entities.ModeratorID) (entities.ReadinessView, error) {
	itemID = strings.TrimSpace(itemID)
	if err := s.authorizeModerator(ctx, itemID, actor); err != nil {
		return entities.ReadinessView{}, err
	}
	item, err := s.Content.GetItem(ctx, itemID)
	if err != nil {
		return entities.ReadinessView{}, err
	}

	logger := ResolveLogger(s.Logger)
	moderators := s.Directory.Resolve(ctx)
	byID := make(map[entities.ModeratorID]entities.Moderator, len(moderators))
	for _, moderator := range moderators {
		byID[moderator.ID] = moderator
	}

	record, err := s.readRecord(ctx, itemID)
	if err != nil {
		return entities.ReadinessView{}, err
	}
	subject := fmt.Sprintf("Changes completed: %s", item.Title)
	body := fmt.Sprintf(
		"The requested changes on %q have been completed. Review the item and withdraw your change request if satisfied: %s",
		item.Title, item.EditURL,
	)
	for _, requesterID := range record.ChangeRequests {
		recipient, known := byID[requesterID]
		if !known {
			logger.Warn("change requester is no longer a moderator; skipping notification",
				"event", "signoff_notify_recipient_unknown",
				"module", "editorial-workflow/signoff-service",
				"layer", "application",
				"item_id", itemID,
				"recipient_id", int64(requesterID),
			)
			continue
		}
		if err := s.Notifier.Send(ctx, recipient, subject, body); err != nil {
			// Delivery is best-effort per recipient; a messaging outage must
			// not block the marker update or the remaining recipients.
			logger.Warn("changes-done notification failed",
				"event", "signoff_notify_send_failed",
				"module", "editorial-workflow/signoff-service",
				"layer", "application",
				"item_id", itemID,
				"recipient_id", int64(requesterID),
				"error", err.Error(),
			)
		}
	}

	if err := s.Votes.SetChangesDoneMarker(ctx, itemID, s.now()); err != nil {
		return entities.ReadinessView{}, err
	}
	logger.Info("changes-done notification dispatched",
		"event", "signoff_changes_done_notified",
		"module", "editorial-workflow/signoff-service",
		"layer", "application",
		"item_id", itemID,
		"actor_id", int64(actor),
		"recipients", len(record.ChangeRequests),
	)
	return s.ComputeView(ctx, itemID, actor)
}

// SaveAllowlist replaces the global moderator allow-list. Administrators
// only; an empty list removes the override.
func (s Service) SaveAllowlist(ctx context.Context, actor entities.ModeratorID, ids []entities.ModeratorID) error {
	if actor <= 0 {
		return domainerrors.ErrInvalidRequest
	}
	admin, err := s.Authz.IsAdministrator(ctx, actor)
	if err != nil {
		return err
	}
	if !admin {
		return domainerrors.ErrForbidden
	}
	normalized := entities.NormalizeIDs(ids)
	if err := s.Directory.Allowlist.SaveAllowlist(ctx, normalized); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("moderator allow-list saved",
		"event", "signoff_allowlist_saved",
		"module", "editorial-workflow/signoff-service",
		"layer", "application",
		"actor_id", int64(actor),
		"allowed_count", len(normalized),
	)
	return nil
}

// GetAllowlist returns the stored allow-list. Administrators only, same
// gate as SaveAllowlist.
func (s Service) GetAllowlist(ctx context.Context, actor entities.ModeratorID) ([]entities.ModeratorID, error) {
	if actor <= 0 {
		return nil, domainerrors.ErrInvalidRequest
	}
	admin, err := s.Authz.IsAdministrator(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domainerrors.ErrForbidden
	}
	ids, err := s.Directory.Allowlist.GetAllowlist(ctx)
	if err != nil {
		return nil, err
	}
	return entities.NormalizeIDs(ids), nil
}

func (s Service) authorizeModerator(ctx context.Context, itemID string, actor entities.ModeratorID) error {
	if itemID == "" || actor <= 0 {
		return domainerrors.ErrInvalidRequest
	}
	if _, err := s.Content.GetItem(ctx, itemID); err != nil {
		return err
	}
	allowed, err := s.Authz.CanEdit(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if !allowed {
		return domainerrors.ErrUnauthorized
	}
	if !s.Directory.IsModerator(ctx, actor) {
		return domainerrors.ErrNotModerator
	}
	return nil
}

func (s Service) readRecord(ctx context.Context, itemID string) (entities.VoteRecord, error) {
	approvals, err := s.Votes.GetApprovals(ctx, itemID)
	if err != nil {
		return entities.VoteRecord{}, err
	}
	changeRequests, err := s.Votes.GetChangeRequests(ctx, itemID)
	if err != nil {
		return entities.VoteRecord{}, err
	}
	return entities.VoteRecord{
		Approvals:      approvals,
		ChangeRequests: changeRequests,
	}.Normalize(), nil
}

// writeRecord writes both whole sets back. No partial updates: the command
// computed the full next state from the full current state.
func (s Service) writeRecord(ctx context.Context, itemID string, record entities.VoteRecord) error {
	record = record.Normalize()
	if err := s.Votes.SetApprovals(ctx, itemID, record.Approvals); err != nil {
		return err
	}
	return s.Votes.SetChangeRequests(ctx, itemID, record.ChangeRequests)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
