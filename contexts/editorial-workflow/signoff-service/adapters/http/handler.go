package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/application"
	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	domainerrors "signoff/contexts/editorial-workflow/signoff-service/domain/errors"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
	httptransport "signoff/contexts/editorial-workflow/signoff-service/transport/http"
)

// Action names are the token scopes; each mutating command validates the
// token issued for (action, item, actor) before reaching the service.
const (
	ActionToggleApproval      = "toggle_approval"
	ActionToggleChangeRequest = "toggle_change_request"
	ActionNotifyChangesDone   = "notify_changes_done"
	ActionSaveAllowlist       = "save_allowed_moderators"

	// The allow-list is a global setting; its token is scoped to this
	// sentinel item id.
	settingsItemID = "settings"
)

type Handler struct {
	Service application.Service
	Tokens  ports.TokenService
	Logger  *slog.Logger
}

func (h Handler) ViewHandler(ctx context.Context, itemID string, currentUser entities.ModeratorID) (httptransport.ViewResponse, error) {
	view, err := h.Service.ComputeView(ctx, itemID, currentUser)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	resp := httptransport.ViewResponse{
		Status:    "success",
		Data:      mapViewData(view),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if view.CurrentUserCanToggle {
		resp.Data.Tokens = &httptransport.ActionTokens{
			ToggleApproval:      h.Tokens.Issue(ActionToggleApproval, itemID, currentUser),
			ToggleChangeRequest: h.Tokens.Issue(ActionToggleChangeRequest, itemID, currentUser),
			NotifyChangesDone:   h.Tokens.Issue(ActionNotifyChangesDone, itemID, currentUser),
		}
	}
	return resp, nil
}

func (h Handler) SummaryHandler(ctx context.Context, itemID string) (httptransport.SummaryResponse, error) {
	summary, err := h.Service.Summary(ctx, itemID)
	if err != nil {
		return httptransport.SummaryResponse{}, err
	}
	resp := httptransport.SummaryResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Approved = summary.Approved
	resp.Data.Total = summary.Total
	resp.Data.Required = summary.Required
	resp.Data.Level = string(summary.Level)
	resp.Data.Label = summaryLabel(summary.Level)
	return resp, nil
}

func (h Handler) ToggleApprovalHandler(ctx context.Context, itemID string, actor entities.ModeratorID, req httptransport.ToggleRequest) (httptransport.ViewResponse, error) {
	if !h.Tokens.Validate(req.Token, ActionToggleApproval, itemID, actor) {
		return httptransport.ViewResponse{}, domainerrors.ErrInvalidToken
	}
	view, err := h.Service.ToggleApproval(ctx, itemID, actor)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	return h.mapViewResponse(itemID, actor, view), nil
}

func (h Handler) ToggleChangeRequestHandler(ctx context.Context, itemID string, actor entities.ModeratorID, req httptransport.ToggleRequest) (httptransport.ViewResponse, error) {
	if !h.Tokens.Validate(req.Token, ActionToggleChangeRequest, itemID, actor) {
		return httptransport.ViewResponse{}, domainerrors.ErrInvalidToken
	}
	view, err := h.Service.ToggleChangeRequest(ctx, itemID, actor)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	return h.mapViewResponse(itemID, actor, view), nil
}

func (h Handler) NotifyChangesDoneHandler(ctx context.Context, itemID string, actor entities.ModeratorID, req httptransport.ToggleRequest) (httptransport.ViewResponse, error) {
	if !h.Tokens.Validate(req.Token, ActionNotifyChangesDone, itemID, actor) {
		return httptransport.ViewResponse{}, domainerrors.ErrInvalidToken
	}
	view, err := h.Service.NotifyChangesDone(ctx, itemID, actor)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	return h.mapViewResponse(itemID, actor, view), nil
}

func (h Handler) GetAllowlistHandler(ctx context.Context, actor entities.ModeratorID) (httptransport.AllowlistResponse, error) {
	ids, err := h.Service.GetAllowlist(ctx, actor)
	if err != nil {
		return httptransport.AllowlistResponse{}, err
	}
	resp := httptransport.AllowlistResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.AllowedModerators = toInt64IDs(ids)
	resp.Data.Token = h.Tokens.Issue(ActionSaveAllowlist, settingsItemID, actor)
	return resp, nil
}

func (h Handler) SaveAllowlistHandler(ctx context.Context, actor entities.ModeratorID, req httptransport.SaveAllowlistRequest) (httptransport.AllowlistResponse, error) {
	if !h.Tokens.Validate(req.Token, ActionSaveAllowlist, settingsItemID, actor) {
		return httptransport.AllowlistResponse{}, domainerrors.ErrInvalidToken
	}
	ids := make([]entities.ModeratorID, 0, len(req.AllowedModerators))
	for _, raw := range req.AllowedModerators {
		ids = append(ids, entities.ModeratorID(raw))
	}
	if err := h.Service.SaveAllowlist(ctx, actor, ids); err != nil {
		return httptransport.AllowlistResponse{}, err
	}
	resp := httptransport.AllowlistResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.AllowedModerators = toInt64IDs(entities.NormalizeIDs(ids))
	return resp, nil
}

func (h Handler) mapViewResponse(itemID string, actor entities.ModeratorID, view entities.ReadinessView) httptransport.ViewResponse {
	resp := httptransport.ViewResponse{
		Status:    "success",
		Data:      mapViewData(view),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if view.CurrentUserCanToggle {
		resp.Data.Tokens = &httptransport.ActionTokens{
			ToggleApproval:      h.Tokens.Issue(ActionToggleApproval, itemID, actor),
			ToggleChangeRequest: h.Tokens.Issue(ActionToggleChangeRequest, itemID, actor),
			NotifyChangesDone:   h.Tokens.Issue(ActionNotifyChangesDone, itemID, actor),
		}
	}
	return resp
}

func mapViewData(view entities.ReadinessView) httptransport.ViewData {
	data := httptransport.ViewData{
		TotalModerators:             view.TotalModerators,
		TotalApproved:               view.TotalApproved,
		TotalChangeRequests:         view.TotalChangeRequests,
		Required:                    view.Required,
		Status:                      string(view.Status),
		PerModerator:                make([]httptransport.ModeratorEntry, 0, len(view.PerModerator)),
		CurrentUserCanToggle:        view.CurrentUserCanToggle,
		CurrentUserHasApproved:      view.CurrentUserHasApproved,
		CurrentUserRequestedChanges: view.CurrentUserRequestedChanges,
	}
	for _, entry := range view.PerModerator {
		data.PerModerator = append(data.PerModerator, httptransport.ModeratorEntry{
			ID:     int64(entry.ID),
			Name:   entry.Name,
			Status: string(entry.Status),
		})
	}
	if view.ChangesDoneLast != nil {
		unix := view.ChangesDoneLast.UTC().Unix()
		data.ChangesDoneLast = &unix
	}
	return data
}

func summaryLabel(level entities.SummaryLevel) string {
	switch level {
	case entities.SummaryLevelOK:
		return "Quorum reached, item ready to publish."
	case entities.SummaryLevelPartial:
		return "Partial approvals, quorum not reached."
	default:
		return "No approvals yet."
	}
}

func toInt64IDs(ids []entities.ModeratorID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
