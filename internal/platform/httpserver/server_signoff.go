package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	signofferrors "signoff/contexts/editorial-workflow/signoff-service/domain/errors"
	signoffhttp "signoff/contexts/editorial-workflow/signoff-service/transport/http"
)

func writeSignoffError(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, signoffhttp.ErrorEnvelope{
		Status: "error",
		Error: signoffhttp.ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeSignoffDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, signofferrors.ErrInvalidRequest):
		writeSignoffError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, signofferrors.ErrItemNotFound):
		writeSignoffError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, signofferrors.ErrInvalidToken):
		writeSignoffError(w, http.StatusForbidden, "INVALID_TOKEN", err.Error(), nil)
	case errors.Is(err, signofferrors.ErrUnauthorized):
		writeSignoffError(w, http.StatusForbidden, "PERMISSION_DENIED", err.Error(), nil)
	case errors.Is(err, signofferrors.ErrNotModerator):
		writeSignoffError(w, http.StatusForbidden, "MODERATOR_REQUIRED", err.Error(), nil)
	case errors.Is(err, signofferrors.ErrForbidden):
		writeSignoffError(w, http.StatusForbidden, "ADMINISTRATOR_REQUIRED", err.Error(), nil)
	default:
		writeSignoffError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

func requireSignoffAuthorization(w http.ResponseWriter, r *http.Request) bool {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeSignoffError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization bearer token is required", nil)
		return false
	}
	return true
}

func requireSignoffRequestID(w http.ResponseWriter, r *http.Request) bool {
	if strings.TrimSpace(r.Header.Get("X-Request-Id")) == "" {
		writeSignoffError(w, http.StatusBadRequest, "REQUEST_ID_REQUIRED", "X-Request-Id header is required", nil)
		return false
	}
	return true
}

func requireSignoffUser(w http.ResponseWriter, r *http.Request) (entities.ModeratorID, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if raw == "" {
		writeSignoffError(w, http.StatusUnauthorized, "USER_REQUIRED", "X-User-Id header is required", nil)
		return 0, false
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		writeSignoffError(w, http.StatusUnauthorized, "USER_REQUIRED", "X-User-Id header must be a positive integer id", nil)
		return 0, false
	}
	return entities.ModeratorID(parsed), true
}

func (s *Server) handleSignoffView(w http.ResponseWriter, r *http.Request) {
	if !requireSignoffAuthorization(w, r) || !requireSignoffRequestID(w, r) {
		return
	}
	userID, ok := requireSignoffUser(w, r)
	if !ok {
		return
	}
	resp, err := s.signoff.Handler.ViewHandler(r.Context(), r.PathValue("item_id"), userID)
	if err != nil {
		writeSignoffDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignoffSummary(w http.ResponseWriter, r *http.Request) {
	if !requireSignoffAuthorization(w, r) || !requireSignoffRequestID(w, r) {
		return
	}
	if _, ok := requireSignoffUser(w, r); !ok {
		return
	}
	resp, err := s.signoff.Handler.SummaryHandler(r.Context(), r.PathValue("item_id"))
	if err != nil {
		writeSignoffDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignoffToggleApproval(w http.ResponseWriter, r *http.Request) {
	s.handleSignoffToggle(w, r, func(r *http.Request, actor entities.ModeratorID, req signoffhttp.ToggleRequest) (signoffhttp.ViewResponse, error) {
		return s.signoff.Handler.ToggleApprovalHandler(r.Context(), r.PathValue("item_id"), actor, req)
	})
}

func (s *Server) handleSignoffToggleChangeRequest(w http.ResponseWriter, r *http.Request) {
	s.handleSignoffToggle(w, r, func(r *http.Request, actor entities.ModeratorID, req signoffhttp.ToggleRequest) (signoffhttp.ViewResponse, error) {
		return s.signoff.Handler.ToggleChangeRequestHandler(r.Context(), r.PathValue("item_id"), actor, req)
	})
}

func (s *Server) handleSignoffNotifyChangesDone(w http.ResponseWriter, r *http.Request) {
	s.handleSignoffToggle(w, r, func(r *http.Request, actor entities.ModeratorID, req signoffhttp.ToggleRequest) (signoffhttp.ViewResponse, error) {
		return s.signoff.Handler.NotifyChangesDoneHandler(r.Context(), r.PathValue("item_id"), actor, req)
	})
}

func (s *Server) handleSignoffToggle(
	w http.ResponseWriter,
	r *http.Request,
	invoke func(*http.Request, entities.ModeratorID, signoffhttp.ToggleRequest) (signoffhttp.ViewResponse, error),
) {
	if !requireSignoffAuthorization(w, r) || !requireSignoffRequestID(w, r) {
		return
	}
	actor, ok := requireSignoffUser(w, r)
	if !ok {
		return
	}
	var req signoffhttp.ToggleRequest
	if !s.decodeJSON(w, r, &req, func(w http.ResponseWriter, status int, code string, message string) {
		writeSignoffError(w, status, strings.ToUpper(code), message, nil)
	}) {
		return
	}
	resp, err := invoke(r, actor, req)
	if err != nil {
		writeSignoffDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignoffGetAllowlist(w http.ResponseWriter, r *http.Request) {
	if !requireSignoffAuthorization(w, r) || !requireSignoffRequestID(w, r) {
		return
	}
	actor, ok := requireSignoffUser(w, r)
	if !ok {
		return
	}
	resp, err := s.signoff.Handler.GetAllowlistHandler(r.Context(), actor)
	if err != nil {
		writeSignoffDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignoffSaveAllowlist(w http.ResponseWriter, r *http.Request) {
	if !requireSignoffAuthorization(w, r) || !requireSignoffRequestID(w, r) {
		return
	}
	actor, ok := requireSignoffUser(w, r)
	if !ok {
		return
	}
	var req signoffhttp.SaveAllowlistRequest
	if !s.decodeJSON(w, r, &req, func(w http.ResponseWriter, status int, code string, message string) {
		writeSignoffError(w, status, strings.ToUpper(code), message, nil)
	}) {
		return
	}
	resp, err := s.signoff.Handler.SaveAllowlistHandler(r.Context(), actor, req)
	if err != nil {
		writeSignoffDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
