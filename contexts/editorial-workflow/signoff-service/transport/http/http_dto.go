package http

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Status    string    `json:"status"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

// ActionTokens carries the per-action anti-replay tokens for the current
// user; present only when the user may act on the item.
type ActionTokens struct {
	ToggleApproval      string `json:"toggleApproval"`
	ToggleChangeRequest string `json:"toggleChangeRequest"`
	NotifyChangesDone   string `json:"notifyChangesDone"`
}

type ModeratorEntry struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ViewData is the readiness projection consumed by both presentation
// surfaces. Field names match the sidebar script payload; changesDoneLast is
// unix seconds.
type ViewData struct {
	TotalModerators             int              `json:"totalModerators"`
	TotalApproved               int              `json:"totalApproved"`
	TotalChangeRequests         int              `json:"totalChangeRequests"`
	Required                    int              `json:"required"`
	Status                      string           `json:"status"`
	PerModerator                []ModeratorEntry `json:"perModerator"`
	CurrentUserCanToggle        bool             `json:"currentUserCanToggle"`
	CurrentUserHasApproved      bool             `json:"currentUserHasApproved"`
	CurrentUserRequestedChanges bool             `json:"currentUserRequestedChanges"`
	ChangesDoneLast             *int64           `json:"changesDoneLast,omitempty"`
	Tokens                      *ActionTokens    `json:"tokens,omitempty"`
}

type ViewResponse struct {
	Status    string   `json:"status"`
	Data      ViewData `json:"data"`
	Timestamp string   `json:"timestamp"`
}

type SummaryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Approved int    `json:"approved"`
		Total    int    `json:"total"`
		Required int    `json:"required"`
		Level    string `json:"level"`
		Label    string `json:"label"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type ToggleRequest struct {
	Token string `json:"token"`
}

type SaveAllowlistRequest struct {
	Token             string  `json:"token"`
	AllowedModerators []int64 `json:"allowedModerators"`
}

type AllowlistResponse struct {
	Status string `json:"status"`
	Data   struct {
		AllowedModerators []int64 `json:"allowedModerators"`
		Token             string  `json:"token,omitempty"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}
