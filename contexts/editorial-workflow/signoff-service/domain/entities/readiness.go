package entities

import "time"

// ModeratorID identifies a moderator in the host user directory.
// Only positive ids are valid; normalization drops everything else.
type ModeratorID int64

type Moderator struct {
	ID    ModeratorID
	Name  string
	Email string
}

// VoteState is the per-moderator position on one content item.
type VoteState string

const (
	VoteStateApproved        VoteState = "approved"
	VoteStateChangeRequested VoteState = "change"
	VoteStatePending         VoteState = "pending"
)

// ReadinessStatus is the derived publication-readiness classification.
type ReadinessStatus string

const (
	StatusNoModerators     ReadinessStatus = "no_moderators"
	StatusChangesRequested ReadinessStatus = "changes_requested"
	StatusApproved         ReadinessStatus = "approved"
	StatusInsufficient     ReadinessStatus = "insufficient"
)

// NormalizeIDs deduplicates and drops non-positive ids, preserving first-seen
// order. Both sets of a VoteRecord pass through this on every read and write
// because the backing store is not type-safe.
func NormalizeIDs(ids []ModeratorID) []ModeratorID {
	seen := make(map[ModeratorID]struct{}, len(ids))
	out := make([]ModeratorID, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// VoteRecord holds the two vote sets for one content item. The sets are
// disjoint: every mutation that adds to one removes from the other.
type VoteRecord struct {
	Approvals      []ModeratorID
	ChangeRequests []ModeratorID
}

func (r VoteRecord) Normalize() VoteRecord {
	return VoteRecord{
		Approvals:      NormalizeIDs(r.Approvals),
		ChangeRequests: NormalizeIDs(r.ChangeRequests),
	}
}

func (r VoteRecord) HasApproved(id ModeratorID) bool {
	return containsID(r.Approvals, id)
}

func (r VoteRecord) HasRequestedChanges(id ModeratorID) bool {
	return containsID(r.ChangeRequests, id)
}

// ApplyApproval records an approval and clears the actor's own change request.
// Idempotent: applying an existing approval is a no-op.
func (r VoteRecord) ApplyApproval(id ModeratorID) VoteRecord {
	next := r.Normalize()
	next.ChangeRequests = removeID(next.ChangeRequests, id)
	if !containsID(next.Approvals, id) {
		next.Approvals = NormalizeIDs(append(next.Approvals, id))
	}
	return next
}

func (r VoteRecord) RemoveApproval(id ModeratorID) VoteRecord {
	next := r.Normalize()
	next.Approvals = removeID(next.Approvals, id)
	return next
}

// ApplyChangeRequest records a change request and revokes the actor's own
// prior approval. Idempotent, symmetric to ApplyApproval.
func (r VoteRecord) ApplyChangeRequest(id ModeratorID) VoteRecord {
	next := r.Normalize()
	next.Approvals = removeID(next.Approvals, id)
	if !containsID(next.ChangeRequests, id) {
		next.ChangeRequests = NormalizeIDs(append(next.ChangeRequests, id))
	}
	return next
}

func (r VoteRecord) RemoveChangeRequest(id ModeratorID) VoteRecord {
	next := r.Normalize()
	next.ChangeRequests = removeID(next.ChangeRequests, id)
	return next
}

// VoteStateOf reports the actor's position. Approval wins by construction of
// the mutual-exclusion invariant; a moderator in neither set is pending.
func (r VoteRecord) VoteStateOf(id ModeratorID) VoteState {
	if r.HasApproved(id) {
		return VoteStateApproved
	}
	if r.HasRequestedChanges(id) {
		return VoteStateChangeRequested
	}
	return VoteStatePending
}

// RequiredApprovals is the simple-majority quorum: ceil(total / 2).
func RequiredApprovals(totalModerators int) int {
	if totalModerators <= 0 {
		return 0
	}
	return (totalModerators + 1) / 2
}

// ComputeStatus derives the readiness banner. A single outstanding change
// request blocks readiness regardless of how many approvals are in.
func ComputeStatus(totalModerators int, approvals int, changeRequests int) ReadinessStatus {
	if totalModerators == 0 {
		return StatusNoModerators
	}
	if changeRequests > 0 {
		return StatusChangesRequested
	}
	if approvals >= RequiredApprovals(totalModerators) {
		return StatusApproved
	}
	return StatusInsufficient
}

type ModeratorView struct {
	ID     ModeratorID
	Name   string
	Status VoteState
}

// ReadinessView is the projection consumed by both presentation surfaces
// (admin list panel and in-editor sidebar). Derived, never stored.
type ReadinessView struct {
	TotalModerators             int
	TotalApproved               int
	TotalChangeRequests         int
	Required                    int
	Status                      ReadinessStatus
	PerModerator                []ModeratorView
	CurrentUserCanToggle        bool
	CurrentUserHasApproved      bool
	CurrentUserRequestedChanges bool
	ChangesDoneLast             *time.Time
}

// BuildView projects moderators and one item's vote record into a
// ReadinessView. Vote entries for ids outside the current moderator set are
// ignored in the per-moderator list but still counted in the totals; they are
// never purged from storage.
func BuildView(
	moderators []Moderator,
	record VoteRecord,
	changesDoneLast *time.Time,
	currentUser ModeratorID,
	canToggle bool,
) ReadinessView {
	record = record.Normalize()
	view := ReadinessView{
		TotalModerators:             len(moderators),
		TotalApproved:               len(record.Approvals),
		TotalChangeRequests:         len(record.ChangeRequests),
		Required:                    RequiredApprovals(len(moderators)),
		Status:                      ComputeStatus(len(moderators), len(record.Approvals), len(record.ChangeRequests)),
		PerModerator:                make([]ModeratorView, 0, len(moderators)),
		CurrentUserCanToggle:        canToggle,
		CurrentUserHasApproved:      record.HasApproved(currentUser),
		CurrentUserRequestedChanges: record.HasRequestedChanges(currentUser),
		ChangesDoneLast:             changesDoneLast,
	}
	for _, moderator := range moderators {
		view.PerModerator = append(view.PerModerator, ModeratorView{
			ID:     moderator.ID,
			Name:   moderator.Name,
			Status: record.VoteStateOf(moderator.ID),
		})
	}
	return view
}

// SummaryLevel classifies the compact list-column badge. Change requests do
// not factor in; the badge reflects approvals only.
type SummaryLevel string

const (
	SummaryLevelOK      SummaryLevel = "ok"
	SummaryLevelPartial SummaryLevel = "partial"
	SummaryLevelNone    SummaryLevel = "none"
)

type Summary struct {
	Approved int
	Total    int
	Required int
	Level    SummaryLevel
}

func BuildSummary(totalModerators int, approvals int) Summary {
	summary := Summary{
		Approved: approvals,
		Total:    totalModerators,
		Required: RequiredApprovals(totalModerators),
	}
	switch {
	case totalModerators > 0 && approvals >= summary.Required:
		summary.Level = SummaryLevelOK
	case approvals > 0:
		summary.Level = SummaryLevelPartial
	default:
		summary.Level = SummaryLevelNone
	}
	return summary
}

func containsID(ids []ModeratorID, id ModeratorID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []ModeratorID, id ModeratorID) []ModeratorID {
	out := make([]ModeratorID, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
