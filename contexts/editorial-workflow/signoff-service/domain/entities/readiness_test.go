package entities

import (
	"testing"
	"time"
)

func TestRequiredApprovalsMajority(t *testing.T) {
	cases := []struct {
		total    int
		required int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{7, 4},
	}
	for _, c := range cases {
		if got := RequiredApprovals(c.total); got != c.required {
			t.Fatalf("required approvals for %d moderators: got %d, want %d", c.total, got, c.required)
		}
	}
}

func TestNormalizeIDsDropsInvalidAndDuplicates(t *testing.T) {
	got := NormalizeIDs([]ModeratorID{3, 0, -1, 3, 7, 7, 5})
	want := []ModeratorID{3, 7, 5}
	if len(got) != len(want) {
		t.Fatalf("normalized length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("normalized[%d]: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestVoteRecordMutualExclusion(t *testing.T) {
	record := VoteRecord{}.ApplyApproval(1)
	if !record.HasApproved(1) {
		t.Fatalf("expected approval recorded")
	}

	record = record.ApplyChangeRequest(1)
	if record.HasApproved(1) {
		t.Fatalf("change request must revoke the actor's approval")
	}
	if !record.HasRequestedChanges(1) {
		t.Fatalf("expected change request recorded")
	}

	record = record.ApplyApproval(1)
	if record.HasRequestedChanges(1) {
		t.Fatalf("approval must clear the actor's change request")
	}
}

func TestVoteRecordApplyIsIdempotent(t *testing.T) {
	record := VoteRecord{}.ApplyApproval(4).ApplyApproval(4)
	if len(record.Approvals) != 1 {
		t.Fatalf("expected single approval, got %d", len(record.Approvals))
	}
	record = record.RemoveApproval(4).RemoveApproval(4)
	if len(record.Approvals) != 0 {
		t.Fatalf("expected no approvals after removal, got %d", len(record.Approvals))
	}
}

func TestComputeStatusChangeRequestsBlockQuorum(t *testing.T) {
	// Four moderators: two approvals reach quorum, but one outstanding change
	// request still blocks readiness until the requester withdraws it.
	if got := ComputeStatus(4, 2, 1); got != StatusChangesRequested {
		t.Fatalf("expected changes_requested, got %s", got)
	}
	if got := ComputeStatus(4, 2, 0); got != StatusApproved {
		t.Fatalf("expected approved after withdrawal, got %s", got)
	}
	if got := ComputeStatus(4, 1, 0); got != StatusInsufficient {
		t.Fatalf("expected insufficient, got %s", got)
	}
	if got := ComputeStatus(0, 0, 0); got != StatusNoModerators {
		t.Fatalf("expected no_moderators, got %s", got)
	}
}

func TestBuildViewCountsStrayVotesButHidesThem(t *testing.T) {
	moderators := []Moderator{
		{ID: 1, Name: "Ada"},
		{ID: 2, Name: "Grace"},
	}
	record := VoteRecord{Approvals: []ModeratorID{1, 99}}
	marker := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	view := BuildView(moderators, record, &marker, 1, true)
	if view.TotalApproved != 2 {
		t.Fatalf("stray approval must still count: got %d", view.TotalApproved)
	}
	if len(view.PerModerator) != 2 {
		t.Fatalf("per-moderator list must only hold directory members, got %d", len(view.PerModerator))
	}
	if view.PerModerator[0].Status != VoteStateApproved {
		t.Fatalf("expected first moderator approved, got %s", view.PerModerator[0].Status)
	}
	if view.PerModerator[1].Status != VoteStatePending {
		t.Fatalf("expected second moderator pending, got %s", view.PerModerator[1].Status)
	}
	if !view.CurrentUserHasApproved {
		t.Fatalf("expected current user marked approved")
	}
	if view.ChangesDoneLast == nil || !view.ChangesDoneLast.Equal(marker) {
		t.Fatalf("expected changes-done marker carried into view")
	}
}

func TestBuildSummaryLevels(t *testing.T) {
	if got := BuildSummary(4, 2).Level; got != SummaryLevelOK {
		t.Fatalf("expected ok, got %s", got)
	}
	if got := BuildSummary(4, 1).Level; got != SummaryLevelPartial {
		t.Fatalf("expected partial, got %s", got)
	}
	if got := BuildSummary(4, 0).Level; got != SummaryLevelNone {
		t.Fatalf("expected none, got %s", got)
	}
	if got := BuildSummary(0, 0).Level; got != SummaryLevelNone {
		t.Fatalf("expected none with no moderators, got %s", got)
	}
}
