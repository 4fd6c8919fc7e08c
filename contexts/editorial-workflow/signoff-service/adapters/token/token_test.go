package token

import (
	"testing"
	"time"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestIssueValidateRoundTrip(t *testing.T) {
	service := Service{
		Secret: []byte("unit-secret"),
		Clock:  fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
	}

	issued := service.Issue("toggle_approval", "post-1", 7)
	if len(issued) != 20 {
		t.Fatalf("expected 20-char token, got %d chars", len(issued))
	}
	if !service.Validate(issued, "toggle_approval", "post-1", 7) {
		t.Fatalf("freshly issued token must validate")
	}
}

func TestValidateRejectsWrongScope(t *testing.T) {
	service := Service{
		Secret: []byte("unit-secret"),
		Clock:  fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	issued := service.Issue("toggle_approval", "post-1", 7)

	if service.Validate(issued, "toggle_change_request", "post-1", 7) {
		t.Fatalf("token must be bound to its action")
	}
	if service.Validate(issued, "toggle_approval", "post-2", 7) {
		t.Fatalf("token must be bound to its item")
	}
	if service.Validate(issued, "toggle_approval", "post-1", 8) {
		t.Fatalf("token must be bound to its actor")
	}
	if service.Validate("", "toggle_approval", "post-1", 7) {
		t.Fatalf("empty token must never validate")
	}
}

func TestValidateGraceTickAndExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 0, 30, 0, 0, time.UTC)
	issuer := Service{Secret: []byte("unit-secret"), Clock: fixedClock{now: issuedAt}}
	issued := issuer.Issue("notify_changes_done", "post-1", 7)

	oneTickLater := Service{Secret: []byte("unit-secret"), Clock: fixedClock{now: issuedAt.Add(defaultTickLength)}}
	if !oneTickLater.Validate(issued, "notify_changes_done", "post-1", 7) {
		t.Fatalf("token must survive one tick of grace")
	}

	twoTicksLater := Service{Secret: []byte("unit-secret"), Clock: fixedClock{now: issuedAt.Add(2 * defaultTickLength)}}
	if twoTicksLater.Validate(issued, "notify_changes_done", "post-1", 7) {
		t.Fatalf("token must expire after the grace tick")
	}
}
