package application_test

import (
	"context"
	"testing"

	"signoff/contexts/editorial-workflow/signoff-service/adapters/memory"
	"signoff/contexts/editorial-workflow/signoff-service/application"
	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
)

func newResolver(store *memory.Store) application.DirectoryResolver {
	return application.DirectoryResolver{
		Directory: store,
		Allowlist: store,
	}
}

func TestResolveDefaultsToRoleQualifiedUsers(t *testing.T) {
	store := memory.NewStore()
	seedModerator(store, 1, "Ada", "administrator")
	seedModerator(store, 2, "Grace", "editor")
	seedModerator(store, 3, "Sam", "author")

	moderators := newResolver(store).Resolve(context.Background())
	if len(moderators) != 2 {
		t.Fatalf("expected two role-qualified moderators, got %d", len(moderators))
	}
	if moderators[0].ID != 1 || moderators[1].ID != 2 {
		t.Fatalf("expected directory order preserved, got %v", moderators)
	}
}

func TestResolveAppliesAllowlistIntersection(t *testing.T) {
	store := memory.NewStore()
	seedModerator(store, 1, "Ada", "administrator")
	seedModerator(store, 2, "Grace", "editor")
	seedModerator(store, 3, "Linus", "editor")
	seedModerator(store, 4, "Barbara", "editor")

	ctx := context.Background()
	if err := store.SaveAllowlist(ctx, []entities.ModeratorID{2, 4, 99}); err != nil {
		t.Fatalf("save allow-list failed: %v", err)
	}

	resolver := newResolver(store)
	moderators := resolver.Resolve(ctx)
	if len(moderators) != 2 {
		t.Fatalf("expected allow-list intersection of two, got %d", len(moderators))
	}
	if moderators[0].ID != 2 || moderators[1].ID != 4 {
		t.Fatalf("expected moderators [2 4], got %v", moderators)
	}

	// Quorum follows the effective set, not the full directory.
	if required := entities.RequiredApprovals(len(moderators)); required != 1 {
		t.Fatalf("expected quorum of 1 for two moderators, got %d", required)
	}
}

func TestResolveEmptyAllowlistMeansNoOverride(t *testing.T) {
	store := memory.NewStore()
	seedModerator(store, 1, "Ada", "administrator")
	seedModerator(store, 2, "Grace", "editor")

	ctx := context.Background()
	if err := store.SaveAllowlist(ctx, nil); err != nil {
		t.Fatalf("save allow-list failed: %v", err)
	}
	if got := len(newResolver(store).Resolve(ctx)); got != 2 {
		t.Fatalf("empty allow-list must not filter, got %d moderators", got)
	}
}

func TestIsModeratorUnknownID(t *testing.T) {
	store := memory.NewStore()
	seedModerator(store, 1, "Ada", "administrator")

	resolver := newResolver(store)
	if resolver.IsModerator(context.Background(), 42) {
		t.Fatalf("unknown id must not be a moderator")
	}
	if resolver.IsModerator(context.Background(), 0) {
		t.Fatalf("non-positive id must not be a moderator")
	}
	if !resolver.IsModerator(context.Background(), 1) {
		t.Fatalf("expected known administrator to qualify")
	}
}
