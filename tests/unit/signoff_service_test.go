package unit

import (
	"context"
	"errors"
	"testing"

	signoffservice "signoff/contexts/editorial-workflow/signoff-service"
	"signoff/contexts/editorial-workflow/signoff-service/adapters/memory"
	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	domainerrors "signoff/contexts/editorial-workflow/signoff-service/domain/errors"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
	httptransport "signoff/contexts/editorial-workflow/signoff-service/transport/http"
)

func newSignoffModule() signoffservice.Module {
	module := signoffservice.NewInMemoryModule(nil)
	module.Store.SetUser(memory.DirectoryUser{
		Moderator: entities.Moderator{ID: 1, Name: "Ada", Email: "ada@example.com"},
		Role:      "administrator",
	})
	module.Store.SetUser(memory.DirectoryUser{
		Moderator: entities.Moderator{ID: 2, Name: "Grace", Email: "grace@example.com"},
		Role:      "editor",
	})
	module.Store.SetUser(memory.DirectoryUser{
		Moderator: entities.Moderator{ID: 3, Name: "Linus", Email: "linus@example.com"},
		Role:      "editor",
	})
	module.Store.SetItem(ports.ContentItem{
		ItemID:  "post-1",
		Title:   "Launch post",
		EditURL: "https://cms.example.com/edit/post-1",
	})
	return module
}

func viewTokens(t *testing.T, module signoffservice.Module, itemID string, user entities.ModeratorID) httptransport.ActionTokens {
	t.Helper()
	view, err := module.Handler.ViewHandler(context.Background(), itemID, user)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.Data.Tokens == nil {
		t.Fatalf("expected action tokens for moderator %d", user)
	}
	return *view.Data.Tokens
}

func TestSignoffApprovalLifecycle(t *testing.T) {
	module := newSignoffModule()
	ctx := context.Background()

	tokens := viewTokens(t, module, "post-1", 1)
	first, err := module.Handler.ToggleApprovalHandler(ctx, "post-1", 1, httptransport.ToggleRequest{Token: tokens.ToggleApproval})
	if err != nil {
		t.Fatalf("toggle approval failed: %v", err)
	}
	if first.Data.TotalApproved != 1 || first.Data.Status != string(entities.StatusInsufficient) {
		t.Fatalf("one of three approvals is below quorum: %+v", first.Data)
	}

	tokens2 := viewTokens(t, module, "post-1", 2)
	second, err := module.Handler.ToggleApprovalHandler(ctx, "post-1", 2, httptransport.ToggleRequest{Token: tokens2.ToggleApproval})
	if err != nil {
		t.Fatalf("second approval failed: %v", err)
	}
	if second.Data.Status != string(entities.StatusApproved) {
		t.Fatalf("two of three approvals meets quorum: got %s", second.Data.Status)
	}

	// Same token scope allows the withdrawal flip.
	third, err := module.Handler.ToggleApprovalHandler(ctx, "post-1", 2, httptransport.ToggleRequest{Token: tokens2.ToggleApproval})
	if err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	if third.Data.Status != string(entities.StatusInsufficient) {
		t.Fatalf("expected insufficient after withdrawal, got %s", third.Data.Status)
	}
}

func TestSignoffChangeRequestBlocksAndNotifyKeepsIt(t *testing.T) {
	module := newSignoffModule()
	ctx := context.Background()

	tokens1 := viewTokens(t, module, "post-1", 1)
	tokens2 := viewTokens(t, module, "post-1", 2)
	tokens3 := viewTokens(t, module, "post-1", 3)

	if _, err := module.Handler.ToggleApprovalHandler(ctx, "post-1", 1, httptransport.ToggleRequest{Token: tokens1.ToggleApproval}); err != nil {
		t.Fatalf("approval by 1 failed: %v", err)
	}
	if _, err := module.Handler.ToggleApprovalHandler(ctx, "post-1", 2, httptransport.ToggleRequest{Token: tokens2.ToggleApproval}); err != nil {
		t.Fatalf("approval by 2 failed: %v", err)
	}
	blocked, err := module.Handler.ToggleChangeRequestHandler(ctx, "post-1", 3, httptransport.ToggleRequest{Token: tokens3.ToggleChangeRequest})
	if err != nil {
		t.Fatalf("change request by 3 failed: %v", err)
	}
	if blocked.Data.Status != string(entities.StatusChangesRequested) {
		t.Fatalf("change request must override quorum: got %s", blocked.Data.Status)
	}

	notified, err := module.Handler.NotifyChangesDoneHandler(ctx, "post-1", 1, httptransport.ToggleRequest{Token: tokens1.NotifyChangesDone})
	if err != nil {
		t.Fatalf("notify changes done failed: %v", err)
	}
	if notified.Data.TotalChangeRequests != 1 {
		t.Fatalf("notification must not clear the change request, got %d", notified.Data.TotalChangeRequests)
	}
	if notified.Data.ChangesDoneLast == nil {
		t.Fatalf("expected changes-done marker in view")
	}
	sent := module.Store.Notifications()
	if len(sent) != 1 || sent[0].Recipient.ID != 3 {
		t.Fatalf("expected one notification to the requester, got %+v", sent)
	}

	cleared, err := module.Handler.ToggleChangeRequestHandler(ctx, "post-1", 3, httptransport.ToggleRequest{Token: tokens3.ToggleChangeRequest})
	if err != nil {
		t.Fatalf("withdrawal by 3 failed: %v", err)
	}
	if cleared.Data.Status != string(entities.StatusApproved) {
		t.Fatalf("expected approved after requester withdraws, got %s", cleared.Data.Status)
	}
	if cleared.Data.ChangesDoneLast == nil {
		t.Fatalf("marker must persist after withdrawal")
	}
}

func TestSignoffTokenGuardsMutations(t *testing.T) {
	module := newSignoffModule()
	ctx := context.Background()

	if _, err := module.Handler.ToggleApprovalHandler(ctx, "post-1", 1, httptransport.ToggleRequest{Token: "forged"}); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	tokens := viewTokens(t, module, "post-1", 1)
	if _, err := module.Handler.ToggleChangeRequestHandler(ctx, "post-1", 1, httptransport.ToggleRequest{Token: tokens.ToggleApproval}); !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("expected cross-action token rejection, got %v", err)
	}
}

func TestSignoffAllowlistShrinksQuorum(t *testing.T) {
	module := newSignoffModule()
	ctx := context.Background()

	allowlist, err := module.Handler.GetAllowlistHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get allow-list failed: %v", err)
	}
	if _, err := module.Handler.SaveAllowlistHandler(ctx, 1, httptransport.SaveAllowlistRequest{
		Token:             allowlist.Data.Token,
		AllowedModerators: []int64{2, 3},
	}); err != nil {
		t.Fatalf("save allow-list failed: %v", err)
	}

	view, err := module.Handler.ViewHandler(ctx, "post-1", 2)
	if err != nil {
		t.Fatalf("view after allow-list failed: %v", err)
	}
	if view.Data.TotalModerators != 2 || view.Data.Required != 1 {
		t.Fatalf("expected two eligible moderators with quorum 1, got %+v", view.Data)
	}

	// User 1 still has the administrator role but is no longer a moderator.
	excluded, err := module.Handler.ViewHandler(ctx, "post-1", 1)
	if err != nil {
		t.Fatalf("view for excluded user failed: %v", err)
	}
	if excluded.Data.Tokens != nil {
		t.Fatalf("excluded user must not receive action tokens")
	}
}
