package application

import (
	"context"
	"log/slog"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

// DefaultModeratorRoles are the role slugs that qualify a directory user as a
// moderator when no override is configured.
var DefaultModeratorRoles = []string{"administrator", "editor"}

// DirectoryResolver computes the effective moderator set: the role-qualified
// directory users, filtered by the allow-list when one is configured. The set
// is recomputed on every query so an administrator edit takes effect
// immediately; nothing here is cached.
type DirectoryResolver struct {
	Directory ports.DirectoryClient
	Allowlist ports.AllowlistStore
	Roles     []string
	Logger    *slog.Logger
}

// Resolve never fails: a directory or allow-list read failure is logged and
// degrades to the empty set / no override.
func (r DirectoryResolver) Resolve(ctx context.Context) []entities.Moderator {
	logger := ResolveLogger(r.Logger)

	roles := r.Roles
	if len(roles) == 0 {
		roles = DefaultModeratorRoles
	}
	qualified, err := r.Directory.ListUsersByRole(ctx, roles)
	if err != nil {
		logger.Warn("moderator directory lookup failed; treating as empty",
			"event", "signoff_directory_lookup_failed",
			"module", "editorial-workflow/signoff-service",
			"layer", "application",
			"error", err.Error(),
		)
		return nil
	}

	allowed, err := r.Allowlist.GetAllowlist(ctx)
	if err != nil {
		logger.Warn("moderator allow-list read failed; treating as unset",
			"event", "signoff_allowlist_read_failed",
			"module", "editorial-workflow/signoff-service",
			"layer", "application",
			"error", err.Error(),
		)
		allowed = nil
	}
	allowed = entities.NormalizeIDs(allowed)

	out := make([]entities.Moderator, 0, len(qualified))
	seen := make(map[entities.ModeratorID]struct{}, len(qualified))
	for _, moderator := range qualified {
		if moderator.ID <= 0 {
			continue
		}
		if _, dup := seen[moderator.ID]; dup {
			continue
		}
		if len(allowed) > 0 && !containsModeratorID(allowed, moderator.ID) {
			continue
		}
		seen[moderator.ID] = struct{}{}
		out = append(out, moderator)
	}
	return out
}

// IsModerator tolerates unknown ids: an id outside the effective set is
// simply not a moderator.
func (r DirectoryResolver) IsModerator(ctx context.Context, id entities.ModeratorID) bool {
	if id <= 0 {
		return false
	}
	for _, moderator := range r.Resolve(ctx) {
		if moderator.ID == id {
			return true
		}
	}
	return false
}

func containsModeratorID(ids []entities.ModeratorID, id entities.ModeratorID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
