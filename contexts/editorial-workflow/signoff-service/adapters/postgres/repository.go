package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	domainerrors "signoff/contexts/editorial-workflow/signoff-service/domain/errors"
	"signoff/contexts/editorial-workflow/signoff-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const allowlistSettingKey = "allowed_moderators"

// Repository backs the signoff ports with the host CMS schema: a per-item
// vote row, a single-row global setting, and read-only projections of the
// users and content_items tables.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetApprovals(ctx context.Context, itemID string) ([]entities.ModeratorID, error) {
	row, found, err := r.loadVoteRow(ctx, itemID)
	if err != nil || !found {
		return nil, err
	}
	return r.decodeIDs(row.Approvals, itemID, "approvals"), nil
}

func (r *Repository) GetChangeRequests(ctx context.Context, itemID string) ([]entities.ModeratorID, error) {
	row, found, err := r.loadVoteRow(ctx, itemID)
	if err != nil || !found {
		return nil, err
	}
	return r.decodeIDs(row.ChangeRequests, itemID, "change_requests"), nil
}

func (r *Repository) SetApprovals(ctx context.Context, itemID string, ids []entities.ModeratorID) error {
	return r.upsertVoteColumn(ctx, itemID, "approvals", ids)
}

func (r *Repository) SetChangeRequests(ctx context.Context, itemID string, ids []entities.ModeratorID) error {
	return r.upsertVoteColumn(ctx, itemID, "change_requests", ids)
}

func (r *Repository) GetChangesDoneMarker(ctx context.Context, itemID string) (*time.Time, error) {
	row, found, err := r.loadVoteRow(ctx, itemID)
	if err != nil || !found {
		return nil, err
	}
	if row.ChangesDoneAt == nil {
		return nil, nil
	}
	marker := row.ChangesDoneAt.UTC()
	return &marker, nil
}

func (r *Repository) SetChangesDoneMarker(ctx context.Context, itemID string, at time.Time) error {
	marker := at.UTC()
	row := voteRowModel{
		ItemID:        strings.TrimSpace(itemID),
		ChangesDoneAt: &marker,
		UpdatedAt:     marker,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"changes_done_at": row.ChangesDoneAt,
			"updated_at":      row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("signoff_repo_set_changes_done_failed", create.Error, "item_id", row.ItemID)
	}
	return nil
}

func (r *Repository) GetAllowlist(ctx context.Context) ([]entities.ModeratorID, error) {
	var row settingModel
	err := r.db.WithContext(ctx).
		Where("key = ?", allowlistSettingKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.logError("signoff_repo_get_allowlist_failed", err)
	}
	return r.decodeIDs(row.Value, allowlistSettingKey, "allowlist"), nil
}

func (r *Repository) SaveAllowlist(ctx context.Context, ids []entities.ModeratorID) error {
	payload, err := json.Marshal(entities.NormalizeIDs(ids))
	if err != nil {
		return r.logError("signoff_repo_save_allowlist_marshal_failed", err)
	}
	row := settingModel{
		Key:       allowlistSettingKey,
		Value:     payload,
		UpdatedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("signoff_repo_save_allowlist_failed", create.Error)
	}
	return nil
}

func (r *Repository) ListUsersByRole(ctx context.Context, roles []string) ([]entities.Moderator, error) {
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			normalized = append(normalized, role)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	var rows []userModel
	err := r.db.WithContext(ctx).
		Where("role IN ?", normalized).
		Order("id ASC").
		Find(&rows).
		Error
	if err != nil {
		if isUndefinedTable(err) {
			// The host user schema is optional in local development; the
			// resolver treats a missing directory as an empty set.
			return nil, nil
		}
		return nil, r.logError("signoff_repo_list_users_failed", err)
	}
	out := make([]entities.Moderator, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.Moderator{
			ID:    entities.ModeratorID(row.ID),
			Name:  row.DisplayName,
			Email: row.Email,
		})
	}
	return out, nil
}

func (r *Repository) GetItem(ctx context.Context, itemID string) (ports.ContentItem, error) {
	var row contentItemModel
	err := r.db.WithContext(ctx).
		Where("item_id = ?", strings.TrimSpace(itemID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ContentItem{}, domainerrors.ErrItemNotFound
		}
		return ports.ContentItem{}, r.logError("signoff_repo_get_item_failed", err, "item_id", strings.TrimSpace(itemID))
	}
	return ports.ContentItem{
		ItemID:   row.ItemID,
		Title:    row.Title,
		AuthorID: entities.ModeratorID(row.AuthorID),
		EditURL:  row.EditURL,
	}, nil
}

func (r *Repository) CanEdit(ctx context.Context, actorID entities.ModeratorID, itemID string) (bool, error) {
	item, err := r.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrItemNotFound) {
			return false, nil
		}
		return false, err
	}
	if item.AuthorID == actorID {
		return true, nil
	}
	role, found, err := r.userRole(ctx, actorID)
	if err != nil {
		return false, err
	}
	return found && (role == "administrator" || role == "editor"), nil
}

func (r *Repository) IsAdministrator(ctx context.Context, actorID entities.ModeratorID) (bool, error) {
	role, found, err := r.userRole(ctx, actorID)
	if err != nil {
		return false, err
	}
	return found && role == "administrator", nil
}

func (r *Repository) userRole(ctx context.Context, actorID entities.ModeratorID) (string, bool, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("id = ?", int64(actorID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isUndefinedTable(err) {
			return "", false, nil
		}
		return "", false, r.logError("signoff_repo_get_user_role_failed", err, "actor_id", int64(actorID))
	}
	return strings.ToLower(strings.TrimSpace(row.Role)), true, nil
}

func (r *Repository) loadVoteRow(ctx context.Context, itemID string) (voteRowModel, bool, error) {
	var row voteRowModel
	err := r.db.WithContext(ctx).
		Where("item_id = ?", strings.TrimSpace(itemID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return voteRowModel{}, false, nil
		}
		return voteRowModel{}, false, r.logError("signoff_repo_load_vote_row_failed", err, "item_id", strings.TrimSpace(itemID))
	}
	return row, true, nil
}

func (r *Repository) upsertVoteColumn(ctx context.Context, itemID string, column string, ids []entities.ModeratorID) error {
	payload, err := json.Marshal(entities.NormalizeIDs(ids))
	if err != nil {
		return r.logError("signoff_repo_marshal_vote_set_failed", err, "item_id", strings.TrimSpace(itemID), "column", column)
	}
	now := time.Now().UTC()
	row := voteRowModel{
		ItemID:    strings.TrimSpace(itemID),
		UpdatedAt: now,
	}
	switch column {
	case "approvals":
		row.Approvals = payload
	case "change_requests":
		row.ChangeRequests = payload
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			column:       payload,
			"updated_at": now,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("signoff_repo_set_vote_set_failed", create.Error, "item_id", row.ItemID, "column", column)
	}
	return nil
}

// decodeIDs tolerates malformed stored payloads: the backing columns are
// plain JSON, so a corrupt value degrades to the empty set instead of
// failing the whole command.
func (r *Repository) decodeIDs(payload []byte, scope string, field string) []entities.ModeratorID {
	if len(payload) == 0 {
		return nil
	}
	var raw []int64
	if err := json.Unmarshal(payload, &raw); err != nil {
		r.logger.Warn("stored vote set is malformed; treating as empty",
			"event", "signoff_repo_vote_set_malformed",
			"module", "editorial-workflow/signoff-service",
			"layer", "adapter",
			"scope", scope,
			"field", field,
			"error", err.Error(),
		)
		return nil
	}
	ids := make([]entities.ModeratorID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, entities.ModeratorID(id))
	}
	return entities.NormalizeIDs(ids)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "editorial-workflow/signoff-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("signoff repository operation failed", fields...)
	return err
}

type voteRowModel struct {
	ItemID         string     `gorm:"column:item_id;primaryKey"`
	Approvals      []byte     `gorm:"column:approvals"`
	ChangeRequests []byte     `gorm:"column:change_requests"`
	ChangesDoneAt  *time.Time `gorm:"column:changes_done_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (voteRowModel) TableName() string {
	return "signoff_votes"
}

type settingModel struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (settingModel) TableName() string {
	return "signoff_settings"
}

type userModel struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	DisplayName string `gorm:"column:display_name"`
	Email       string `gorm:"column:email"`
	Role        string `gorm:"column:role"`
}

func (userModel) TableName() string {
	return "users"
}

type contentItemModel struct {
	ItemID   string `gorm:"column:item_id;primaryKey"`
	Title    string `gorm:"column:title"`
	AuthorID int64  `gorm:"column:author_id"`
	EditURL  string `gorm:"column:edit_url"`
}

func (contentItemModel) TableName() string {
	return "content_items"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.VoteStore = (*Repository)(nil)
var _ ports.AllowlistStore = (*Repository)(nil)
var _ ports.DirectoryClient = (*Repository)(nil)
var _ ports.ContentClient = (*Repository)(nil)
var _ ports.AuthorizationClient = (*Repository)(nil)
