package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

// QuotaService is a pure counter/ceiling store. It never decides which
// maxima belong to a tier; the subscription lifecycle writes maxima, the
// entity creation/deletion paths move the counters.
type QuotaService struct {
	db *database.DB
}

func NewQuotaService(db *database.DB) *QuotaService {
	return &QuotaService{db: db}
}

// quotaColumns whitelists the per-kind column pair. Kinds never reach SQL
// text unchecked.
var quotaColumns = map[models.ResourceKind]struct {
	current string
	max     string
}{
	models.KindUsers:    {current: "current_users", max: "max_users"},
	models.KindContacts: {current: "current_contacts", max: "max_contacts"},
	models.KindDeals:    {current: "current_deals", max: "max_deals"},
	models.KindStorage:  {current: "current_storage_mb", max: "max_storage_mb"},
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (s *QuotaService) Get(ctx context.Context, workspaceID uuid.UUID) (*models.WorkspaceQuota, error) {
	var q models.WorkspaceQuota
	err := s.db.Pool.QueryRow(ctx, `
		SELECT workspace_id,
		       max_users, current_users,
		       max_contacts, current_contacts,
		       max_deals, current_deals,
		       max_storage_mb, current_storage_mb,
		       updated_at
		FROM workspace_quotas WHERE workspace_id = $1
	`, workspaceID).Scan(
		&q.WorkspaceID,
		&q.MaxUsers, &q.CurrentUsers,
		&q.MaxContacts, &q.CurrentContacts,
		&q.MaxDeals, &q.CurrentDeals,
		&q.MaxStorageMB, &q.CurrentStorageMB,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CanCreate reports whether one more resource of the kind fits under the
// ceiling. Any uncertainty resolves to deny: a missing quota row, a failed
// lookup and an unknown kind all gate creation.
func (s *QuotaService) CanCreate(ctx context.Context, workspaceID uuid.UUID, kind models.ResourceKind) bool {
	cols, ok := quotaColumns[kind]
	if !ok {
		return false
	}

	var current, max int64
	err := s.db.Pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s, %s FROM workspace_quotas WHERE workspace_id = $1
	`, cols.current, cols.max), workspaceID).Scan(&current, &max)
	if err != nil {
		log.Printf("quota lookup failed for workspace %s: %v", workspaceID, err)
		return false
	}

	return max == models.QuotaUnlimited || current < max
}

// Consume advances a counter by n, but only if the result stays under the
// ceiling. The check and the increment are one conditional UPDATE so two
// racing creations cannot both slip under the same last slot.
func (s *QuotaService) Consume(ctx context.Context, workspaceID uuid.UUID, kind models.ResourceKind, n int64) error {
	return s.consume(ctx, s.db.Pool, workspaceID, kind, n)
}

func (s *QuotaService) consume(ctx context.Context, q execer, workspaceID uuid.UUID, kind models.ResourceKind, n int64) error {
	cols, ok := quotaColumns[kind]
	if !ok {
		return fmt.Errorf("unknown resource kind %q", kind)
	}

	tag, err := q.Exec(ctx, fmt.Sprintf(`
		UPDATE workspace_quotas
		SET %[1]s = %[1]s + $2, updated_at = NOW()
		WHERE workspace_id = $1 AND (%[2]s = -1 OR %[1]s + $2 <= %[2]s)
	`, cols.current, cols.max), workspaceID, n)
	if err != nil {
		return fmt.Errorf("failed to consume %s quota: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

// Release gives back n units of a kind, flooring the counter at zero.
func (s *QuotaService) Release(ctx context.Context, workspaceID uuid.UUID, kind models.ResourceKind, n int64) error {
	return s.release(ctx, s.db.Pool, workspaceID, kind, n)
}

func (s *QuotaService) release(ctx context.Context, q execer, workspaceID uuid.UUID, kind models.ResourceKind, n int64) error {
	cols, ok := quotaColumns[kind]
	if !ok {
		return fmt.Errorf("unknown resource kind %q", kind)
	}

	_, err := q.Exec(ctx, fmt.Sprintf(`
		UPDATE workspace_quotas
		SET %[1]s = GREATEST(%[1]s - $2, 0), updated_at = NOW()
		WHERE workspace_id = $1
	`, cols.current), workspaceID, n)
	if err != nil {
		return fmt.Errorf("failed to release %s quota: %w", kind, err)
	}
	return nil
}

// SetMaxima rewrites one or more ceilings; nil fields stay untouched and
// the current counters are never written here.
func (s *QuotaService) SetMaxima(ctx context.Context, workspaceID uuid.UUID, update models.QuotaUpdate) error {
	return s.setMaxima(ctx, s.db.Pool, workspaceID, update)
}

func (s *QuotaService) setMaxima(ctx context.Context, q execer, workspaceID uuid.UUID, update models.QuotaUpdate) error {
	var sets []string
	args := []any{workspaceID}

	appendSet := func(column string, value *int64) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	appendSet("max_users", update.Users)
	appendSet("max_contacts", update.Contacts)
	appendSet("max_deals", update.Deals)
	appendSet("max_storage_mb", update.StorageMB)

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	tag, err := q.Exec(ctx, fmt.Sprintf(`
		UPDATE workspace_quotas SET %s WHERE workspace_id = $1
	`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("failed to set quota maxima: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}
