package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

// ActivityService records timeline entries. Logging kinds (call, email,
// meeting) form an immutable audit trail: the update/delete statements only
// ever match note rows, mirroring the storage policies, and an update
// against a logging-kind record returns the record unchanged instead of an
// error.
type ActivityService struct {
	db         *database.DB
	workspaces *WorkspaceService
	perms      *authz.Evaluator
}

func NewActivityService(db *database.DB, workspaces *WorkspaceService, perms *authz.Evaluator) *ActivityService {
	return &ActivityService{db: db, workspaces: workspaces, perms: perms}
}

type ActivityInput struct {
	Kind      string
	Body      string
	ContactID *uuid.UUID
	DealID    *uuid.UUID
	OwnerID   *uuid.UUID
}

const activityColumns = `id, workspace_id, kind, body, contact_id, deal_id, creator_id, owner_id, created_at, updated_at, deleted_at`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.Kind, &a.Body, &a.ContactID, &a.DealID,
		&a.CreatorID, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ActivityService) Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input ActivityInput) (*models.Activity, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermCreateActivity) {
		return nil, ErrForbidden
	}
	if !models.ValidActivityKind(input.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, input.Kind)
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	activity, err := scanActivity(tx.QueryRow(ctx, `
		INSERT INTO activities (workspace_id, kind, body, contact_id, deal_id, creator_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+activityColumns+`
	`, workspaceID, input.Kind, input.Body, input.ContactID, input.DealID, principal.ID, input.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return activity, tx.Commit(ctx)
}

func (s *ActivityService) List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Activity, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermViewActivities) {
		return nil, ErrForbidden
	}

	mode, err := s.workspaces.VisibilityMode(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	scope := s.perms.ResolveReadScope(principal.Role, mode, principal.ID)

	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	args := []any{workspaceID}
	if scope.OwnOnly {
		query = `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE workspace_id = $1 AND deleted_at IS NULL
		  AND (creator_id = $2 OR owner_id = $2)
		ORDER BY created_at DESC`
		args = append(args, scope.Principal)
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, mode))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.Kind, &a.Body, &a.ContactID, &a.DealID,
			&a.CreatorID, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, tx.Commit(ctx)
}

func (s *ActivityService) GetByID(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID) (*models.Activity, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermViewActivities) {
		return nil, ErrForbidden
	}

	mode, err := s.workspaces.VisibilityMode(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	scope := s.perms.ResolveReadScope(principal.Role, mode, principal.ID)

	query := `
		SELECT ` + activityColumns + `
		FROM activities WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`
	args := []any{activityID, workspaceID}
	if scope.OwnOnly {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, scope.Principal)
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, mode))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	activity, err := scanActivity(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return activity, tx.Commit(ctx)
}

// UpdateBody edits a note. For logging kinds the update matches no row, the
// record is fetched and handed back untouched, and no error is raised; that
// is exactly how the storage policies behave when an update matches
// nothing.
func (s *ActivityService) UpdateBody(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID, body string) (*models.Activity, error) {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermEditActivity)
	if access == authz.WriteDenied {
		return nil, ErrForbidden
	}

	query := `
		UPDATE activities SET body = $1, updated_at = NOW()
		WHERE id = $2 AND workspace_id = $3 AND deleted_at IS NULL AND kind = $4`
	args := []any{body, activityID, workspaceID, models.ActivityKindNote}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $5 OR owner_id = $5)`
		args = append(args, principal.ID)
	}
	query += ` RETURNING ` + activityColumns

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	activity, err := scanActivity(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the record does not exist or it is an immutable
		// logging kind; only the latter is a silent no-op.
		return s.GetByID(ctx, principal, workspaceID, activityID)
	}
	if err != nil {
		return nil, err
	}
	return activity, tx.Commit(ctx)
}

// SoftDelete removes a note. Logging kinds never match, mirroring the
// delete policy; the attempt reports not-found semantics through the same
// silent path as UpdateBody when the record is an immutable kind.
func (s *ActivityService) SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, activityID uuid.UUID) error {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermDeleteActivity)
	if access == authz.WriteDenied {
		return ErrForbidden
	}

	query := `
		UPDATE activities SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL AND kind = $3`
	args := []any{activityID, workspaceID, models.ActivityKindNote}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $4 OR owner_id = $4)`
		args = append(args, principal.ID)
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// No-op for immutable kinds, not-found for missing records.
		if _, err := s.GetByID(ctx, principal, workspaceID, activityID); err != nil {
			return err
		}
		return nil
	}
	return tx.Commit(ctx)
}
