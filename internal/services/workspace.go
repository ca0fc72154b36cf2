package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

var ErrSlugTaken = errors.New("workspace slug is already taken")

type WorkspaceService struct {
	db          *database.DB
	trialPeriod time.Duration
}

func NewWorkspaceService(db *database.DB, trialPeriod time.Duration) *WorkspaceService {
	return &WorkspaceService{db: db, trialPeriod: trialPeriod}
}

const workspaceColumns = `id, name, slug, owner_id, visibility_mode, created_at, updated_at, deleted_at`

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var w models.Workspace
	err := row.Scan(&w.ID, &w.Name, &w.Slug, &w.OwnerID, &w.VisibilityMode,
		&w.CreatedAt, &w.UpdatedAt, &w.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts the workspace together with its owner membership, its
// free-tier subscription and its seeded quota row in one transaction. A
// workspace never exists without the other three.
func (s *WorkspaceService) Create(ctx context.Context, name, slug string, ownerID uuid.UUID) (*models.Workspace, error) {
	tx, err := s.db.BeginRequest(ctx, database.RequestSettings{
		PrincipalID:    ownerID.String(),
		Role:           string(authz.RoleOwner),
		VisibilityMode: string(authz.VisibilityOwn),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	workspace, err := scanWorkspace(tx.QueryRow(ctx, `
		INSERT INTO workspaces (name, slug, owner_id, visibility_mode)
		VALUES ($1, $2, $3, $4)
		RETURNING `+workspaceColumns+`
	`, name, slug, ownerID, authz.VisibilityOwn))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (workspace_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`, workspace.ID, ownerID, authz.RoleOwner, models.MembershipStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (workspace_id, tier, status, trial_ends_at)
		VALUES ($1, $2, $3, $4)
	`, workspace.ID, models.TierFree, models.StatusTrialing, NewTrialEnd(s.trialPeriod))
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	limits := models.TierLimits[models.TierFree]
	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_quotas (workspace_id, max_users, current_users, max_contacts, max_deals, max_storage_mb)
		VALUES ($1, $2, 1, $3, $4, $5)
	`, workspace.ID, limits.Users, limits.Contacts, limits.Deals, limits.StorageMB)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return workspace, nil
}

func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces WHERE id = $1 AND deleted_at IS NULL
	`, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *WorkspaceService) GetBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces WHERE slug = $1 AND deleted_at IS NULL
	`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

// GetUserWorkspaces lists the workspaces the user holds an active membership
// in, with the role held in each.
func (s *WorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []authz.Role, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT w.id, w.name, w.slug, w.owner_id, w.visibility_mode, w.created_at, w.updated_at, w.deleted_at, m.role
		FROM workspaces w
		JOIN memberships m ON w.id = m.workspace_id
		WHERE m.user_id = $1 AND m.status = $2 AND w.deleted_at IS NULL
		ORDER BY w.created_at DESC
	`, userID, models.MembershipStatusActive)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var workspaces []models.Workspace
	var roles []authz.Role
	for rows.Next() {
		var w models.Workspace
		var role authz.Role
		if err := rows.Scan(&w.ID, &w.Name, &w.Slug, &w.OwnerID, &w.VisibilityMode,
			&w.CreatedAt, &w.UpdatedAt, &w.DeletedAt, &role); err != nil {
			return nil, nil, err
		}
		workspaces = append(workspaces, w)
		roles = append(roles, role)
	}
	return workspaces, roles, rows.Err()
}

// UpdateSettings changes the display name and/or the visibility mode.
func (s *WorkspaceService) UpdateSettings(ctx context.Context, workspaceID uuid.UUID, name *string, mode *authz.VisibilityMode) (*models.Workspace, error) {
	if mode != nil && !authz.ValidVisibilityMode(*mode) {
		return nil, fmt.Errorf("invalid visibility mode %q", *mode)
	}

	workspace, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `
		UPDATE workspaces
		SET name = COALESCE($1, name),
		    visibility_mode = COALESCE($2, visibility_mode),
		    updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING `+workspaceColumns+`
	`, name, mode, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

// SoftDelete marks the workspace deleted; rows stay addressable for restore.
func (s *WorkspaceService) SoftDelete(ctx context.Context, workspaceID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE workspaces SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, workspaceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}

// VisibilityMode reads just the visibility setting, used by the resource
// services to resolve read scopes.
func (s *WorkspaceService) VisibilityMode(ctx context.Context, workspaceID uuid.UUID) (authz.VisibilityMode, error) {
	var mode authz.VisibilityMode
	err := s.db.Pool.QueryRow(ctx, `
		SELECT visibility_mode FROM workspaces WHERE id = $1 AND deleted_at IS NULL
	`, workspaceID).Scan(&mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrWorkspaceNotFound
	}
	if err != nil {
		return "", err
	}
	return mode, nil
}
