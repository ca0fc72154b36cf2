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

var (
	ErrCannotRemoveOwner = errors.New("cannot remove workspace owner")
	ErrAlreadyMember     = errors.New("user is already a workspace member")
	ErrInvalidRole       = errors.New("invalid role")
)

// MemberService manages workspace memberships. Every management action is
// gated on strict role seniority: an actor never touches a peer or senior
// membership, regardless of its permission tokens.
type MemberService struct {
	db     *database.DB
	quotas *QuotaService
	perms  *authz.Evaluator
}

func NewMemberService(db *database.DB, quotas *QuotaService, perms *authz.Evaluator) *MemberService {
	return &MemberService{db: db, quotas: quotas, perms: perms}
}

// GetRole resolves the role an active member holds in a workspace. The
// empty role comes back for non-members and suspended members, which the
// evaluator denies everything. The lookup binds the looked-up user as the
// principal: the membership policies let anyone read their own row.
func (s *MemberService) GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (authz.Role, error) {
	tx, err := s.db.BeginRequest(ctx, database.RequestSettings{PrincipalID: userID.String()})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var role authz.Role
	err = tx.QueryRow(ctx, `
		SELECT role FROM memberships
		WHERE workspace_id = $1 AND user_id = $2 AND status = $3
	`, workspaceID, userID, models.MembershipStatusActive).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, tx.Commit(ctx)
}

func (s *MemberService) List(ctx context.Context, actor authz.Principal, workspaceID uuid.UUID) ([]models.Membership, error) {
	tx, err := s.db.BeginRequest(ctx, principalSettings(actor, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT m.id, m.workspace_id, m.user_id, m.role, m.status, m.created_at, m.updated_at,
		       u.id, u.email, u.name, u.avatar_url, u.created_at, u.updated_at
		FROM memberships m
		JOIN users u ON m.user_id = u.id
		WHERE m.workspace_id = $1
		ORDER BY m.created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		var u models.User
		if err := rows.Scan(
			&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt,
			&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		m.User = &u
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, tx.Commit(ctx)
}

// Add creates a membership, consuming one users-quota slot in the same
// transaction as the insert so a racing add cannot overshoot the ceiling.
func (s *MemberService) Add(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, role authz.Role) (*models.Membership, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if !s.perms.HasPermission(actor.Role, authz.PermInviteMember) {
		return nil, ErrForbidden
	}
	if !actor.Role.CanManage(role) {
		return nil, ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(actor, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.quotas.consume(ctx, tx, workspaceID, models.KindUsers, 1); err != nil {
		return nil, err
	}

	var m models.Membership
	err = tx.QueryRow(ctx, `
		INSERT INTO memberships (workspace_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
		RETURNING id, workspace_id, user_id, role, status, created_at, updated_at
	`, workspaceID, userID, role, models.MembershipStatusActive).Scan(
		&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &m, nil
}

// ChangeRole reassigns a member's role. The actor must outrank both the
// member's current role and the new one.
func (s *MemberService) ChangeRole(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, newRole authz.Role) error {
	if !newRole.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}
	if !s.perms.HasPermission(actor.Role, authz.PermManageMembers) {
		return ErrForbidden
	}
	if !actor.Role.CanManage(newRole) {
		return ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(actor, ""))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	targetRole, err := s.targetRole(ctx, tx, workspaceID, userID)
	if err != nil {
		return err
	}
	if targetRole == authz.RoleOwner {
		return ErrCannotRemoveOwner
	}
	if !actor.Role.CanManage(targetRole) {
		return ErrForbidden
	}

	_, err = tx.Exec(ctx, `
		UPDATE memberships SET role = $1, updated_at = NOW()
		WHERE workspace_id = $2 AND user_id = $3
	`, newRole, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}
	return tx.Commit(ctx)
}

// Remove deletes a membership and releases its users-quota slot. The owner
// membership is never removable.
func (s *MemberService) Remove(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID) error {
	if !s.perms.HasPermission(actor.Role, authz.PermManageMembers) {
		return ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(actor, ""))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	targetRole, err := s.targetRole(ctx, tx, workspaceID, userID)
	if err != nil {
		return err
	}
	if targetRole == authz.RoleOwner {
		return ErrCannotRemoveOwner
	}
	if !actor.Role.CanManage(targetRole) {
		return ErrForbidden
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM memberships WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if err := s.quotas.release(ctx, tx, workspaceID, models.KindUsers, 1); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SetStatus moves a membership between pending, active and suspended.
func (s *MemberService) SetStatus(ctx context.Context, actor authz.Principal, workspaceID, userID uuid.UUID, status string) error {
	if !models.ValidMembershipStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !s.perms.HasPermission(actor.Role, authz.PermManageMembers) {
		return ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(actor, ""))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	targetRole, err := s.targetRole(ctx, tx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !actor.Role.CanManage(targetRole) {
		return ErrForbidden
	}

	_, err = tx.Exec(ctx, `
		UPDATE memberships SET status = $1, updated_at = NOW()
		WHERE workspace_id = $2 AND user_id = $3
	`, status, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *MemberService) targetRole(ctx context.Context, tx pgx.Tx, workspaceID, userID uuid.UUID) (authz.Role, error) {
	var role authz.Role
	err := tx.QueryRow(ctx, `
		SELECT role FROM memberships WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrMemberNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
