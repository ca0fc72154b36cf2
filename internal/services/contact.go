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

// ContactService applies the permission and visibility checks in-process as
// a fast refusal; the row-level policies installed by the migrations remain
// the authoritative copy of the same predicates.
type ContactService struct {
	db         *database.DB
	workspaces *WorkspaceService
	quotas     *QuotaService
	perms      *authz.Evaluator
}

func NewContactService(db *database.DB, workspaces *WorkspaceService, quotas *QuotaService, perms *authz.Evaluator) *ContactService {
	return &ContactService{db: db, workspaces: workspaces, quotas: quotas, perms: perms}
}

type ContactInput struct {
	Name        string
	Email       *string
	Phone       *string
	CompanyName *string
	OwnerID     *uuid.UUID
}

const contactColumns = `id, workspace_id, name, email, phone, company_name, creator_id, owner_id, created_at, updated_at, deleted_at`

func scanContact(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Email, &c.Phone, &c.CompanyName,
		&c.CreatorID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a contact, consuming one contacts-quota slot in the same
// transaction so the ceiling holds under concurrent creates.
func (s *ContactService) Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input ContactInput) (*models.Contact, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermCreateContact) {
		return nil, ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.quotas.consume(ctx, tx, workspaceID, models.KindContacts, 1); err != nil {
		return nil, err
	}

	contact, err := scanContact(tx.QueryRow(ctx, `
		INSERT INTO contacts (workspace_id, name, email, phone, company_name, creator_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+contactColumns+`
	`, workspaceID, input.Name, input.Email, input.Phone, input.CompanyName, principal.ID, input.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return contact, nil
}

// List returns the contacts the principal may see under the workspace's
// visibility mode. Soft-deleted rows are excluded.
func (s *ContactService) List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Contact, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermViewContacts) {
		return nil, ErrForbidden
	}

	mode, err := s.workspaces.VisibilityMode(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	scope := s.perms.ResolveReadScope(principal.Role, mode, principal.ID)

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	args := []any{workspaceID}
	if scope.OwnOnly {
		query = `
		SELECT ` + contactColumns + `
		FROM contacts
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

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Email, &c.Phone, &c.CompanyName,
			&c.CreatorID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, tx.Commit(ctx)
}

func (s *ContactService) GetByID(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) (*models.Contact, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermViewContacts) {
		return nil, ErrForbidden
	}

	mode, err := s.workspaces.VisibilityMode(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	scope := s.perms.ResolveReadScope(principal.Role, mode, principal.ID)

	query := `
		SELECT ` + contactColumns + `
		FROM contacts WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`
	args := []any{contactID, workspaceID}
	if scope.OwnOnly {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, scope.Principal)
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, mode))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	contact, err := scanContact(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return contact, tx.Commit(ctx)
}

// Update mutates a contact under the write scope: editing widely needs the
// edit permission, juniors reach only rows they created or own.
func (s *ContactService) Update(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID, input ContactInput) (*models.Contact, error) {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermEditContact)
	if access == authz.WriteDenied {
		return nil, ErrForbidden
	}

	query := `
		UPDATE contacts
		SET name = $1, email = $2, phone = $3, company_name = $4, owner_id = $5, updated_at = NOW()
		WHERE id = $6 AND workspace_id = $7 AND deleted_at IS NULL`
	args := []any{input.Name, input.Email, input.Phone, input.CompanyName, input.OwnerID, contactID, workspaceID}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $8 OR owner_id = $8)`
		args = append(args, principal.ID)
	}
	query += ` RETURNING ` + contactColumns

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	contact, err := scanContact(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return contact, tx.Commit(ctx)
}

// SoftDelete hides a contact and gives its quota slot back. The row stays
// addressable for Restore.
func (s *ContactService) SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) error {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermDeleteContact)
	if access == authz.WriteDenied {
		return ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE contacts SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`
	args := []any{contactID, workspaceID}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, principal.ID)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}

	if err := s.quotas.release(ctx, tx, workspaceID, models.KindContacts, 1); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Restore undeletes a contact. It re-consumes a quota slot first, so a
// workspace over its ceiling after a downgrade cannot grow back through
// restores.
func (s *ContactService) Restore(ctx context.Context, principal authz.Principal, workspaceID, contactID uuid.UUID) (*models.Contact, error) {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermDeleteContact)
	if access == authz.WriteDenied {
		return nil, ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.quotas.consume(ctx, tx, workspaceID, models.KindContacts, 1); err != nil {
		return nil, err
	}

	query := `
		UPDATE contacts SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NOT NULL`
	args := []any{contactID, workspaceID}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, principal.ID)
	}
	query += ` RETURNING ` + contactColumns

	contact, err := scanContact(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return contact, nil
}
