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

type DealService struct {
	db         *database.DB
	workspaces *WorkspaceService
	quotas     *QuotaService
	perms      *authz.Evaluator
}

func NewDealService(db *database.DB, workspaces *WorkspaceService, quotas *QuotaService, perms *authz.Evaluator) *DealService {
	return &DealService{db: db, workspaces: workspaces, quotas: quotas, perms: perms}
}

type DealInput struct {
	Title       string
	AmountCents int64
	Currency    string
	Stage       string
	ContactID   *uuid.UUID
	OwnerID     *uuid.UUID
}

const dealColumns = `id, workspace_id, title, amount_cents, currency, stage, contact_id, creator_id, owner_id, created_at, updated_at, deleted_at`

func scanDeal(row pgx.Row) (*models.Deal, error) {
	var d models.Deal
	err := row.Scan(&d.ID, &d.WorkspaceID, &d.Title, &d.AmountCents, &d.Currency, &d.Stage,
		&d.ContactID, &d.CreatorID, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DealService) Create(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID, input DealInput) (*models.Deal, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermCreateDeal) {
		return nil, ErrForbidden
	}
	if input.Stage == "" {
		input.Stage = models.DealStageLead
	}
	if !models.ValidDealStage(input.Stage) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, input.Stage)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.quotas.consume(ctx, tx, workspaceID, models.KindDeals, 1); err != nil {
		return nil, err
	}

	deal, err := scanDeal(tx.QueryRow(ctx, `
		INSERT INTO deals (workspace_id, title, amount_cents, currency, stage, contact_id, creator_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+dealColumns+`
	`, workspaceID, input.Title, input.AmountCents, input.Currency, input.Stage, input.ContactID, principal.ID, input.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deal, nil
}

func (s *DealService) List(ctx context.Context, principal authz.Principal, workspaceID uuid.UUID) ([]models.Deal, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermViewDeals) {
		return nil, ErrForbidden
	}

	mode, err := s.workspaces.VisibilityMode(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	scope := s.perms.ResolveReadScope(principal.Role, mode, principal.ID)

	query := `
		SELECT ` + dealColumns + `
		FROM deals
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	args := []any{workspaceID}
	if scope.OwnOnly {
		query = `
		SELECT ` + dealColumns + `
		FROM deals
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

	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		if err := rows.Scan(&d.ID, &d.WorkspaceID, &d.Title, &d.AmountCents, &d.Currency, &d.Stage,
			&d.ContactID, &d.CreatorID, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deals, tx.Commit(ctx)
}

func (s *DealService) GetByID(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) (*models.Deal, error) {
	if !s.perms.HasPermission(principal.Role, authz.PermViewDeals) {
		return nil, ErrForbidden
	}

	mode, err := s.workspaces.VisibilityMode(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	scope := s.perms.ResolveReadScope(principal.Role, mode, principal.ID)

	query := `
		SELECT ` + dealColumns + `
		FROM deals WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`
	args := []any{dealID, workspaceID}
	if scope.OwnOnly {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, scope.Principal)
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, mode))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deal, err := scanDeal(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	return deal, tx.Commit(ctx)
}

func (s *DealService) Update(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID, input DealInput) (*models.Deal, error) {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermEditDeal)
	if access == authz.WriteDenied {
		return nil, ErrForbidden
	}
	if input.Stage != "" && !models.ValidDealStage(input.Stage) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, input.Stage)
	}

	query := `
		UPDATE deals
		SET title = $1, amount_cents = $2, stage = COALESCE(NULLIF($3, ''), stage), owner_id = $4, updated_at = NOW()
		WHERE id = $5 AND workspace_id = $6 AND deleted_at IS NULL`
	args := []any{input.Title, input.AmountCents, input.Stage, input.OwnerID, dealID, workspaceID}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $7 OR owner_id = $7)`
		args = append(args, principal.ID)
	}
	query += ` RETURNING ` + dealColumns

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deal, err := scanDeal(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	return deal, tx.Commit(ctx)
}

func (s *DealService) SoftDelete(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) error {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermDeleteDeal)
	if access == authz.WriteDenied {
		return ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE deals SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL`
	args := []any{dealID, workspaceID}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, principal.ID)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDealNotFound
	}

	if err := s.quotas.release(ctx, tx, workspaceID, models.KindDeals, 1); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *DealService) Restore(ctx context.Context, principal authz.Principal, workspaceID, dealID uuid.UUID) (*models.Deal, error) {
	access := s.perms.ResolveWriteScope(principal.Role, authz.PermDeleteDeal)
	if access == authz.WriteDenied {
		return nil, ErrForbidden
	}

	tx, err := s.db.BeginRequest(ctx, principalSettings(principal, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.quotas.consume(ctx, tx, workspaceID, models.KindDeals, 1); err != nil {
		return nil, err
	}

	query := `
		UPDATE deals SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NOT NULL`
	args := []any{dealID, workspaceID}
	if access == authz.WriteOwn {
		query += ` AND (creator_id = $3 OR owner_id = $3)`
		args = append(args, principal.ID)
	}
	query += ` RETURNING ` + dealColumns

	deal, err := scanDeal(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deal, nil
}
