package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

// SubscriptionService owns every tier/status transition and is the only
// writer of quota maxima. Each transition locks the subscription row and
// performs the subscription and quota writes in one transaction, so
// concurrent transitions for one workspace serialize and a partial write
// cannot leave tier and maxima disagreeing.
type SubscriptionService struct {
	db     *database.DB
	quotas *QuotaService
}

func NewSubscriptionService(db *database.DB, quotas *QuotaService) *SubscriptionService {
	return &SubscriptionService{db: db, quotas: quotas}
}

const subscriptionColumns = `
	id, workspace_id, tier, status,
	current_period_start, current_period_end,
	trial_ends_at, cancelled_at, external_ref, addons,
	created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.WorkspaceID, &sub.Tier, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&sub.TrialEndsAt, &sub.CancelledAt, &sub.ExternalRef, &sub.Addons,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Get returns the workspace's subscription, or nil when none exists or the
// lookup fails. Read paths treat a missing or unreachable subscription as
// "not configured" so a transient storage error cannot take down a
// dashboard render; write paths go through the transitions below instead.
func (s *SubscriptionService) Get(ctx context.Context, workspaceID uuid.UUID) *models.Subscription {
	sub, err := scanSubscription(s.db.Pool.QueryRow(ctx, `
		SELECT`+subscriptionColumns+`
		FROM subscriptions WHERE workspace_id = $1
	`, workspaceID))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("subscription lookup failed for workspace %s: %v", workspaceID, err)
		}
		return nil
	}
	return sub
}

// Upgrade moves the workspace to newTier, forces the subscription active and
// rewrites the quota maxima to the tier defaults.
func (s *SubscriptionService) Upgrade(ctx context.Context, workspaceID uuid.UUID, newTier models.Tier) error {
	limits, ok := models.TierLimits[newTier]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTier, newTier)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.lockSubscription(ctx, tx, workspaceID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE subscriptions
		SET tier = $1, status = $2, updated_at = NOW()
		WHERE workspace_id = $3
	`, newTier, models.StatusActive, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if err := s.quotas.setMaxima(ctx, tx, workspaceID, limits.Update()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Downgrade moves the workspace to a lower tier without touching the status,
// rewrites the maxima, and reports a warning per resource kind whose usage
// now exceeds its ceiling. Existing data is never deleted: the over-limit
// state only blocks further creation.
func (s *SubscriptionService) Downgrade(ctx context.Context, workspaceID uuid.UUID, newTier models.Tier) ([]string, error) {
	limits, ok := models.TierLimits[newTier]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTier, newTier)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.lockSubscription(ctx, tx, workspaceID); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE subscriptions SET tier = $1, updated_at = NOW()
		WHERE workspace_id = $2
	`, newTier, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	if err := s.quotas.setMaxima(ctx, tx, workspaceID, limits.Update()); err != nil {
		return nil, err
	}

	var current models.QuotaLimits
	err = tx.QueryRow(ctx, `
		SELECT current_users, current_contacts, current_deals, current_storage_mb
		FROM workspace_quotas WHERE workspace_id = $1
	`, workspaceID).Scan(&current.Users, &current.Contacts, &current.Deals, &current.StorageMB)
	if err != nil {
		return nil, fmt.Errorf("failed to read quota usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	var warnings []string
	overLimit := func(kind models.ResourceKind, used, max int64) {
		if max != models.QuotaUnlimited && used > max {
			warnings = append(warnings, fmt.Sprintf(
				"%s usage (%d) exceeds the %s tier limit (%d); existing data is kept but new %s cannot be created",
				kind, used, newTier, max, kind))
		}
	}
	overLimit(models.KindUsers, current.Users, limits.Users)
	overLimit(models.KindContacts, current.Contacts, limits.Contacts)
	overLimit(models.KindDeals, current.Deals, limits.Deals)
	overLimit(models.KindStorage, current.StorageMB, limits.StorageMB)

	return warnings, nil
}

// Cancel stamps the cancellation and stops the subscription without touching
// tier or maxima. Shrinking the quota to the free defaults is a deliberate,
// separate downgrade, never a side effect of cancelling.
func (s *SubscriptionService) Cancel(ctx context.Context, workspaceID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE subscriptions
		SET status = $1, cancelled_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $2
	`, models.StatusCancelled, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// UpdateStatus changes only the status, leaving tier and quota untouched.
func (s *SubscriptionService) UpdateStatus(ctx context.Context, workspaceID uuid.UUID, status models.SubscriptionStatus) error {
	if !models.ValidSubscriptionStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE subscriptions SET status = $1, updated_at = NOW()
		WHERE workspace_id = $2
	`, status, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ApplyEvent maps a normalized billing event onto exactly one transition.
// Unrecognized event types are logged and swallowed: a webhook must never
// fail loudly enough to make the provider's retries cascade.
func (s *SubscriptionService) ApplyEvent(ctx context.Context, event *models.BillingEvent) error {
	switch event.Type {
	case models.EventSubscriptionCreated, models.EventSubscriptionUpdated:
		if !models.ValidTier(event.Tier) {
			log.Printf("billing event %s/%s carries unknown tier %q, ignoring",
				event.Provider, event.ExternalID, event.Tier)
			return nil
		}
		return s.Upgrade(ctx, event.WorkspaceID, event.Tier)
	case models.EventSubscriptionCancelled:
		return s.Cancel(ctx, event.WorkspaceID)
	case models.EventPaymentSucceeded:
		return s.UpdateStatus(ctx, event.WorkspaceID, models.StatusActive)
	case models.EventPaymentFailed:
		return s.UpdateStatus(ctx, event.WorkspaceID, models.StatusPastDue)
	default:
		log.Printf("ignoring unrecognized billing event type %q from %s", event.Type, event.Provider)
		return nil
	}
}

// lockSubscription serializes transitions per workspace.
func (s *SubscriptionService) lockSubscription(ctx context.Context, tx pgx.Tx, workspaceID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT id FROM subscriptions WHERE workspace_id = $1 FOR UPDATE
	`, workspaceID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSubscriptionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock subscription: %w", err)
	}
	return nil
}

// NewTrialEnd computes the trial expiry for a fresh workspace subscription.
func NewTrialEnd(trialPeriod time.Duration) time.Time {
	return time.Now().Add(trialPeriod).UTC()
}
