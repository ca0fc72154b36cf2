package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		ID:    uuid.New(),
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, avatar_url, created_at, updated_at
	`, user.ID, user.Email, user.Name, user.AvatarURL).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateWorkspace creates a test workspace with owner membership, a trialing
// free subscription and the free tier quota row, mirroring what the
// provisioning flow writes.
func (f *Fixtures) CreateWorkspace(t *testing.T, owner *models.User, opts ...WorkspaceOption) *models.Workspace {
	t.Helper()
	f.counter++

	ws := &models.Workspace{
		Name:           fmt.Sprintf("Test Workspace %d", f.counter),
		Slug:           fmt.Sprintf("test-workspace-%d", f.counter),
		OwnerID:        owner.ID,
		VisibilityMode: authz.VisibilityOwn,
	}

	for _, opt := range opts {
		opt(ws)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO workspaces (name, slug, owner_id, visibility_mode)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, slug, owner_id, visibility_mode, created_at, updated_at
	`, ws.Name, ws.Slug, ws.OwnerID, ws.VisibilityMode).Scan(
		&ws.ID, &ws.Name, &ws.Slug, &ws.OwnerID, &ws.VisibilityMode,
		&ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (workspace_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`, ws.ID, owner.ID, authz.RoleOwner, models.MembershipStatusActive)
	if err != nil {
		t.Fatalf("failed to add owner membership: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (workspace_id, tier, status, trial_ends_at)
		VALUES ($1, $2, $3, $4)
	`, ws.ID, models.TierFree, models.StatusTrialing, time.Now().Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}

	limits := models.TierLimits[models.TierFree]
	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_quotas (workspace_id, max_users, current_users, max_contacts, max_deals, max_storage_mb)
		VALUES ($1, $2, 1, $3, $4, $5)
	`, ws.ID, limits.Users, limits.Contacts, limits.Deals, limits.StorageMB)
	if err != nil {
		t.Fatalf("failed to create quota row: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return ws
}

// WorkspaceOption configures a test workspace
type WorkspaceOption func(*models.Workspace)

// WithWorkspaceName sets the workspace name
func WithWorkspaceName(name string) WorkspaceOption {
	return func(w *models.Workspace) {
		w.Name = name
	}
}

// WithSlug sets the workspace slug
func WithSlug(slug string) WorkspaceOption {
	return func(w *models.Workspace) {
		w.Slug = slug
	}
}

// WithVisibility sets the workspace visibility mode
func WithVisibility(mode authz.VisibilityMode) WorkspaceOption {
	return func(w *models.Workspace) {
		w.VisibilityMode = mode
	}
}

// AddMember adds a member with the given role to a workspace
func (f *Fixtures) AddMember(t *testing.T, ws *models.Workspace, user *models.User, role authz.Role) {
	t.Helper()
	ctx := context.Background()

	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (workspace_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, ws.ID, user.ID, role, models.MembershipStatusActive)
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE workspace_quotas SET current_users = current_users + 1 WHERE workspace_id = $1
	`, ws.ID)
	if err != nil {
		t.Fatalf("failed to bump user quota: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}
}

// CreateContact creates a test contact owned and created by the given user
func (f *Fixtures) CreateContact(t *testing.T, ws *models.Workspace, creator *models.User, opts ...ContactOption) *models.Contact {
	t.Helper()
	f.counter++

	contact := &models.Contact{
		WorkspaceID: ws.ID,
		Name:        fmt.Sprintf("Test Contact %d", f.counter),
		CreatorID:   creator.ID,
		OwnerID:     &creator.ID,
	}

	for _, opt := range opts {
		opt(contact)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO contacts (workspace_id, name, email, phone, company_name, creator_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, contact.WorkspaceID, contact.Name, contact.Email, contact.Phone,
		contact.CompanyName, contact.CreatorID, contact.OwnerID,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE workspace_quotas SET current_contacts = current_contacts + 1 WHERE workspace_id = $1
	`, ws.ID)
	if err != nil {
		t.Fatalf("failed to bump contact quota: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return contact
}

// ContactOption configures a test contact
type ContactOption func(*models.Contact)

// WithContactName sets the contact name
func WithContactName(name string) ContactOption {
	return func(c *models.Contact) {
		c.Name = name
	}
}

// WithContactOwner sets the contact record owner
func WithContactOwner(userID uuid.UUID) ContactOption {
	return func(c *models.Contact) {
		c.OwnerID = &userID
	}
}

// SetQuota overwrites a workspace's ceilings and current counts directly
func (f *Fixtures) SetQuota(t *testing.T, ws *models.Workspace, kind models.ResourceKind, current, max int64) {
	t.Helper()
	ctx := context.Background()

	var stmt string
	switch kind {
	case models.KindUsers:
		stmt = `UPDATE workspace_quotas SET current_users = $2, max_users = $3 WHERE workspace_id = $1`
	case models.KindContacts:
		stmt = `UPDATE workspace_quotas SET current_contacts = $2, max_contacts = $3 WHERE workspace_id = $1`
	case models.KindDeals:
		stmt = `UPDATE workspace_quotas SET current_deals = $2, max_deals = $3 WHERE workspace_id = $1`
	case models.KindStorage:
		stmt = `UPDATE workspace_quotas SET current_storage_mb = $2, max_storage_mb = $3 WHERE workspace_id = $1`
	default:
		t.Fatalf("unknown resource kind %q", kind)
	}

	if _, err := f.db.Pool.Exec(ctx, stmt, ws.ID, current, max); err != nil {
		t.Fatalf("failed to set quota: %v", err)
	}
}
