package database

import (
	"context"
	"fmt"

	"github.com/pipegrid/pipegrid-api/internal/authz"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS workspaces (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(100) UNIQUE NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id),
		visibility_mode VARCHAR(10) NOT NULL DEFAULT 'own',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS memberships (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(workspace_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID UNIQUE NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		tier VARCHAR(20) NOT NULL DEFAULT 'free',
		status VARCHAR(20) NOT NULL DEFAULT 'trialing',
		current_period_start TIMESTAMP WITH TIME ZONE,
		current_period_end TIMESTAMP WITH TIME ZONE,
		trial_ends_at TIMESTAMP WITH TIME ZONE,
		cancelled_at TIMESTAMP WITH TIME ZONE,
		external_ref VARCHAR(255),
		addons TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Ceilings use -1 for unlimited. current > max is legal after a
	// downgrade; the creation gate is the only corrective mechanism.
	`CREATE TABLE IF NOT EXISTS workspace_quotas (
		workspace_id UUID PRIMARY KEY REFERENCES workspaces(id) ON DELETE CASCADE,
		max_users BIGINT NOT NULL,
		current_users BIGINT NOT NULL DEFAULT 0,
		max_contacts BIGINT NOT NULL,
		current_contacts BIGINT NOT NULL DEFAULT 0,
		max_deals BIGINT NOT NULL,
		current_deals BIGINT NOT NULL DEFAULT 0,
		max_storage_mb BIGINT NOT NULL,
		current_storage_mb BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(50),
		company_name VARCHAR(255),
		creator_id UUID NOT NULL REFERENCES users(id),
		owner_id UUID REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS deals (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		amount_cents BIGINT NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		stage VARCHAR(20) NOT NULL DEFAULT 'lead',
		contact_id UUID REFERENCES contacts(id) ON DELETE SET NULL,
		creator_id UUID NOT NULL REFERENCES users(id),
		owner_id UUID REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		kind VARCHAR(20) NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		contact_id UUID REFERENCES contacts(id) ON DELETE CASCADE,
		deal_id UUID REFERENCES deals(id) ON DELETE CASCADE,
		creator_id UUID NOT NULL REFERENCES users(id),
		owner_id UUID REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		deleted_at TIMESTAMP WITH TIME ZONE
	)`,

	// Processed webhook events; the unique key makes replays no-ops.
	`CREATE TABLE IF NOT EXISTS billing_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		provider VARCHAR(20) NOT NULL,
		external_id VARCHAR(255) NOT NULL,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		event_type VARCHAR(50) NOT NULL,
		received_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, external_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_memberships_workspace_id ON memberships(workspace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_workspace_id ON contacts(workspace_id) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_creator_id ON contacts(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_workspace_id ON deals(workspace_id) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_deals_creator_id ON deals(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_workspace_id ON activities(workspace_id) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_activities_contact_id ON activities(contact_id)`,
	`CREATE INDEX IF NOT EXISTS idx_billing_events_workspace_id ON billing_events(workspace_id)`,
}

// Migrate applies the schema and then installs the policy enforcement
// boundary. The row-level security statements are generated from the same
// permission tables the in-process evaluator uses, so the two layers cannot
// drift independently.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := append([]string{}, migrations...)
	stmts = append(stmts, authz.NewEvaluator().PolicyStatements()...)

	for i, migration := range stmts {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
