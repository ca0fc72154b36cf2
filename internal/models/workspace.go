package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pipegrid/pipegrid-api/internal/authz"
)

// Workspace is a tenant: the unit of data isolation and billing. Exactly one
// Subscription and one WorkspaceQuota row exist per workspace, created in the
// same transaction as the workspace itself.
type Workspace struct {
	ID             uuid.UUID            `json:"id"`
	Name           string               `json:"name"`
	Slug           string               `json:"slug"`
	OwnerID        uuid.UUID            `json:"owner_id"`
	VisibilityMode authz.VisibilityMode `json:"visibility_mode"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	DeletedAt      *time.Time           `json:"deleted_at,omitempty"`
}

func (w *Workspace) IsDeleted() bool {
	return w.DeletedAt != nil
}
