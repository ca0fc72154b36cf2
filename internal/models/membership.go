package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pipegrid/pipegrid-api/internal/authz"
)

const (
	MembershipStatusPending   = "pending"
	MembershipStatusActive    = "active"
	MembershipStatusSuspended = "suspended"
)

// Membership grants a user a role inside one workspace. A user holds at most
// one membership per workspace.
type Membership struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Role        authz.Role `json:"role"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        *User      `json:"user,omitempty"`
}

func ValidMembershipStatus(s string) bool {
	switch s {
	case MembershipStatusPending, MembershipStatusActive, MembershipStatusSuspended:
		return true
	}
	return false
}
