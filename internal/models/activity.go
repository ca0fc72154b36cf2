package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityKindCall    = "call"
	ActivityKindEmail   = "email"
	ActivityKindMeeting = "meeting"
	ActivityKindNote    = "note"
)

// Activity is a timeline entry on a contact or deal. Logging kinds (call,
// email, meeting) are an immutable audit trail: only notes may be edited or
// deleted, and the storage policies enforce the same restriction.
type Activity struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Kind        string     `json:"kind"`
	Body        string     `json:"body"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	DealID      *uuid.UUID `json:"deal_id,omitempty"`
	CreatorID   uuid.UUID  `json:"creator_id"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func ValidActivityKind(k string) bool {
	switch k {
	case ActivityKindCall, ActivityKindEmail, ActivityKindMeeting, ActivityKindNote:
		return true
	}
	return false
}

// Mutable reports whether an activity kind may be edited or deleted after
// creation.
func MutableActivityKind(k string) bool {
	return k == ActivityKindNote
}
