package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateActivityRequest struct {
	Kind      string     `json:"kind"`
	Body      string     `json:"body"`
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
	DealID    *uuid.UUID `json:"deal_id,omitempty"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
}

type UpdateActivityRequest struct {
	Body string `json:"body"`
}

type ActivityResponse struct {
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
}
