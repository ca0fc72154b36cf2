package dto

import (
	"time"

	"github.com/google/uuid"
)

type DealRequest struct {
	Title       string     `json:"title"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency,omitempty"`
	Stage       string     `json:"stage,omitempty"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
}

type DealResponse struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Title       string     `json:"title"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Stage       string     `json:"stage"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty"`
	CreatorID   uuid.UUID  `json:"creator_id"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
