package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DealStageLead        = "lead"
	DealStageQualified   = "qualified"
	DealStageProposal    = "proposal"
	DealStageNegotiation = "negotiation"
	DealStageWon         = "won"
	DealStageLost        = "lost"
)

type Deal struct {
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
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func ValidDealStage(s string) bool {
	switch s {
	case DealStageLead, DealStageQualified, DealStageProposal, DealStageNegotiation, DealStageWon, DealStageLost:
		return true
	}
	return false
}
