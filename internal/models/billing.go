package models

import (
	"time"

	"github.com/google/uuid"
)

// Normalized billing event types. Provider-specific names are mapped onto
// these tokens by the billing providers; anything else is logged and ignored.
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentFailed         = "payment.failed"
)

// BillingEvent is the provider-agnostic shape handed to the subscription
// lifecycle. ExternalID is the provider's event id and doubles as the
// replay-dedupe key.
type BillingEvent struct {
	Provider    string    `json:"provider"`
	ExternalID  string    `json:"external_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Type        string    `json:"type"`
	Tier        Tier      `json:"tier,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}
