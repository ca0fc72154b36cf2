package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

var (
	ErrUnknownProvider  = errors.New("unknown billing provider")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// BillingProvider normalizes one payment provider's webhook payloads. The
// signature scheme here is the shared-secret HMAC contract; provider
// protocol details beyond that stay outside this service.
type BillingProvider interface {
	Name() string
	VerifySignature(payload []byte, signature string) error
	Parse(payload []byte) (*models.BillingEvent, error)
}

// BillingService verifies, dedupes and applies provider webhooks. Replaying
// an already-processed external event id is a successful no-op.
type BillingService struct {
	db            *database.DB
	subscriptions *SubscriptionService
	providers     map[string]BillingProvider
}

func NewBillingService(db *database.DB, subscriptions *SubscriptionService, providers ...BillingProvider) *BillingService {
	byName := make(map[string]BillingProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &BillingService{db: db, subscriptions: subscriptions, providers: byName}
}

func (s *BillingService) HandleWebhook(ctx context.Context, providerName string, payload []byte, signature string) error {
	provider, ok := s.providers[providerName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}

	if err := provider.VerifySignature(payload, signature); err != nil {
		return err
	}

	event, err := provider.Parse(payload)
	if err != nil {
		return err
	}
	event.Provider = provider.Name()
	event.ReceivedAt = time.Now().UTC()

	// Dedupe before applying: the unique (provider, external_id) key makes
	// a replayed delivery a no-op instead of a double transition.
	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO billing_events (provider, external_id, workspace_id, event_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, external_id) DO NOTHING
	`, event.Provider, event.ExternalID, event.WorkspaceID, event.Type)
	if err != nil {
		return fmt.Errorf("failed to record billing event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Printf("billing event %s/%s already processed, skipping", event.Provider, event.ExternalID)
		return nil
	}

	if err := s.subscriptions.ApplyEvent(ctx, event); err != nil {
		// A failed transition must not stay recorded as processed, or the
		// provider's retry would short-circuit into a lost event.
		if _, delErr := s.db.Pool.Exec(ctx, `
			DELETE FROM billing_events WHERE provider = $1 AND external_id = $2
		`, event.Provider, event.ExternalID); delErr != nil {
			log.Printf("failed to unrecord billing event %s/%s: %v", event.Provider, event.ExternalID, delErr)
		}
		return err
	}
	return nil
}

func verifyHMAC(secret, payload []byte, signature string) error {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// PaddleProvider maps Paddle alert webhooks onto normalized events. The
// workspace id travels in the passthrough blob set at checkout.
type PaddleProvider struct {
	secret []byte
}

func NewPaddleProvider(secret string) *PaddleProvider {
	return &PaddleProvider{secret: []byte(secret)}
}

func (p *PaddleProvider) Name() string { return "paddle" }

func (p *PaddleProvider) VerifySignature(payload []byte, signature string) error {
	return verifyHMAC(p.secret, payload, signature)
}

var paddleEventTypes = map[string]string{
	"subscription_created":           models.EventSubscriptionCreated,
	"subscription_updated":           models.EventSubscriptionUpdated,
	"subscription_cancelled":         models.EventSubscriptionCancelled,
	"subscription_payment_succeeded": models.EventPaymentSucceeded,
	"subscription_payment_failed":    models.EventPaymentFailed,
}

func (p *PaddleProvider) Parse(payload []byte) (*models.BillingEvent, error) {
	var body struct {
		AlertID     string `json:"alert_id"`
		AlertName   string `json:"alert_name"`
		Plan        string `json:"subscription_plan"`
		Passthrough struct {
			WorkspaceID uuid.UUID `json:"workspace_id"`
		} `json:"passthrough"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if body.AlertID == "" || body.Passthrough.WorkspaceID == uuid.Nil {
		return nil, ErrMalformedPayload
	}

	eventType, ok := paddleEventTypes[body.AlertName]
	if !ok {
		eventType = body.AlertName
	}
	return &models.BillingEvent{
		ExternalID:  body.AlertID,
		WorkspaceID: body.Passthrough.WorkspaceID,
		Type:        eventType,
		Tier:        models.Tier(body.Plan),
	}, nil
}

// FondyProvider maps Fondy order callbacks onto normalized payment events.
type FondyProvider struct {
	secret []byte
}

func NewFondyProvider(secret string) *FondyProvider {
	return &FondyProvider{secret: []byte(secret)}
}

func (p *FondyProvider) Name() string { return "fondy" }

func (p *FondyProvider) VerifySignature(payload []byte, signature string) error {
	return verifyHMAC(p.secret, payload, signature)
}

var fondyOrderStatuses = map[string]string{
	"approved": models.EventPaymentSucceeded,
	"declined": models.EventPaymentFailed,
	"expired":  models.EventPaymentFailed,
}

func (p *FondyProvider) Parse(payload []byte) (*models.BillingEvent, error) {
	var body struct {
		OrderID      string `json:"order_id"`
		OrderStatus  string `json:"order_status"`
		MerchantData struct {
			WorkspaceID uuid.UUID `json:"workspace_id"`
			Tier        string    `json:"tier"`
		} `json:"merchant_data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if body.OrderID == "" || body.MerchantData.WorkspaceID == uuid.Nil {
		return nil, ErrMalformedPayload
	}

	eventType, ok := fondyOrderStatuses[body.OrderStatus]
	if !ok {
		eventType = body.OrderStatus
	}
	return &models.BillingEvent{
		ExternalID:  body.OrderID,
		WorkspaceID: body.MerchantData.WorkspaceID,
		Type:        eventType,
		Tier:        models.Tier(body.MerchantData.Tier),
	}, nil
}

// StripeProvider maps Stripe events onto normalized events. The workspace id
// and tier travel in the subscription object's metadata.
type StripeProvider struct {
	secret []byte
}

func NewStripeProvider(secret string) *StripeProvider {
	return &StripeProvider{secret: []byte(secret)}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) VerifySignature(payload []byte, signature string) error {
	return verifyHMAC(p.secret, payload, signature)
}

var stripeEventTypes = map[string]string{
	"customer.subscription.created": models.EventSubscriptionCreated,
	"customer.subscription.updated": models.EventSubscriptionUpdated,
	"customer.subscription.deleted": models.EventSubscriptionCancelled,
	"invoice.paid":                  models.EventPaymentSucceeded,
	"invoice.payment_failed":        models.EventPaymentFailed,
}

func (p *StripeProvider) Parse(payload []byte) (*models.BillingEvent, error) {
	var body struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata struct {
					WorkspaceID uuid.UUID `json:"workspace_id"`
					Tier        string    `json:"tier"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if body.ID == "" || body.Data.Object.Metadata.WorkspaceID == uuid.Nil {
		return nil, ErrMalformedPayload
	}

	eventType, ok := stripeEventTypes[body.Type]
	if !ok {
		eventType = body.Type
	}
	return &models.BillingEvent{
		ExternalID:  body.ID,
		WorkspaceID: body.Data.Object.Metadata.WorkspaceID,
		Type:        eventType,
		Tier:        models.Tier(body.Data.Object.Metadata.Tier),
	}, nil
}
