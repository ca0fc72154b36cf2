package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

const testWebhookSecret = "whsec_test"

func signPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func setupBillingService(t *testing.T) (*BillingService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	subs := NewSubscriptionService(db, NewQuotaService(db))
	svc := NewBillingService(db, subs,
		NewPaddleProvider(testWebhookSecret),
		NewFondyProvider(testWebhookSecret),
		NewStripeProvider(testWebhookSecret),
	)
	return svc, mock
}

func paddlePayload(workspaceID uuid.UUID, alertID, alertName, plan string) []byte {
	return []byte(fmt.Sprintf(
		`{"alert_id":%q,"alert_name":%q,"subscription_plan":%q,"passthrough":{"workspace_id":%q}}`,
		alertID, alertName, plan, workspaceID))
}

func TestPaddleProvider_Parse(t *testing.T) {
	p := NewPaddleProvider(testWebhookSecret)
	workspaceID := uuid.New()

	event, err := p.Parse(paddlePayload(workspaceID, "alert-1", "subscription_created", "pro"))

	require.NoError(t, err)
	assert.Equal(t, "alert-1", event.ExternalID)
	assert.Equal(t, workspaceID, event.WorkspaceID)
	assert.Equal(t, models.EventSubscriptionCreated, event.Type)
	assert.Equal(t, models.TierPro, event.Tier)
}

func TestPaddleProvider_Parse_MissingWorkspace(t *testing.T) {
	p := NewPaddleProvider(testWebhookSecret)

	_, err := p.Parse([]byte(`{"alert_id":"alert-1","alert_name":"subscription_created"}`))

	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPaddleProvider_Parse_UnknownAlertPassesThrough(t *testing.T) {
	p := NewPaddleProvider(testWebhookSecret)

	event, err := p.Parse(paddlePayload(uuid.New(), "alert-2", "subscription_payment_refunded", ""))

	require.NoError(t, err)
	assert.Equal(t, "subscription_payment_refunded", event.Type)
}

func TestFondyProvider_Parse(t *testing.T) {
	p := NewFondyProvider(testWebhookSecret)
	workspaceID := uuid.New()

	payload := []byte(fmt.Sprintf(
		`{"order_id":"order-7","order_status":"approved","merchant_data":{"workspace_id":%q,"tier":"starter"}}`,
		workspaceID))
	event, err := p.Parse(payload)

	require.NoError(t, err)
	assert.Equal(t, models.EventPaymentSucceeded, event.Type)
	assert.Equal(t, models.TierStarter, event.Tier)
}

func TestFondyProvider_Parse_DeclinedMapsToPaymentFailed(t *testing.T) {
	p := NewFondyProvider(testWebhookSecret)

	payload := []byte(fmt.Sprintf(
		`{"order_id":"order-8","order_status":"declined","merchant_data":{"workspace_id":%q}}`,
		uuid.New()))
	event, err := p.Parse(payload)

	require.NoError(t, err)
	assert.Equal(t, models.EventPaymentFailed, event.Type)
}

func TestStripeProvider_Parse(t *testing.T) {
	p := NewStripeProvider(testWebhookSecret)
	workspaceID := uuid.New()

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"metadata":{"workspace_id":%q}}}}`,
		workspaceID))
	event, err := p.Parse(payload)

	require.NoError(t, err)
	assert.Equal(t, models.EventSubscriptionCancelled, event.Type)
	assert.Equal(t, workspaceID, event.WorkspaceID)
}

func TestProvider_VerifySignature(t *testing.T) {
	p := NewStripeProvider(testWebhookSecret)
	payload := []byte(`{"id":"evt_1"}`)

	assert.NoError(t, p.VerifySignature(payload, signPayload(payload)))
	assert.ErrorIs(t, p.VerifySignature(payload, "deadbeef"), ErrInvalidSignature)
}

func TestBillingService_HandleWebhook_AppliesEvent(t *testing.T) {
	svc, mock := setupBillingService(t)
	workspaceID := uuid.New()
	payload := paddlePayload(workspaceID, "alert-42", "subscription_payment_failed", "")

	mock.ExpectExec(`INSERT INTO billing_events`).
		WithArgs("paddle", "alert-42", workspaceID, models.EventPaymentFailed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE subscriptions SET status = \$1`).
		WithArgs(models.StatusPastDue, workspaceID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.HandleWebhook(context.Background(), "paddle", payload, signPayload(payload))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillingService_HandleWebhook_ReplayIsNoOp(t *testing.T) {
	svc, mock := setupBillingService(t)
	workspaceID := uuid.New()
	payload := paddlePayload(workspaceID, "alert-42", "subscription_payment_failed", "")

	// The unique (provider, external_id) key absorbs the duplicate; no
	// subscription statement runs.
	mock.ExpectExec(`INSERT INTO billing_events`).
		WithArgs("paddle", "alert-42", workspaceID, models.EventPaymentFailed).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := svc.HandleWebhook(context.Background(), "paddle", payload, signPayload(payload))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillingService_HandleWebhook_FailedTransitionIsRetriable(t *testing.T) {
	svc, mock := setupBillingService(t)
	workspaceID := uuid.New()
	payload := paddlePayload(workspaceID, "alert-42", "subscription_payment_failed", "")

	// The transition fails after the delivery was recorded; the record must
	// be removed again or the provider's retry would be absorbed as a
	// replay and the event lost.
	mock.ExpectExec(`INSERT INTO billing_events`).
		WithArgs("paddle", "alert-42", workspaceID, models.EventPaymentFailed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE subscriptions SET status = \$1`).
		WithArgs(models.StatusPastDue, workspaceID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(`DELETE FROM billing_events WHERE provider = \$1 AND external_id = \$2`).
		WithArgs("paddle", "alert-42").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.HandleWebhook(context.Background(), "paddle", payload, signPayload(payload))
	require.Error(t, err)

	// The retried delivery is not a replay: it records and applies.
	mock.ExpectExec(`INSERT INTO billing_events`).
		WithArgs("paddle", "alert-42", workspaceID, models.EventPaymentFailed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE subscriptions SET status = \$1`).
		WithArgs(models.StatusPastDue, workspaceID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = svc.HandleWebhook(context.Background(), "paddle", payload, signPayload(payload))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillingService_HandleWebhook_BadSignature(t *testing.T) {
	svc, mock := setupBillingService(t)
	payload := paddlePayload(uuid.New(), "alert-1", "subscription_created", "pro")

	err := svc.HandleWebhook(context.Background(), "paddle", payload, "deadbeef")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBillingService_HandleWebhook_UnknownProvider(t *testing.T) {
	svc, mock := setupBillingService(t)

	err := svc.HandleWebhook(context.Background(), "square", []byte(`{}`), "sig")

	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.NoError(t, mock.ExpectationsWereMet())
}
