package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/services"
)

type WebhookHandler struct {
	billingService BillingServiceInterface
}

func NewWebhookHandler(billingService BillingServiceInterface) *WebhookHandler {
	return &WebhookHandler{billingService: billingService}
}

// Providers send their HMAC signature under different header names.
var signatureHeaders = map[string]string{
	"paddle": "Paddle-Signature",
	"fondy":  "X-Signature",
	"stripe": "Stripe-Signature",
}

// HandleIncoming receives a provider webhook. The route is unauthenticated;
// trust comes entirely from the signature over the raw body.
func (h *WebhookHandler) HandleIncoming(c *drift.Context) {
	provider := c.Param("provider")

	header, ok := signatureHeaders[provider]
	if !ok {
		c.NotFound("unknown provider")
		return
	}
	signature := c.GetHeader(header)
	if signature == "" {
		c.Unauthorized("missing signature")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.BadRequest("failed to read body")
		return
	}

	err = h.billingService.HandleWebhook(context.Background(), provider, payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownProvider):
			c.NotFound("unknown provider")
		case errors.Is(err, services.ErrInvalidSignature):
			c.Unauthorized("invalid signature")
		case errors.Is(err, services.ErrMalformedPayload):
			c.BadRequest("malformed payload")
		default:
			c.InternalServerError("failed to process webhook")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"status": "ok"})
}
