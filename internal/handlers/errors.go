package handlers

import (
	"errors"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/services"
)

// writeServiceError translates the shared service-layer errors into HTTP
// responses. notFound is the message for any of the not-found sentinels,
// fallback the 500 message.
func writeServiceError(c *drift.Context, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden("insufficient permissions")
	case errors.Is(err, services.ErrQuotaExceeded):
		_ = c.JSON(402, map[string]string{"error": "quota exceeded, upgrade your subscription"})
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrContactNotFound),
		errors.Is(err, services.ErrDealNotFound),
		errors.Is(err, services.ErrActivityNotFound):
		c.NotFound(notFound)
	default:
		c.InternalServerError(fallback)
	}
}
