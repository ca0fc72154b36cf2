package handlers

import (
	"context"
	"errors"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
)

type SubscriptionHandler struct {
	subscriptionService SubscriptionServiceInterface
	quotaService        QuotaServiceInterface
	memberService       MemberServiceInterface
	hub                 SSEHubInterface
	perms               *authz.Evaluator
}

func NewSubscriptionHandler(subscriptionService SubscriptionServiceInterface, quotaService QuotaServiceInterface, memberService MemberServiceInterface, hub SSEHubInterface, perms *authz.Evaluator) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		quotaService:        quotaService,
		memberService:       memberService,
		hub:                 hub,
		perms:               perms,
	}
}

func (h *SubscriptionHandler) Get(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermManageBilling) {
		c.Forbidden("insufficient permissions")
		return
	}

	sub := h.subscriptionService.Get(context.Background(), workspaceID)
	if sub == nil {
		c.NotFound("subscription not found")
		return
	}

	resp := dto.SubscriptionResponse{
		Tier:        string(sub.Tier),
		Status:      string(sub.Status),
		TrialEndsAt: sub.TrialEndsAt,
		CancelledAt: sub.CancelledAt,
		Addons:      sub.Addons,
	}

	if quota, err := h.quotaService.Get(context.Background(), workspaceID); err == nil {
		resp.Quota = &dto.QuotaResponse{
			MaxUsers:         quota.MaxUsers,
			CurrentUsers:     quota.CurrentUsers,
			MaxContacts:      quota.MaxContacts,
			CurrentContacts:  quota.CurrentContacts,
			MaxDeals:         quota.MaxDeals,
			CurrentDeals:     quota.CurrentDeals,
			MaxStorageMB:     quota.MaxStorageMB,
			CurrentStorageMB: quota.CurrentStorageMB,
		}
	}

	_ = c.JSON(200, resp)
}

func (h *SubscriptionHandler) Upgrade(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermManageBilling) {
		c.Forbidden("insufficient permissions")
		return
	}

	var req dto.ChangeTierRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	err := h.subscriptionService.Upgrade(context.Background(), workspaceID, models.Tier(req.Tier))
	if err != nil {
		if errors.Is(err, services.ErrInvalidTier) {
			c.BadRequest("invalid tier")
			return
		}
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			c.NotFound("subscription not found")
			return
		}
		c.InternalServerError("failed to upgrade subscription")
		return
	}

	h.hub.BroadcastSubscriptionChanged(workspaceID, req.Tier, string(models.StatusActive))

	_ = c.JSON(200, dto.TransitionResponse{Success: true})
}

func (h *SubscriptionHandler) Downgrade(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermManageBilling) {
		c.Forbidden("insufficient permissions")
		return
	}

	var req dto.ChangeTierRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	warnings, err := h.subscriptionService.Downgrade(context.Background(), workspaceID, models.Tier(req.Tier))
	if err != nil {
		if errors.Is(err, services.ErrInvalidTier) {
			c.BadRequest("invalid tier")
			return
		}
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			c.NotFound("subscription not found")
			return
		}
		c.InternalServerError("failed to downgrade subscription")
		return
	}

	h.hub.BroadcastSubscriptionChanged(workspaceID, req.Tier, "")

	_ = c.JSON(200, dto.TransitionResponse{Success: true, Warnings: warnings})
}

func (h *SubscriptionHandler) Cancel(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermManageBilling) {
		c.Forbidden("insufficient permissions")
		return
	}

	if err := h.subscriptionService.Cancel(context.Background(), workspaceID); err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			c.NotFound("subscription not found")
			return
		}
		c.InternalServerError("failed to cancel subscription")
		return
	}

	h.hub.BroadcastSubscriptionChanged(workspaceID, "", string(models.StatusCancelled))

	_ = c.JSON(200, dto.TransitionResponse{Success: true})
}
