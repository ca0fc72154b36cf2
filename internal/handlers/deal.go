package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
)

type DealHandler struct {
	dealService   DealServiceInterface
	memberService MemberServiceInterface
}

func NewDealHandler(dealService DealServiceInterface, memberService MemberServiceInterface) *DealHandler {
	return &DealHandler{
		dealService:   dealService,
		memberService: memberService,
	}
}

func dealResponse(deal *models.Deal) dto.DealResponse {
	return dto.DealResponse{
		ID:          deal.ID,
		WorkspaceID: deal.WorkspaceID,
		Title:       deal.Title,
		AmountCents: deal.AmountCents,
		Currency:    deal.Currency,
		Stage:       deal.Stage,
		ContactID:   deal.ContactID,
		CreatorID:   deal.CreatorID,
		OwnerID:     deal.OwnerID,
		CreatedAt:   deal.CreatedAt,
		UpdatedAt:   deal.UpdatedAt,
	}
}

func (h *DealHandler) Create(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	var req dto.DealRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	deal, err := h.dealService.Create(context.Background(), principal, workspaceID, services.DealInput{
		Title:       req.Title,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Stage:       req.Stage,
		ContactID:   req.ContactID,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidStage) {
			c.BadRequest("invalid deal stage")
			return
		}
		writeServiceError(c, err, "workspace not found", "failed to create deal")
		return
	}

	_ = c.JSON(201, dealResponse(deal))
}

func (h *DealHandler) List(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	deals, err := h.dealService.List(context.Background(), principal, workspaceID)
	if err != nil {
		writeServiceError(c, err, "workspace not found", "failed to get deals")
		return
	}

	response := make([]dto.DealResponse, len(deals))
	for i := range deals {
		response[i] = dealResponse(&deals[i])
	}

	_ = c.JSON(200, response)
}

func (h *DealHandler) Get(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		c.BadRequest("invalid deal id")
		return
	}

	deal, err := h.dealService.GetByID(context.Background(), principal, workspaceID, dealID)
	if err != nil {
		writeServiceError(c, err, "deal not found", "failed to get deal")
		return
	}

	_ = c.JSON(200, dealResponse(deal))
}

func (h *DealHandler) Update(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		c.BadRequest("invalid deal id")
		return
	}

	var req dto.DealRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	deal, err := h.dealService.Update(context.Background(), principal, workspaceID, dealID, services.DealInput{
		Title:       req.Title,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Stage:       req.Stage,
		ContactID:   req.ContactID,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidStage) {
			c.BadRequest("invalid deal stage")
			return
		}
		writeServiceError(c, err, "deal not found", "failed to update deal")
		return
	}

	_ = c.JSON(200, dealResponse(deal))
}

func (h *DealHandler) Delete(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		c.BadRequest("invalid deal id")
		return
	}

	if err := h.dealService.SoftDelete(context.Background(), principal, workspaceID, dealID); err != nil {
		writeServiceError(c, err, "deal not found", "failed to delete deal")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "deal deleted"})
}

func (h *DealHandler) Restore(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		c.BadRequest("invalid deal id")
		return
	}

	deal, err := h.dealService.Restore(context.Background(), principal, workspaceID, dealID)
	if err != nil {
		writeServiceError(c, err, "deal not found", "failed to restore deal")
		return
	}

	_ = c.JSON(200, dealResponse(deal))
}
