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

type ActivityHandler struct {
	activityService ActivityServiceInterface
	memberService   MemberServiceInterface
}

func NewActivityHandler(activityService ActivityServiceInterface, memberService MemberServiceInterface) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		memberService:   memberService,
	}
}

func activityResponse(activity *models.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          activity.ID,
		WorkspaceID: activity.WorkspaceID,
		Kind:        activity.Kind,
		Body:        activity.Body,
		ContactID:   activity.ContactID,
		DealID:      activity.DealID,
		CreatorID:   activity.CreatorID,
		OwnerID:     activity.OwnerID,
		CreatedAt:   activity.CreatedAt,
		UpdatedAt:   activity.UpdatedAt,
	}
}

func (h *ActivityHandler) Create(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	var req dto.CreateActivityRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Body == "" {
		c.BadRequest("body is required")
		return
	}

	activity, err := h.activityService.Create(context.Background(), principal, workspaceID, services.ActivityInput{
		Kind:      req.Kind,
		Body:      req.Body,
		ContactID: req.ContactID,
		DealID:    req.DealID,
		OwnerID:   req.OwnerID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidKind) {
			c.BadRequest("invalid activity kind")
			return
		}
		writeServiceError(c, err, "workspace not found", "failed to create activity")
		return
	}

	_ = c.JSON(201, activityResponse(activity))
}

func (h *ActivityHandler) List(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	activities, err := h.activityService.List(context.Background(), principal, workspaceID)
	if err != nil {
		writeServiceError(c, err, "workspace not found", "failed to get activities")
		return
	}

	response := make([]dto.ActivityResponse, len(activities))
	for i := range activities {
		response[i] = activityResponse(&activities[i])
	}

	_ = c.JSON(200, response)
}

func (h *ActivityHandler) Get(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	activityID, err := uuid.Parse(c.Param("activityId"))
	if err != nil {
		c.BadRequest("invalid activity id")
		return
	}

	activity, err := h.activityService.GetByID(context.Background(), principal, workspaceID, activityID)
	if err != nil {
		writeServiceError(c, err, "activity not found", "failed to get activity")
		return
	}

	_ = c.JSON(200, activityResponse(activity))
}

func (h *ActivityHandler) Update(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	activityID, err := uuid.Parse(c.Param("activityId"))
	if err != nil {
		c.BadRequest("invalid activity id")
		return
	}

	var req dto.UpdateActivityRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Body == "" {
		c.BadRequest("body is required")
		return
	}

	activity, err := h.activityService.UpdateBody(context.Background(), principal, workspaceID, activityID, req.Body)
	if err != nil {
		writeServiceError(c, err, "activity not found", "failed to update activity")
		return
	}

	_ = c.JSON(200, activityResponse(activity))
}

func (h *ActivityHandler) Delete(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	activityID, err := uuid.Parse(c.Param("activityId"))
	if err != nil {
		c.BadRequest("invalid activity id")
		return
	}

	if err := h.activityService.SoftDelete(context.Background(), principal, workspaceID, activityID); err != nil {
		writeServiceError(c, err, "activity not found", "failed to delete activity")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "activity deleted"})
}
