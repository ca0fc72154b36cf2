package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/middleware"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
)

type WorkspaceHandler struct {
	workspaceService WorkspaceServiceInterface
	memberService    MemberServiceInterface
	perms            *authz.Evaluator
}

func NewWorkspaceHandler(workspaceService WorkspaceServiceInterface, memberService MemberServiceInterface, perms *authz.Evaluator) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		memberService:    memberService,
		perms:            perms,
	}
}

func (h *WorkspaceHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}
	if req.Slug == "" {
		c.BadRequest("slug is required")
		return
	}

	workspace, err := h.workspaceService.Create(context.Background(), req.Name, req.Slug, userID)
	if err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			c.BadRequest("slug is already taken")
			return
		}
		c.InternalServerError("failed to create workspace")
		return
	}

	_ = c.JSON(201, dto.WorkspaceResponse{
		ID:             workspace.ID,
		Name:           workspace.Name,
		Slug:           workspace.Slug,
		OwnerID:        workspace.OwnerID,
		VisibilityMode: string(workspace.VisibilityMode),
		Role:           string(authz.RoleOwner),
	})
}

func (h *WorkspaceHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaces, roles, err := h.workspaceService.GetUserWorkspaces(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get workspaces")
		return
	}

	response := make([]dto.WorkspaceResponse, len(workspaces))
	for i, w := range workspaces {
		response[i] = dto.WorkspaceResponse{
			ID:             w.ID,
			Name:           w.Name,
			Slug:           w.Slug,
			OwnerID:        w.OwnerID,
			VisibilityMode: string(w.VisibilityMode),
			Role:           string(roles[i]),
		}
	}

	_ = c.JSON(200, response)
}

func (h *WorkspaceHandler) Get(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.GetByID(context.Background(), workspaceID)
	if err != nil {
		c.NotFound("workspace not found")
		return
	}

	_ = c.JSON(200, dto.WorkspaceResponse{
		ID:             workspace.ID,
		Name:           workspace.Name,
		Slug:           workspace.Slug,
		OwnerID:        workspace.OwnerID,
		VisibilityMode: string(workspace.VisibilityMode),
		Role:           string(principal.Role),
	})
}

func (h *WorkspaceHandler) Update(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermManageWorkspace) {
		c.Forbidden("insufficient permissions")
		return
	}

	var req dto.UpdateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	var mode *authz.VisibilityMode
	if req.VisibilityMode != nil {
		m := authz.VisibilityMode(*req.VisibilityMode)
		if !authz.ValidVisibilityMode(m) {
			c.BadRequest("invalid visibility mode")
			return
		}
		mode = &m
	}

	workspace, err := h.workspaceService.UpdateSettings(context.Background(), workspaceID, req.Name, mode)
	if err != nil {
		if errors.Is(err, services.ErrWorkspaceNotFound) {
			c.NotFound("workspace not found")
			return
		}
		c.InternalServerError("failed to update workspace")
		return
	}

	_ = c.JSON(200, dto.WorkspaceResponse{
		ID:             workspace.ID,
		Name:           workspace.Name,
		Slug:           workspace.Slug,
		OwnerID:        workspace.OwnerID,
		VisibilityMode: string(workspace.VisibilityMode),
		Role:           string(principal.Role),
	})
}

func (h *WorkspaceHandler) Delete(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermDeleteWorkspace) {
		c.Forbidden("only the owner can delete a workspace")
		return
	}

	if err := h.workspaceService.SoftDelete(context.Background(), workspaceID); err != nil {
		if errors.Is(err, services.ErrWorkspaceNotFound) {
			c.NotFound("workspace not found")
			return
		}
		c.InternalServerError("failed to delete workspace")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "workspace deleted"})
}
