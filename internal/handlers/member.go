package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/models"
	"github.com/pipegrid/pipegrid-api/internal/services"
	"github.com/pipegrid/pipegrid-api/pkg/dto"
)

type MemberHandler struct {
	memberService MemberServiceInterface
	hub           SSEHubInterface
	perms         *authz.Evaluator
}

func NewMemberHandler(memberService MemberServiceInterface, hub SSEHubInterface, perms *authz.Evaluator) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		hub:           hub,
		perms:         perms,
	}
}

func memberResponse(m models.Membership) dto.MemberResponse {
	resp := dto.MemberResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
	if m.User != nil {
		resp.Email = m.User.Email
		resp.Name = m.User.Name
	}
	return resp
}

func (h *MemberHandler) List(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	if !h.perms.HasPermission(principal.Role, authz.PermViewMembers) {
		c.Forbidden("insufficient permissions")
		return
	}

	members, err := h.memberService.List(context.Background(), principal, workspaceID)
	if err != nil {
		c.InternalServerError("failed to get members")
		return
	}

	response := make([]dto.MemberResponse, len(members))
	for i, m := range members {
		response[i] = memberResponse(m)
	}

	_ = c.JSON(200, response)
}

func (h *MemberHandler) AssignableRoles(c *drift.Context) {
	principal, _, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	roles := principal.Role.AssignableRoles()
	response := make([]string, len(roles))
	for i, r := range roles {
		response[i] = string(r)
	}

	_ = c.JSON(200, dto.AssignableRolesResponse{Roles: response})
}

func (h *MemberHandler) Add(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.UserID == uuid.Nil {
		c.BadRequest("user_id is required")
		return
	}

	member, err := h.memberService.Add(context.Background(), principal, workspaceID, req.UserID, authz.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole):
			c.BadRequest("invalid role")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("cannot assign a role equal to or above your own")
		case errors.Is(err, services.ErrAlreadyMember):
			c.BadRequest("user is already a member")
		case errors.Is(err, services.ErrQuotaExceeded):
			_ = c.JSON(402, map[string]string{"error": "user quota exceeded, upgrade your subscription"})
		default:
			c.InternalServerError("failed to add member")
		}
		return
	}

	h.hub.BroadcastMemberJoined(workspaceID, member.UserID, string(member.Role))

	_ = c.JSON(201, memberResponse(*member))
}

func (h *MemberHandler) ChangeRole(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.ChangeRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	err = h.memberService.ChangeRole(context.Background(), principal, workspaceID, userID, authz.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole):
			c.BadRequest("invalid role")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("cannot manage this member")
		case errors.Is(err, services.ErrCannotRemoveOwner):
			c.BadRequest("the owner role cannot be changed")
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("member not found")
		default:
			c.InternalServerError("failed to change role")
		}
		return
	}

	h.hub.BroadcastRoleChanged(workspaceID, userID, req.Role)

	_ = c.JSON(200, map[string]string{"message": "role updated"})
}

func (h *MemberHandler) Remove(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	err = h.memberService.Remove(context.Background(), principal, workspaceID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("cannot manage this member")
		case errors.Is(err, services.ErrCannotRemoveOwner):
			c.BadRequest("the workspace owner cannot be removed")
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("member not found")
		default:
			c.InternalServerError("failed to remove member")
		}
		return
	}

	h.hub.BroadcastMemberLeft(workspaceID, userID)

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

func (h *MemberHandler) SetStatus(c *drift.Context) {
	principal, workspaceID, ok := resolvePrincipal(c, h.memberService)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.ChangeStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if !models.ValidMembershipStatus(req.Status) {
		c.BadRequest("invalid status")
		return
	}

	err = h.memberService.SetStatus(context.Background(), principal, workspaceID, userID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("cannot manage this member")
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("member not found")
		default:
			c.InternalServerError("failed to update member status")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "status updated"})
}
