package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/middleware"
)

// resolvePrincipal authenticates the request and resolves the caller's role
// inside the workspace from the path. Non-members get a 404 rather than a 403
// so workspace existence is not leaked. When it returns false a response has
// already been written.
func resolvePrincipal(c *drift.Context, members MemberServiceInterface) (authz.Principal, uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return authz.Principal{}, uuid.Nil, false
	}

	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return authz.Principal{}, uuid.Nil, false
	}

	role, err := members.GetRole(context.Background(), workspaceID, userID)
	if err != nil {
		c.InternalServerError("failed to resolve membership")
		return authz.Principal{}, uuid.Nil, false
	}
	if role == "" {
		c.NotFound("workspace not found")
		return authz.Principal{}, uuid.Nil, false
	}

	return authz.Principal{ID: userID, Role: role}, workspaceID, true
}
