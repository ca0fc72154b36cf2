package dto

import (
	"github.com/google/uuid"
)

type CreateWorkspaceRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type UpdateWorkspaceRequest struct {
	Name           *string `json:"name,omitempty"`
	VisibilityMode *string `json:"visibility_mode,omitempty"`
}

type WorkspaceResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	OwnerID        uuid.UUID `json:"owner_id"`
	VisibilityMode string    `json:"visibility_mode"`
	Role           string    `json:"role,omitempty"`
}
