package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the principal supplied by the external identity provider.
// This service never issues or validates credentials; it only stores the
// profile attached to an authenticated principal id.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
