package services

import (
	"github.com/pipegrid/pipegrid-api/internal/authz"
	"github.com/pipegrid/pipegrid-api/internal/database"
)

// principalSettings binds the acting principal for the storage policies.
// Read paths pass the workspace's visibility mode; mutation paths may leave
// it empty because the write predicates only consult role and principal id.
func principalSettings(principal authz.Principal, mode authz.VisibilityMode) database.RequestSettings {
	return database.RequestSettings{
		PrincipalID:    principal.ID.String(),
		Role:           string(principal.Role),
		VisibilityMode: string(mode),
	}
}
