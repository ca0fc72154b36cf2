package authz

import "github.com/google/uuid"

// VisibilityMode is the workspace setting controlling whether junior roles
// see only their own rows. "team" currently behaves like "own"; it is kept
// distinct so a workspace's choice survives future widening.
type VisibilityMode string

const (
	VisibilityOwn  VisibilityMode = "own"
	VisibilityTeam VisibilityMode = "team"
	VisibilityAll  VisibilityMode = "all"
)

func ValidVisibilityMode(m VisibilityMode) bool {
	switch m {
	case VisibilityOwn, VisibilityTeam, VisibilityAll:
		return true
	}
	return false
}

// ReadScope is the row-selection predicate for listing/reading an
// owned-resource collection. When OwnOnly is set the predicate restricts to
// rows where creator_id or owner_id equals Principal; otherwise every row of
// the workspace matches.
//
// The application-side evaluation is a UX optimization only: the storage
// layer re-evaluates the identical predicate (see PolicyStatements), and the
// two must never diverge.
type ReadScope struct {
	Principal uuid.UUID
	OwnOnly   bool
}

// ResolveReadScope computes the read predicate for (role, mode, principal).
// Roles holding view_all are unrestricted regardless of the mode; everyone
// else is unrestricted only when the workspace runs in "all" mode.
func (e *Evaluator) ResolveReadScope(role Role, mode VisibilityMode, principal uuid.UUID) ReadScope {
	if e.HasPermission(role, PermViewAll) {
		return ReadScope{Principal: principal}
	}
	if mode == VisibilityAll {
		return ReadScope{Principal: principal}
	}
	return ReadScope{Principal: principal, OwnOnly: true}
}

// WriteAccess grades a principal's mutation rights on a resource type.
// Reading widely never implies editing widely: write scope ignores the
// workspace visibility mode.
type WriteAccess int

const (
	WriteDenied WriteAccess = iota
	// WriteOwn permits mutating rows the principal created or owns.
	WriteOwn
	// WriteAll permits mutating any row in the workspace.
	WriteAll
)

// ResolveWriteScope computes mutation rights for a resource type, where perm
// is that type's edit or delete token.
func (e *Evaluator) ResolveWriteScope(role Role, perm Permission) WriteAccess {
	if e.HasPermission(role, perm) {
		return WriteAll
	}
	if e.HasPermission(role, PermEditOwn) {
		return WriteOwn
	}
	return WriteDenied
}
