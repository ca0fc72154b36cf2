package services

import "errors"

// Shared error taxonomy. Handlers map these onto HTTP statuses; nothing in
// this package panics or hides a failure behind a generic error.
var (
	// ErrForbidden is an authorization refusal: the permission or
	// visibility check failed. Distinct from any server-side failure.
	ErrForbidden = errors.New("forbidden")

	// ErrQuotaExceeded blocks a creation at the tier ceiling. Surfaced as
	// a user-actionable condition, never as ErrForbidden.
	ErrQuotaExceeded = errors.New("workspace quota exceeded")

	// ErrInvalidTier rejects an unknown tier token before any write.
	ErrInvalidTier = errors.New("invalid subscription tier")

	ErrInvalidStatus = errors.New("invalid status")

	ErrInvalidStage = errors.New("invalid deal stage")
	ErrInvalidKind  = errors.New("invalid activity kind")

	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrContactNotFound      = errors.New("contact not found")
	ErrDealNotFound         = errors.New("deal not found")
	ErrActivityNotFound     = errors.New("activity not found")
)
