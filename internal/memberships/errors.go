package memberships

import "taskflow-backend/internal/pkg/apperr"

var (
	ErrAlreadyMember       = apperr.Conflict("User is already a member of this organization")
	ErrNotMember           = apperr.NotFound("User is not a member of this organization")
	ErrCannotChangeOwnRole = apperr.Forbidden("You cannot change your own role")
	ErrCannotRemoveSelf    = apperr.Forbidden("You cannot remove yourself from the organization")
	ErrLastAdmin           = apperr.Conflict("Organization must have at least one admin")
)
