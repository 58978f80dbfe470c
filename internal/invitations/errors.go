package invitations

import "taskflow-backend/internal/pkg/apperr"

var (
	ErrInvalidOrExpiredToken = apperr.NotFound("Invitation link is invalid or has expired")
	ErrInviteConsumed        = apperr.Conflict("Invitation has already been used")
	ErrSelfInvite            = apperr.Validation("You cannot invite yourself")
	ErrAlreadyMember         = apperr.Conflict("That user is already a member of this organization")
	ErrEmailMismatch         = apperr.Forbidden("Invitation email does not match your account")
	ErrResendTooSoon         = apperr.RateLimited("Invitation can only be resent once per day")
	ErrInviteNotFound        = apperr.NotFound("Pending invitation not found")
)
