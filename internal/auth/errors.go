package auth

import "taskflow-backend/internal/pkg/apperr"

var (
	ErrEmailPasswordRequired = apperr.Validation("Email and password are required")
	ErrInvalidCredentials    = apperr.Unauthorized("Invalid email or password")
	ErrEmailTaken            = apperr.Conflict("Email already registered")
	ErrNotAuthenticated      = apperr.Unauthorized("Not authenticated")
)
