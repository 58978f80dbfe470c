package onboarding

import "taskflow-backend/internal/pkg/apperr"

var (
	ErrPlanNotSelected     = apperr.Conflict("Select a plan before setting up an organization")
	ErrPlanAlreadySelected = apperr.Conflict("Plan has already been selected")
	ErrAlreadyCompleted    = apperr.Conflict("Onboarding is already completed")
)
