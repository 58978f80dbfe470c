package onboarding

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// Step GET /api/v1/onboarding/step — returns the current step after running
// the auto-accept evaluation and refreshes the session copy of the step.
func (h *Handlers) Step(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.Service.Step(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	if user.OnboardingStep != actor.OnboardingStep {
		middleware.SetSessionUser(c, middleware.SessionUser{
			UserID:         actor.UserID,
			Email:          actor.Email,
			FirstName:      actor.FirstName,
			LastName:       actor.LastName,
			OnboardingStep: user.OnboardingStep,
		})
	}

	return response.Success(c, "Onboarding step retrieved", fiber.Map{
		"onboarding_step": user.OnboardingStep,
		"plan_tier":       user.PlanTier,
	}, nil)
}
