package billing

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// ListPlans GET /api/v1/billing/plans — public catalog.
func (h *Handlers) ListPlans(c *fiber.Ctx) error {
	return response.Success(c, "Plans retrieved", Plans, nil)
}

// SelectPlan POST /api/v1/billing/select-plan — authenticated, pre-org.
func (h *Handlers) SelectPlan(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var body struct {
		Plan string `json:"plan"`
	}
	if err := c.BodyParser(&body); err != nil || body.Plan == "" {
		return response.Error(c, "plan is required", 400, nil)
	}

	result, svcErr := h.Service.SelectPlan(c.Context(), userID, body.Plan)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}

	// Keep the session's onboarding step in sync with the transition.
	refreshed := *actor
	refreshed.OnboardingStep = result.OnboardingStep
	middleware.SetSessionUser(c, refreshed)

	return response.Success(c, "Plan selected", result, nil)
}

// OrgSummary GET /api/v1/orgs/:org_id/billing/summary (MANAGE_BILLING permission)
func (h *Handlers) OrgSummary(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid org_id", 400, nil)
	}
	summary, svcErr := h.Service.OrgSummary(c.Context(), orgID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Billing summary retrieved", summary, nil)
}
