package orgs

import (
	"taskflow-backend/internal/domain"
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
	Config  middleware.SessionConfig
}

// Create POST /api/v1/orgs (auth; onboarding ordering enforced in service)
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	org, err := h.Service.Create(c.Context(), in, userID)
	if err != nil {
		return response.FromError(c, err)
	}

	// Org creation completes onboarding; refresh the session copy.
	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:         actor.UserID,
		Email:          actor.Email,
		FirstName:      actor.FirstName,
		LastName:       actor.LastName,
		OnboardingStep: domain.StepCompleted,
	})
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)

	return response.SuccessCreated(c, "Organization created", org, nil)
}

// Get GET /api/v1/orgs/:org_id (VIEW_ORG permission via middleware)
func (h *Handlers) Get(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	org, err := h.Service.Get(c.Context(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization retrieved", org, nil)
}

// Update PATCH /api/v1/orgs/:org_id (UPDATE_ORG permission via middleware)
func (h *Handlers) Update(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	org, err := h.Service.Update(c.Context(), orgID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization updated", org, nil)
}
