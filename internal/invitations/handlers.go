package invitations

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

// Send POST /api/v1/orgs/:org_id/invitations (INVITE_MEMBER permission via middleware)
func (h *Handlers) Send(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Role == "" {
		return response.Error(c, "Email and role are required", 400, nil)
	}

	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	inv, err := h.Service.Invite(c.Context(), InviteInput{
		OrgID:       orgID,
		Email:       body.Email,
		Role:        body.Role,
		ActorUserID: actorID,
		ActorEmail:  actor.Email,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Invitation sent successfully", inv, nil)
}

// Accept POST /api/v1/invitations/accept (auth only, no org permission)
func (h *Handlers) Accept(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "Invitation token required", 400, nil)
	}

	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.Service.Accept(c.Context(), AcceptInput{
		Token:  body.Token,
		UserID: actorID,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	// Accepting can change onboarding state; regenerate the session.
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

	return response.Success(c, "Invitation accepted successfully", result, nil)
}

// Revoke DELETE /api/v1/orgs/:org_id/invitations/:invite_id (INVITE_MEMBER permission)
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	inviteID, err := uuid.Parse(c.Params("invite_id"))
	if err != nil {
		return response.Error(c, "Invalid invitation id", 400, nil)
	}

	if err := h.Service.Revoke(c.Context(), RevokeInput{InviteID: inviteID, OrgID: orgID}); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation revoked", nil, nil)
}

// ListPending GET /api/v1/orgs/:org_id/invitations (INVITE_MEMBER permission)
func (h *Handlers) ListPending(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	items, err := h.Service.ListPending(c.Context(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pending invitations retrieved", items, nil)
}

// Resend POST /api/v1/orgs/:org_id/invitations/:invite_id/resend (INVITE_MEMBER permission)
func (h *Handlers) Resend(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	inviteID, err := uuid.Parse(c.Params("invite_id"))
	if err != nil {
		return response.Error(c, "Invalid invitation id", 400, nil)
	}

	inv, err := h.Service.Resend(c.Context(), ResendInput{InviteID: inviteID, OrgID: orgID})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation resent successfully", inv, nil)
}

// CheckToken POST /api/v1/invitations/check-token (public)
func (h *Handlers) CheckToken(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "Invitation token is required", 400, nil)
	}

	result, err := h.Service.CheckToken(c.Context(), body.Token)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation token is valid", result, nil)
}
