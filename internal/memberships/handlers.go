package memberships

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// List GET /api/v1/orgs/:org_id/members (VIEW_ORG permission via middleware)
func (h *Handlers) List(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	members, err := h.Service.List(c.Context(), orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Members retrieved", members, nil)
}

// UpdateRole PATCH /api/v1/orgs/:org_id/members/:user_id/role (ASSIGN_ROLE permission)
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil || body.Role == "" {
		return response.Error(c, "Role is required", 400, nil)
	}

	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	targetID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user id", 400, nil)
	}
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	m, err := h.Service.UpdateRole(c.Context(), UpdateRoleInput{
		OrgID:        orgID,
		TargetUserID: targetID,
		Role:         body.Role,
		ActorUserID:  actorID,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role updated", m, nil)
}

// Remove DELETE /api/v1/orgs/:org_id/members/:user_id (REMOVE_MEMBER permission)
func (h *Handlers) Remove(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	targetID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return response.Error(c, "Invalid user id", 400, nil)
	}
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.Service.Remove(c.Context(), RemoveInput{
		OrgID:        orgID,
		TargetUserID: targetID,
		ActorUserID:  actorID,
	}); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member removed", nil, nil)
}
