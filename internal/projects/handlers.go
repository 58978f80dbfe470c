package projects

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

func orgAndActor(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, response.Error(c, "Invalid organization id", 400, nil)
	}
	actor := middleware.Actor(c)
	if actor == nil {
		return uuid.Nil, uuid.Nil, response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, response.Unauthorized(c, "Unauthorized")
	}
	return orgID, actorID, nil
}

// Create POST /api/v1/orgs/:org_id/projects (MANAGE_PROJECTS permission)
func (h *Handlers) Create(c *fiber.Ctx) error {
	orgID, actorID, err := orgAndActor(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	p, svcErr := h.Service.Create(c.Context(), orgID, actorID, in)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.SuccessCreated(c, "Project created", p, nil)
}

// List GET /api/v1/orgs/:org_id/projects?status=active (VIEW_PROJECTS permission)
func (h *Handlers) List(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	items, svcErr := h.Service.List(c.Context(), orgID, c.Query("status"))
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Projects retrieved", items, nil)
}

// Get GET /api/v1/orgs/:org_id/projects/:project_id (VIEW_PROJECTS permission)
func (h *Handlers) Get(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	projectID, err := uuid.Parse(c.Params("project_id"))
	if err != nil {
		return response.Error(c, "Invalid project id", 400, nil)
	}
	p, svcErr := h.Service.Get(c.Context(), orgID, projectID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Project retrieved", p, nil)
}

// Update PATCH /api/v1/orgs/:org_id/projects/:project_id (MANAGE_PROJECTS permission)
func (h *Handlers) Update(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	projectID, err := uuid.Parse(c.Params("project_id"))
	if err != nil {
		return response.Error(c, "Invalid project id", 400, nil)
	}
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	p, svcErr := h.Service.Update(c.Context(), orgID, projectID, in)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Project updated", p, nil)
}

// Archive POST /api/v1/orgs/:org_id/projects/:project_id/archive (MANAGE_PROJECTS permission)
func (h *Handlers) Archive(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("org_id"))
	if err != nil {
		return response.Error(c, "Invalid organization id", 400, nil)
	}
	projectID, err := uuid.Parse(c.Params("project_id"))
	if err != nil {
		return response.Error(c, "Invalid project id", 400, nil)
	}
	p, svcErr := h.Service.Archive(c.Context(), orgID, projectID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Project archived", p, nil)
}
