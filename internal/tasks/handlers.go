package tasks

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

func parseIDs(c *fiber.Ctx, names ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(names))
	for _, n := range names {
		id, err := uuid.Parse(c.Params(n))
		if err != nil {
			return nil, response.Error(c, "Invalid "+n, 400, nil)
		}
		out = append(out, id)
	}
	return out, nil
}

func actorID(c *fiber.Ctx) (uuid.UUID, error) {
	actor := middleware.Actor(c)
	if actor == nil {
		return uuid.Nil, response.Unauthorized(c, "Unauthorized")
	}
	id, err := uuid.Parse(actor.UserID)
	if err != nil {
		return uuid.Nil, response.Unauthorized(c, "Unauthorized")
	}
	return id, nil
}

// Create POST /api/v1/orgs/:org_id/projects/:project_id/tasks (MANAGE_TASKS permission)
func (h *Handlers) Create(c *fiber.Ctx) error {
	ids, err := parseIDs(c, "org_id", "project_id")
	if err != nil {
		return err
	}
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	t, svcErr := h.Service.Create(c.Context(), ids[0], ids[1], actor, in)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.SuccessCreated(c, "Task created", t, nil)
}

// List GET /api/v1/orgs/:org_id/projects/:project_id/tasks?status=&assignee= (VIEW_PROJECTS permission)
func (h *Handlers) List(c *fiber.Ctx) error {
	ids, err := parseIDs(c, "org_id", "project_id")
	if err != nil {
		return err
	}
	f := ListFilter{Status: c.Query("status")}
	if a := c.Query("assignee"); a != "" {
		id, err := uuid.Parse(a)
		if err != nil {
			return response.Error(c, "Invalid assignee filter", 400, nil)
		}
		f.AssigneeID = &id
	}
	items, svcErr := h.Service.List(c.Context(), ids[0], ids[1], f)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Tasks retrieved", items, nil)
}

// Get GET /api/v1/orgs/:org_id/tasks/:task_id (VIEW_PROJECTS permission)
func (h *Handlers) Get(c *fiber.Ctx) error {
	ids, err := parseIDs(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	t, svcErr := h.Service.Get(c.Context(), ids[0], ids[1])
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Task retrieved", t, nil)
}

// Update PATCH /api/v1/orgs/:org_id/tasks/:task_id (MANAGE_TASKS permission)
func (h *Handlers) Update(c *fiber.Ctx) error {
	ids, err := parseIDs(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	t, svcErr := h.Service.Update(c.Context(), ids[0], ids[1], in)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Task updated", t, nil)
}

// Assign PATCH /api/v1/orgs/:org_id/tasks/:task_id/assignee (MANAGE_TASKS permission)
func (h *Handlers) Assign(c *fiber.Ctx) error {
	ids, err := parseIDs(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var body struct {
		AssigneeID *uuid.UUID `json:"assignee_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	t, svcErr := h.Service.Assign(c.Context(), ids[0], ids[1], body.AssigneeID, actor)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Task assignee updated", t, nil)
}

// Delete DELETE /api/v1/orgs/:org_id/tasks/:task_id (MANAGE_TASKS permission;
// members may only delete their own tasks, enforced in the service)
func (h *Handlers) Delete(c *fiber.Ctx) error {
	ids, err := parseIDs(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	if svcErr := h.Service.Delete(c.Context(), ids[0], ids[1], actor, middleware.OrgRole(c)); svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Task deleted", nil, nil)
}
