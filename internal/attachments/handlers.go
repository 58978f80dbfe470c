package attachments

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

func ids(c *fiber.Ctx, names ...string) ([]uuid.UUID, error) {
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

// CreateUploadURL POST /api/v1/orgs/:org_id/tasks/:task_id/attachments/upload-url (UPLOAD_FILES permission)
func (h *Handlers) CreateUploadURL(c *fiber.Ctx) error {
	parsed, err := ids(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	var body struct {
		FileName string `json:"file_name"`
	}
	if err := c.BodyParser(&body); err != nil || body.FileName == "" {
		return response.Error(c, "file_name is required", 400, nil)
	}

	ticket, svcErr := h.Service.CreateUploadURL(c.Context(), parsed[0], parsed[1], body.FileName)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Upload URL generated", ticket, nil)
}

// Register POST /api/v1/orgs/:org_id/tasks/:task_id/attachments (UPLOAD_FILES permission)
func (h *Handlers) Register(c *fiber.Ctx) error {
	parsed, err := ids(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	uploaderID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	a, svcErr := h.Service.Register(c.Context(), parsed[0], parsed[1], uploaderID, in)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.SuccessCreated(c, "Attachment registered", a, nil)
}

// List GET /api/v1/orgs/:org_id/tasks/:task_id/attachments (VIEW_PROJECTS permission)
func (h *Handlers) List(c *fiber.Ctx) error {
	parsed, err := ids(c, "org_id", "task_id")
	if err != nil {
		return err
	}
	items, svcErr := h.Service.List(c.Context(), parsed[0], parsed[1])
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Attachments retrieved", items, nil)
}

// Delete DELETE /api/v1/orgs/:org_id/attachments/:attachment_id (UPLOAD_FILES permission;
// uploader-or-admin enforced in the service)
func (h *Handlers) Delete(c *fiber.Ctx) error {
	parsed, err := ids(c, "org_id", "attachment_id")
	if err != nil {
		return err
	}
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if svcErr := h.Service.Delete(c.Context(), parsed[0], parsed[1], actorID, middleware.OrgRole(c)); svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Attachment deleted", nil, nil)
}
