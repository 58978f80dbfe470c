package notifications

import (
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// List GET /api/v1/notifications?unread=true
func (h *Handlers) List(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	unreadOnly := c.Query("unread") == "true"
	items, err := h.Service.List(c.Context(), userID, unreadOnly)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Notifications retrieved", items, nil)
}

// MarkRead PATCH /api/v1/notifications/:id/read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid notification id", 400, nil)
	}

	if err := h.Service.MarkRead(c.Context(), userID, notifID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Notification marked read", nil, nil)
}

// MarkAllRead PATCH /api/v1/notifications/read-all
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.Service.MarkAllRead(c.Context(), userID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "All notifications marked read", nil, nil)
}
