package auth

import (
	"context"

	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Service    *Service
	UserFinder UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Register POST /api/v1/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return response.Error(c, "Email, password, first name and last name are required", 400, nil)
	}

	user, err := h.Service.Register(c.Context(), in)
	if err != nil {
		return response.FromError(c, err)
	}

	h.startSession(c, middleware.SessionUser{
		UserID:         user.UserID.String(),
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		OnboardingStep: user.OnboardingStep,
	})

	return response.SuccessCreated(c, "Registration successful", user, nil)
}

// Login POST /api/v1/auth/login (rate limited in router)
func (h *Handlers) Login(c *fiber.Ctx) error {
	var in LoginInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	user, err := h.UserFinder.FindByEmailAndPassword(in.Email, in.Password)
	if err != nil {
		return response.FromError(c, err)
	}

	h.startSession(c, middleware.SessionUser{
		UserID:         user.UserID.String(),
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		OnboardingStep: user.OnboardingStep,
	})

	return response.Success(c, "Login successful", user, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	if actor == nil {
		return response.FromError(c, ErrNotAuthenticated)
	}
	return response.Success(c, "Authenticated", actor, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sid := middleware.GetSessionID(c)
	if sid != "" && h.Rdb != nil {
		h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid)
	}
	middleware.DestroySession(c)
	c.Locals("session_id", "")

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out", nil, nil)
}

// startSession regenerates the session id and sets the cookie.
func (h *Handlers) startSession(c *fiber.Ctx, user middleware.SessionUser) {
	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, user)
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)
}
