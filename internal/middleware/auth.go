package middleware

import (
	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with the standard
// error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// Actor returns the session user as a typed struct, or nil if not logged in.
// The session stores a JSON map, so fields are re-read by key.
func Actor(c *fiber.Ctx) *SessionUser {
	m, ok := c.Locals(userLocal).(map[string]interface{})
	if !ok {
		return nil
	}
	id, _ := m["user_id"].(string)
	if id == "" {
		return nil
	}
	return &SessionUser{
		UserID:         id,
		Email:          str(m["email"]),
		FirstName:      str(m["first_name"]),
		LastName:       str(m["last_name"]),
		OnboardingStep: str(m["onboarding_step"]),
	}
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
