package middleware

import (
	"strconv"
	"time"

	"taskflow-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit returns a fixed-window per-IP limiter. 429 responses use the
// standard error envelope and carry a Retry-After hint in delta-seconds.
func RateLimit(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			return response.Error(c, "Too many requests, please try again later", fiber.StatusTooManyRequests, nil)
		},
	})
}
