package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := SessionConfig{Secret: "test-secret", RedisURL: "redis://" + mr.Addr()}
	sess, _, err := Session(cfg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(sess)

	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{
			UserID:         "11111111-1111-1111-1111-111111111111",
			Email:          "a@example.com",
			FirstName:      "A",
			LastName:       "B",
			OnboardingStep: "plan",
		})
		cookie := SessionCookieConfig(cfg)
		cookie.Value = "s:" + sid
		c.Cookie(&cookie)
		return c.SendStatus(200)
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		actor := Actor(c)
		if actor == nil {
			return c.SendStatus(401)
		}
		return c.JSON(actor)
	})
	app.Delete("/logout", func(c *fiber.Ctx) error {
		DestroySession(c)
		return c.SendStatus(200)
	})
	return app, mr
}

func TestSession_RoundTrip(t *testing.T) {
	app, mr := sessionApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie)
	assert.True(t, len(mr.Keys()) == 1, "one session key expected")

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var actor SessionUser
	require.NoError(t, json.Unmarshal(body, &actor))
	assert.Equal(t, "a@example.com", actor.Email)
	assert.Equal(t, "plan", actor.OnboardingStep)
}

func TestSession_NoCookieNoActor(t *testing.T) {
	app, _ := sessionApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestSession_DestroyClearsUser(t *testing.T) {
	app, _ := sessionApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie)

	req := httptest.NewRequest("DELETE", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	// The logged-out session no longer carries a user.
	req = httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
