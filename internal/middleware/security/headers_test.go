package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(HeadersMiddleware(HeadersConfig{AllowedOrigins: []string{"http://localhost:3000"}}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))

	csp := resp.Header.Get("Content-Security-Policy")
	assert.Contains(t, csp, "connect-src 'self' http://localhost:3000 ws://localhost:3000")
	assert.Contains(t, csp, "frame-ancestors 'none'")
}

func TestHeadersMiddleware_Development(t *testing.T) {
	app := fiber.New()
	app.Use(HeadersMiddleware(HeadersConfig{IsDevelopment: true}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestBuildCSP(t *testing.T) {
	csp := buildCSP([]string{"https://agri.example.org", "*", " "})
	assert.Contains(t, csp, "connect-src 'self' https://agri.example.org wss://agri.example.org")
	assert.NotContains(t, csp, " * ")

	assert.Contains(t, buildCSP(nil), "connect-src 'self'")
}
