package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type HeadersConfig struct {
	// AllowedOrigins are added to connect-src so the frontend can reach
	// the API and its WebSocket.
	AllowedOrigins []string
	IsDevelopment  bool
}

func HeadersMiddleware(cfg HeadersConfig) fiber.Handler {
	csp := buildCSP(cfg.AllowedOrigins)

	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-DNS-Prefetch-Control", "off")
		c.Set("X-Download-Options", "noopen")
		c.Set("X-Permitted-Cross-Domain-Policies", "none")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Set("Cross-Origin-Resource-Policy", "same-origin")
		c.Set("Origin-Agent-Cluster", "?1")
		c.Set("X-XSS-Protection", "0")

		if !cfg.IsDevelopment {
			c.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}

		c.Set("Content-Security-Policy", csp)

		return c.Next()
	}
}

func buildCSP(origins []string) string {
	connect := []string{"'self'"}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		connect = append(connect, origin)
		if ws, ok := websocketOrigin(origin); ok {
			connect = append(connect, ws)
		}
	}

	directives := []string{
		"default-src 'self'",
		"base-uri 'self'",
		"font-src 'self' https: data:",
		"form-action 'self'",
		"frame-ancestors 'none'",
		"img-src 'self' data:",
		"object-src 'none'",
		"script-src 'self'",
		"style-src 'self' https: 'unsafe-inline'",
		"connect-src " + strings.Join(connect, " "),
	}
	return strings.Join(directives, "; ")
}

func websocketOrigin(origin string) (string, bool) {
	switch {
	case strings.HasPrefix(origin, "https://"):
		return "wss://" + strings.TrimPrefix(origin, "https://"), true
	case strings.HasPrefix(origin, "http://"):
		return "ws://" + strings.TrimPrefix(origin, "http://"), true
	}
	return "", false
}
