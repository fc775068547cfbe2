package middleware

import (
	"crypto/hmac"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/revoshq/podengine/configs"
)

type CronAuthMiddleware struct {
	cfg config.Config
}

func NewCronAuthMiddleware(cfg config.Config) *CronAuthMiddleware {
	return &CronAuthMiddleware{cfg: cfg}
}

// RequireBearer gates the cron and operator endpoints behind the shared
// secret. Unauthenticated access is permitted only outside production, for
// local development.
func (m *CronAuthMiddleware) RequireBearer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.Environment != "production" {
			return c.Next()
		}

		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || m.cfg.CronSecret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		if !hmac.Equal([]byte(token), []byte(m.cfg.CronSecret)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}
