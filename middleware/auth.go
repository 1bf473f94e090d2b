package middleware

import (
	"strings"

	"pilot-progress-system/logger"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the identity middlewares.
const (
	LocalUserID    = "user_id"
	LocalUserRoles = "user_roles"
	LocalDeviceID  = "device_id"
)

// UserContext extracts the pilot identity and roles forwarded by the gateway.
func UserContext(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			log.Warn("❌ [USER_CTX] X-User-ID missing", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRoles, splitRoles(c.Get("X-User-Roles")))
		return c.Next()
	}
}

func splitRoles(raw string) []string {
	var roles []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// RequireRole rejects requests whose user lacks role. It must run after
// UserContext.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals(LocalUserRoles).([]string)
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": role + " role required",
		})
	}
}
