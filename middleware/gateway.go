package middleware

import (
	"crypto/subtle"
	"strings"

	"pilot-progress-system/logger"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuth validates the bearer token the gateway presents.
func GatewayAuth(expectedToken string, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Warn("🚫 [GATEWAY_AUTH] missing Authorization header", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// Raw tokens are accepted as well as "Bearer <token>".
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Warn("❌ [GATEWAY_AUTH] invalid token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}
