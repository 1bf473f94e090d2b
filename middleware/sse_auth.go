package middleware

import (
	"errors"
	"strings"

	"pilot-progress-system/logger"
	"pilot-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

// SSEAuth authenticates EventSource requests, which cannot carry headers,
// from the `token` and `device_id` query parameters.
func SSEAuth(validator services.TokenValidator, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		deviceID := strings.TrimSpace(c.Query("device_id"))
		if accessToken == "" || deviceID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token or device_id in query",
			})
		}

		identity, err := validator.ValidateToken(c.UserContext(), accessToken, deviceID)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				log.Error("[SSEAuth] identity service unavailable", "device_id", deviceID, "error", err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalDeviceID, identity.DeviceID)
		c.Locals(LocalUserRoles, identity.Roles)
		log.Debug("[SSEAuth] authenticated", "user_id", identity.UserID, "device_id", identity.DeviceID)
		return c.Next()
	}
}
