package handlers

import (
	"errors"

	"pilot-progress-system/progression"
	"pilot-progress-system/services"
	"pilot-progress-system/utils"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps domain and service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrMissionNotFound),
		errors.Is(err, services.ErrChainNotFound),
		errors.Is(err, services.ErrCompetencyNotFound),
		errors.Is(err, services.ErrPilotNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, progression.ErrTaskNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, progression.ErrMissionAlreadyCompleted),
		errors.Is(err, progression.ErrMissionNotCompleted),
		errors.Is(err, progression.ErrChainNotResolved),
		errors.Is(err, progression.ErrChainAlreadyClaimed),
		errors.Is(err, services.ErrTasksIncomplete):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidArtifact),
		errors.Is(err, utils.ErrUnsupportedImage):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrImagesUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, msg string, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	body := fiber.Map{"error": msg}
	if err != nil {
		body["cause"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
