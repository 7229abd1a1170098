// handlers/response.go
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/services"
)

var validate = validator.New()

// validationError reports each failing field with its rule.
func validationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}

// statusFor maps service errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrMissingProfileID),
		errors.Is(err, gamification.ErrInvalidLogEntry),
		errors.Is(err, gamification.ErrInvalidGoal):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrCoachDisabled),
		errors.Is(err, services.ErrArchiveDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as JSON. Internal errors are logged and not echoed.
func fail(c *fiber.Ctx, log *logger.Logger, err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error("[HTTP] request failed", "path", c.Path(), "method", c.Method(), "error", err)
		return c.Status(code).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers
// and middleware.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return fail(c, log, err)
	}
}
