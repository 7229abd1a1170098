// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"study-tracker/logger"
	"study-tracker/models"
)

// Locals keys shared with handlers.
const (
	LocalUserID         = "user_id"
	LocalExternalUserID = "external_user_id"
	LocalUserRoles      = "user_roles"
	LocalDeviceID       = "device_id"
)

// UserResolver maps a gateway identity to the local user.
type UserResolver interface {
	EnsureUser(ctx context.Context, externalID string) (*models.User, error)
}

// UserContextMiddleware reads the identity set by the Gateway and attaches
// the local user id. Users are created on first request.
func UserContextMiddleware(users UserResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		externalID := strings.TrimSpace(c.Get("X-User-ID"))
		if externalID == "" {
			log.Warn("[USER_CTX] X-User-ID required but missing", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		c.Locals(LocalUserRoles, roles)

		return attachUser(c, users, externalID, log)
	}
}

func attachUser(c *fiber.Ctx, users UserResolver, externalID string, log *logger.Logger) error {
	user, err := users.EnsureUser(c.UserContext(), externalID)
	if err != nil {
		log.Error("[USER_CTX] failed to resolve user", "external_id", externalID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve user",
		})
	}
	c.Locals(LocalExternalUserID, externalID)
	c.Locals(LocalUserID, user.ID)
	return c.Next()
}

// UserID returns the local user id attached by the auth middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
