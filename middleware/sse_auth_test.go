package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-tracker/logger"
	"study-tracker/models"
	"study-tracker/services"
)

type stubValidator struct{ userID string }

func (s stubValidator) ValidateToken(_ context.Context, token, device string) (*services.ValidateResponse, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &services.ValidateResponse{UserID: s.userID, DeviceID: device}, nil
}

type stubUsers struct{}

func (stubUsers) EnsureUser(_ context.Context, externalID string) (*models.User, error) {
	return &models.User{ID: "local-" + externalID, ExternalUserID: externalID}, nil
}

func TestSSEAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/stream", SSEAuthMiddleware(stubValidator{userID: "ext-9"}, stubUsers{}, logger.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})

	cases := []struct {
		query string
		code  int
	}{
		{"", http.StatusBadRequest},
		{"?token=good", http.StatusBadRequest},
		{"?token=bad&device_id=d1", http.StatusUnauthorized},
		{"?token=good&device_id=d1", http.StatusOK},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream"+tc.query, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.code, resp.StatusCode, tc.query)
	}
}

func TestUserContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", UserContextMiddleware(stubUsers{}, logger.NewNop()), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "roles": c.Locals(LocalUserRoles)})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "ext-1")
	req.Header.Set("X-User-Roles", "student, admin")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
