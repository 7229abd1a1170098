// handlers/routes.go
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/websocket/v2"

	"study-tracker/gamification"
	"study-tracker/logger"
	"study-tracker/middleware"
	"study-tracker/models"
	"study-tracker/services"
)

// Deps bundles what the routes need. Auth may be nil, in which case the
// unlock streams are not mounted.
type Deps struct {
	Users        *services.UserService
	Logs         *services.StudyLogService
	Achievements *services.AchievementService
	Progression  *services.ProgressionService
	Analytics    *services.AnalyticsService
	Coach        *services.CoachService
	Auth         middleware.TokenValidator
	Log          *logger.Logger

	// CoachLimit caps coach calls per user per minute.
	CoachLimit int
}

func SetupRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	// EventSource cannot send X-User-ID, so the stream authenticates by query.
	if d.Auth != nil {
		streamAuth := middleware.SSEAuthMiddleware(d.Auth, d.Users, d.Log)
		app.Get("/user/achievements/stream", streamAuth, d.Achievements.StreamUnlocksSSE)
		app.Get("/user/achievements/ws", streamAuth, requireUpgrade, websocket.New(d.Achievements.StreamUnlocksWS))
	}

	user := app.Group("/user", middleware.UserContextMiddleware(d.Users, d.Log))

	setupStudyRoutes(user, d)
	setupProgressionRoutes(user, d)
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// outcomeResponse is the JSON shape of a reconciliation diff.
type outcomeResponse struct {
	Unlocked []models.Achievement `json:"unlocked"`
	Revoked  []string             `json:"revoked"`
}

func newOutcomeResponse(o gamification.Outcome) outcomeResponse {
	out := outcomeResponse{
		Unlocked: make([]models.Achievement, 0, len(o.Unlocked)),
		Revoked:  make([]string, 0, len(o.Revoked)),
	}
	for _, r := range o.Unlocked {
		out.Unlocked = append(out.Unlocked, models.AchievementFromRecord(r))
	}
	for _, r := range o.Revoked {
		out.Revoked = append(out.Revoked, r.AchievementID)
	}
	return out
}

func coachLimiter(d Deps) fiber.Handler {
	limit := d.CoachLimit
	if limit <= 0 {
		limit = 5
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "coach:" + middleware.UserID(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many coaching requests, try again in a minute",
			})
		},
	})
}
