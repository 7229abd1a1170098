// handlers/progression_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"study-tracker/middleware"
)

type goalRequest struct {
	DailyGoalHours float64 `json:"daily_goal_hours" validate:"required,gte=0.5,lte=24"`
}

func setupProgressionRoutes(r fiber.Router, d Deps) {
	r.Get("/progress", func(c *fiber.Ctx) error {
		out, err := d.Progression.Progress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Get("/progress/history", func(c *fiber.Ctx) error {
		out, err := d.Progression.History(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Get("/achievements", func(c *fiber.Ctx) error {
		out, err := d.Achievements.Board(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Get("/achievements/check", func(c *fiber.Ctx) error {
		fresh, err := d.Achievements.CheckNew(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(fiber.Map{"newAchievements": fresh})
	})

	r.Put("/goal", func(c *fiber.Ctx) error {
		var req goalRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		if err := validate.Struct(req); err != nil {
			return validationError(c, err)
		}
		user, outcome, err := d.Users.UpdateGoal(c.UserContext(), middleware.UserID(c), req.DailyGoalHours)
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(fiber.Map{
			"user":         user,
			"achievements": newOutcomeResponse(outcome),
		})
	})
}
