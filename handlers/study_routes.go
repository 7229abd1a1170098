// handlers/study_routes.go
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"study-tracker/gamification"
	"study-tracker/middleware"
	"study-tracker/services"
)

type submitLogRequest struct {
	Date  string   `json:"date" validate:"required"`
	Hours *float64 `json:"hours" validate:"required,gte=0,lte=24"`
}

type listLogsQuery struct {
	From string `query:"from" validate:"required_with=To"`
	To   string `query:"to" validate:"required_with=From"`
}

// parseLogDate accepts YYYY-MM-DD or a full RFC 3339 timestamp and keys it
// to its UTC day.
func parseLogDate(s string) (time.Time, error) {
	if day, err := gamification.ParseDay(s); err == nil {
		return day, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return gamification.DayKey(t), nil
}

func setupStudyRoutes(r fiber.Router, d Deps) {
	r.Get("/dashboard", func(c *fiber.Ctx) error {
		out, err := d.Analytics.Dashboard(c.UserContext(), middleware.UserID(c), c.Query("totalHoursRange", "alltime"))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Get("/calendar", func(c *fiber.Ctx) error {
		out, err := d.Analytics.Calendar(c.UserContext(), middleware.UserID(c), c.Query("month"))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Post("/logs", func(c *fiber.Ctx) error {
		var req submitLogRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
		}
		if err := validate.Struct(req); err != nil {
			return validationError(c, err)
		}
		day, err := parseLogDate(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}

		entry, outcome, err := d.Logs.SubmitLog(c.UserContext(), middleware.UserID(c), day, *req.Hours)
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"log":          entry,
			"achievements": newOutcomeResponse(outcome),
		})
	})

	// Without from/to every log is returned.
	r.Get("/logs", func(c *fiber.Ctx) error {
		var q listLogsQuery
		if err := c.QueryParser(&q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
		}
		if err := validate.Struct(q); err != nil {
			return validationError(c, err)
		}
		userID := middleware.UserID(c)
		if q.From == "" {
			logs, err := d.Logs.ListLogs(c.UserContext(), userID)
			if err != nil {
				return fail(c, d.Log, err)
			}
			return c.JSON(fiber.Map{"logs": logs})
		}
		from, err := parseLogDate(q.From)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from must be YYYY-MM-DD"})
		}
		to, err := parseLogDate(q.To)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "to must be YYYY-MM-DD"})
		}
		logs, err := d.Logs.LogsInRange(c.UserContext(), userID, from, to)
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(fiber.Map{"logs": logs})
	})

	r.Get("/analytics", func(c *fiber.Ctx) error {
		out, err := d.Analytics.Summary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Get("/analytics/chart", func(c *fiber.Ctx) error {
		var q services.ChartQuery
		if err := c.QueryParser(&q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
		}
		if err := validate.Struct(q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chart type"})
		}
		out, err := d.Analytics.Chart(c.UserContext(), middleware.UserID(c), q)
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})

	r.Post("/clear", func(c *fiber.Ctx) error {
		url, err := d.Logs.ClearAccountData(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		resp := fiber.Map{"message": "All study logs and achievements have been cleared."}
		if url != "" {
			resp["archive_url"] = url
		}
		return c.JSON(resp)
	})

	r.Post("/export", func(c *fiber.Ctx) error {
		url, err := d.Logs.Export(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, d.Log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"archive_url": url})
	})

	r.Post("/coach", coachLimiter(d), func(c *fiber.Ctx) error {
		out, err := d.Coach.Analyze(c.UserContext(), middleware.UserID(c))
		if err != nil {
			if statusFor(err) == fiber.StatusInternalServerError {
				d.Log.Error("[COACH] analysis failed", "user_id", middleware.UserID(c), "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to generate analysis. Please try again later.",
				})
			}
			return fail(c, d.Log, err)
		}
		return c.JSON(out)
	})
}
