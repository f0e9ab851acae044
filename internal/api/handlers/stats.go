package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/api/middleware"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// GetStats feeds the dashboard poll. Non-admin callers get zeroed
// telemetry instead of an error; the CPU sample costs 100ms, so it is
// only taken for authenticated sessions.
func GetStats(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var t stats.Telemetry
		if middleware.IsAdmin(svc.Sessions, c) {
			t = svc.Stats.Sample()
		}

		return c.JSON(fiber.Map{
			"cpu":   t.CPU,
			"ram":   t.RAM,
			"usage": svc.Stats.Snapshot(),
		})
	}
}

// DownloadReport streams the plaintext system report as an attachment.
// This is the one admin surface that hard-fails for anonymous callers.
func DownloadReport(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !middleware.IsAdmin(svc.Sessions, c) {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		report := svc.Stats.Report(time.Now(), svc.Stats.Sample())

		c.Set(fiber.HeaderContentType, "text/plain")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename=System_Report.txt`)
		return c.SendString(report)
	}
}
