package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/pdfgen"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// TextToPDF renders caller-supplied HTML into a PDF artifact.
func TextToPDF(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryPDFGen)

		htmlContent := c.FormValue("html_content")

		pdfBytes, err := pdfgen.Render("", htmlContent)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		name, err := svc.Store.SaveBytes("doc", "pdf", pdfBytes)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"file_url": svc.Store.URL(name),
		})
	}
}
