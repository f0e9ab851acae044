package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/sanitize"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/slides"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

const slidePromptFormat = "Create a presentation outline for '%s'. Context: %s.\n" +
	"Output strictly 4 slides in this format:\n" +
	"SLIDE: [Title of Slide]\n" +
	"POINT: [Bullet point 1]\n" +
	"POINT: [Bullet point 2]\n" +
	"SLIDE: [Next Title]\n" +
	"..."

// MakePPT builds a slide deck from a generated outline, optionally on
// top of an uploaded template deck.
func MakePPT(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryTextGen)

		topic := formValueDefault(c, "topic", "Presentation")
		sourceText := c.FormValue("source_text")

		// Stage the uploaded template, if any. It is deleted after the
		// request whatever happens.
		templatePath := ""
		if fh, err := c.FormFile("template_file"); err == nil && fh != nil && fh.Filename != "" {
			staged := svc.Store.NewName("temp", "pptx")
			if err := c.SaveFile(fh, svc.Store.Path(staged)); err != nil {
				svc.Logger.WithError(err).Warn("failed to stage template deck")
			} else {
				templatePath = svc.Store.Path(staged)
				defer svc.Store.Remove(staged)
			}
		}

		outlineText, err := svc.LLM.Complete(c.Context(), groq.CompletionRequest{
			Messages: groq.SystemUser(
				"You are a presentation generator.",
				fmt.Sprintf(slidePromptFormat, topic, sourceText),
			),
		})
		if err != nil {
			svc.Logger.WithError(err).Warn("outline completion failed")
			return c.JSON(fiber.Map{
				"success": false,
				"error":   "AI Failed",
			})
		}

		outline, orphans := slides.Parse(sanitize.Clean(outlineText))
		if orphans > 0 {
			svc.Logger.WithField("dropped_bullets", orphans).Warn("outline had bullets before any slide title")
		}

		deck, err := slides.Build(templatePath, outline, svc.Logger)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		name, err := svc.Store.SaveBytes("presentation", "pptx", deck)
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
