package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/pdfgen"
	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/sanitize"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// quizPromptFormat pins the model to a strict HTML grammar so the
// fragment can be embedded in the UI and rendered into the PDF.
const quizPromptFormat = "Create a %s-question Multiple Choice Quiz about '%s'.\n" +
	"Output ONLY raw HTML content (no ```html fences).\n" +
	"Use this EXACT structure for every question:\n" +
	"<div class='question-box'>\n" +
	"  <h3 class='q-title'>1. Question text here?</h3>\n" +
	"  <ul class='options-list'>\n" +
	"    <li>A) Option 1</li>\n" +
	"    <li>B) Option 2</li>\n" +
	"    <li>C) Option 3</li>\n" +
	"    <li>D) Option 4</li>\n" +
	"  </ul>\n" +
	"</div>\n" +
	"At the very end, add: <h4>Answer Key</h4>\n" +
	"<table class='answer-key'>...</table>"

// GenerateQuiz produces a quiz as both an HTML fragment and a PDF
// artifact.
func GenerateQuiz(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryQuizGen)

		topic := formValueDefault(c, "topic", "General Knowledge")
		count := formValueDefault(c, "count", "5")

		raw, err := svc.LLM.Complete(c.Context(), groq.CompletionRequest{
			Messages: groq.SystemUser(
				"You are a strict HTML quiz generator.",
				fmt.Sprintf(quizPromptFormat, count, topic),
			),
		})
		if err != nil {
			svc.Logger.WithError(err).Warn("quiz completion failed")
			return c.JSON(fiber.Map{
				"success": false,
				"error":   "AI Failed",
			})
		}

		cleanHTML := sanitize.Clean(raw)

		pdfBytes, err := pdfgen.Render("Quiz: "+topic, cleanHTML)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		name, err := svc.Store.SaveBytes("quiz", "pdf", pdfBytes)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"quiz":     cleanHTML,
			"file_url": svc.Store.URL(name),
		})
	}
}
