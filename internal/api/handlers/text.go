package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// serviceBusy is the degraded response body for the one-shot text
// tools when the provider is unavailable.
const serviceBusy = "AI Service Busy"

// completeOrFallback runs a single best-effort completion and degrades
// to the given fallback text on any failure, keeping these endpoints
// at HTTP 200 even with no provider key configured.
func completeOrFallback(svc *services.Services, c *fiber.Ctx, system, user, fallback string) string {
	res, err := svc.LLM.Complete(c.Context(), groq.CompletionRequest{
		Messages: groq.SystemUser(system, user),
	})
	if err != nil {
		svc.Logger.WithError(err).Warn("completion failed")
		return fallback
	}
	return res
}

// GenerateMinutes turns raw notes into meeting minutes.
func GenerateMinutes(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryTextGen)

		notes := c.FormValue("notes")
		minutes := completeOrFallback(svc, c,
			"You are a secretary. Convert raw notes into professional Meeting Minutes. Use Markdown.",
			fmt.Sprintf("Here are the notes:\n%s", notes),
			serviceBusy,
		)

		return c.JSON(fiber.Map{
			"success": true,
			"minutes": minutes,
		})
	}
}

// GenerateEmail drafts an email for a recipient and topic.
func GenerateEmail(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryTextGen)

		recipient := formValueDefault(c, "recipient", "Team")
		topic := formValueDefault(c, "topic", "Update")

		email := completeOrFallback(svc, c,
			"You are a professional email drafter.",
			fmt.Sprintf("Write an email to %s about: %s", recipient, topic),
			serviceBusy,
		)

		return c.JSON(fiber.Map{
			"success":       true,
			"email_content": email,
		})
	}
}

// ReviewCode asks for a code review of the submitted snippet.
func ReviewCode(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryCodeReview)

		code := c.FormValue("code")
		review := completeOrFallback(svc, c,
			"You are a Senior Developer. Review this code, find bugs, and suggest fixes. Use Markdown.",
			code,
			serviceBusy,
		)

		return c.JSON(fiber.Map{
			"success": true,
			"review":  review,
		})
	}
}

// Translate renders the text in the target language.
func Translate(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryTextGen)

		text := c.FormValue("text")
		target := formValueDefault(c, "target_language", "English")

		translation := completeOrFallback(svc, c,
			"You are a professional translator. Output ONLY the translated text.",
			fmt.Sprintf("Translate this text to %s:\n%s", target, text),
			"Error",
		)

		return c.JSON(fiber.Map{
			"success":     true,
			"translation": translation,
		})
	}
}

func formValueDefault(c *fiber.Ctx, key, fallback string) string {
	if v := c.FormValue(key); v != "" {
		return v
	}
	return fallback
}
