package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/api/middleware"
	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

const chatPersona = "You are a helpful AI office assistant. Be concise."

// Chat runs one conversational turn against the rolling session
// history. Unlike the one-shot tools, a provider failure here surfaces
// the raw error with a 500 instead of a canned fallback.
func Chat(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Stats.Increment(stats.CategoryChatMsgs)

		msg := c.FormValue("message")
		if msg == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Empty message",
			})
		}

		history := middleware.History(svc.Sessions, c)
		messages := make([]groq.Message, 0, len(history)+2)
		messages = append(messages, groq.Message{Role: groq.RoleSystem, Content: chatPersona})
		messages = append(messages, history...)
		messages = append(messages, groq.Message{Role: groq.RoleUser, Content: msg})

		reply, err := svc.LLM.Complete(c.Context(), groq.CompletionRequest{
			Messages:    messages,
			Temperature: 0.7,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		history = append(history,
			groq.Message{Role: groq.RoleUser, Content: msg},
			groq.Message{Role: groq.RoleAssistant, Content: reply},
		)
		if err := middleware.SaveHistory(svc.Sessions, c, history); err != nil {
			svc.Logger.WithError(err).Warn("failed to persist chat history")
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"response": reply,
		})
	}
}

// ClearChat forgets the session's conversation.
func ClearChat(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := middleware.ClearHistory(svc.Sessions, c); err != nil {
			svc.Logger.WithError(err).Warn("failed to clear chat history")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
