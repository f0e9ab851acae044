package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aiworkspace/workspace-backend/internal/api/handlers"
	"github.com/aiworkspace/workspace-backend/internal/artifacts"
	"github.com/aiworkspace/workspace-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	app.Get("/", handlers.Index())
	app.Get("/health", handlers.Health())

	// Auth
	app.Post("/login", handlers.Login(svc))
	app.Post("/logout", handlers.Logout(svc))
	app.Get("/check-auth", handlers.CheckAuth(svc))

	// Stats & reports (admin gated inside the handlers)
	app.Get("/api/stats", handlers.GetStats(svc))
	app.Get("/download-report", handlers.DownloadReport(svc))

	// AI tools
	app.Post("/chat", handlers.Chat(svc))
	app.Post("/clear-chat", handlers.ClearChat(svc))
	app.Post("/generate-minutes", handlers.GenerateMinutes(svc))
	app.Post("/generate-email", handlers.GenerateEmail(svc))
	app.Post("/review-code", handlers.ReviewCode(svc))
	app.Post("/translate", handlers.Translate(svc))
	app.Post("/generate-quiz", handlers.GenerateQuiz(svc))
	app.Post("/make-ppt", handlers.MakePPT(svc))

	// File tools
	app.Post("/text-to-audio", handlers.TextToAudio(svc))
	app.Post("/audio-to-text", handlers.AudioToText(svc))
	app.Post("/text-to-pdf", handlers.TextToPDF(svc))
	app.Post("/video-to-audio", handlers.VideoToAudio(svc))
	app.Post("/convert-file", handlers.ConvertFile(svc))
	app.Post("/compress-image", handlers.CompressImage(svc))

	// Generated artifacts
	app.Static(artifacts.URLPrefix, svc.Store.Dir())
}
