package main

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"

	"github.com/aiworkspace/workspace-backend/internal/api"
	"github.com/aiworkspace/workspace-backend/internal/artifacts"
	"github.com/aiworkspace/workspace-backend/internal/config"
	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/services"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

func main() {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.Groq.APIKey == "" {
		log.Warn("GROQ_API_KEY is not set; AI endpoints will run degraded")
	}

	// Artifact store and lifecycle-owned sweeper
	store, err := artifacts.NewStore(cfg.Artifacts.Dir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create artifact store")
	}
	sweeper := artifacts.NewSweeper(store, cfg.Artifacts.Retention(), cfg.Artifacts.SweepInterval(), log)
	sweeper.Start()

	// Session store; cookies are encrypted with a key derived from the
	// configured secret
	sessions := session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:workspace_session",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	collector := stats.NewCollector(log)
	llm := groq.NewClient(cfg.Groq)
	svc := services.New(cfg, log, llm, store, collector, sessions)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI Workspace Backend",
		BodyLimit:    64 * 1024 * 1024, // video uploads
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: deriveCookieKey(cfg.Session.Secret),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	api.SetupRoutes(app, svc)

	// Graceful shutdown: stop accepting, then stop the sweeper
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("AI Workspace backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	sweeper.Stop()
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// deriveCookieKey stretches the configured secret into the 32-byte
// base64 key the cookie encrypter expects.
func deriveCookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
