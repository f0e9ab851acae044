// Package services wires the shared dependencies every handler needs.
package services

import (
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"

	"github.com/aiworkspace/workspace-backend/internal/artifacts"
	"github.com/aiworkspace/workspace-backend/internal/config"
	"github.com/aiworkspace/workspace-backend/internal/providers/groq"
	"github.com/aiworkspace/workspace-backend/internal/stats"
)

// Services holds all service instances handlers depend on. The LLM is
// an interface so handler tests can stub completions.
type Services struct {
	Config   *config.Config
	Logger   *logrus.Logger
	LLM      groq.Completer
	Store    *artifacts.Store
	Stats    *stats.Collector
	Sessions *session.Store
}

func New(
	cfg *config.Config,
	logger *logrus.Logger,
	llm groq.Completer,
	store *artifacts.Store,
	collector *stats.Collector,
	sessions *session.Store,
) *Services {
	return &Services{
		Config:   cfg,
		Logger:   logger,
		LLM:      llm,
		Store:    store,
		Stats:    collector,
		Sessions: sessions,
	}
}
