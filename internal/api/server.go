// Package api exposes the operational HTTP surface: liveness, a JSON
// status snapshot, and Prometheus metrics.
package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/gmsas95/agentcord/internal/config"
	"github.com/gmsas95/agentcord/internal/metrics"
)

// Server handles the HTTP status API
type Server struct {
	app     *fiber.App
	config  config.ServerConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a new API server
func New(cfg config.ServerConfig, m *metrics.Metrics, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeout) * time.Second,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:     app,
		config:  cfg,
		metrics: m,
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())

	s.app.Get("/healthz", s.handleHealth)
	s.app.Get("/status", s.handleStatus)
	s.app.Get("/metrics", s.handleMetrics)
}

// Start begins listening. It blocks until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	s.logger.Info("Status API listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.metrics.Snapshot())
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	body, err := s.metrics.Render()
	if err != nil {
		s.logger.Error("Failed to render metrics", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
	return c.SendString(body)
}
