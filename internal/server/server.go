// Package server assembles the HTTP API: middleware stack, routes, and
// graceful shutdown, grounded on the teacher's own internal/server/server.go
// (Fiber app construction, recover/logger/cors middleware ordering, a
// custom JSON errorHandler) with the x402 payment gate and content-scanner
// wiring removed since neither exists in this domain.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chainvault/internal/config"
	"chainvault/internal/db"
	"chainvault/internal/dispatch"
	"chainvault/internal/funding"
	"chainvault/internal/handlers"
	"chainvault/internal/middleware"
	"chainvault/internal/registry"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// Server represents the HTTP server.
type Server struct {
	app    *fiber.App
	config *config.Config
	log    *slog.Logger
}

// Dependencies bundles the business-logic components the HTTP layer routes to.
type Dependencies struct {
	Store    *db.DB
	Registry *registry.Registry
	Dispatch *dispatch.Dispatcher
	Funding  *funding.Recorder
}

// New creates a new server instance.
func New(cfg *config.Config, deps Dependencies, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:      "Chainvault API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler(log),
	})

	s := &Server{app: app, config: cfg, log: log}
	s.setupMiddleware()
	s.setupRoutes(deps)
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.SecurityHeaders())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} ${latency}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       300,
	}))

	rateLimiter := middleware.NewRateLimitMiddleware(&s.config.RateLimit)
	s.app.Use(rateLimiter.Middleware())
}

func (s *Server) setupRoutes(deps Dependencies) {
	handlers.NewHealthHandler(deps.Store, s.config).RegisterRoutes(s.app)
	handlers.NewDocsHandler().RegisterRoutes(s.app)
	handlers.NewWalletHandler(deps.Registry, deps.Dispatch, deps.Funding, deps.Store).RegisterRoutes(s.app)

	s.app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not found",
			"message": "The requested endpoint does not exist",
			"path":    c.Path(),
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Server.Port)
	s.log.Info("starting chainvault api server", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		log.Error("request error", "error", err, "path", c.Path())

		return c.Status(code).JSON(fiber.Map{
			"error":      message,
			"status":     code,
			"timestamp":  time.Now().Unix(),
			"request_id": middleware.GetRequestID(c),
		})
	}
}
