package handlers

import (
	"context"
	"time"

	"chainvault/internal/config"
	"chainvault/internal/db"

	"github.com/gofiber/fiber/v3"
)

// Version is the application version, set at build time via ldflags.
var Version = "dev"

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db     *db.DB
	config *config.Config
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database *db.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: database, config: cfg}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
	Timestamp int64             `json:"timestamp"`
}

// RegisterRoutes registers health check routes.
func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/health/live", h.Liveness)
	app.Get("/health/ready", h.Readiness)
}

// Health returns the full health status.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	services := map[string]string{"api": "up"}
	overallStatus := "healthy"

	dbStatus := h.checkDatabase()
	services["database"] = dbStatus
	if dbStatus != "up" {
		overallStatus = "degraded"
	}

	return c.JSON(HealthResponse{
		Status:    overallStatus,
		Version:   Version,
		Services:  services,
		Timestamp: time.Now().Unix(),
	})
}

// Liveness returns liveness probe status.
func (h *HealthHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// Readiness returns readiness probe status: not ready until the database
// is reachable and, in production, the three chain RPC endpoints are configured.
func (h *HealthHandler) Readiness(c fiber.Ctx) error {
	if dbStatus := h.checkDatabase(); dbStatus != "up" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "not_ready",
			"reason":   "database_unavailable",
			"database": dbStatus,
		})
	}

	if h.config != nil && h.config.IsProduction() {
		if h.config.EVM.RPCURL == "" || h.config.XRP.RPCURL == "" || h.config.Solana.RPCURL == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"reason": "chain_rpc_not_configured",
			})
		}
	}

	return c.JSON(fiber.Map{"status": "ready"})
}

func (h *HealthHandler) checkDatabase() string {
	if h.db == nil {
		return "not_configured"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
