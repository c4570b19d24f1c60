package handlers

import (
	"time"

	"github.com/bkoseoglu/mallhub/internal/config"
	"github.com/bkoseoglu/mallhub/internal/database"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	cfg      *config.Config
	registry *session.Registry
}

func NewHealthHandler(cfg *config.Config, registry *session.Registry) *HealthHandler {
	return &HealthHandler{cfg: cfg, registry: registry}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "memory"
	if h.cfg.StoreDriver != "memory" {
		dbStatus = "ok"
		if err := database.Ping(); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Sessions:  h.registry.Len(),
	})
}
