package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/knightquest/kq-api/internal/config"
	"github.com/knightquest/kq-api/internal/services"
	"gorm.io/gorm"
)

// HealthHandler handles the liveness endpoint.
type HealthHandler struct {
	Cfg *config.Config
	DB  *gorm.DB
}

// Check handles GET /health
// @Summary Health check
// @Description Reports service and database status.
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
