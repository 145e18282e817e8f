package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthResponse reports store connectivity and the configured services.
type HealthResponse struct {
	Status    string            `json:"status"`
	Store     string            `json:"store"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}

// Health godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *ApplicationHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	var err error
	if h.HealthChecker != nil {
		err = h.HealthChecker.Check(ctx)
	} else {
		err = h.Store.Ping(ctx)
	}
	resp := HealthResponse{
		Status:    "ok",
		Store:     "connected",
		Services:  h.Services,
		Timestamp: time.Now().UTC(),
	}
	status := fiber.StatusOK
	if err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
