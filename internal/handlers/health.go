package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Store modes reported by the info endpoints.
const (
	ModeDatabase = "database"
	ModeDemo     = "demo"
)

// HealthHandler reports which store the process is running on.
type HealthHandler struct {
	mode string
	env  string
}

func NewHealthHandler(mode, env string) *HealthHandler {
	return &HealthHandler{mode: mode, env: env}
}

func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Mini social API is running",
		"mode":    h.mode,
		"version": "1.0.0",
	})
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"status":      "healthy",
		"mode":        h.mode,
		"environment": h.env,
		"timestamp":   time.Now().UTC(),
	})
}
