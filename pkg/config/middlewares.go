package config

import (
	"fmt"

	appmw "github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// SetupMiddleware installs the global middleware chain. The body limit
// leaves room for the multipart envelope around a maximum-size upload.
func SetupMiddleware(e *echo.Echo, cfg *Config, log *zap.SugaredLogger) {
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: !containsWildcard(cfg.CORSAllowedOrigins),
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", cfg.MaxFileSize/1024+1024)))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
