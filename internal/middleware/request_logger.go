package middleware

import (
	"github.com/anonto42/mini-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// RequestID tags every request with a nanoid in X-Request-Id.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return gonanoid.Must() },
	})
}

// RequestLogger attaches a child of base carrying the request id, method
// and path to the request context, then writes one access line per request.
// It must run after RequestID.
func RequestLogger(base *zap.SugaredLogger) echo.MiddlewareFunc {
	access := echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			l := logger.Log(c.Request().Context())
			if v.Error != nil && v.Status >= 500 {
				l.Errorw("request", "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			l.Infow("request", "status", v.Status, "latency", v.Latency)
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAccess := access(next)
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"path", req.URL.Path,
			)
			c.SetRequest(req.WithContext(logger.WithLogger(req.Context(), l)))
			return withAccess(c)
		}
	}
}
