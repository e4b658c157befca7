package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const userKey = "user"

// TokenParser verifies a bearer token and returns the caller it names.
type TokenParser interface {
	Parse(token string) (*models.Identity, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// verified identity in the echo context.
func JWTAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}
			identity, err := tokens.Parse(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}
			c.Set(userKey, identity)
			return next(c)
		}
	}
}

// OptionalJWTAuth stores the identity when a valid token is present and
// lets anonymous requests through untouched.
func OptionalJWTAuth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenString, err := bearerToken(c); err == nil {
				if identity, err := tokens.Parse(tokenString); err == nil {
					c.Set(userKey, identity)
				}
			}
			return next(c)
		}
	}
}

// CurrentUser returns the identity stored by JWTAuth or OptionalJWTAuth.
func CurrentUser(c echo.Context) (*models.Identity, bool) {
	identity, ok := c.Get(userKey).(*models.Identity)
	return identity, ok && identity != nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}
