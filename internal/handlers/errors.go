package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders every error in the {success:false, message}
// envelope. Internal errors are logged; their text is returned to the
// client only when exposeInternal is set.
func HTTPErrorHandler(exposeInternal bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorBody(err)
		if status >= http.StatusInternalServerError {
			logger.Log(c.Request().Context()).Errorw("request failed", "error", err)
			if exposeInternal {
				body["error"] = err.Error()
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Log(c.Request().Context()).Warnw("writing error response", "error", werr)
		}
	}
}

func errorBody(err error) (int, echo.Map) {
	fail := func(status int, message string) (int, echo.Map) {
		return status, echo.Map{"success": false, "message": message}
	}

	var ve *models.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		status, body := fail(http.StatusBadRequest, ve.Message)
		if len(ve.Fields) > 0 {
			body["errors"] = ve.Fields
		}
		return status, body
	case errors.Is(err, models.ErrNotFound):
		return fail(http.StatusNotFound, "Post not found")
	case errors.Is(err, models.ErrForbidden):
		return fail(http.StatusForbidden, "Not authorized to delete this post")
	case errors.Is(err, models.ErrUserExists):
		return fail(http.StatusBadRequest, "User with this email or username already exists")
	case errors.Is(err, models.ErrUserNotFound):
		return fail(http.StatusNotFound, "User not found")
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return fail(he.Code, msg)
		}
		return fail(he.Code, http.StatusText(he.Code))
	}
	return fail(http.StatusInternalServerError, "Server error")
}

// NotFound answers requests that match no route.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "API endpoint not found"})
}

func invalidPayload() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
}
