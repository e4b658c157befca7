package handlers

import (
	"net/http"

	"github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	postRepository repositories.PostRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(postRepo repositories.PostRepository) *CommentHandler {
	return &CommentHandler{postRepository: postRepo}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/posts/:id/comment", h.AddComment, requireAuth)
}

// AddComment appends a comment by the caller to a post
func (h *CommentHandler) AddComment(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, post, err := h.postRepository.AddComment(c.Request().Context(), c.Param("id"), user.Username, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Comment added successfully",
		"comment": comment,
		"post":    post,
	})
}
