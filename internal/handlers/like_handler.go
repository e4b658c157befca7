package handlers

import (
	"net/http"

	"github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	postRepository repositories.PostRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(postRepo repositories.PostRepository) *LikeHandler {
	return &LikeHandler{postRepository: postRepo}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.PUT("/posts/:id/like", h.ToggleLike, requireAuth)
	g.POST("/posts/:id/likes", h.LikePost, requireAuth)
	g.DELETE("/posts/:id/likes", h.UnlikePost, requireAuth)
	g.GET("/posts/:id/likes/status", h.GetLikeStatus, requireAuth)
}

// ToggleLike flips the caller's like on a post
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	post, err := h.postRepository.ToggleLike(c.Request().Context(), c.Param("id"), user.UserID)
	if err != nil {
		return err
	}
	return likeResponse(c, post, post.LikedBy(user.UserID))
}

// LikePost likes a post; liking twice is a no-op
func (h *LikeHandler) LikePost(c echo.Context) error {
	return h.setLike(c, true)
}

// UnlikePost removes the caller's like; unliking twice is a no-op
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	return h.setLike(c, false)
}

// GetLikeStatus reports whether the caller has liked a post
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"liked":     post.LikedBy(user.UserID),
		"likeCount": len(post.Likes),
	})
}

func (h *LikeHandler) setLike(c echo.Context, liked bool) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	post, err := h.postRepository.SetLike(c.Request().Context(), c.Param("id"), user.UserID, liked)
	if err != nil {
		return err
	}
	return likeResponse(c, post, liked)
}

func likeResponse(c echo.Context, post *models.Post, liked bool) error {
	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": message, "post": post})
}
