package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/anonto42/mini-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// ImageStore keeps uploaded post images.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(ref string) error
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	images         ImageStore
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, images ImageStore) *PostHandler {
	return &PostHandler{postRepository: postRepo, images: images}
}

// RegisterPostRoutes registers post-related routes. Reads accept anonymous
// callers; writes require a token.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireAuth, optionalAuth echo.MiddlewareFunc) {
	g.GET("/posts", h.GetPosts, optionalAuth)
	g.GET("/posts/user/:userId", h.GetUserPosts, optionalAuth)
	g.GET("/posts/:id", h.GetPost, optionalAuth)
	g.POST("/posts", h.CreatePost, requireAuth)
	g.DELETE("/posts/:id", h.DeletePost, requireAuth)
}

// CreatePost creates a post from a JSON body or a multipart form with an
// optional "image" file. A stored upload is removed again if the post is
// not created.
func (h *PostHandler) CreatePost(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	imageURL := req.ImageURL
	uploaded := ""
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		switch {
		case err == nil:
			ref, err := h.images.Save(fh)
			if err != nil {
				return err
			}
			imageURL, uploaded = ref, ref
		case !errors.Is(err, http.ErrMissingFile):
			return invalidPayload()
		}
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.CreatePost(ctx, user.UserID, user.Username, req.Text, imageURL)
	if err != nil {
		if uploaded != "" {
			if rerr := h.images.Remove(uploaded); rerr != nil {
				logger.Log(ctx).Warnw("removing orphaned upload", "ref", uploaded, "error", rerr)
			}
		}
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Post created successfully",
		"post":    post,
	})
}

// GetPost retrieves a post by ID. Signed-in callers also get whether they
// have liked it.
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	body := echo.Map{"success": true, "post": post}
	if user, ok := middleware.CurrentUser(c); ok {
		body["liked"] = post.LikedBy(user.UserID)
	}
	return c.JSON(http.StatusOK, body)
}

// GetPosts returns one page of the global feed, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	page := models.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
	list, err := h.postRepository.ListPosts(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listBody(c, list))
}

// GetUserPosts returns one page of a single user's posts, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	page := models.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
	list, err := h.postRepository.ListPostsByUser(c.Request().Context(), c.Param("userId"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listBody(c, list))
}

// DeletePost deletes the caller's own post. Image removal is best effort
// and never fails the request.
func (h *PostHandler) DeletePost(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	ctx := c.Request().Context()
	deleted, err := h.postRepository.DeletePost(ctx, c.Param("id"), user.UserID)
	if err != nil {
		return err
	}
	if deleted.ImageURL != "" {
		if err := h.images.Remove(deleted.ImageURL); err != nil {
			logger.Log(ctx).Warnw("removing image of deleted post", "post_id", deleted.ID, "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Post deleted successfully"})
}

// listBody renders a page of posts. Signed-in callers also get the IDs of
// the posts on this page they have liked.
func listBody(c echo.Context, list *models.PostList) echo.Map {
	body := echo.Map{
		"success":     true,
		"count":       len(list.Posts),
		"total":       list.Total,
		"totalPages":  list.TotalPages(),
		"currentPage": list.Page.Number,
		"posts":       list.Posts,
	}
	if user, ok := middleware.CurrentUser(c); ok {
		liked := []string{}
		for i := range list.Posts {
			if list.Posts[i].LikedBy(user.UserID) {
				liked = append(liked, list.Posts[i].ID)
			}
		}
		body["likedPostIds"] = liked
	}
	return body
}
