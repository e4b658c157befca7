package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/mini-social/backend/internal/auth"
	"github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/anonto42/mini-social/backend/internal/uploads"
	"github.com/anonto42/mini-social/backend/internal/validators"
	"github.com/anonto42/mini-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// a 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type testServer struct {
	e      *echo.Echo
	posts  repositories.PostRepository
	users  *repositories.MemoryUserRepository
	tokens *auth.TokenIssuer
	images *uploads.Store
}

func newTestServer(t *testing.T, posts repositories.PostRepository, verifier firebase.Verifier) *testServer {
	t.Helper()
	if posts == nil {
		posts = repositories.NewMemoryPostRepository()
	}
	images, err := uploads.NewStore(t.TempDir(), 1<<20, []string{"image/png", "image/jpeg"})
	require.NoError(t, err)

	s := &testServer{
		e:      echo.New(),
		posts:  posts,
		users:  repositories.NewMemoryUserRepository(),
		tokens: auth.NewTokenIssuer("test-secret", time.Hour),
		images: images,
	}
	s.e.Validator = validators.NewValidator()
	s.e.HTTPErrorHandler = HTTPErrorHandler(false)

	requireAuth := middleware.JWTAuth(s.tokens)
	optionalAuth := middleware.OptionalJWTAuth(s.tokens)
	api := s.e.Group("/api")
	NewAuthHandler(s.users, s.tokens, verifier).RegisterAuthRoutes(api.Group("/auth"), requireAuth)
	NewUserHandler(s.users).RegisterProfileRoutes(api)
	NewPostHandler(s.posts, s.images).RegisterPostRoutes(api, requireAuth, optionalAuth)
	NewLikeHandler(s.posts).RegisterLikeRoutes(api, requireAuth)
	NewCommentHandler(s.posts).RegisterCommentRoutes(api, requireAuth)
	s.e.RouteNotFound("/*", NotFound)
	return s
}

func (s *testServer) token(t *testing.T, userID, username string) string {
	t.Helper()
	tok, err := s.tokens.Issue(&models.User{ID: userID, Username: username})
	require.NoError(t, err)
	return tok
}

type response struct {
	Code int
	Body map[string]interface{}
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	res := response{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

func (s *testServer) json(t *testing.T, method, path, token string, payload interface{}) response {
	t.Helper()
	var body io.Reader
	contentType := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
		contentType = echo.MIMEApplicationJSON
	}
	return s.do(t, method, path, token, body, contentType)
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func field(m map[string]interface{}, path ...string) interface{} {
	var cur interface{} = m
	for _, p := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[p]
	}
	return cur
}

func postID(t *testing.T, res response) string {
	t.Helper()
	id, ok := field(res.Body, "post", "_id").(string)
	require.True(t, ok, "response has no post id: %v", res.Body)
	return id
}

// mockPostRepository lets tests force store failures.
type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) CreatePost(ctx context.Context, ownerID, authorName, text, imageURL string) (*models.Post, error) {
	args := m.Called(ctx, ownerID, authorName, text, imageURL)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepository) ListPosts(ctx context.Context, page models.Page) (*models.PostList, error) {
	args := m.Called(ctx, page)
	list, _ := args.Get(0).(*models.PostList)
	return list, args.Error(1)
}

func (m *mockPostRepository) ListPostsByUser(ctx context.Context, ownerID string, page models.Page) (*models.PostList, error) {
	args := m.Called(ctx, ownerID, page)
	list, _ := args.Get(0).(*models.PostList)
	return list, args.Error(1)
}

func (m *mockPostRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	args := m.Called(ctx, postID, userID)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepository) SetLike(ctx context.Context, postID, userID string, liked bool) (*models.Post, error) {
	args := m.Called(ctx, postID, userID, liked)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepository) AddComment(ctx context.Context, postID, authorName, text string) (*models.Comment, *models.Post, error) {
	args := m.Called(ctx, postID, authorName, text)
	comment, _ := args.Get(0).(*models.Comment)
	post, _ := args.Get(1).(*models.Post)
	return comment, post, args.Error(2)
}

func (m *mockPostRepository) DeletePost(ctx context.Context, postID, requestingUserID string) (*models.Post, error) {
	args := m.Called(ctx, postID, requestingUserID)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }
