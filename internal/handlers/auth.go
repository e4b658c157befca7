package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/anonto42/mini-social/backend/pkg/firebase"
	"github.com/anonto42/mini-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         TokenIssuer
	firebaseAuth   firebase.Verifier
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in
// which case Firebase sign-in is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, tokens TokenIssuer, firebaseAuth firebase.Verifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		firebaseAuth:   firebaseAuth,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/me", h.Me, requireAuth)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Register creates a local account and signs the user in
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = models.NormalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusCreated, "User registered successfully", user)
}

// Login checks email and password and returns a token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	req.Email = models.NormalizeEmail(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		return invalidCredentials()
	}
	if err != nil {
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return invalidCredentials()
	}
	return h.respondWithToken(c, http.StatusOK, "Login successful", user)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}

// FirebaseLogin verifies a Firebase ID token, links or creates the local
// account and issues a local token
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	profile, err := firebase.VerifyProfile(ctx, h.firebaseAuth, req.IDToken)
	if err != nil {
		logger.Log(ctx).Infow("firebase token rejected", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	user, err := h.linkFirebaseUser(ctx, profile)
	if err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusOK, "Login successful", user)
}

// linkFirebaseUser finds the account by Firebase UID, then by email, and
// creates one when neither matches.
func (h *AuthHandler) linkFirebaseUser(ctx context.Context, profile *firebase.Profile) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, profile.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	if profile.Email != "" {
		user, err = h.userRepository.GetUserByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			user.FirebaseUID = profile.UID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		case !errors.Is(err, models.ErrUserNotFound):
			return nil, err
		}
	}

	base := usernameFrom(profile)
	user = &models.User{Username: base, Email: profile.Email, FirebaseUID: profile.UID}
	if user.Email == "" {
		user.Email = profile.UID + "@firebase.local"
	}
	err = h.userRepository.CreateUser(ctx, user)
	if errors.Is(err, models.ErrUserExists) {
		suffix, gerr := gonanoid.Generate("0123456789", 5)
		if gerr != nil {
			return nil, gerr
		}
		if len(base) > 24 {
			base = base[:24]
		}
		user.Username = base + "_" + suffix
		err = h.userRepository.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

var usernameInvalid = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func usernameFrom(p *firebase.Profile) string {
	name := p.Name
	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}
	name = usernameInvalid.ReplaceAllString(strings.ToLower(name), "_")
	name = strings.Trim(name, "_")
	if len(name) < 3 {
		name = "user_" + name
	}
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, message string, user *models.User) error {
	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	return c.JSON(status, echo.Map{
		"success": true,
		"message": message,
		"token":   token,
		"user":    user,
	})
}

func invalidCredentials() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
}
