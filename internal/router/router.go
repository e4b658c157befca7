package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/mini-social/backend/internal/handlers"
	"github.com/anonto42/mini-social/backend/internal/middleware"
	"github.com/anonto42/mini-social/backend/internal/models"
	"github.com/anonto42/mini-social/backend/internal/repositories"
	"github.com/anonto42/mini-social/backend/internal/uploads"
	"github.com/anonto42/mini-social/backend/pkg/config"
	"github.com/anonto42/mini-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Repositories are the stores selected for this process.
type Repositories struct {
	Posts repositories.PostRepository
	Users repositories.UserRepository
	// Mode is handlers.ModeDatabase or handlers.ModeDemo.
	Mode string
}

// NewRepositories builds the repositories on top of the open connections
// and prepares their schema. With no connection open it returns the
// in-memory stores, seeded with a welcome post when seed is set.
func NewRepositories(ctx context.Context, db *config.DB, mongoDB string, seed bool, log *zap.SugaredLogger) (*Repositories, error) {
	switch {
	case db.Postgres != nil:
		posts := repositories.NewPostgresPostRepository(db.Postgres)
		users := repositories.NewPostgresUserRepository(db.Postgres)
		if err := users.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate users: %w", err)
		}
		if err := posts.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate posts: %w", err)
		}
		log.Info("PostgreSQL auto-migrations completed")
		return &Repositories{Posts: posts, Users: users, Mode: handlers.ModeDatabase}, nil

	case db.Mongo != nil:
		database := db.Mongo.Database(mongoDB)
		posts := repositories.NewMongoPostRepository(database)
		users := repositories.NewMongoUserRepository(database)
		if err := posts.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return &Repositories{Posts: posts, Users: users, Mode: handlers.ModeDatabase}, nil
	}

	posts := repositories.NewMemoryPostRepository()
	if seed {
		seedDemo(posts)
	}
	log.Warn("Running in demo mode, data is kept in memory only")
	return &Repositories{Posts: posts, Users: repositories.NewMemoryUserRepository(), Mode: handlers.ModeDemo}, nil
}

func seedDemo(posts *repositories.MemoryPostRepository) {
	now := time.Now().UTC()
	posts.Insert(&models.Post{
		UserID:    "demo",
		Username:  "demo",
		Text:      "Welcome to Social App! 🎉 This is a live demo post.",
		Likes:     []string{"demo"},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Dependencies are everything the HTTP layer needs.
type Dependencies struct {
	Repos     *Repositories
	Tokens    middleware.TokenParser
	Issuer    handlers.TokenIssuer
	Images    handlers.ImageStore
	Firebase  firebase.Verifier
	UploadDir string
	Env       string
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.Repos.Mode, deps.Env)
	e.GET("/", health.Root)
	e.Static(uploads.PublicPrefix, deps.UploadDir)

	requireAuth := middleware.JWTAuth(deps.Tokens)
	optionalAuth := middleware.OptionalJWTAuth(deps.Tokens)

	api := e.Group("/api")
	api.GET("/health", health.HealthCheck)

	authHandler := handlers.NewAuthHandler(deps.Repos.Users, deps.Issuer, deps.Firebase)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), requireAuth)

	handlers.NewUserHandler(deps.Repos.Users).RegisterProfileRoutes(api)
	handlers.NewPostHandler(deps.Repos.Posts, deps.Images).RegisterPostRoutes(api, requireAuth, optionalAuth)
	handlers.NewLikeHandler(deps.Repos.Posts).RegisterLikeRoutes(api, requireAuth)
	handlers.NewCommentHandler(deps.Repos.Posts).RegisterCommentRoutes(api, requireAuth)

	e.RouteNotFound("/*", handlers.NotFound)
}
