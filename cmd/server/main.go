package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/mini-social/backend/internal/auth"
	"github.com/anonto42/mini-social/backend/internal/handlers"
	"github.com/anonto42/mini-social/backend/internal/router"
	"github.com/anonto42/mini-social/backend/internal/uploads"
	"github.com/anonto42/mini-social/backend/internal/validators"
	"github.com/anonto42/mini-social/backend/pkg/config"
	"github.com/anonto42/mini-social/backend/pkg/firebase"
	"github.com/anonto42/mini-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()
	log := logger.Run(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mongo being unreachable drops the process into demo mode
	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		if cfg.StoreDriver != config.DriverMongo {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		log.Warnf("MongoDB unavailable, continuing in demo mode: %v", err)
		db = &config.DB{}
	}
	defer db.CloseDB()

	repos, err := router.NewRepositories(ctx, db, cfg.MongoDB, cfg.SeedDemo, log)
	if err != nil {
		log.Fatalf("Failed to prepare repositories: %v", err)
	}

	images, err := uploads.NewStore(cfg.UploadDir, cfg.MaxFileSize, cfg.AllowedFileTypes)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	var verifier firebase.Verifier
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Warnf("Firebase sign-in disabled: %v", err)
		} else {
			verifier = app.AuthClient
			log.Info("Firebase app and auth client initialized")
		}
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(cfg.IsDevelopment())

	config.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, router.Dependencies{
		Repos:     repos,
		Tokens:    tokens,
		Issuer:    tokens,
		Images:    images,
		Firebase:  verifier,
		UploadDir: cfg.UploadDir,
		Env:       cfg.Env,
	})

	go func() {
		log.Infow("Server starting", "port", cfg.Port, "mode", repos.Mode, "environment", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
