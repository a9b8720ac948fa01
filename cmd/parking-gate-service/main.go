package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-gate-service/internal/auth"
	"parking-gate-service/internal/client"
	"parking-gate-service/internal/config"
	"parking-gate-service/internal/db"
	httphandler "parking-gate-service/internal/http"
	"parking-gate-service/internal/http/middleware"
	"parking-gate-service/internal/logger"
	"parking-gate-service/internal/repository"
	"parking-gate-service/internal/service"
	"parking-gate-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	sessionRepo := repository.NewSessionRepository(database)
	whitelistRepo := repository.NewWhitelistRepository(database)
	gateEventRepo := repository.NewGateEventRepository(database)

	// R2 is optional, gate decisions work without snapshot storage.
	r2Client, err := storage.NewR2ClientFromEnv()
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		appLogger.Fatal().Err(err).Msg("failed to initialize R2 client")
	}
	if err != nil {
		appLogger.Warn().Msg("R2 storage not configured, snapshot uploads will be disabled")
		r2Client = nil
	}

	var recognizer service.Recognizer
	if cfg.Recognizer.URL != "" {
		recognizer = client.NewRecognizerClient(cfg)
	} else {
		appLogger.Warn().Msg("recognizer not configured, events must carry plate text")
	}

	gateService := service.NewGateService(sessionRepo, whitelistRepo, gateEventRepo, recognizer, cfg.Fee, appLogger)
	whitelistService := service.NewWhitelistService(whitelistRepo, appLogger)

	var imageStore service.ImageStore
	if r2Client != nil {
		imageStore = r2Client
	}
	exportService := service.NewExportService(sessionRepo, imageStore, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(gateService, whitelistService, exportService, cfg, appLogger, r2Client)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, database)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting parking gate service")

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error().Err(err).Msg("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited")
}
