package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubvolley/club-system/config"
	"github.com/clubvolley/club-system/db"
	"github.com/clubvolley/club-system/handlers"
	"github.com/clubvolley/club-system/live"
	"github.com/clubvolley/club-system/repositories"
	api "github.com/clubvolley/club-system/routes"
	"github.com/clubvolley/club-system/services"
	"github.com/clubvolley/club-system/storage"
	_ "github.com/lib/pq"
)

const schedulerInterval = 10 * time.Minute // How often the cleanup scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация хаба табло
	scoreHub := live.NewHub()
	go scoreHub.Run()
	logger.Info("scoreboard hub started")

	// Инициализация репозиториев
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	injuryRepo := repositories.NewPostgresInjuryLogRepository(dbConn)
	codeRepo := repositories.NewPostgresClubCodeRepository(dbConn)
	requestRepo := repositories.NewPostgresAssistantRequestRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	regRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	chatRepo := repositories.NewPostgresChatRepository(dbConn)
	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)
	actionRepo := repositories.NewPostgresActionRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(profileRepo)
	clubService := services.NewClubService(clubRepo, profileRepo, cloudflareUploader)
	teamService := services.NewTeamService(teamRepo, clubRepo, profileRepo)
	playerService := services.NewPlayerService(playerRepo, injuryRepo, teamRepo, profileRepo)
	inviteService := services.NewInviteService(codeRepo, requestRepo, clubRepo, profileRepo)
	eventService := services.NewEventService(eventRepo, regRepo, chatRepo, teamRepo, profileRepo, cloudflareUploader)
	txManager := services.NewSQLTxManager(dbConn, logger)
	statsService := services.NewStatsService(txManager, sessionRepo, actionRepo, teamRepo, profileRepo, scoreHub, logger)
	logger.Info("services initialized")

	// Фоновая уборка: просроченные коды и закрытие регистраций событий
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("cleanup scheduler started", slog.Duration("interval", schedulerInterval))

		runCleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			deleted, err := codeRepo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("scheduler: failed to delete expired club codes", slog.Any("error", err))
			} else if deleted > 0 {
				logger.Info("scheduler: expired club codes deleted", slog.Int64("count", deleted))
			}

			closed, err := eventService.CloseExpiredRegistrations(ctx)
			if err != nil {
				logger.Error("scheduler: failed to close expired registrations", slog.Any("error", err))
			} else if closed > 0 {
				logger.Info("scheduler: event registrations closed", slog.Int64("count", closed))
			}
		}

		runCleanup()
		for range ticker.C {
			runCleanup()
		}
	}()

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Club:      handlers.NewClubHandler(clubService),
		Team:      handlers.NewTeamHandler(teamService),
		Player:    handlers.NewPlayerHandler(playerService),
		Invite:    handlers.NewInviteHandler(inviteService),
		Event:     handlers.NewEventHandler(eventService),
		Stats:     handlers.NewStatsHandler(statsService),
		Functions: handlers.NewFunctionsHandler(statsService),
		WebSocket: handlers.NewWebSocketHandler(scoreHub, logger),
	}
	router := api.SetupRoutes(h, cfg.JWTSecretKey)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
