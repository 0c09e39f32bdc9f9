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

	"github.com/5v5games/booking-system/config"
	"github.com/5v5games/booking-system/db"
	"github.com/5v5games/booking-system/handlers"
	"github.com/5v5games/booking-system/middleware"
	"github.com/5v5games/booking-system/repositories"
	api "github.com/5v5games/booking-system/routes"
	"github.com/5v5games/booking-system/services"
	"github.com/5v5games/booking-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const sweepInterval = 1 * time.Hour // How often stale sessions are cancelled

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
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	fieldRepo := repositories.NewPostgresFieldRepository(dbConn)
	slotRepo := repositories.NewPostgresSlotRepository(dbConn)
	reservationRepo := repositories.NewPostgresReservationRepository(dbConn)
	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)
	matchmakingRepo := repositories.NewPostgresMatchmakingRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	tournamentTeamRepo := repositories.NewPostgresTournamentTeamRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	fieldService := services.NewFieldService(fieldRepo, cloudflareUploader)
	bookingService := services.NewBookingService(dbConn, slotRepo, reservationRepo, matchmakingRepo)
	sessionService := services.NewSessionService(dbConn, sessionRepo, slotRepo, reservationRepo, matchmakingRepo)
	matchmakingService := services.NewMatchmakingService(matchmakingRepo, slotRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, cloudflareUploader)
	teamSignupService := services.NewTeamSignupService(dbConn, tournamentTeamRepo, tournamentRepo)
	analyticsService := services.NewAnalyticsService(userRepo, reservationRepo, matchmakingRepo)
	logger.Info("Services initialized")

	// Запуск уборки зависших сессий набора команды
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		logger.Info("stale session sweeper started", slog.Duration("interval", sweepInterval))

		for range ticker.C {
			cancelled, err := sessionService.CancelStale(context.Background())
			if err != nil {
				logger.Error("sweeper: failed to cancel stale sessions", slog.Any("error", err))
				continue
			}
			if cancelled > 0 {
				logger.Info("sweeper: cancelled stale sessions", slog.Int64("count", cancelled))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService, bookingService)
	fieldHandler := handlers.NewFieldHandler(fieldService, bookingService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	matchmakingHandler := handlers.NewMatchmakingHandler(matchmakingService, bookingService, analyticsService)
	teamSignupHandler := handlers.NewTeamSignupHandler(teamSignupService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, teamSignupService)
	adminGuard := middleware.NewAdminGuard(userRepo, cfg.JWTSecretKey)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authHandler,
		userHandler,
		fieldHandler,
		bookingHandler,
		sessionHandler,
		matchmakingHandler,
		teamSignupHandler,
		tournamentHandler,
		adminGuard,
	)
	logger.Info("Routes configured")

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
		} else {
			logger.Info("server stopped gracefully")
		}
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
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
