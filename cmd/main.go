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

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/Dosada05/prediction-league/config"
	"github.com/Dosada05/prediction-league/db"
	"github.com/Dosada05/prediction-league/handlers"
	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/repositories"
	api "github.com/Dosada05/prediction-league/routes"
	"github.com/Dosada05/prediction-league/services"
	"github.com/Dosada05/prediction-league/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second // How often the scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})) // Default to Info level

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

	// Инициализация загрузчика файлов (Cloudflare R2). Без R2-переменных
	// сервер работает, но загрузка эмблем отклоняется.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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
	} else {
		logger.Warn("R2_ACCOUNT_ID is not set, crest uploads are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	predictionRepo := repositories.NewPostgresPredictionRepository(dbConn)
	thirdPlaceRepo := repositories.NewPostgresThirdPlacePickRepository(dbConn)
	squadRepo := repositories.NewPostgresSquadRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	leaderboardRepo := repositories.NewPostgresLeaderboardRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(dbConn, userRepo, predictionRepo, thirdPlaceRepo)
	teamService := services.NewTeamService(teamRepo, uploader, logger)

	scoringService := services.NewScoringService(
		dbConn,
		teamRepo,
		matchRepo,
		predictionRepo,
		thirdPlaceRepo,
		userRepo,
		logger,
	)
	matchService := services.NewMatchService(
		dbConn, // For its own transactions if needed
		matchRepo,
		teamRepo,
		scoringService,
		wsHub,
		uploader,
		logger,
	)
	predictionService := services.NewPredictionService(
		predictionRepo,
		matchRepo,
		teamRepo,
		thirdPlaceRepo,
	)
	thirdPlaceService := services.NewThirdPlaceService(
		thirdPlaceRepo,
		predictionRepo,
		teamRepo,
		matchRepo,
		scoringService,
		logger,
	)
	bracketService := services.NewBracketService(
		teamRepo,
		matchRepo,
		predictionRepo,
		thirdPlaceRepo,
		uploader,
	)
	leaderboardService := services.NewLeaderboardService(leaderboardRepo)
	squadService := services.NewSquadService(squadRepo, inviteRepo)
	setupService := services.NewSetupService(
		dbConn,
		teamRepo,
		matchRepo,
		predictionRepo,
		matchService,
		logger,
	)
	dashboardService := services.NewDashboardService(
		userRepo,
		matchRepo,
		predictionRepo,
		leaderboardService,
	)
	logger.Info("Services initialized")

	// Запуск планировщика: перевод матчей в in_progress по времени начала
	// и удаление истёкших инвайтов.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Match status scheduler started", slog.Duration("interval", schedulerInterval))

		runOnce := func() {
			started, err := matchService.MarkDueInProgress(context.Background())
			if err != nil {
				logger.Error("Scheduler: failed to mark due matches", slog.Any("error", err))
			} else if started > 0 {
				logger.Info("Scheduler: matches moved to in_progress", slog.Int64("count", started))
			}
			removed, err := squadService.CleanupExpiredInvites(context.Background())
			if err != nil {
				logger.Error("Scheduler: failed to clean up invites", slog.Any("error", err))
			} else if removed > 0 {
				logger.Info("Scheduler: expired invites removed", slog.Int64("count", removed))
			}
		}

		// Run once immediately at startup, then on ticker
		runOnce()
		for range ticker.C {
			runOnce()
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	matchHandler := handlers.NewMatchHandler(matchService)
	predictionHandler := handlers.NewPredictionHandler(predictionService)
	thirdPlaceHandler := handlers.NewThirdPlaceHandler(thirdPlaceService)
	bracketHandler := handlers.NewBracketHandler(bracketService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	squadHandler := handlers.NewSquadHandler(squadService, cfg.PublicURL)
	setupHandler := handlers.NewSetupHandler(setupService, scoringService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		auth,
		cfg.CORSAllowedOrigins,
		authHandler,
		userHandler,
		teamHandler,
		matchHandler,
		predictionHandler,
		thirdPlaceHandler,
		bracketHandler,
		leaderboardHandler,
		squadHandler,
		setupHandler,
		dashboardHandler,
		webSocketHandler,
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
		// Create a context with timeout for shutdown.
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			// If shutdown fails, force close.
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
