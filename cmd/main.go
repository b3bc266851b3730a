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

	_ "github.com/lib/pq"

	"github.com/offsideleague/league-engine/brackets"
	"github.com/offsideleague/league-engine/cache"
	"github.com/offsideleague/league-engine/config"
	"github.com/offsideleague/league-engine/db"
	"github.com/offsideleague/league-engine/handlers"
	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
	api "github.com/offsideleague/league-engine/routes"
	"github.com/offsideleague/league-engine/services"
	"github.com/offsideleague/league-engine/storage"
)

const lookupCacheTTL = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

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

	if err := db.Migrate(dbConn, cfg.MigrationsDir); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied", slog.String("dir", cfg.MigrationsDir))

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
		logger.Info("crest uploads disabled, no R2 configuration")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	disputeRepo := repositories.NewPostgresDisputeRepository(dbConn)
	logger.Info("repositories initialized")

	notifier := services.NewHubNotifier(wsHub)
	lookup := cache.New[*models.Tournament](lookupCacheTTL)

	tournamentService := services.NewTournamentService(tournamentRepo, lookup, uploader)
	participantService := services.NewParticipantService(participantRepo, tournamentRepo)
	groupService := services.NewGroupService(groupRepo, participantRepo, matchRepo, tournamentRepo, notifier)
	bracketService := services.NewBracketService(tournamentRepo, participantRepo, matchRepo, notifier)
	matchService := services.NewMatchService(matchRepo, participantRepo, tournamentRepo, notifier)
	disputeService := services.NewDisputeService(disputeRepo, matchRepo, participantRepo, notifier)
	standingsService := services.NewStandingsService(tournamentRepo, groupRepo, participantRepo, matchRepo)
	advanceService := services.NewAdvanceService(tournamentRepo, participantRepo, groupRepo, matchRepo, notifier)
	logger.Info("services initialized")

	// Deadline sweeper: announces overdue matches so staff can forfeit
	// or reschedule them.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		logger.Info("deadline sweeper started", slog.Duration("interval", cfg.SweepInterval))

		for range ticker.C {
			n, err := matchService.SweepOverdue(context.Background())
			if err != nil {
				logger.Error("deadline sweep failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Info("deadline sweep found overdue matches", slog.Int("count", n))
			}
		}
	}()

	router := api.Init(api.Handlers{
		Tournaments:  handlers.NewTournamentHandler(tournamentService),
		Participants: handlers.NewParticipantHandler(participantService),
		Groups:       handlers.NewGroupHandler(groupService),
		Brackets:     handlers.NewBracketHandler(bracketService, advanceService),
		Matches:      handlers.NewMatchHandler(matchService),
		Disputes:     handlers.NewDisputeHandler(disputeService),
		Standings:    handlers.NewStandingsHandler(standingsService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub),
	}, cfg.JWTSecretKey)
	logger.Info("routes configured")

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
