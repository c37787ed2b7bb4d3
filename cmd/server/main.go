package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/telecuidado/backend/internal/analysis"
	"github.com/telecuidado/backend/internal/api"
	"github.com/telecuidado/backend/internal/cache"
	"github.com/telecuidado/backend/internal/config"
	"github.com/telecuidado/backend/internal/followup"
	"github.com/telecuidado/backend/internal/metrics"
	"github.com/telecuidado/backend/internal/storage"
	"github.com/telecuidado/backend/internal/websocket"
	"github.com/telecuidado/backend/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("starting telecuidado backend server")

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create persistent store (DynamoDB or noop depending on DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger.With().Str("component", "storage").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Create snapshot cache
	snapshots := cache.NewSnapshotCache()

	// Create analysis service
	thresholds := followup.Thresholds{AlDia: cfg.FollowUpAlDiaDays, Pendiente: cfg.FollowUpPendDays}
	analysisService := analysis.NewService(
		snapshots,
		hub,
		store,
		thresholds,
		cfg.RefreshInterval,
		log.Logger.With().Str("component", "analysis").Logger(),
	)
	go analysisService.Start(ctx)

	// Create handlers
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)
	importHandler := api.NewImportHandler(snapshots, store, analysisService, cfg.MaxUploadSizeBytes, log.Logger)
	analysisHandler := api.NewAnalysisHandler(snapshots, store, log.Logger)
	adminHandler := api.NewAdminHandler(snapshots, store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())
	r.Get("/ws", wsHandler.ServeHTTP)

	// Internal routes for data loading
	r.Route("/internal", func(r chi.Router) {
		r.Post("/imports/calls", importHandler.HandleImportCalls)
		r.Post("/imports/assignments", importHandler.HandleImportAssignments)
		r.Post("/assignments", importHandler.HandleAssignments)
		r.Post("/admin/reset", adminHandler.HandleReset)
	})

	// Read API
	r.Route("/api", func(r chi.Router) {
		r.Get("/analysis", analysisHandler.HandleGetAnalysis)
		r.Get("/analysis/operators", analysisHandler.HandleGetOperators)
		r.Get("/analysis/global", analysisHandler.HandleGetGlobal)
		r.Get("/followups", analysisHandler.HandleGetFollowUps)
		r.Get("/runs", analysisHandler.HandleGetRuns)
		r.Get("/imports", analysisHandler.HandleGetImports)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the analysis loop
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"telecuidado-backend"}`)
}
