// Package main provides the entrypoint for the PandalPath background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/database"
	"github.com/pandalpath/pandalpath/internal/kv"
	"github.com/pandalpath/pandalpath/internal/pandal"
	"github.com/pandalpath/pandalpath/internal/progress"
	"github.com/pandalpath/pandalpath/internal/route"
	"github.com/pandalpath/pandalpath/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pandalpath-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PandalPath worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize progress storage and the expiry sweeper
	storage, err := progressStorage(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize progress storage")
	}
	sweeper := progress.NewSweeper(progress.SweeperConfig{
		Storage: storage,
		Logger:  log,
	})
	sweepJob := worker.NewSweepJob(sweeper, log)

	// Initialize the directory and route services backing the warmup job
	pandalService := pandal.NewService(pandal.ServiceConfig{
		Repository: pandal.NewPostgresRepository(pool),
		Logger:     log,
	})

	warmupCfg := worker.WarmupJobConfig{
		Config: worker.DefaultWarmupConfig(),
		Logger: log,
		Nearby: pandalService,
	}
	routeDir := os.Getenv("ROUTE_DIR")
	if routeDir == "" {
		routeDir = "configs/routes"
	}
	if routeRepo, repoErr := route.NewYAMLRepository(routeDir); repoErr != nil {
		log.Warn().Err(repoErr).Str("dir", routeDir).Msg("curated routes unavailable, skipping route warmup")
	} else {
		warmupCfg.Routes = route.NewService(route.ServiceConfig{
			Repository: routeRepo,
			Places:     pandalService,
			Logger:     log,
		})
	}
	warmupJob := worker.NewWarmupJob(warmupCfg)

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start health check server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Run the interval sweeper in-process. It sweeps once at startup, then
	// daily; queue messages can trigger additional passes in between.
	go sweeper.Run(ctx)

	// Warm caches once at startup so the first queries are fast
	go warmupJob.Run(ctx)

	// Start the Pub/Sub handler when a subscription is configured
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			SweepJob:         sweepJob,
			WarmupJob:        warmupJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("pubsub not configured - running interval jobs only")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// progressStorage selects the key-value backend via KV_BACKEND:
// "postgres" (default), "sqlite", or "memory".
func progressStorage(ctx context.Context, pool *pgxpool.Pool) (kv.Store, error) {
	switch os.Getenv("KV_BACKEND") {
	case "sqlite":
		path := os.Getenv("KV_SQLITE_PATH")
		if path == "" {
			path = "pandalpath.db"
		}
		return kv.NewSQLiteStore(ctx, path)
	case "memory":
		return kv.NewMemoryStore(), nil
	default:
		return kv.NewPostgresStore(pool), nil
	}
}
