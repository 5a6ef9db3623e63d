// Package main provides the entrypoint for the PandalPath API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api"
	"github.com/pandalpath/pandalpath/internal/api/middleware"
	"github.com/pandalpath/pandalpath/internal/auth"
	"github.com/pandalpath/pandalpath/internal/database"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/imagestore"
	"github.com/pandalpath/pandalpath/internal/kv"
	"github.com/pandalpath/pandalpath/internal/pandal"
	"github.com/pandalpath/pandalpath/internal/progress"
	"github.com/pandalpath/pandalpath/internal/provider/resilience"
	"github.com/pandalpath/pandalpath/internal/route"
	"github.com/pandalpath/pandalpath/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pandalpath-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting PandalPath API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize auth repositories and service
	authAdminRepo := auth.NewPostgresAdminRepository(pool)
	authRefreshRepo := auth.NewPostgresRefreshTokenRepository(pool)

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		AdminRepo:   authAdminRepo,
		RefreshRepo: authRefreshRepo,
	})
	log.Info().Msg("auth service initialized")

	// Initialize pandal directory
	pandalRepo := pandal.NewPostgresRepository(pool)
	pandalService := pandal.NewService(pandal.ServiceConfig{
		Repository: pandalRepo,
		Logger:     log,
	})
	log.Info().Msg("pandal service initialized")

	// Initialize curated routes from the YAML directory
	routeDir := os.Getenv("ROUTE_DIR")
	if routeDir == "" {
		routeDir = "configs/routes"
	}
	routeRepo, err := route.NewYAMLRepository(routeDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", routeDir).Msg("failed to load curated routes")
	}
	routeService := route.NewService(route.ServiceConfig{
		Repository: routeRepo,
		Places:     pandalService,
		Logger:     log,
	})
	log.Info().Str("dir", routeDir).Msg("route service initialized")

	// Initialize progress storage
	storage, err := progressStorage(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize progress storage")
	}
	progressStore := progress.NewStore(progress.StoreConfig{
		Storage: storage,
		Logger:  log,
	})
	routeTracker := route.NewTracker(route.TrackerConfig{
		Repository: routeRepo,
		Progress:   progressStore,
		Logger:     log,
	})
	log.Info().Str("backend", os.Getenv("KV_BACKEND")).Msg("progress store initialized")

	// Initialize image CDN client (may be nil if not configured)
	providerRegistry := resilience.NewRegistry()
	var imageStore *imagestore.Client
	if apiKey := os.Getenv("IMAGE_CDN_API_KEY"); apiKey != "" {
		imageStore = imagestore.NewClient(imagestore.ClientConfig{
			BaseURL:  os.Getenv("IMAGE_CDN_BASE_URL"),
			APIKey:   apiKey,
			Registry: providerRegistry,
		})
		log.Info().Msg("image CDN client initialized")
	} else {
		log.Warn().Msg("image CDN not configured - image uploads will fail")
	}

	// Initialize feature flags repository and service
	ffRepo := featureflags.NewPostgresRepository(pool)
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Database:           pool,
		ProviderRegistry:   providerRegistry,
		AuthService:        authService,
		PandalService:      pandalService,
		RouteService:       routeService,
		RouteTracker:       routeTracker,
		ProgressStore:      progressStore,
		ImageStore:         imageStore,
		FeatureFlagService: ffService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
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
