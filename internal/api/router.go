// Package api provides the HTTP API for PandalPath.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api/handler"
	"github.com/pandalpath/pandalpath/internal/api/middleware"
	"github.com/pandalpath/pandalpath/internal/auth"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/imagestore"
	"github.com/pandalpath/pandalpath/internal/pandal"
	"github.com/pandalpath/pandalpath/internal/progress"
	"github.com/pandalpath/pandalpath/internal/provider/resilience"
	"github.com/pandalpath/pandalpath/internal/route"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	Database           handler.Pinger
	ProviderRegistry   *resilience.Registry
	AuthService        *auth.Service
	PandalService      *pandal.Service
	RouteService       *route.Service
	RouteTracker       *route.Tracker
	ProgressStore      *progress.Store
	ImageStore         *imagestore.Client
	FeatureFlagService *featureflags.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pandalpath-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Registry:  cfg.ProviderRegistry,
		Flags:     cfg.FeatureFlagService,
	})
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	pandalHandler := handler.NewPandalHandler(cfg.PandalService, cfg.ImageStore, cfg.FeatureFlagService)
	routeHandler := handler.NewRouteHandler(cfg.RouteService, cfg.RouteTracker, cfg.FeatureFlagService)
	progressHandler := handler.NewProgressHandler(cfg.ProgressStore, cfg.PandalService, cfg.RouteService, cfg.FeatureFlagService)
	metadataHandler := handler.NewMetadataHandler(cfg.PandalService)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	deviceMiddleware := middleware.RequireDeviceID()

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min
	// Caller-keyed variants prefer admin or device identity over the IP
	callerRateLimit := middleware.RateLimitByCaller(middleware.StandardRateLimit)
	expensiveCallerLimit := middleware.RateLimitByCaller(middleware.ExpensiveRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Use(middleware.RequireJSON)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all requires authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
			r.Get("/areas", metadataHandler.ListAreas)
		})

		// Pandal directory (public reads)
		r.Route("/pandals", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", pandalHandler.ListPandals)
			r.Get("/nearby", pandalHandler.NearbyPandals)
			r.Get("/{pandalId}", pandalHandler.GetPandal)
		})

		// Curated routes and planning
		r.Route("/routes", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", routeHandler.ListRoutes)
			// Planning is the expensive endpoint
			r.With(expensiveCallerLimit).Post("/plan", routeHandler.PlanRoute)
			r.Route("/{routeId}", func(r chi.Router) {
				r.Get("/", routeHandler.GetRoute)
				// Live status needs a device identity
				r.With(deviceMiddleware).Get("/status", routeHandler.GetRouteStatus)
			})
		})

		// Per-device progress - device-keyed rate limiting
		r.Route("/progress", func(r chi.Router) {
			r.Use(deviceMiddleware)
			r.Use(callerRateLimit) // 100 req/min per device
			r.Use(middleware.RequireJSON)
			r.Get("/", progressHandler.GetProgress)
			r.Post("/visits", progressHandler.MarkVisit)
			r.Delete("/visits/{pandalId}", progressHandler.UnmarkVisit)
			r.Put("/routes/{routeId}", progressHandler.UpdateRouteProgress)
			r.Put("/preferences", progressHandler.UpdatePreferences)
		})

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByCaller(middleware.StandardRateLimit))

			// Directory management
			r.Route("/pandals", func(r chi.Router) {
				r.Post("/", pandalHandler.CreatePandal)
				r.Route("/{pandalId}", func(r chi.Router) {
					r.Patch("/", pandalHandler.UpdatePandal)
					r.Delete("/", pandalHandler.DeletePandal)
					r.With(expensiveRateLimit).Post("/image", pandalHandler.UploadPandalImage)
				})
			})

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
