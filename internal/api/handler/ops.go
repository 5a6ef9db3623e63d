// Package handler provides HTTP handlers for the PandalPath API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/api/response"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/provider/resilience"
)

// Pinger verifies connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandlerConfig holds dependencies for the ops endpoints.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// Database is pinged by the readiness check. Optional.
	Database Pinger

	// Registry reports upstream provider health. Optional.
	Registry *resilience.Registry

	// Flags reports active kill switches. Optional.
	Flags *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	database  Pinger
	registry  *resilience.Registry
	flags     *featureflags.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		database:  cfg.Database,
		registry:  cfg.Registry,
		flags:     cfg.Flags,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.database != nil {
		if err := h.database.Ping(r.Context()); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.database != nil {
		sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.database.Ping(r.Context()); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			status.Status = models.HealthStatusFail
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider: health.Name,
				Status:   providerHealthStatus(health),
			}
			if health.LastSuccessAt != nil {
				ts := models.Timestamp(*health.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if health.LastFailureAt != nil {
				ts := models.Timestamp(*health.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if health.LastError != "" {
				msg := health.LastError
				ps.Message = &msg
			}
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.flags != nil {
		for _, key := range []string{
			featureflags.FlagDisableRoutePlanning,
			featureflags.FlagReadOnlyDirectory,
			featureflags.FlagDisableProgressWrites,
		} {
			if h.flags.IsEnabled(r.Context(), key) {
				status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, key)
			}
		}
		if len(status.ActiveDegradationFlags) > 0 && status.Status == models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerHealthStatus(h *resilience.ProviderHealth) models.HealthStatus {
	switch h.CircuitState {
	case gobreaker.StateOpen:
		return models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
