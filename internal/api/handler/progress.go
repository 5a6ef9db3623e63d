package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/api/response"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/pandal"
	"github.com/pandalpath/pandalpath/internal/progress"
	"github.com/pandalpath/pandalpath/internal/route"
)

// ProgressHandler handles per-device progress endpoints. The device identity
// comes from the X-Device-Id header via middleware.RequireDeviceID.
type ProgressHandler struct {
	store         *progress.Store
	pandalService *pandal.Service
	routeService  *route.Service
	flags         *featureflags.Service
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(store *progress.Store, pandalService *pandal.Service, routeService *route.Service, flags *featureflags.Service) *ProgressHandler {
	return &ProgressHandler{
		store:         store,
		pandalService: pandalService,
		routeService:  routeService,
		flags:         flags,
	}
}

// GetProgress handles GET /v1/progress - the device's full progress record.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	deviceID := GetDeviceID(r.Context())

	p := h.store.Progress(r.Context(), deviceID)
	response.JSON(w, r, http.StatusOK, toAPIProgress(p))
}

// MarkVisit handles POST /v1/progress/visits - mark a pandal as visited.
func (h *ProgressHandler) MarkVisit(w http.ResponseWriter, r *http.Request) {
	if h.writesDisabled(w, r) {
		return
	}

	deviceID := GetDeviceID(r.Context())

	var req models.VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.PandalID == "" {
		response.BadRequest(w, r, "pandalId is required", []models.FieldError{
			{Field: "pandalId", Message: "pandalId is required", Code: "REQUIRED"},
		})
		return
	}

	// The area feeds the favorite-area stat, so resolve it from the
	// directory rather than trusting the client.
	p, err := h.pandalService.Get(r.Context(), req.PandalID)
	if err != nil {
		if errors.Is(err, pandal.ErrPandalNotFound) {
			response.NotFound(w, r, "pandal not found")
			return
		}
		response.InternalError(w, r, "failed to get pandal")
		return
	}

	if !h.store.MarkVisited(r.Context(), deviceID, req.PandalID, p.Area) {
		response.InternalError(w, r, "failed to record visit")
		return
	}

	updated := h.store.Progress(r.Context(), deviceID)
	response.JSON(w, r, http.StatusOK, models.VisitResponse{
		PandalID: req.PandalID,
		Visited:  true,
		Stats:    toAPIStats(updated.Stats),
	})
}

// UnmarkVisit handles DELETE /v1/progress/visits/{pandalId} - remove a pandal
// from the visited set.
func (h *ProgressHandler) UnmarkVisit(w http.ResponseWriter, r *http.Request) {
	if h.writesDisabled(w, r) {
		return
	}

	deviceID := GetDeviceID(r.Context())
	pandalID := chi.URLParam(r, "pandalId")

	if !h.store.UnmarkVisited(r.Context(), deviceID, pandalID) {
		response.InternalError(w, r, "failed to record unvisit")
		return
	}

	updated := h.store.Progress(r.Context(), deviceID)
	response.JSON(w, r, http.StatusOK, models.VisitResponse{
		PandalID: pandalID,
		Visited:  false,
		Stats:    toAPIStats(updated.Stats),
	})
}

// UpdateRouteProgress handles PUT /v1/progress/routes/{routeId} - replace the
// completed-step set for a route. When every step of the route is complete,
// the route is appended to the device's completion log.
func (h *ProgressHandler) UpdateRouteProgress(w http.ResponseWriter, r *http.Request) {
	if h.writesDisabled(w, r) {
		return
	}

	deviceID := GetDeviceID(r.Context())
	routeID := chi.URLParam(r, "routeId")

	var req models.RouteProgressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.CompletedSteps == nil {
		req.CompletedSteps = []string{}
	}

	def, err := h.routeService.Get(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, route.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to get route")
		return
	}

	if !h.store.UpdateRouteProgress(r.Context(), deviceID, routeID, req.CompletedSteps) {
		response.InternalError(w, r, "failed to record route progress")
		return
	}

	// Completion is detected against the explicit step marks: every pandal
	// in the sequence plus the start and end sentinels.
	if stepsComplete(def.PandalSequence, req.CompletedSteps) {
		if !h.store.MarkRouteCompleted(r.Context(), deviceID, routeID) {
			response.InternalError(w, r, "failed to record route completion")
			return
		}
	}

	rec := h.store.RouteProgress(r.Context(), deviceID, routeID)
	if rec == nil {
		response.InternalError(w, r, "failed to read back route progress")
		return
	}
	response.JSON(w, r, http.StatusOK, toAPIRouteProgress(rec))
}

// UpdatePreferences handles PUT /v1/progress/preferences - store visitor
// settings verbatim.
func (h *ProgressHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if h.writesDisabled(w, r) {
		return
	}

	deviceID := GetDeviceID(r.Context())

	var req models.ProgressPreferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	prefs := progress.Preferences{
		TransportMode:  req.TransportMode,
		PreferredTime:  req.PreferredTime,
		CrowdTolerance: req.CrowdTolerance,
	}
	if !h.store.UpdatePreferences(r.Context(), deviceID, prefs) {
		response.InternalError(w, r, "failed to store preferences")
		return
	}

	response.JSON(w, r, http.StatusOK, req)
}

func (h *ProgressHandler) writesDisabled(w http.ResponseWriter, r *http.Request) bool {
	if h.flags != nil && h.flags.IsProgressWritesDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, "progress writes are temporarily disabled")
		return true
	}
	return false
}

// stepsComplete reports whether marked covers every pandal in the sequence
// plus the start and end sentinels.
func stepsComplete(sequence []string, marked []string) bool {
	set := progress.NewStringSet(marked...)
	if !set.Has(route.StepStart) || !set.Has(route.StepEnd) {
		return false
	}
	for _, id := range sequence {
		if !set.Has(id) {
			return false
		}
	}
	return true
}

func toAPIProgress(p *progress.UserProgress) models.DeviceProgress {
	out := models.DeviceProgress{
		VisitedPandals:  p.VisitedPandals.Values(),
		CompletedRoutes: append([]string{}, p.CompletedRoutes...),
		RouteProgress:   make(map[string]models.RouteProgress, len(p.RouteProgress)),
		Stats:           toAPIStats(p.Stats),
		Preferences: models.ProgressPreferences{
			TransportMode:  p.Preferences.TransportMode,
			PreferredTime:  p.Preferences.PreferredTime,
			CrowdTolerance: p.Preferences.CrowdTolerance,
		},
	}
	for id, rec := range p.RouteProgress {
		out.RouteProgress[id] = toAPIRouteProgress(rec)
	}
	return out
}

func toAPIRouteProgress(rec *progress.RouteRecord) models.RouteProgress {
	return models.RouteProgress{
		CompletedSteps: rec.CompletedSteps.Values(),
		StartedAt:      models.Timestamp(rec.StartedAt),
		LastUpdated:    models.Timestamp(rec.LastUpdated),
	}
}

func toAPIStats(s progress.Stats) models.ProgressStats {
	out := models.ProgressStats{
		TotalPandalsVisited:  s.TotalPandalsVisited,
		TotalRoutesCompleted: s.TotalRoutesCompleted,
		FavoriteArea:         s.FavoriteArea,
		CurrentStreak:        s.CurrentStreak,
		LongestStreak:        s.LongestStreak,
	}
	if s.LastVisitDate != nil {
		ts := models.Timestamp(*s.LastVisitDate)
		out.LastVisitDate = &ts
	}
	return out
}
