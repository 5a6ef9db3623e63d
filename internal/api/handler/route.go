package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/api/response"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/geo"
	"github.com/pandalpath/pandalpath/internal/route"
)

// RouteHandler handles curated route and itinerary planning endpoints.
type RouteHandler struct {
	routeService *route.Service
	tracker      *route.Tracker
	flags        *featureflags.Service
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeService *route.Service, tracker *route.Tracker, flags *featureflags.Service) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
		tracker:      tracker,
		flags:        flags,
	}
}

// ListRoutes handles GET /v1/routes - list curated routes.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	list, err := h.routeService.List(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list routes")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, list)
}

// GetRoute handles GET /v1/routes/{routeId} - curated route with geometry.
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")

	detail, err := h.routeService.Get(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, route.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to get route")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, detail)
}

// PlanRoute handles POST /v1/routes/plan - compute an ad-hoc itinerary.
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	if h.flags != nil && h.flags.IsRoutePlanningDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, "route planning is temporarily disabled")
		return
	}

	var req models.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	start := geo.Coordinate{Lat: req.Start.Lat, Lon: req.Start.Lon}
	planned, err := h.routeService.Plan(r.Context(), start, req.Area)
	if err != nil {
		if errors.Is(err, route.ErrInvalidStart) {
			response.BadRequest(w, r, "start point is out of range", []models.FieldError{
				{Field: "start", Message: "latitude must be in [-90, 90] and longitude in [-180, 180]", Code: "OUT_OF_RANGE"},
			})
			return
		}
		if errors.Is(err, route.ErrNoPandalsInArea) {
			response.NotFound(w, r, "no pandals found for the requested area")
			return
		}
		response.InternalError(w, r, "route planning failed")
		return
	}

	response.JSON(w, r, http.StatusOK, planned)
}

// GetRouteStatus handles GET /v1/routes/{routeId}/status - the caller's live
// completion state for a curated route.
func (h *RouteHandler) GetRouteStatus(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeId")
	deviceID := GetDeviceID(r.Context())

	status, err := h.tracker.Status(r.Context(), deviceID, routeID)
	if err != nil {
		if errors.Is(err, route.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to get route status")
		return
	}

	response.JSON(w, r, http.StatusOK, status)
}
