package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/api/response"
	"github.com/pandalpath/pandalpath/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFeatureFlags handles GET /v1/admin/flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	list := featureflags.FlagList{Items: make([]featureflags.Flag, 0, len(flags))}
	for _, flag := range flags {
		list.Items = append(list.Items, *flag)
	}
	sort.Slice(list.Items, func(i, j int) bool {
		return list.Items[i].Key < list.Items[j].Key
	})

	response.JSON(w, r, http.StatusOK, list)
}

// UpsertFeatureFlags handles PUT /v1/admin/flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flags []struct {
			Key   string      `json:"key"`
			Value interface{} `json:"value"`
		} `json:"flags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(req.Flags) == 0 {
		response.BadRequest(w, r, "flags is required", []models.FieldError{
			{Field: "flags", Message: "at least one flag is required", Code: "REQUIRED"},
		})
		return
	}

	flags := make([]*featureflags.Flag, 0, len(req.Flags))
	for i, f := range req.Flags {
		if f.Key == "" {
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "flags", Message: "flag key is required", Code: "REQUIRED"},
			})
			return
		}
		flags = append(flags, &featureflags.Flag{Key: f.Key, Value: req.Flags[i].Value})
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	response.NoContent(w, r)
}

// InvalidateCache handles POST /v1/admin/flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
