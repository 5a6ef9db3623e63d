package handler

import (
	"net/http"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/api/response"
	"github.com/pandalpath/pandalpath/internal/geo"
	"github.com/pandalpath/pandalpath/internal/pandal"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	pandalService *pandal.Service
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(pandalService *pandal.Service) *MetadataHandler {
	return &MetadataHandler{pandalService: pandalService}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		CrowdLevels: []string{
			string(geo.CrowdLow),
			string(geo.CrowdMedium),
			string(geo.CrowdHigh),
		},
		Categories: []string{
			string(geo.CategoryTraditional),
			string(geo.CategoryModern),
			string(geo.CategoryThemeBased),
		},
		Priorities: []string{
			string(geo.PriorityMustVisit),
			string(geo.PriorityRecommended),
			string(geo.PriorityOptional),
		},
		VisitTimes: []string{
			string(geo.VisitMorning),
			string(geo.VisitAfternoon),
			string(geo.VisitEvening),
		},
		Difficulties: []string{"easy", "moderate", "hard"},
	}
	response.JSON(w, r, http.StatusOK, enums)
}

// ListAreas handles GET /v1/metadata/areas - neighbourhood areas in the directory.
func (h *MetadataHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.pandalService.Areas(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list areas")
		return
	}
	if areas == nil {
		areas = []string{}
	}
	response.JSON(w, r, http.StatusOK, models.Areas{Items: areas})
}
