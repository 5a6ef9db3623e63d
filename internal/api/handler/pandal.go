package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/api/response"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/imagestore"
	"github.com/pandalpath/pandalpath/internal/pandal"
)

// PandalHandler handles pandal directory endpoints.
type PandalHandler struct {
	pandalService *pandal.Service
	images        *imagestore.Client
	flags         *featureflags.Service
}

// NewPandalHandler creates a new PandalHandler.
func NewPandalHandler(pandalService *pandal.Service, images *imagestore.Client, flags *featureflags.Service) *PandalHandler {
	return &PandalHandler{
		pandalService: pandalService,
		images:        images,
		flags:         flags,
	}
}

// ListPandals handles GET /v1/pandals - list pandals with filters and cursor
// pagination.
func (h *PandalHandler) ListPandals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := pandal.ListOptions{
		Area:     q.Get("area"),
		Category: q.Get("category"),
		Crowd:    q.Get("crowdLevel"),
		Cursor:   q.Get("cursor"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "limit must be a positive integer", Code: "INVALID"},
			})
			return
		}
		opts.Limit = limit
	}

	paged, err := h.pandalService.List(r.Context(), opts)
	if err != nil {
		response.InternalError(w, r, "failed to list pandals")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	response.JSON(w, r, http.StatusOK, paged)
}

// GetPandal handles GET /v1/pandals/{pandalId}.
func (h *PandalHandler) GetPandal(w http.ResponseWriter, r *http.Request) {
	pandalID := chi.URLParam(r, "pandalId")

	p, err := h.pandalService.Get(r.Context(), pandalID)
	if err != nil {
		if errors.Is(err, pandal.ErrPandalNotFound) {
			response.NotFound(w, r, "pandal not found")
			return
		}
		response.InternalError(w, r, "failed to get pandal")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	response.JSON(w, r, http.StatusOK, p)
}

// NearbyPandals handles GET /v1/pandals/nearby - proximity search.
func (h *PandalHandler) NearbyPandals(w http.ResponseWriter, r *http.Request) {
	if h.flags != nil && !h.flags.IsNearbySearchEnabled(r.Context()) {
		response.ServiceUnavailable(w, r, "nearby search is temporarily disabled")
		return
	}

	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "lat and lon are required", []models.FieldError{
			{Field: "lat", Message: "lat must be a valid latitude", Code: "REQUIRED"},
			{Field: "lon", Message: "lon must be a valid longitude", Code: "REQUIRED"},
		})
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		response.BadRequest(w, r, "coordinates out of range", []models.FieldError{
			{Field: "lat", Message: "latitude must be in [-90, 90]", Code: "OUT_OF_RANGE"},
			{Field: "lon", Message: "longitude must be in [-180, 180]", Code: "OUT_OF_RANGE"},
		})
		return
	}

	radiusKm := 2.0
	if raw := q.Get("radiusKm"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(w, r, "invalid radiusKm", []models.FieldError{
				{Field: "radiusKm", Message: "radiusKm must be a number", Code: "INVALID"},
			})
			return
		}
		radiusKm = parsed
	}

	nearby, err := h.pandalService.Nearby(r.Context(), lat, lon, radiusKm)
	if err != nil {
		if errors.Is(err, pandal.ErrInvalidRadius) {
			response.BadRequest(w, r, "radiusKm must be positive", []models.FieldError{
				{Field: "radiusKm", Message: "radiusKm must be greater than zero", Code: "OUT_OF_RANGE"},
			})
			return
		}
		response.InternalError(w, r, "nearby search failed")
		return
	}

	response.JSON(w, r, http.StatusOK, nearby)
}

// CreatePandal handles POST /v1/admin/pandals - create a directory entry.
func (h *PandalHandler) CreatePandal(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}

	var req models.PandalCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := h.pandalService.Create(r.Context(), &req)
	if err != nil {
		var verr *pandal.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "validation error", verr.Errors)
			return
		}
		response.InternalError(w, r, "failed to create pandal")
		return
	}

	response.Created(w, r, "/v1/pandals/"+p.ID, p)
}

// UpdatePandal handles PATCH /v1/admin/pandals/{pandalId}.
func (h *PandalHandler) UpdatePandal(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}

	pandalID := chi.URLParam(r, "pandalId")

	var req models.PandalUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := h.pandalService.Update(r.Context(), pandalID, &req)
	if err != nil {
		if errors.Is(err, pandal.ErrPandalNotFound) {
			response.NotFound(w, r, "pandal not found")
			return
		}
		var verr *pandal.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "validation error", verr.Errors)
			return
		}
		response.InternalError(w, r, "failed to update pandal")
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}

// DeletePandal handles DELETE /v1/admin/pandals/{pandalId}.
func (h *PandalHandler) DeletePandal(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}

	pandalID := chi.URLParam(r, "pandalId")

	if err := h.pandalService.Delete(r.Context(), pandalID); err != nil {
		if errors.Is(err, pandal.ErrPandalNotFound) {
			response.NotFound(w, r, "pandal not found")
			return
		}
		response.InternalError(w, r, "failed to delete pandal")
		return
	}

	response.NoContent(w, r)
}

// UploadPandalImage handles POST /v1/admin/pandals/{pandalId}/image - upload a
// photo to the image CDN and attach its URL to the pandal.
func (h *PandalHandler) UploadPandalImage(w http.ResponseWriter, r *http.Request) {
	if h.readOnly(w, r) {
		return
	}
	if h.images == nil {
		response.ServiceUnavailable(w, r, "image uploads are not configured")
		return
	}

	pandalID := chi.URLParam(r, "pandalId")

	// Make sure the pandal exists before paying for the upload.
	if _, err := h.pandalService.Get(r.Context(), pandalID); err != nil {
		if errors.Is(err, pandal.ErrPandalNotFound) {
			response.NotFound(w, r, "pandal not found")
			return
		}
		response.InternalError(w, r, "failed to get pandal")
		return
	}

	contentType := r.Header.Get("Content-Type")
	url, err := h.images.Upload(r.Context(), pandalID, contentType, r.Body)
	if err != nil {
		if errors.Is(err, imagestore.ErrUnsupportedImageType) {
			response.BadRequest(w, r, "unsupported image type", []models.FieldError{
				{Field: "Content-Type", Message: "must be image/jpeg, image/png or image/webp", Code: "INVALID"},
			})
			return
		}
		if errors.Is(err, imagestore.ErrImageTooLarge) {
			response.BadRequest(w, r, "image exceeds the maximum upload size", nil)
			return
		}
		response.ServiceUnavailable(w, r, "image upload failed")
		return
	}

	if err := h.pandalService.SetImageURL(r.Context(), pandalID, url); err != nil {
		response.InternalError(w, r, "failed to attach image")
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]string{"imageUrl": url})
}

func (h *PandalHandler) readOnly(w http.ResponseWriter, r *http.Request) bool {
	if h.flags != nil && h.flags.IsDirectoryReadOnly(r.Context()) {
		response.ServiceUnavailable(w, r, "the directory is temporarily read-only")
		return true
	}
	return false
}
