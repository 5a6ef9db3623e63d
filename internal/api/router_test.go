package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandalpath/pandalpath/internal/api"
	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/auth"
	"github.com/pandalpath/pandalpath/internal/featureflags"
	"github.com/pandalpath/pandalpath/internal/geo"
	"github.com/pandalpath/pandalpath/internal/kv"
	"github.com/pandalpath/pandalpath/internal/pandal"
	"github.com/pandalpath/pandalpath/internal/progress"
	"github.com/pandalpath/pandalpath/internal/route"
)

const testDeviceID = "device-test-0001"

// testJWTService creates a JWT service for generating test tokens.
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.pandalpath.in",
		Audience:   "pandalpath-api",
	})
}

// testAuthService creates an auth service for testing.
func testAuthService() *auth.Service {
	return auth.NewService(auth.ServiceConfig{
		JWTService:  testJWTService(),
		AdminRepo:   auth.NewInMemoryAdminRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		BcryptCost:  4,
	})
}

// generateTestToken generates a valid test token for an admin.
func generateTestToken(t *testing.T) string {
	t.Helper()
	jwtService := testJWTService()
	admin := &auth.Admin{
		ID:        "adm_testadmin123",
		Email:     "admin@pandalpath.in",
		Name:      "Test Admin",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	token, _, err := jwtService.GenerateAccessToken(admin)
	require.NoError(t, err)
	return token
}

func seedPandals(t *testing.T, repo *pandal.InMemoryRepository) {
	t.Helper()
	now := time.Now()
	entries := []*pandal.Pandal{
		{
			ID:        "pnd_bagbazar0000000000001",
			Name:      "Bagbazar Sarbojanin",
			Address:   "Bagbazar Street, Kolkata",
			Area:      "North Kolkata",
			Coord:     geo.Coordinate{Lat: 22.6045, Lon: 88.3640},
			Rating:    4.8,
			Crowd:     geo.CrowdHigh,
			Category:  geo.CategoryTraditional,
			Features:  []string{"heritage"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "pnd_kumartuli000000000001",
			Name:      "Kumartuli Park",
			Address:   "Kumartuli, Kolkata",
			Area:      "North Kolkata",
			Coord:     geo.Coordinate{Lat: 22.6001, Lon: 88.3611},
			Rating:    4.5,
			Crowd:     geo.CrowdMedium,
			Category:  geo.CategoryThemeBased,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for _, p := range entries {
		require.NoError(t, repo.Create(context.Background(), p))
	}
}

func testRouteDefinition() *route.Definition {
	return &route.Definition{
		ID:          "rt_north_classic",
		Name:        "North Kolkata Classic",
		Description: "The heritage circuit.",
		Area:        "North Kolkata",
		Start: route.StartPoint{
			Name:  "Shyambazar Five Point Crossing",
			Coord: geo.Coordinate{Lat: 22.6011, Lon: 88.3721},
		},
		PandalSequence:  []string{"pnd_bagbazar0000000000001", "pnd_kumartuli000000000001"},
		Segments:        []string{"_p~iF~ps|U_ulLnnqC"},
		DurationMinutes: 180,
		Difficulty:      "moderate",
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)

	pandalRepo := pandal.NewInMemoryRepository()
	seedPandals(t, pandalRepo)
	pandalService := pandal.NewService(pandal.ServiceConfig{
		Repository: pandalRepo,
		Logger:     logger,
	})

	routeRepo := route.NewInMemoryRepository(testRouteDefinition())
	routeService := route.NewService(route.ServiceConfig{
		Repository: routeRepo,
		Places:     pandalService,
		Logger:     logger,
	})

	store := progress.NewStore(progress.StoreConfig{
		Storage: kv.NewMemoryStore(),
		Logger:  logger,
	})
	tracker := route.NewTracker(route.TrackerConfig{
		Repository: routeRepo,
		Progress:   store,
		Logger:     logger,
	})

	flagService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:            "test",
		BuildTime:          "2026-01-01T00:00:00Z",
		Logger:             logger,
		AuthService:        testAuthService(),
		PandalService:      pandalService,
		RouteService:       routeService,
		RouteTracker:       tracker,
		ProgressStore:      store,
		FeatureFlagService: flagService,
	})
}

// addAuthHeader adds a valid Bearer token to the request.
func addAuthHeader(t *testing.T, req *http.Request) {
	t.Helper()
	token := generateTestToken(t)
	req.Header.Set("Authorization", "Bearer "+token)
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_SystemStatus_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ListPandals(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pandals", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var paged models.PagedPandals
	err := json.Unmarshal(w.Body.Bytes(), &paged)
	require.NoError(t, err)

	assert.Len(t, paged.Items, 2)
	assert.NotZero(t, paged.Meta.Limit)
}

func TestRouter_ListPandals_AreaFilter(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pandals?area=South+Kolkata", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var paged models.PagedPandals
	err := json.Unmarshal(w.Body.Bytes(), &paged)
	require.NoError(t, err)

	assert.Empty(t, paged.Items)
}

func TestRouter_GetPandal(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pandals/pnd_bagbazar0000000000001", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var p models.Pandal
	err := json.Unmarshal(w.Body.Bytes(), &p)
	require.NoError(t, err)

	assert.Equal(t, "Bagbazar Sarbojanin", p.Name)
	assert.Equal(t, "North Kolkata", p.Area)
}

func TestRouter_GetPandal_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pandals/pnd_missing", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_NearbyPandals(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pandals/nearby?lat=22.6040&lon=88.3645&radiusKm=3", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var nearby models.NearbyPandals
	err := json.Unmarshal(w.Body.Bytes(), &nearby)
	require.NoError(t, err)

	assert.Len(t, nearby.Items, 2)
	// Sorted nearest first
	assert.Equal(t, "pnd_bagbazar0000000000001", nearby.Items[0].Pandal.ID)
}

func TestRouter_NearbyPandals_MissingCoordinates(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pandals/nearby", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CreatePandal_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.PandalCreateRequest{Name: "New Pandal"})
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/pandals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CreatePandal(t *testing.T) {
	router := newTestRouter(t)

	input := models.PandalCreateRequest{
		Name:       "Ekdalia Evergreen",
		Address:    "Ekdalia Road, Kolkata",
		Area:       "South Kolkata",
		Point:      models.Point{Lat: 22.5172, Lon: 88.3644},
		Rating:     4.6,
		CrowdLevel: "high",
		Category:   "traditional",
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/pandals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var p models.Pandal
	err := json.Unmarshal(w.Body.Bytes(), &p)
	require.NoError(t, err)

	assert.Equal(t, "Ekdalia Evergreen", p.Name)
	assert.NotEmpty(t, p.ID)
}

func TestRouter_CreatePandal_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	// Missing almost everything
	body, _ := json.Marshal(models.PandalCreateRequest{Name: "Half-filled"})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/pandals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_ListRoutes(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var list models.RouteList
	err := json.Unmarshal(w.Body.Bytes(), &list)
	require.NoError(t, err)

	require.Len(t, list.Items, 1)
	assert.Equal(t, "rt_north_classic", list.Items[0].ID)
}

func TestRouter_GetRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/rt_north_classic", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var detail models.RouteDetail
	err := json.Unmarshal(w.Body.Bytes(), &detail)
	require.NoError(t, err)

	assert.Equal(t, "North Kolkata Classic", detail.Name)
	assert.NotEmpty(t, detail.Segments)
	assert.Positive(t, detail.TotalDistanceKm)
}

func TestRouter_PlanRoute(t *testing.T) {
	router := newTestRouter(t)

	input := models.PlanRequest{
		Start: models.Point{Lat: 22.6011, Lon: 88.3721},
		Area:  "North Kolkata",
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes/plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var planned models.PlannedRoute
	err := json.Unmarshal(w.Body.Bytes(), &planned)
	require.NoError(t, err)

	assert.Len(t, planned.Stops, 2)
	assert.NotEmpty(t, planned.FormattedDuration)
}

func TestRouter_PlanRoute_NoPandalsInArea(t *testing.T) {
	router := newTestRouter(t)

	input := models.PlanRequest{
		Start: models.Point{Lat: 22.6011, Lon: 88.3721},
		Area:  "Salt Lake",
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/routes/plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RouteStatus_RequiresDeviceID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/rt_north_classic/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RouteStatus(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/rt_north_classic/status", http.NoBody)
	req.Header.Set("X-Device-Id", testDeviceID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.RouteStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, "rt_north_classic", status.RouteID)
	// Two pandals plus the start and end sentinels
	assert.Equal(t, 4, status.StepsTotal)
	assert.Zero(t, status.StepsCompleted)
	assert.False(t, status.Complete)
}

func TestRouter_GetProgress(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/progress", http.NoBody)
	req.Header.Set("X-Device-Id", testDeviceID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var p models.DeviceProgress
	err := json.Unmarshal(w.Body.Bytes(), &p)
	require.NoError(t, err)

	assert.Empty(t, p.VisitedPandals)
	assert.Zero(t, p.Stats.TotalPandalsVisited)
}

func TestRouter_MarkVisit(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.VisitRequest{PandalID: "pnd_bagbazar0000000000001"})
	req := httptest.NewRequest(http.MethodPost, "/v1/progress/visits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Id", testDeviceID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.VisitResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Visited)
	assert.Equal(t, 1, resp.Stats.TotalPandalsVisited)
	assert.Equal(t, "North Kolkata", resp.Stats.FavoriteArea)
}

func TestRouter_MarkVisit_UnknownPandal(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.VisitRequest{PandalID: "pnd_missing"})
	req := httptest.NewRequest(http.MethodPost, "/v1/progress/visits", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Id", testDeviceID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UpdateRouteProgress_Completion(t *testing.T) {
	router := newTestRouter(t)

	steps := []string{"start", "pnd_bagbazar0000000000001", "pnd_kumartuli000000000001", "end"}
	body, _ := json.Marshal(models.RouteProgressUpdateRequest{CompletedSteps: steps})

	req := httptest.NewRequest(http.MethodPut, "/v1/progress/routes/rt_north_classic", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Id", testDeviceID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var rec models.RouteProgress
	err := json.Unmarshal(w.Body.Bytes(), &rec)
	require.NoError(t, err)
	assert.Len(t, rec.CompletedSteps, 4)

	// The completion log should now contain the route
	progReq := httptest.NewRequest(http.MethodGet, "/v1/progress", http.NoBody)
	progReq.Header.Set("X-Device-Id", testDeviceID)
	progW := httptest.NewRecorder()
	router.ServeHTTP(progW, progReq)

	var p models.DeviceProgress
	require.NoError(t, json.Unmarshal(progW.Body.Bytes(), &p))
	assert.Contains(t, p.CompletedRoutes, "rt_north_classic")
	assert.Equal(t, 1, p.Stats.TotalRoutesCompleted)
}

func TestRouter_UpdatePreferences(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.ProgressPreferences{
		TransportMode:  "metro",
		PreferredTime:  "evening",
		CrowdTolerance: "low",
	})

	req := httptest.NewRequest(http.MethodPut, "/v1/progress/preferences", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Id", testDeviceID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	progReq := httptest.NewRequest(http.MethodGet, "/v1/progress", http.NoBody)
	progReq.Header.Set("X-Device-Id", testDeviceID)
	progW := httptest.NewRecorder()
	router.ServeHTTP(progW, progReq)

	var p models.DeviceProgress
	require.NoError(t, json.Unmarshal(progW.Body.Bytes(), &p))
	assert.Equal(t, "metro", p.Preferences.TransportMode)
	assert.Equal(t, "evening", p.Preferences.PreferredTime)
}

func TestRouter_GetEnums(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/enums", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var enums models.Enums
	err := json.Unmarshal(w.Body.Bytes(), &enums)
	require.NoError(t, err)

	assert.Contains(t, enums.CrowdLevels, "low")
	assert.Contains(t, enums.Categories, "theme-based")
	assert.Contains(t, enums.Priorities, "must_visit")
	assert.Contains(t, enums.VisitTimes, "evening")
}

func TestRouter_ListAreas(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/areas", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var areas models.Areas
	err := json.Unmarshal(w.Body.Bytes(), &areas)
	require.NoError(t, err)

	assert.Equal(t, []string{"North Kolkata"}, areas.Items)
}

func TestRouter_FeatureFlags_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_FeatureFlags_List(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var list featureFlagList
	err := json.Unmarshal(w.Body.Bytes(), &list)
	require.NoError(t, err)

	keys := make([]string, 0, len(list.Items))
	for _, f := range list.Items {
		keys = append(keys, f.Key)
	}
	assert.Contains(t, keys, "disable_route_planning")
	assert.Contains(t, keys, "enable_nearby_search")
}

type featureFlagList struct {
	Items []struct {
		Key   string      `json:"key"`
		Value interface{} `json:"value"`
	} `json:"items"`
}

func TestRouter_RoutePlanningKillSwitch(t *testing.T) {
	router := newTestRouter(t)

	// Flip the kill switch through the admin API
	flagBody, _ := json.Marshal(map[string]interface{}{
		"flags": []map[string]interface{}{
			{"key": "disable_route_planning", "value": true},
		},
	})
	flagReq := httptest.NewRequest(http.MethodPut, "/v1/admin/feature-flags", bytes.NewReader(flagBody))
	flagReq.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, flagReq)
	flagW := httptest.NewRecorder()
	router.ServeHTTP(flagW, flagReq)
	require.Equal(t, http.StatusNoContent, flagW.Code)

	body, _ := json.Marshal(models.PlanRequest{Start: models.Point{Lat: 22.60, Lon: 88.37}})
	req := httptest.NewRequest(http.MethodPost, "/v1/routes/plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
