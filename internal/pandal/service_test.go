package pandal_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/pandal"
)

func newService(t *testing.T) (*pandal.Service, *pandal.InMemoryRepository) {
	t.Helper()
	repo := pandal.NewInMemoryRepository()
	service := pandal.NewService(pandal.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return service, repo
}

func validCreateRequest() *models.PandalCreateRequest {
	return &models.PandalCreateRequest{
		Name:       "Bagbazar Sarbojanin",
		Address:    "Bagbazar Street, Kolkata",
		Area:       "north_kolkata",
		Point:      models.Point{Lat: 22.6042, Lon: 88.3662},
		Rating:     4.8,
		CrowdLevel: "high",
		Category:   "traditional",
		Features:   []string{"heritage", "lighting"},
	}
}

func TestService_Create(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	result, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	if result.ID == "" {
		t.Error("expected pandal ID to be set")
	}
	if !strings.HasPrefix(result.ID, "pnd_") {
		t.Errorf("expected pandal ID to start with 'pnd_', got %q", result.ID)
	}
	if result.Name != "Bagbazar Sarbojanin" {
		t.Errorf("expected name to round-trip, got %q", result.Name)
	}
	if result.CrowdLevel != "high" {
		t.Errorf("expected crowd level high, got %q", result.CrowdLevel)
	}
}

func TestService_Create_ValidationErrors(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*models.PandalCreateRequest)
		wantField string
	}{
		{
			name:      "empty name",
			mutate:    func(r *models.PandalCreateRequest) { r.Name = "" },
			wantField: "name",
		},
		{
			name:      "name too long",
			mutate:    func(r *models.PandalCreateRequest) { r.Name = strings.Repeat("a", 121) },
			wantField: "name",
		},
		{
			name:      "empty address",
			mutate:    func(r *models.PandalCreateRequest) { r.Address = "" },
			wantField: "address",
		},
		{
			name:      "empty area",
			mutate:    func(r *models.PandalCreateRequest) { r.Area = "" },
			wantField: "area",
		},
		{
			name:      "invalid latitude",
			mutate:    func(r *models.PandalCreateRequest) { r.Point.Lat = 91.0 },
			wantField: "point.lat",
		},
		{
			name:      "invalid longitude",
			mutate:    func(r *models.PandalCreateRequest) { r.Point.Lon = -181.0 },
			wantField: "point.lon",
		},
		{
			name:      "rating above range",
			mutate:    func(r *models.PandalCreateRequest) { r.Rating = 5.1 },
			wantField: "rating",
		},
		{
			name:      "unknown crowd level",
			mutate:    func(r *models.PandalCreateRequest) { r.CrowdLevel = "packed" },
			wantField: "crowdLevel",
		},
		{
			name:      "unknown category",
			mutate:    func(r *models.PandalCreateRequest) { r.Category = "futuristic" },
			wantField: "category",
		},
		{
			name:      "empty feature entry",
			mutate:    func(r *models.PandalCreateRequest) { r.Features = []string{"lighting", ""} },
			wantField: "features",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateRequest()
			tt.mutate(input)

			_, err := service.Create(ctx, input)

			var verr *pandal.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field error on %q, got %+v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestService_GetNotFound(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Get(context.Background(), "pnd_missing")
	if !errors.Is(err, pandal.ErrPandalNotFound) {
		t.Errorf("expected ErrPandalNotFound, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	newName := "Bagbazar Sarbojanin Durgotsab"
	newCrowd := "medium"
	updated, err := service.Update(ctx, created.ID, &models.PandalUpdateRequest{
		Name:       &newName,
		CrowdLevel: &newCrowd,
	})
	if err != nil {
		t.Fatalf("failed to update pandal: %v", err)
	}

	if updated.Name != newName {
		t.Errorf("expected updated name %q, got %q", newName, updated.Name)
	}
	if updated.CrowdLevel != "medium" {
		t.Errorf("expected updated crowd level medium, got %q", updated.CrowdLevel)
	}
	// Untouched fields survive a partial update.
	if updated.Area != created.Area {
		t.Errorf("expected area to be unchanged, got %q", updated.Area)
	}
}

func TestService_Delete(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("failed to delete pandal: %v", err)
	}

	if _, err := service.Get(ctx, created.ID); !errors.Is(err, pandal.ErrPandalNotFound) {
		t.Errorf("expected ErrPandalNotFound after delete, got %v", err)
	}

	if err := service.Delete(ctx, created.ID); !errors.Is(err, pandal.ErrPandalNotFound) {
		t.Errorf("expected ErrPandalNotFound on double delete, got %v", err)
	}
}

func TestService_ListFilters(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	north := validCreateRequest()
	south := validCreateRequest()
	south.Name = "Ballygunge Cultural"
	south.Area = "south_kolkata"
	south.Category = "modern"

	if _, err := service.Create(ctx, north); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}
	if _, err := service.Create(ctx, south); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	result, err := service.List(ctx, pandal.ListOptions{Area: "south_kolkata"})
	if err != nil {
		t.Fatalf("failed to list pandals: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Name != "Ballygunge Cultural" {
		t.Errorf("expected only the south pandal, got %+v", result.Items)
	}

	result, err = service.List(ctx, pandal.ListOptions{Category: "traditional"})
	if err != nil {
		t.Fatalf("failed to list pandals: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Name != "Bagbazar Sarbojanin" {
		t.Errorf("expected only the traditional pandal, got %+v", result.Items)
	}
}

func TestService_ListPagination(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		input := validCreateRequest()
		input.Name = "Pandal " + string(rune('A'+i))
		if _, err := service.Create(ctx, input); err != nil {
			t.Fatalf("failed to create pandal: %v", err)
		}
	}

	page1, err := service.List(ctx, pandal.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("failed to list pandals: %v", err)
	}
	if len(page1.Items) != 2 {
		t.Fatalf("expected 2 items on first page, got %d", len(page1.Items))
	}
	if page1.Meta.NextCursor == nil {
		t.Fatal("expected a next cursor on the first page")
	}

	page2, err := service.List(ctx, pandal.ListOptions{Limit: 2, Cursor: *page1.Meta.NextCursor})
	if err != nil {
		t.Fatalf("failed to list pandals: %v", err)
	}
	if len(page2.Items) != 1 {
		t.Fatalf("expected 1 item on second page, got %d", len(page2.Items))
	}
	if page2.Meta.NextCursor != nil {
		t.Error("expected no cursor on the final page")
	}
}

func TestService_Nearby(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	near := validCreateRequest()
	near.Name = "Kumartuli Park"
	near.Point = models.Point{Lat: 22.6000, Lon: 88.3600}

	far := validCreateRequest()
	far.Name = "Ballygunge Cultural"
	far.Point = models.Point{Lat: 22.5250, Lon: 88.3650}

	if _, err := service.Create(ctx, near); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}
	if _, err := service.Create(ctx, far); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	// Query from Shyambazar: Kumartuli is ~1km away, Ballygunge ~9km.
	result, err := service.Nearby(ctx, 22.6011, 88.3723, 3.0)
	if err != nil {
		t.Fatalf("nearby search failed: %v", err)
	}

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 pandal within 3km, got %d", len(result.Items))
	}
	if result.Items[0].Pandal.Name != "Kumartuli Park" {
		t.Errorf("expected Kumartuli Park, got %q", result.Items[0].Pandal.Name)
	}
	if result.Items[0].DistanceKm <= 0 || result.Items[0].DistanceKm > 3 {
		t.Errorf("expected distance within (0, 3], got %f", result.Items[0].DistanceKm)
	}
}

func TestService_NearbyOrdering(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	for name, point := range map[string]models.Point{
		"Mid":     {Lat: 22.6100, Lon: 88.3723},
		"Closest": {Lat: 22.6020, Lon: 88.3723},
		"Farther": {Lat: 22.6300, Lon: 88.3723},
	} {
		input := validCreateRequest()
		input.Name = name
		input.Point = point
		if _, err := service.Create(ctx, input); err != nil {
			t.Fatalf("failed to create pandal: %v", err)
		}
	}

	result, err := service.Nearby(ctx, 22.6011, 88.3723, 5.0)
	if err != nil {
		t.Fatalf("nearby search failed: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 pandals, got %d", len(result.Items))
	}

	wantOrder := []string{"Closest", "Mid", "Farther"}
	for i, want := range wantOrder {
		if result.Items[i].Pandal.Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, result.Items[i].Pandal.Name)
		}
	}
}

func TestService_NearbyInvalidRadius(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Nearby(context.Background(), 22.6, 88.37, 0)
	if !errors.Is(err, pandal.ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestService_NearbyIndexRefreshAfterCreate(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	// Prime the index while empty.
	if result, err := service.Nearby(ctx, 22.6011, 88.3723, 3.0); err != nil || len(result.Items) != 0 {
		t.Fatalf("expected empty nearby result, got %v items, err %v", result, err)
	}

	input := validCreateRequest()
	input.Point = models.Point{Lat: 22.6000, Lon: 88.3700}
	if _, err := service.Create(ctx, input); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	result, err := service.Nearby(ctx, 22.6011, 88.3723, 3.0)
	if err != nil {
		t.Fatalf("nearby search failed: %v", err)
	}
	if len(result.Items) != 1 {
		t.Errorf("expected new pandal to appear after index invalidation, got %d items", len(result.Items))
	}
}

func TestService_Places(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	north := validCreateRequest()
	south := validCreateRequest()
	south.Area = "south_kolkata"

	if _, err := service.Create(ctx, north); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}
	if _, err := service.Create(ctx, south); err != nil {
		t.Fatalf("failed to create pandal: %v", err)
	}

	places, err := service.Places(ctx, "north_kolkata")
	if err != nil {
		t.Fatalf("failed to load places: %v", err)
	}
	if len(places) != 1 {
		t.Errorf("expected 1 place in north_kolkata, got %d", len(places))
	}

	all, err := service.Places(ctx, "")
	if err != nil {
		t.Fatalf("failed to load places: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 places without area filter, got %d", len(all))
	}
}
