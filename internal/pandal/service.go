package pandal

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/geo"
)

// Service errors.
var (
	ErrInvalidRadius = errors.New("nearby radius must be positive")
)

// Validation constants.
const (
	MaxNameLength     = 120
	MaxAddressLength  = 200
	MaxAreaLength     = 80
	MaxFeatureCount   = 10
	MaxFeatureLength  = 40
	MaxImageURLLength = 512
	MaxNearbyRadiusKm = 25.0
)

// nearbyCellLevel is the s2 cell level for the proximity index. Level 14
// cells are roughly 300m across, a good fit for walking-range queries over
// a city-sized directory.
const nearbyCellLevel = 14

// Service provides pandal directory operations.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu          sync.RWMutex
	cells       map[s2.CellID][]*Pandal
	cacheExpiry time.Time
}

// ServiceConfig holds configuration for the pandal service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	CacheTTL   time.Duration // How long the proximity index stays valid
}

// NewService creates a new pandal service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Minute
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
	}
}

// List retrieves pandals matching the filters.
func (s *Service) List(ctx context.Context, opts ListOptions) (*models.PagedPandals, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	result, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	items := make([]models.Pandal, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, s.toAPIPandal(p))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedPandals{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      opts.Limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a pandal by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Pandal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := s.toAPIPandal(p)
	return &result, nil
}

// Nearby finds pandals within radiusKm of the given point, nearest first.
// A coarse s2 cell covering narrows the candidates before the exact
// great-circle distance filters and orders them.
func (s *Service) Nearby(ctx context.Context, lat, lon, radiusKm float64) (*models.NearbyPandals, error) {
	if radiusKm <= 0 {
		return nil, ErrInvalidRadius
	}
	if radiusKm > MaxNearbyRadiusKm {
		radiusKm = MaxNearbyRadiusKm
	}

	cells, err := s.cellIndex(ctx)
	if err != nil {
		return nil, err
	}

	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	region := s2.CapFromCenterAngle(center, s1.Angle(radiusKm/geo.EarthRadiusKm))
	coverer := s2.RegionCoverer{
		MinLevel: nearbyCellLevel,
		MaxLevel: nearbyCellLevel,
		MaxCells: 256,
	}

	origin := geo.Coordinate{Lat: lat, Lon: lon}
	var items []models.NearbyPandal
	for _, cell := range coverer.Covering(region) {
		for _, p := range cells[cell] {
			km := geo.Distance(origin, p.Coord)
			if km > radiusKm {
				continue
			}
			items = append(items, models.NearbyPandal{
				Pandal:     s.toAPIPandal(p),
				DistanceKm: roundKm(km),
			})
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].DistanceKm < items[j].DistanceKm })

	return &models.NearbyPandals{Items: items, RadiusKm: radiusKm}, nil
}

// Areas returns the distinct neighbourhood areas in the directory, sorted.
func (s *Service) Areas(ctx context.Context) ([]string, error) {
	pandals, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var areas []string
	for _, p := range pandals {
		if p.Area == "" {
			continue
		}
		if _, ok := seen[p.Area]; ok {
			continue
		}
		seen[p.Area] = struct{}{}
		areas = append(areas, p.Area)
	}
	sort.Strings(areas)
	return areas, nil
}

// Places returns all pandals in the given area (or everywhere when area is
// empty) as geometry engine inputs.
func (s *Service) Places(ctx context.Context, area string) ([]geo.Place, error) {
	pandals, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	var places []geo.Place
	for _, p := range pandals {
		if area != "" && p.Area != area {
			continue
		}
		places = append(places, p.Place())
	}
	return places, nil
}

// Create creates a new pandal.
func (s *Service) Create(ctx context.Context, input *models.PandalCreateRequest) (*models.Pandal, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	p := &Pandal{
		ID:        "pnd_" + uuid.New().String()[:22],
		Name:      input.Name,
		Address:   input.Address,
		Area:      input.Area,
		Coord:     geo.Coordinate{Lat: input.Point.Lat, Lon: input.Point.Lon},
		Rating:    input.Rating,
		Crowd:     geo.CrowdLevel(input.CrowdLevel),
		Category:  geo.Category(input.Category),
		Features:  input.Features,
		ImageURL:  input.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateIndex()

	result := s.toAPIPandal(p)
	return &result, nil
}

// Update updates an existing pandal.
func (s *Service) Update(ctx context.Context, id string, input *models.PandalUpdateRequest) (*models.Pandal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Address != nil {
		p.Address = *input.Address
	}
	if input.Area != nil {
		p.Area = *input.Area
	}
	if input.Point != nil {
		p.Coord = geo.Coordinate{Lat: input.Point.Lat, Lon: input.Point.Lon}
	}
	if input.Rating != nil {
		p.Rating = *input.Rating
	}
	if input.CrowdLevel != nil {
		p.Crowd = geo.CrowdLevel(*input.CrowdLevel)
	}
	if input.Category != nil {
		p.Category = geo.Category(*input.Category)
	}
	if input.Features != nil {
		p.Features = input.Features
	}
	if input.ImageURL != nil {
		p.ImageURL = input.ImageURL
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateIndex()

	result := s.toAPIPandal(p)
	return &result, nil
}

// SetImageURL stores the public URL of an uploaded pandal photo.
func (s *Service) SetImageURL(ctx context.Context, id, url string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	p.ImageURL = &url
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidateIndex()
	return nil
}

// Delete deletes a pandal by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateIndex()
	return nil
}

// cellIndex returns the s2 proximity index, rebuilding it from the
// repository when stale.
func (s *Service) cellIndex(ctx context.Context) (map[s2.CellID][]*Pandal, error) {
	s.mu.RLock()
	if s.cells != nil && time.Now().Before(s.cacheExpiry) {
		cells := s.cells
		s.mu.RUnlock()
		return cells, nil
	}
	s.mu.RUnlock()

	pandals, err := s.repo.All(ctx)
	if err != nil {
		// A stale index beats no index when the repository is down.
		s.mu.RLock()
		cells := s.cells
		s.mu.RUnlock()
		if cells != nil {
			s.logger.Warn().Err(err).Msg("serving stale pandal proximity index")
			return cells, nil
		}
		return nil, err
	}

	cells := make(map[s2.CellID][]*Pandal)
	for _, p := range pandals {
		id := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Coord.Lat, p.Coord.Lon)).Parent(nearbyCellLevel)
		cells[id] = append(cells[id], p)
	}

	s.mu.Lock()
	s.cells = cells
	s.cacheExpiry = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return cells, nil
}

// invalidateIndex drops the proximity index after a directory write.
func (s *Service) invalidateIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = nil
	s.cacheExpiry = time.Time{}
}

// validateCreateInput validates the create pandal input.
func (s *Service) validateCreateInput(input *models.PandalCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
	}

	if input.Address == "" {
		errs = append(errs, models.FieldError{Field: "address", Message: "is required"})
	} else if len(input.Address) > MaxAddressLength {
		errs = append(errs, models.FieldError{Field: "address", Message: "must be at most 200 characters"})
	}

	if input.Area == "" {
		errs = append(errs, models.FieldError{Field: "area", Message: "is required"})
	} else if len(input.Area) > MaxAreaLength {
		errs = append(errs, models.FieldError{Field: "area", Message: "must be at most 80 characters"})
	}

	errs = append(errs, s.validatePoint(&input.Point)...)
	errs = append(errs, s.validateRating(input.Rating)...)
	errs = append(errs, s.validateCrowdLevel(input.CrowdLevel)...)
	errs = append(errs, s.validateCategory(input.Category)...)
	errs = append(errs, s.validateFeatures(input.Features)...)

	if input.ImageURL != nil && len(*input.ImageURL) > MaxImageURLLength {
		errs = append(errs, models.FieldError{Field: "imageUrl", Message: "must be at most 512 characters"})
	}

	return errs
}

// validateUpdateInput validates the update pandal input.
func (s *Service) validateUpdateInput(input *models.PandalUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
		}
	}

	if input.Address != nil {
		if *input.Address == "" {
			errs = append(errs, models.FieldError{Field: "address", Message: "cannot be empty"})
		} else if len(*input.Address) > MaxAddressLength {
			errs = append(errs, models.FieldError{Field: "address", Message: "must be at most 200 characters"})
		}
	}

	if input.Area != nil {
		if *input.Area == "" {
			errs = append(errs, models.FieldError{Field: "area", Message: "cannot be empty"})
		} else if len(*input.Area) > MaxAreaLength {
			errs = append(errs, models.FieldError{Field: "area", Message: "must be at most 80 characters"})
		}
	}

	if input.Point != nil {
		errs = append(errs, s.validatePoint(input.Point)...)
	}
	if input.Rating != nil {
		errs = append(errs, s.validateRating(*input.Rating)...)
	}
	if input.CrowdLevel != nil {
		errs = append(errs, s.validateCrowdLevel(*input.CrowdLevel)...)
	}
	if input.Category != nil {
		errs = append(errs, s.validateCategory(*input.Category)...)
	}
	if input.Features != nil {
		errs = append(errs, s.validateFeatures(input.Features)...)
	}
	if input.ImageURL != nil && len(*input.ImageURL) > MaxImageURLLength {
		errs = append(errs, models.FieldError{Field: "imageUrl", Message: "must be at most 512 characters"})
	}

	return errs
}

func (s *Service) validatePoint(p *models.Point) []models.FieldError {
	var errs []models.FieldError

	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{Field: "point.lat", Message: "must be between -90 and 90"})
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{Field: "point.lon", Message: "must be between -180 and 180"})
	}

	return errs
}

func (s *Service) validateRating(rating float64) []models.FieldError {
	if rating < 0 || rating > 5 {
		return []models.FieldError{{Field: "rating", Message: "must be between 0 and 5"}}
	}
	return nil
}

func (s *Service) validateCrowdLevel(level string) []models.FieldError {
	switch geo.CrowdLevel(level) {
	case geo.CrowdLow, geo.CrowdMedium, geo.CrowdHigh:
		return nil
	}
	return []models.FieldError{{Field: "crowdLevel", Message: "must be one of low, medium, high"}}
}

func (s *Service) validateCategory(category string) []models.FieldError {
	switch geo.Category(category) {
	case geo.CategoryTraditional, geo.CategoryModern, geo.CategoryThemeBased:
		return nil
	}
	return []models.FieldError{{Field: "category", Message: "must be one of traditional, modern, theme-based"}}
}

func (s *Service) validateFeatures(features []string) []models.FieldError {
	if len(features) > MaxFeatureCount {
		return []models.FieldError{{Field: "features", Message: "must contain at most 10 entries"}}
	}
	for _, f := range features {
		if f == "" {
			return []models.FieldError{{Field: "features", Message: "cannot contain empty entries"}}
		}
		if len(f) > MaxFeatureLength {
			return []models.FieldError{{Field: "features", Message: "entries must be at most 40 characters"}}
		}
	}
	return nil
}

// toAPIPandal converts a domain Pandal to an API Pandal.
func (s *Service) toAPIPandal(p *Pandal) models.Pandal {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return models.Pandal{
		ID:         p.ID,
		Name:       p.Name,
		Address:    p.Address,
		Area:       p.Area,
		Point:      models.Point{Lat: p.Coord.Lat, Lon: p.Coord.Lon},
		Rating:     p.Rating,
		CrowdLevel: string(p.Crowd),
		Category:   string(p.Category),
		Features:   features,
		ImageURL:   p.ImageURL,
		CreatedAt:  models.Timestamp(p.CreatedAt),
		UpdatedAt:  models.Timestamp(p.UpdatedAt),
	}
}

func roundKm(km float64) float64 {
	return float64(int(km*100+0.5)) / 100
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
