package route

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/geo"
	"github.com/pandalpath/pandalpath/pkg/polyline"
)

// Service errors.
var (
	ErrNoPandalsInArea = errors.New("no pandals found for route planning")
	ErrInvalidStart    = errors.New("start point is out of range")
)

// PlaceSource supplies planner inputs from the pandal directory.
type PlaceSource interface {
	Places(ctx context.Context, area string) ([]geo.Place, error)
}

// ServiceConfig holds configuration for the route service.
type ServiceConfig struct {
	// Repository serves the curated route definitions.
	Repository Repository

	// Places supplies directory entries for ad-hoc planning.
	Places PlaceSource

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service provides curated route lookup and ad-hoc itinerary planning.
type Service struct {
	repo   Repository
	places PlaceSource
	logger zerolog.Logger
}

// NewService creates a new route service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		places: cfg.Places,
		logger: cfg.Logger,
	}
}

// List retrieves all curated routes.
func (s *Service) List(ctx context.Context) (*models.RouteList, error) {
	defs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.Route, 0, len(defs))
	for _, def := range defs {
		items = append(items, toAPIRoute(def))
	}
	return &models.RouteList{Items: items}, nil
}

// Get retrieves a curated route with its walking segments decoded.
func (s *Service) Get(ctx context.Context, id string) (*models.RouteDetail, error) {
	def, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.RouteDetail{Route: toAPIRoute(def)}

	var totalMeters float64
	for _, encoded := range def.Segments {
		coords := polyline.Decode(encoded)
		points := make([]models.Point, 0, len(coords))
		for _, c := range coords {
			points = append(points, models.Point{Lat: c.Lat, Lon: c.Lon})
		}
		meters := polyline.Length(coords)
		totalMeters += meters
		detail.Segments = append(detail.Segments, models.RouteSegment{
			Points:       points,
			LengthMeters: int(math.Round(meters)),
		})
	}
	detail.TotalDistanceKm = math.Round(totalMeters/10) / 100

	return detail, nil
}

// Plan computes an ad-hoc itinerary from the given start point across the
// directory's pandals, optionally restricted to one area. Entries without
// coordinates are filtered before they reach the planner.
func (s *Service) Plan(ctx context.Context, start geo.Coordinate, area string) (*models.PlannedRoute, error) {
	if start.Lat < -90 || start.Lat > 90 || start.Lon < -180 || start.Lon > 180 {
		return nil, ErrInvalidStart
	}

	places, err := s.places.Places(ctx, area)
	if err != nil {
		return nil, err
	}

	valid := places[:0]
	for _, p := range places {
		if math.IsNaN(p.Coord.Lat) || math.IsNaN(p.Coord.Lon) {
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return nil, ErrNoPandalsInArea
	}

	stops := geo.BuildOrderedRoute(start, valid)
	summary := geo.Summarize(stops)

	planned := &models.PlannedRoute{
		Stops:               make([]models.PlannedStop, 0, len(stops)),
		TotalDistanceKm:     summary.TotalDistanceKm,
		TotalWalkingMinutes: summary.TotalWalkingMinutes,
		TotalVisitMinutes:   summary.TotalVisitMinutes,
		FormattedDuration:   summary.FormattedDuration,
	}
	for _, stop := range stops {
		planned.Stops = append(planned.Stops, models.PlannedStop{
			PandalID:                   stop.ID,
			Name:                       stop.Name,
			Address:                    stop.Address,
			Point:                      models.Point{Lat: stop.Coord.Lat, Lon: stop.Coord.Lon},
			Sequence:                   stop.Sequence,
			DistanceFromPreviousMeters: stop.DistanceFromPreviousMeters,
			WalkingMinutesFromPrevious: stop.WalkingMinutesFromPrevious,
			Priority:                   string(stop.Priority),
			EstimatedVisitMinutes:      stop.EstimatedVisitMinutes,
			BestVisitTime:              string(stop.BestVisitTime),
			Highlights:                 stop.Highlights,
			Tip:                        stop.Tip,
		})
	}

	return planned, nil
}

func toAPIRoute(def *Definition) models.Route {
	return models.Route{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Area:        def.Area,
		Start: models.RouteStartPoint{
			Name:  def.Start.Name,
			Point: models.Point{Lat: def.Start.Coord.Lat, Lon: def.Start.Coord.Lon},
		},
		PandalSequence:  def.PandalSequence,
		DurationMinutes: def.DurationMinutes,
		Difficulty:      def.Difficulty,
	}
}
