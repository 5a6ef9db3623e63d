// Package worker provides background job processing for PandalPath.
package worker

import (
	"time"
)

// WarmupTarget represents a geographic region to warm.
type WarmupTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon coordinates to warm.
	// Typically the centers of major pandal clusters.
	Points []Point

	// Priority determines warmup order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// WarmupConfig holds configuration for the cache warmup job.
type WarmupConfig struct {
	// Targets are the geographic regions to warm.
	// If empty, uses DefaultWarmupTargets.
	Targets []WarmupTarget

	// Concurrency is the number of concurrent warmup operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each warmup operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RadiusKm is the proximity query radius per point.
	// Default: 3 km
	RadiusKm float64

	// WarmNearby enables proximity index warmup.
	// Default: true
	WarmNearby bool

	// WarmRoutes enables curated route cache warmup.
	// Default: true
	WarmRoutes bool
}

// DefaultWarmupConfig returns the default warmup configuration.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Targets:     DefaultWarmupTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
		RadiusKm:    3,
		WarmNearby:  true,
		WarmRoutes:  true,
	}
}

// DefaultWarmupTargets returns the default warmup targets for Kolkata.
// Focuses on the dense pandal clusters visitors search from during the
// festival days.
func DefaultWarmupTargets() []WarmupTarget {
	return []WarmupTarget{
		{
			Name:     "North Kolkata",
			Priority: 1,
			Points: []Point{
				{Lat: 22.6045, Lon: 88.3640}, // Bagbazar
				{Lat: 22.6001, Lon: 88.3611}, // Kumartuli
				{Lat: 22.6011, Lon: 88.3721}, // Shyambazar
				{Lat: 22.5921, Lon: 88.3728}, // Hatibagan
			},
		},
		{
			Name:     "South Kolkata",
			Priority: 1,
			Points: []Point{
				{Lat: 22.5172, Lon: 88.3644}, // Gariahat
				{Lat: 22.5269, Lon: 88.3646}, // Ballygunge
				{Lat: 22.4986, Lon: 88.3457}, // Jodhpur Park
				{Lat: 22.5091, Lon: 88.3416}, // New Alipore
			},
		},
		{
			Name:     "Central Kolkata",
			Priority: 1,
			Points: []Point{
				{Lat: 22.5748, Lon: 88.3637}, // College Square
				{Lat: 22.5795, Lon: 88.3565}, // Md Ali Park
				{Lat: 22.5603, Lon: 88.3528}, // Sealdah approach
			},
		},
		{
			Name:     "Behala",
			Priority: 2,
			Points: []Point{
				{Lat: 22.4989, Lon: 88.3103}, // Behala Chowrasta
				{Lat: 22.4841, Lon: 88.3064}, // Barisha
			},
		},
		{
			Name:     "Salt Lake",
			Priority: 2,
			Points: []Point{
				{Lat: 22.5867, Lon: 88.4171}, // FD Block
				{Lat: 22.5780, Lon: 88.4090}, // AE Block
			},
		},
		{
			Name:     "Howrah",
			Priority: 3,
			Points: []Point{
				{Lat: 22.5895, Lon: 88.3103}, // Howrah Maidan
			},
		},
		{
			Name:     "Barrackpore",
			Priority: 3,
			Points: []Point{
				{Lat: 22.7642, Lon: 88.3776}, // Barrackpore
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c WarmupConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to warm.
func (c WarmupConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
