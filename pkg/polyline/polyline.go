// Package polyline implements Google's encoded polyline algorithm, used for
// the walking segments of curated hopping routes.
// Format reference: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"
)

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Decode decodes a polyline-encoded string into a slice of coordinates.
// Precision is 5 decimal places, the standard Google format.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var coords []Coordinate
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		lat += latDelta

		lonDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		lon += lonDelta

		coords = append(coords, Coordinate{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return coords
}

// decodeValue decodes a single value from the polyline at the given index.
// Returns the decoded delta value and the new index position.
func decodeValue(encoded string, index int) (int, int) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	// Apply two's complement for negative values
	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}

// Encode encodes a slice of coordinates into a polyline-encoded string.
// Precision is 5 decimal places, the standard Google format.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(coords)*4)
	prevLat := 0
	prevLon := 0

	for _, coord := range coords {
		lat := int(math.Round(coord.Lat * 1e5))
		lon := int(math.Round(coord.Lon * 1e5))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

// encodeValue encodes a single integer value using the polyline algorithm.
func encodeValue(buf []byte, value int) []byte {
	// Invert if negative
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	// Encode in 5-bit chunks
	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	buf = append(buf, byte(value)+63)

	return buf
}

// Length calculates the total length of a polyline in meters.
func Length(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += haversineDistance(coords[i-1], coords[i])
	}
	return total
}

const earthRadiusMeters = 6371000

func haversineDistance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
