package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
)

// Polygon is a closed region on the sphere built from a CAP area polygon.
type Polygon struct {
	loop *s2.Loop
}

// ParsePolygon parses a CAP polygon value: whitespace-separated "lat,lon"
// vertex pairs. A repeated closing vertex is accepted and dropped; at least
// three distinct vertices must remain.
func ParsePolygon(s string) (Polygon, error) {
	fields := strings.Fields(s)

	points := make([]s2.Point, 0, len(fields))
	for _, field := range fields {
		latStr, lonStr, ok := strings.Cut(field, ",")
		if !ok {
			return Polygon{}, fmt.Errorf("malformed polygon vertex %q", field)
		}
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			return Polygon{}, fmt.Errorf("malformed polygon vertex %q", field)
		}
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)))
	}

	// CAP polygons usually close themselves by repeating the first vertex.
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if len(points) < 3 {
		return Polygon{}, fmt.Errorf("polygon needs at least 3 distinct vertices, got %d", len(points))
	}

	// Provider polygons wind in either direction. A backwards loop claims
	// nearly the whole sphere; inverting recovers the intended region, and
	// leaves a degenerate loop empty rather than all-containing.
	loop := s2.LoopFromPoints(points)
	if loop.Area() > 0.1 {
		loop.Invert()
	}

	return Polygon{loop: loop}, nil
}

// Contains reports whether the coordinate lies inside the polygon.
func (p Polygon) Contains(lat, lon float64) bool {
	if p.loop == nil {
		return false
	}
	return p.loop.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)))
}
