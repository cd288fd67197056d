package geo

import (
	"math"
)

const earthRadiusMeters = 6371000

// metersPerDegree is the arc length of one degree of latitude.
const metersPerDegree = earthRadiusMeters * math.Pi / 180.0

// edgeTolerance is the slack, in squared degrees, for treating a point as lying on a polygon edge.
const edgeTolerance = 1e-12

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ShapeKind string

const (
	KindCircle  ShapeKind = "circle"
	KindPolygon ShapeKind = "polygon"
)

type Circle struct {
	Center       Point   `json:"center"`
	RadiusMeters float64 `json:"radius_meters"`
}

type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// Shape is a tagged variant. Kind selects which of Circle or Polygon is populated.
type Shape struct {
	Kind    ShapeKind `json:"kind"`
	Circle  *Circle   `json:"circle,omitempty"`
	Polygon *Polygon  `json:"polygon,omitempty"`
}

func NewCircle(center Point, radiusMeters float64) Shape {
	return Shape{Kind: KindCircle, Circle: &Circle{Center: center, RadiusMeters: radiusMeters}}
}

func NewPolygon(vertices []Point) Shape {
	return Shape{Kind: KindPolygon, Polygon: &Polygon{Vertices: vertices}}
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Contains reports whether p lies inside s. Boundaries count as inside.
func Contains(s Shape, p Point) bool {
	switch s.Kind {
	case KindCircle:
		if s.Circle == nil {
			return false
		}
		return Distance(s.Circle.Center, p) <= s.Circle.RadiusMeters
	case KindPolygon:
		if s.Polygon == nil || len(s.Polygon.Vertices) < 3 {
			return false
		}
		return polygonContains(s.Polygon.Vertices, p)
	default:
		return false
	}
}

// DistanceToBoundary returns how far p is from the edge of s in meters, or 0 when p is inside.
func DistanceToBoundary(s Shape, p Point) float64 {
	switch s.Kind {
	case KindCircle:
		if s.Circle == nil {
			return math.Inf(1)
		}
		return math.Max(0, Distance(s.Circle.Center, p)-s.Circle.RadiusMeters)
	case KindPolygon:
		if s.Polygon == nil || len(s.Polygon.Vertices) == 0 {
			return math.Inf(1)
		}
		if polygonContains(s.Polygon.Vertices, p) {
			return 0
		}
		vertices := s.Polygon.Vertices
		nearest := math.Inf(1)
		for i, j := 0, len(vertices)-1; i < len(vertices); j, i = i, i+1 {
			nearest = math.Min(nearest, segmentDistance(p, vertices[j], vertices[i]))
		}
		return nearest
	default:
		return math.Inf(1)
	}
}

// polygonContains is an even-odd ray cast along increasing longitude.
func polygonContains(vertices []Point, p Point) bool {
	inside := false
	for i, j := 0, len(vertices)-1; i < len(vertices); j, i = i, i+1 {
		a, b := vertices[i], vertices[j]
		if onSegment(p, a, b) {
			return true
		}
		if (a.Latitude > p.Latitude) != (b.Latitude > p.Latitude) {
			crossing := (b.Longitude-a.Longitude)*(p.Latitude-a.Latitude)/(b.Latitude-a.Latitude) + a.Longitude
			if p.Longitude < crossing {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(p, a, b Point) bool {
	cross := (b.Longitude-a.Longitude)*(p.Latitude-a.Latitude) - (b.Latitude-a.Latitude)*(p.Longitude-a.Longitude)
	if math.Abs(cross) > edgeTolerance {
		return false
	}
	return p.Longitude >= math.Min(a.Longitude, b.Longitude)-edgeTolerance &&
		p.Longitude <= math.Max(a.Longitude, b.Longitude)+edgeTolerance &&
		p.Latitude >= math.Min(a.Latitude, b.Latitude)-edgeTolerance &&
		p.Latitude <= math.Max(a.Latitude, b.Latitude)+edgeTolerance
}

// segmentDistance projects a and b onto a local plane centred on p and measures p to segment ab.
func segmentDistance(p, a, b Point) float64 {
	scale := math.Cos(toRadians(p.Latitude))
	ax := (a.Longitude - p.Longitude) * scale * metersPerDegree
	ay := (a.Latitude - p.Latitude) * metersPerDegree
	bx := (b.Longitude - p.Longitude) * scale * metersPerDegree
	by := (b.Latitude - p.Latitude) * metersPerDegree

	dx, dy := bx-ax, by-ay
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(ax, ay)
	}

	t := -(ax*dx + ay*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(ax+t*dx, ay+t*dy)
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
