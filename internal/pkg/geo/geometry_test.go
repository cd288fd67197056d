package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// north returns the point the given number of meters due north of p.
func north(p Point, meters float64) Point {
	return Point{Latitude: p.Latitude + meters/metersPerDegree, Longitude: p.Longitude}
}

func TestDistance(t *testing.T) {
	jakarta := Point{Latitude: -6.2088, Longitude: 106.8456}
	bandung := Point{Latitude: -6.9175, Longitude: 107.6191}

	assert.Equal(t, 0.0, Distance(jakarta, jakarta))
	assert.InDelta(t, 116000, Distance(jakarta, bandung), 2000)
	assert.InDelta(t, Distance(jakarta, bandung), Distance(bandung, jakarta), 1e-6)

	origin := Point{Latitude: 24.7136, Longitude: 46.6753}
	assert.InDelta(t, 150, Distance(origin, north(origin, 150)), 0.01)
}

func TestContainsCircle(t *testing.T) {
	center := Point{Latitude: 24.7136, Longitude: 46.6753}
	zone := NewCircle(center, 200)

	tests := []struct {
		name   string
		point  Point
		inside bool
	}{
		{"center", center, true},
		{"150m away", north(center, 150), true},
		{"just inside the edge", north(center, 199.9), true},
		{"250m away", north(center, 250), false},
		{"far away", Point{Latitude: 25.0, Longitude: 47.0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inside, Contains(zone, tt.point))
		})
	}
}

func TestContainsPolygon(t *testing.T) {
	square := NewPolygon([]Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 1},
		{Latitude: 1, Longitude: 1},
		{Latitude: 1, Longitude: 0},
	})

	tests := []struct {
		name   string
		point  Point
		inside bool
	}{
		{"strictly inside", Point{Latitude: 0.5, Longitude: 0.5}, true},
		{"strictly outside", Point{Latitude: 1.5, Longitude: 0.5}, false},
		{"left of polygon", Point{Latitude: 0.5, Longitude: -0.1}, false},
		{"on bottom edge", Point{Latitude: 0, Longitude: 0.5}, true},
		{"on right edge", Point{Latitude: 0.5, Longitude: 1}, true},
		{"on vertex", Point{Latitude: 1, Longitude: 1}, true},
		{"on edge extension", Point{Latitude: 0, Longitude: 1.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inside, Contains(square, tt.point))
		})
	}
}

func TestContainsConcavePolygon(t *testing.T) {
	// U shape opening north; the notch between the arms is outside.
	u := NewPolygon([]Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 3},
		{Latitude: 3, Longitude: 3},
		{Latitude: 3, Longitude: 2},
		{Latitude: 1, Longitude: 2},
		{Latitude: 1, Longitude: 1},
		{Latitude: 3, Longitude: 1},
		{Latitude: 3, Longitude: 0},
	})

	assert.True(t, Contains(u, Point{Latitude: 2, Longitude: 0.5}))
	assert.True(t, Contains(u, Point{Latitude: 2, Longitude: 2.5}))
	assert.True(t, Contains(u, Point{Latitude: 0.5, Longitude: 1.5}))
	assert.False(t, Contains(u, Point{Latitude: 2, Longitude: 1.5}))
}

func TestContainsDegenerateShapes(t *testing.T) {
	assert.False(t, Contains(NewPolygon([]Point{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}}), Point{}))
	assert.False(t, Contains(Shape{Kind: KindCircle}, Point{}))
	assert.False(t, Contains(Shape{Kind: "hexagon"}, Point{}))
}

func TestDistanceToBoundary(t *testing.T) {
	center := Point{Latitude: -6.2, Longitude: 106.8}
	circle := NewCircle(center, 100)

	assert.Equal(t, 0.0, DistanceToBoundary(circle, north(center, 50)))
	assert.InDelta(t, 150, DistanceToBoundary(circle, north(center, 250)), 0.01)

	// Roughly a 1km square south-west of the origin.
	side := 1000 / metersPerDegree
	square := NewPolygon([]Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: side},
		{Latitude: side, Longitude: side},
		{Latitude: side, Longitude: 0},
	})

	assert.Equal(t, 0.0, DistanceToBoundary(square, Point{Latitude: side / 2, Longitude: side / 2}))
	assert.InDelta(t, 500, DistanceToBoundary(square, Point{Latitude: side + 500/metersPerDegree, Longitude: side / 2}), 1)

	// Nearest feature is a corner.
	corner := DistanceToBoundary(square, Point{Latitude: -300 / metersPerDegree, Longitude: -400 / metersPerDegree})
	assert.InDelta(t, 500, corner, 1)

	assert.True(t, math.IsInf(DistanceToBoundary(Shape{Kind: KindPolygon}, center), 1))
}
