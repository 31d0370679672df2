package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKmZeroDistance(t *testing.T) {
	d := HaversineKm(55.75, 37.61, 55.75, 37.61)
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestHaversineKmKnownPair(t *testing.T) {
	// Roughly 1 degree of latitude is ~111km.
	d := HaversineKm(55.0, 37.0, 56.0, 37.0)
	assert.InDelta(t, 111.19, d, 1.0)
}

func TestPointInPolygonSquare(t *testing.T) {
	lons := []float64{37.0, 37.1, 37.1, 37.0}
	lats := []float64{55.0, 55.0, 55.1, 55.1}

	assert.True(t, PointInPolygon(55.05, 37.05, lons, lats))
	assert.False(t, PointInPolygon(56.0, 38.0, lons, lats))
}

func TestPointInPolygonDegenerate(t *testing.T) {
	assert.False(t, PointInPolygon(55.0, 37.0, []float64{1, 2}, []float64{1, 2}))
}

func TestBoundingBoxContainsCenter(t *testing.T) {
	latMin, latMax, lonMin, lonMax := BoundingBox(55.75, 37.61, 5.0)
	assert.Less(t, latMin, 55.75)
	assert.Greater(t, latMax, 55.75)
	assert.Less(t, lonMin, 37.61)
	assert.Greater(t, lonMax, 37.61)
}
