package region

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/models"
)

type stubLoader struct {
	regions []models.Region
	byName  map[string]*models.Region
}

func (s *stubLoader) LoadAll(ctx context.Context) ([]models.Region, error) {
	return s.regions, nil
}

func (s *stubLoader) FindByName(ctx context.Context, name string) (*models.Region, error) {
	return s.byName[name], nil
}

func squareRegion(id uint, level int, centerLat, centerLon, halfSide float64) models.Region {
	return models.Region{
		ID:          id,
		Level:       level,
		CentroidLat: centerLat,
		CentroidLon: centerLon,
		RingLons:    []float64{centerLon - halfSide, centerLon + halfSide, centerLon + halfSide, centerLon - halfSide},
		RingLats:    []float64{centerLat - halfSide, centerLat - halfSide, centerLat + halfSide, centerLat + halfSide},
	}
}

func TestResolvePrefersInnermostPolygon(t *testing.T) {
	outer := squareRegion(1, 1, 55.75, 37.6, 0.5)
	inner := squareRegion(2, 2, 55.75, 37.6, 0.1)
	loader := &stubLoader{regions: []models.Region{outer, inner}}
	r := New(loader, nil)
	require.NoError(t, r.Refresh(context.Background()))

	lat, lon := 55.75, 37.6
	result, err := r.Resolve(context.Background(), &lat, &lon, "")
	require.NoError(t, err)
	assert.Equal(t, MethodPolygon, result.Method)
	assert.Equal(t, uint(2), result.Region.ID)
}

func TestResolveFallsBackToNearestCentroidWithinCap(t *testing.T) {
	reg := squareRegion(1, 1, 55.75, 37.6, 0.01)
	loader := &stubLoader{regions: []models.Region{reg}}
	r := New(loader, nil)
	require.NoError(t, r.Refresh(context.Background()))

	lat, lon := 55.76, 37.62
	result, err := r.Resolve(context.Background(), &lat, &lon, "")
	require.NoError(t, err)
	assert.Equal(t, MethodCentroid, result.Method)
	assert.Equal(t, uint(1), result.Region.ID)
}

func TestResolveReturnsNoneWhenNothingMatches(t *testing.T) {
	loader := &stubLoader{regions: nil, byName: map[string]*models.Region{}}
	r := New(loader, nil)
	require.NoError(t, r.Refresh(context.Background()))

	lat, lon := 0.0, 0.0
	result, err := r.Resolve(context.Background(), &lat, &lon, "")
	require.NoError(t, err)
	assert.Equal(t, MethodNone, result.Method)
}

func TestResolveFallsBackToAddressText(t *testing.T) {
	named := &models.Region{ID: 9, Level: 3, Name: "тверская"}
	loader := &stubLoader{byName: map[string]*models.Region{"тверская": named}}
	r := New(loader, nil)
	require.NoError(t, r.Refresh(context.Background()))

	result, err := r.Resolve(context.Background(), nil, nil, "тверская 12 к2")
	require.NoError(t, err)
	assert.Equal(t, MethodAddress, result.Method)
	assert.Equal(t, uint(9), result.Region.ID)
}
