package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/valuation"
)

type fakeStore struct {
	exact         *models.GridAggregate
	relaxedHeight *PooledRow
	relaxedType   *PooledRow
	district      *PooledRow
	global        *PooledRow
}

func (f *fakeStore) SegmentID(ctx context.Context, buildingType, buildingHeight string, roomsCount int) (uint, error) {
	return 1, nil
}
func (f *fakeStore) ExactMatch(ctx context.Context, regionID, segmentID uint) (*models.GridAggregate, error) {
	return f.exact, nil
}
func (f *fakeStore) RelaxedHeight(ctx context.Context, regionID uint, buildingType string, roomsCount int) (*PooledRow, error) {
	return f.relaxedHeight, nil
}
func (f *fakeStore) RelaxedType(ctx context.Context, regionID uint, buildingHeight string, roomsCount int) (*PooledRow, error) {
	return f.relaxedType, nil
}
func (f *fakeStore) DistrictLevel(ctx context.Context, regionID uint) (*PooledRow, error) {
	return f.district, nil
}
func (f *fakeStore) GlobalAverage(ctx context.Context, windowDays int) (*PooledRow, error) {
	return f.global, nil
}

func TestEstimateUsesExactWhenAvailable(t *testing.T) {
	est := New(&fakeStore{exact: &models.GridAggregate{AvgPricePerSqm: 300000, SampleCount: 5, Confidence: 60}})
	res, err := est.Estimate(context.Background(), 1, models.BuildingTypePanel, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, valuation.GridLevelExact, res.Level)
	assert.Equal(t, 60, res.Confidence)
}

func TestEstimateFallsThroughCascadeInOrder(t *testing.T) {
	est := New(&fakeStore{
		relaxedType: &PooledRow{AvgPricePerSqm: 280000, SampleCount: 15},
		district:    &PooledRow{AvgPricePerSqm: 250000, SampleCount: 40},
		global:      &PooledRow{AvgPricePerSqm: 240000, SampleCount: 100},
	})
	res, err := est.Estimate(context.Background(), 1, models.BuildingTypeBrick, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, valuation.GridLevelRelaxedType, res.Level)
}

func TestEstimateReturnsInsufficientDataWhenCascadeExhausted(t *testing.T) {
	est := New(&fakeStore{})
	_, err := est.Estimate(context.Background(), 1, models.BuildingTypeBrick, 9, 2)
	require.Error(t, err)
}

func TestConfidenceDecreasesWithFallbackDepth(t *testing.T) {
	assert.Greater(t, relaxedHeightConfidence(20), relaxedTypeConfidence(20))
	assert.Greater(t, relaxedTypeConfidence(20), districtConfidence(20))
	assert.Greater(t, districtConfidence(20), 10)
}

func TestDailyAggregateRequiresMinimumSample(t *testing.T) {
	_, ok := DailyAggregate(1, 1, []float64{100, 200})
	assert.False(t, ok)

	agg, ok := DailyAggregate(1, 1, []float64{100000, 200000, 300000})
	require.True(t, ok)
	assert.Equal(t, 200000.0, agg.MedianPricePerSqm)
	assert.Equal(t, 3, agg.SampleCount)
}
