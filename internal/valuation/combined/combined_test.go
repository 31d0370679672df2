package combined

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/valuation"
)

type fakeSearcher struct {
	est valuation.KNNEstimate
	err error
}

func (f fakeSearcher) Search(ctx context.Context, target valuation.PropertyFeatures, k int, maxDistanceKm float64, maxAgeDays int) (valuation.KNNEstimate, error) {
	return f.est, f.err
}

func nComparables(n int) []valuation.Comparable {
	out := make([]valuation.Comparable, n)
	return out
}

func TestEstimateScenarioD(t *testing.T) {
	listings := fakeSearcher{est: valuation.KNNEstimate{MedianPricePerSqm: 400000, Comparables: nComparables(8)}}
	transactions := fakeSearcher{est: valuation.KNNEstimate{MedianPricePerSqm: 360000, Comparables: nComparables(4)}}

	engine := New(listings, transactions)
	resp, err := engine.Estimate(context.Background(), valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}, 10, 5.0, 90, 365)
	require.NoError(t, err)

	assert.InDelta(t, 366857.14, resp.EstimatedPricePerSqm, 0.5)
	assert.InDelta(t, 366857.14*50, resp.EstimatedPrice, 25)
	assert.Equal(t, 75, resp.Confidence)
	assert.Equal(t, MethodCombined, resp.MethodUsed)

	assert.LessOrEqual(t, resp.PriceRangeLow, resp.EstimatedPrice)
	assert.GreaterOrEqual(t, resp.PriceRangeHigh, resp.EstimatedPrice)
	assert.InDelta(t, resp.EstimatedPrice*0.95, resp.PriceRangeLow, 25)
	assert.InDelta(t, resp.EstimatedPrice*1.05, resp.PriceRangeHigh, 25)
}

func TestEstimateFallsBackToSingleSourceOnTimeout(t *testing.T) {
	listings := fakeSearcher{est: valuation.KNNEstimate{MedianPricePerSqm: 400000, Comparables: nComparables(8)}}
	transactions := fakeSearcher{err: valuation.Timeout(nil)}

	engine := New(listings, transactions)
	resp, err := engine.Estimate(context.Background(), valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}, 10, 5.0, 90, 365)
	require.NoError(t, err)
	assert.Equal(t, MethodListingsOnly, resp.MethodUsed)

	assert.Greater(t, resp.EstimatedPrice, 0.0)
	assert.LessOrEqual(t, resp.PriceRangeLow, resp.EstimatedPrice)
	assert.GreaterOrEqual(t, resp.PriceRangeHigh, resp.EstimatedPrice)
}

func TestEstimateFailsWhenBothSourcesEmpty(t *testing.T) {
	listings := fakeSearcher{est: valuation.KNNEstimate{}}
	transactions := fakeSearcher{est: valuation.KNNEstimate{}}

	engine := New(listings, transactions)
	_, err := engine.Estimate(context.Background(), valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}, 10, 5.0, 90, 365)
	require.Error(t, err)
}
