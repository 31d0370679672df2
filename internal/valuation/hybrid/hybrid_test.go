package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/valuation"
)

func comparablesWithPSM(values ...float64) []valuation.Comparable {
	out := make([]valuation.Comparable, len(values))
	for i, v := range values {
		out[i] = valuation.Comparable{PricePerSqm: v}
	}
	return out
}

func TestEstimateScenarioA(t *testing.T) {
	knn := &valuation.KNNEstimate{
		Comparables: comparablesWithPSM(300000, 310000, 320000, 330000, 900000),
		Confidence:  60,
	}
	resp, err := Estimate(valuation.GridEstimate{}, knn, 50)
	require.NoError(t, err)
	assert.InDelta(t, 14415000, resp.EstimatedPrice, 1)
	assert.Equal(t, MethodBottom3, resp.MethodUsed)
}

func TestEstimateBottomKNeverExceedsMedianTimesBargain(t *testing.T) {
	knn := &valuation.KNNEstimate{
		Comparables: comparablesWithPSM(250000, 260000, 270000, 400000, 410000),
		Confidence:  80,
	}
	resp, err := Estimate(valuation.GridEstimate{}, knn, 1)
	require.NoError(t, err)

	median := 270000.0
	assert.LessOrEqual(t, resp.EstimatedPricePerSqm, median*Bargain+1e-6)
}

func TestEstimateFallsBackToGridOnlyWhenNoKNN(t *testing.T) {
	grid := valuation.GridEstimate{MedianPricePerSqm: 280000, SampleCount: 12, Confidence: 40, Level: valuation.GridLevelDistrict}
	resp, err := Estimate(grid, nil, 60)
	require.NoError(t, err)
	assert.Equal(t, MethodGridOnly, resp.MethodUsed)
	assert.Equal(t, 280000*60.0, resp.EstimatedPrice)
}

func TestEstimateFailsWhenNeitherSourceAvailable(t *testing.T) {
	_, err := Estimate(valuation.GridEstimate{}, nil, 50)
	require.Error(t, err)
}

func TestBandWidensAsConfidenceDrops(t *testing.T) {
	l70, h70 := band(1000, 70)
	l50, h50 := band(1000, 50)
	l10, h10 := band(1000, 10)
	assert.Less(t, h70-l70, h50-l50)
	assert.Less(t, h50-l50, h10-l10)
}
