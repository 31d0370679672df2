package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/valuation"
)

type fakeTransactionStore struct {
	rows []Candidate
}

func (f *fakeTransactionStore) CandidateTransactions(ctx context.Context, lat, lon, targetArea, maxDistanceKm float64, maxAgeDays int, limit int) ([]Candidate, error) {
	return f.rows, nil
}

func dealAt(id uint, lat, lon, area, pricePerSqm float64) Candidate {
	return Candidate{
		ID:          id,
		Lat:         lat,
		Lon:         lon,
		Area:        area,
		DealPrice:   pricePerSqm * area,
		PricePerSqm: pricePerSqm,
		DealDate:    time.Now(),
	}
}

func TestSearchFiltersOutOfAreaBand(t *testing.T) {
	target := valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}
	rows := []Candidate{
		dealAt(1, 55.751, 37.601, 39, 360000), // 78% of target, just outside -20%
		dealAt(2, 55.751, 37.601, 45, 360000), // within band
	}
	s := New(&fakeTransactionStore{rows: rows})
	est, err := s.Search(context.Background(), target, 10, 5.0, 365)
	require.NoError(t, err)
	assert.Len(t, est.Comparables, 1)
	assert.Equal(t, uint(2), est.Comparables[0].SourceID)
}

func TestSearchNeverAppliesBargainDiscount(t *testing.T) {
	target := valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}
	rows := []Candidate{dealAt(1, 55.751, 37.601, 50, 360000)}
	s := New(&fakeTransactionStore{rows: rows})
	est, err := s.Search(context.Background(), target, 10, 5.0, 365)
	require.NoError(t, err)
	assert.Equal(t, 360000.0, est.Comparables[0].PricePerSqm)
}
