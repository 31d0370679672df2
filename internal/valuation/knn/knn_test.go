package knn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/valuation"
)

type fakeListingStore struct {
	rows []Candidate
}

func (f *fakeListingStore) CandidateListings(ctx context.Context, lat, lon, maxDistanceKm float64, maxAgeDays int, excludeListingID *uint, limit int) ([]Candidate, error) {
	return f.rows, nil
}

func intPtr(v int) *int { return &v }

func candidateAt(id uint, lat, lon, areaTotal, price float64, rooms int) Candidate {
	return Candidate{
		ID:           id,
		Lat:          lat,
		Lon:          lon,
		AreaTotal:    areaTotal,
		Rooms:        rooms,
		BuildingType: "panel",
		LatestPrice:  price,
		LatestSeenAt: time.Now(),
	}
}

func TestSearchExcludesRequestedListingID(t *testing.T) {
	target := valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50, ExcludeListingID: uintPtr(42)}
	rows := []Candidate{
		candidateAt(42, 55.75, 37.6, 50, 15_000_000, 2),
		candidateAt(7, 55.751, 37.601, 50, 14_500_000, 2),
	}
	s := New(&fakeListingStore{rows: rows})
	est, err := s.Search(context.Background(), target, 10, 5.0, 90)
	require.NoError(t, err)
	for _, c := range est.Comparables {
		assert.NotEqual(t, uint(42), c.SourceID)
	}
	assert.Len(t, est.Comparables, 1)
	assert.Equal(t, uint(7), est.Comparables[0].SourceID)
}

func TestSearchBuildingClassFilterExcludesFarApartHeightAndEra(t *testing.T) {
	target := valuation.PropertyFeatures{
		Lat: 55.75, Lon: 37.6, AreaTotal: 50,
		TotalFloors: intPtr(17), BuildingYear: intPtr(2015),
	}
	excludedCandidate := candidateAt(1, 55.751, 37.601, 50, 14_000_000, 2)
	excludedCandidate.TotalFloors = intPtr(5)
	excludedCandidate.BuildingYear = intPtr(1970)

	keptCandidate := candidateAt(2, 55.752, 37.602, 50, 15_000_000, 2)
	keptCandidate.TotalFloors = intPtr(22)
	keptCandidate.BuildingYear = intPtr(2018)

	// Pad with enough additional nearby candidates so the minimum-3
	// backfill rule doesn't pull the excluded candidate back in.
	rows := []Candidate{excludedCandidate, keptCandidate}
	for i := 0; i < 4; i++ {
		extra := candidateAt(uint(10+i), 55.753, 37.603, 50, 15_200_000, 2)
		extra.TotalFloors = intPtr(20)
		extra.BuildingYear = intPtr(2016)
		rows = append(rows, extra)
	}

	s := New(&fakeListingStore{rows: rows})
	est, err := s.Search(context.Background(), target, 10, 5.0, 90)
	require.NoError(t, err)

	ids := map[uint]bool{}
	for _, c := range est.Comparables {
		ids[c.SourceID] = true
	}
	assert.False(t, ids[1], "excluded candidate (5 floors, 1970) must not appear")
	assert.True(t, ids[2], "kept candidate (22 floors, 2018) must appear")
}

func TestSearchFailsWithInsufficientDataWhenNoCandidates(t *testing.T) {
	target := valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}
	s := New(&fakeListingStore{rows: nil})
	_, err := s.Search(context.Background(), target, 10, 5.0, 90)
	require.Error(t, err)
}

func TestSearchWeightsSumToOne(t *testing.T) {
	target := valuation.PropertyFeatures{Lat: 55.75, Lon: 37.6, AreaTotal: 50}
	rows := []Candidate{
		candidateAt(1, 55.751, 37.601, 48, 14_000_000, 2),
		candidateAt(2, 55.752, 37.602, 52, 15_000_000, 2),
		candidateAt(3, 55.753, 37.603, 50, 15_500_000, 2),
	}
	s := New(&fakeListingStore{rows: rows})
	est, err := s.Search(context.Background(), target, 10, 5.0, 90)
	require.NoError(t, err)

	sum := 0.0
	for _, c := range est.Comparables {
		sum += c.Weight
	}
	assert.InDelta(t, 1.0, sum, 0.001)
}

func uintPtr(v uint) *uint { return &v }
