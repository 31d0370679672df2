package duplicate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	exact      []Match
	similar    []Match
	linkedFrom uint
	linkedTo   uint
	chain      []HistoryPoint
}

func (f *fakeStore) ExactMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]Match, error) {
	return f.exact, nil
}
func (f *fakeStore) SimilarMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]Match, error) {
	return f.similar, nil
}
func (f *fakeStore) LinkDuplicate(ctx context.Context, originalID, duplicateID uint, similarity float64, reason string) error {
	f.linkedFrom = originalID
	f.linkedTo = duplicateID
	return nil
}
func (f *fakeStore) PriceHistoryChain(ctx context.Context, listingID uint) ([]HistoryPoint, error) {
	return f.chain, nil
}

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestDetectScenarioF(t *testing.T) {
	store := &fakeStore{
		exact: []Match{{ListingID: 100, FirstSeenAt: day(100), AreaTotal: 50, Similarity: 1.0}},
	}
	d := New(store)
	res, err := d.Detect(context.Background(), ListingInfo{ID: 200, FirstSeenAt: day(160), AddressCanonical: "x", AreaTotal: 50, Rooms: 2})
	require.NoError(t, err)
	assert.True(t, res.IsRepost)
	assert.Equal(t, uint(100), res.OriginalID)
	assert.Equal(t, uint(100), store.linkedFrom)
	assert.Equal(t, uint(200), store.linkedTo)
}

func TestDetectIgnoresLaterMatches(t *testing.T) {
	store := &fakeStore{
		exact: []Match{{ListingID: 100, FirstSeenAt: day(200), AreaTotal: 50, Similarity: 1.0}},
	}
	d := New(store)
	res, err := d.Detect(context.Background(), ListingInfo{ID: 200, FirstSeenAt: day(160), AddressCanonical: "x", AreaTotal: 50, Rooms: 2})
	require.NoError(t, err)
	assert.False(t, res.IsRepost)
}

func TestExposureReconstructsUnifiedHistory(t *testing.T) {
	store := &fakeStore{
		chain: []HistoryPoint{
			{ListingID: 100, SeenAt: day(100), Price: 10_000_000, Depth: 1},
			{ListingID: 200, SeenAt: day(160), Price: 9_500_000, Depth: 0},
		},
	}
	d := New(store)
	stats, err := d.Exposure(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, 60, stats.DaysOnMarket)
	assert.Equal(t, 10_000_000.0, stats.InitialPrice)
	assert.Len(t, stats.HistoryPoints, 2)
}
