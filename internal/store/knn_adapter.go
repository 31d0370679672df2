package store

import (
	"context"

	"chrisgross-ctrl-project/internal/valuation/knn"
)

// ListingKNNAdapter exposes ListingRepository as a knn.ListingStore.
type ListingKNNAdapter struct {
	repo *ListingRepository
}

func NewListingKNNAdapter(repo *ListingRepository) *ListingKNNAdapter {
	return &ListingKNNAdapter{repo: repo}
}

func (a *ListingKNNAdapter) CandidateListings(ctx context.Context, lat, lon, maxDistanceKm float64, maxAgeDays int, excludeListingID *uint, limit int) ([]knn.Candidate, error) {
	rows, err := a.repo.CandidateListings(ctx, lat, lon, maxDistanceKm, maxAgeDays, excludeListingID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]knn.Candidate, len(rows))
	for i, r := range rows {
		out[i] = knn.Candidate{
			ID:           r.ID,
			SourceURL:    r.SourceURL,
			Lat:          r.Lat,
			Lon:          r.Lon,
			AreaTotal:    r.AreaTotal,
			Rooms:        r.Rooms,
			Floor:        r.Floor,
			TotalFloors:  r.TotalFloors,
			BuildingType: r.BuildingType,
			BuildingYear: r.BuildingYear,
			LatestPrice:  r.LatestPrice,
			LatestSeenAt: r.LatestSeenAt,
		}
	}
	return out, nil
}
