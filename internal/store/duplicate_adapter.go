package store

import (
	"context"

	"chrisgross-ctrl-project/internal/valuation/duplicate"
)

// DuplicateDetectorAdapter exposes DuplicateRepository as a
// duplicate.Store.
type DuplicateDetectorAdapter struct {
	repo *DuplicateRepository
}

func NewDuplicateDetectorAdapter(repo *DuplicateRepository) *DuplicateDetectorAdapter {
	return &DuplicateDetectorAdapter{repo: repo}
}

func (a *DuplicateDetectorAdapter) ExactMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]duplicate.Match, error) {
	rows, err := a.repo.ExactMatches(ctx, listingID, addressCanonical, areaTotal, rooms)
	return toMatches(rows), err
}

func (a *DuplicateDetectorAdapter) SimilarMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]duplicate.Match, error) {
	rows, err := a.repo.SimilarMatches(ctx, listingID, addressCanonical, areaTotal, rooms)
	return toMatches(rows), err
}

func (a *DuplicateDetectorAdapter) LinkDuplicate(ctx context.Context, originalID, duplicateID uint, similarity float64, reason string) error {
	return a.repo.LinkDuplicate(ctx, originalID, duplicateID, similarity, reason)
}

func (a *DuplicateDetectorAdapter) PriceHistoryChain(ctx context.Context, listingID uint) ([]duplicate.HistoryPoint, error) {
	rows, err := a.repo.PriceHistoryChain(ctx, listingID)
	if err != nil {
		return nil, err
	}
	out := make([]duplicate.HistoryPoint, len(rows))
	for i, r := range rows {
		out[i] = duplicate.HistoryPoint{ListingID: r.ListingID, SeenAt: r.SeenAt, Price: r.Price, Depth: r.Depth}
	}
	return out, nil
}

func toMatches(rows []DuplicateMatch) []duplicate.Match {
	if rows == nil {
		return nil
	}
	out := make([]duplicate.Match, len(rows))
	for i, r := range rows {
		out[i] = duplicate.Match{ListingID: r.ListingID, FirstSeenAt: r.FirstSeenAt, PublishedAt: r.PublishedAt, AreaTotal: r.AreaTotal, Similarity: r.Similarity}
	}
	return out
}
