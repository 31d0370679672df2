// Package duplicate implements the repost detector and unified
// price-history chain resolver (spec.md §4.8).
package duplicate

import (
	"context"
	"fmt"
	"time"
)

const maxChainDepth = 10

// Match is a candidate duplicate, independent of the store package's row
// shape.
type Match struct {
	ListingID   uint
	FirstSeenAt time.Time
	PublishedAt *time.Time
	AreaTotal   float64
	Similarity  float64
}

// HistoryPoint is one price observation in a resolved chain.
type HistoryPoint struct {
	ListingID uint
	SeenAt    time.Time
	Price     float64
	Depth     int
}

// Store is the subset of store.DuplicateRepository the detector needs.
type Store interface {
	ExactMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]Match, error)
	SimilarMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]Match, error)
	LinkDuplicate(ctx context.Context, originalID, duplicateID uint, similarity float64, reason string) error
	PriceHistoryChain(ctx context.Context, listingID uint) ([]HistoryPoint, error)
}

// Detector runs the exact/similar match rules and links reposts.
type Detector struct {
	store Store
}

func New(store Store) *Detector {
	return &Detector{store: store}
}

// ListingInfo is the minimal listing shape the detector needs to determine
// repost direction (first_seen_at / published_at fallback).
type ListingInfo struct {
	ID               uint
	FirstSeenAt      time.Time
	PublishedAt      *time.Time
	AddressCanonical string
	AreaTotal        float64
	Rooms            int
}

// Resolution is the outcome of running the detector against one listing.
type Resolution struct {
	IsRepost   bool
	OriginalID uint
	Similarity float64
	Reason     string
}

// exposureDate returns first_seen_at if set, else published_at, matching
// spec.md §4.8's "first_seen_at (or published_at fallback)" rule.
func exposureDate(firstSeenAt time.Time, publishedAt *time.Time) time.Time {
	if firstSeenAt.IsZero() && publishedAt != nil {
		return *publishedAt
	}
	return firstSeenAt
}

// Detect finds exact and similar matches for listing and, if any predates
// it, links listing as a repost of the earliest such match. Returns a
// Resolution with IsRepost=false when no earlier match exists.
func (d *Detector) Detect(ctx context.Context, listing ListingInfo) (Resolution, error) {
	exact, err := d.store.ExactMatches(ctx, listing.ID, listing.AddressCanonical, listing.AreaTotal, listing.Rooms)
	if err != nil {
		return Resolution{}, fmt.Errorf("query exact duplicate matches: %w", err)
	}
	similar, err := d.store.SimilarMatches(ctx, listing.ID, listing.AddressCanonical, listing.AreaTotal, listing.Rooms)
	if err != nil {
		return Resolution{}, fmt.Errorf("query similar duplicate matches: %w", err)
	}

	type candidate struct {
		match  Match
		reason string
	}
	var candidates []candidate
	for _, m := range exact {
		candidates = append(candidates, candidate{match: m, reason: "exact_address_area_rooms"})
	}
	for _, m := range similar {
		candidates = append(candidates, candidate{match: m, reason: "similar_address_area_band"})
	}

	listingExposure := exposureDate(listing.FirstSeenAt, listing.PublishedAt)

	var best *candidate
	var bestExposure time.Time
	for i := range candidates {
		c := candidates[i]
		candidateExposure := exposureDate(c.match.FirstSeenAt, c.match.PublishedAt)
		if !candidateExposure.Before(listingExposure) {
			continue // only earlier records make this listing a repost
		}
		if best == nil || candidateExposure.Before(bestExposure) {
			best = &c
			bestExposure = candidateExposure
		}
	}

	if best == nil {
		return Resolution{IsRepost: false}, nil
	}

	if err := d.store.LinkDuplicate(ctx, best.match.ListingID, listing.ID, best.match.Similarity, best.reason); err != nil {
		return Resolution{}, fmt.Errorf("link duplicate edge: %w", err)
	}

	return Resolution{
		IsRepost:   true,
		OriginalID: best.match.ListingID,
		Similarity: best.match.Similarity,
		Reason:     best.reason,
	}, nil
}

// ExposureStats summarizes the reconstructed chain's unified history.
type ExposureStats struct {
	DaysOnMarket    int
	InitialPrice    float64
	LatestPrice     float64
	PriceChangePct  float64
	HistoryPoints   []HistoryPoint
}

// Exposure walks the price-history chain (depth cap 10) from listingID up
// through the originals it reposts and derives the unified exposure
// statistics spec.md §4.8 calls the "authoritative" days-on-market/
// initial-price source. Depth 0 is listingID itself.
func (d *Detector) Exposure(ctx context.Context, listingID uint) (ExposureStats, error) {
	points, err := d.store.PriceHistoryChain(ctx, listingID)
	if err != nil {
		return ExposureStats{}, fmt.Errorf("walk price history chain: %w", err)
	}
	if len(points) == 0 {
		return ExposureStats{}, nil
	}

	first := points[0]
	last := points[len(points)-1]

	var changePct float64
	if first.Price > 0 {
		changePct = (last.Price - first.Price) / first.Price * 100
	}

	days := int(last.SeenAt.Sub(first.SeenAt).Hours() / 24)
	if days < 0 {
		days = 0
	}

	return ExposureStats{
		DaysOnMarket:   days,
		InitialPrice:   first.Price,
		LatestPrice:    last.Price,
		PriceChangePct: changePct,
		HistoryPoints:  points,
	}, nil
}

// MaxChainDepth exposes the depth cap so callers constructing fixtures or
// documentation stay in sync with the recursive walk's limit.
func MaxChainDepth() int { return maxChainDepth }
