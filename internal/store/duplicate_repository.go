package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DuplicateMatch is a candidate match for the duplicate/repost detector.
type DuplicateMatch struct {
	ListingID     uint
	FirstSeenAt   time.Time
	PublishedAt   *time.Time
	AreaTotal     float64
	Similarity    float64
}

// DuplicateRepository backs the duplicate/repost detector: exact/similar
// address matches, linkage persistence, and the unified price-history chain
// walk (spec.md §4.8).
type DuplicateRepository struct {
	db *gorm.DB
}

func NewDuplicateRepository(db *gorm.DB) *DuplicateRepository {
	return &DuplicateRepository{db: db}
}

// ExactMatches finds listings sharing the same normalized address, area,
// and room count, excluding the listing itself.
func (r *DuplicateRepository) ExactMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]DuplicateMatch, error) {
	query := `
		SELECT id AS listing_id, first_seen_at, published_at, area_total AS area_total, 1.0 AS similarity
		FROM listings
		WHERE address_canonical = ? AND area_total = ? AND rooms = ? AND id != ? AND deleted_at IS NULL
	`
	var rows []DuplicateMatch
	if err := r.db.WithContext(ctx).Raw(query, addressCanonical, areaTotal, rooms, listingID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query exact duplicate matches: %w", err)
	}
	return rows, nil
}

// SimilarMatches finds listings sharing the same normalized address and
// room count with area within ±2 m² (excluding exact-area matches, which
// ExactMatches already covers), scored by spec.md §4.8's similarity formula.
func (r *DuplicateRepository) SimilarMatches(ctx context.Context, listingID uint, addressCanonical string, areaTotal float64, rooms int) ([]DuplicateMatch, error) {
	query := `
		SELECT id AS listing_id, first_seen_at, published_at, area_total AS area_total,
			(1.0 - ABS(area_total - ?) / 10.0) AS similarity
		FROM listings
		WHERE address_canonical = ? AND rooms = ? AND id != ? AND deleted_at IS NULL
			AND area_total != ?
			AND area_total BETWEEN ? - 2 AND ? + 2
	`
	var rows []DuplicateMatch
	if err := r.db.WithContext(ctx).Raw(
		query, areaTotal, addressCanonical, rooms, listingID, areaTotal, areaTotal, areaTotal,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query similar duplicate matches: %w", err)
	}
	return rows, nil
}

// LinkDuplicate persists the original→duplicate edge and marks the
// duplicate listing as a repost, in a single transaction with an
// ON CONFLICT DO UPDATE upsert on the edge.
func (r *DuplicateRepository) LinkDuplicate(ctx context.Context, originalID, duplicateID uint, similarity float64, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO listing_duplicates (original_listing_id, duplicate_listing_id, similarity, reason, detected_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (original_listing_id, duplicate_listing_id)
			 DO UPDATE SET similarity = excluded.similarity, reason = excluded.reason, detected_at = excluded.detected_at`,
			originalID, duplicateID, similarity, reason, time.Now(),
		).Error; err != nil {
			return fmt.Errorf("upsert duplicate edge: %w", err)
		}

		if err := tx.Exec(
			`UPDATE listings SET is_repost = ?, original_listing_id = ? WHERE id = ?`,
			true, originalID, duplicateID,
		).Error; err != nil {
			return fmt.Errorf("flag listing as repost: %w", err)
		}
		return nil
	})
}

// ChainHistoryPoint is one point in the unified price-history chain.
type ChainHistoryPoint struct {
	ListingID uint
	SeenAt    time.Time
	Price     float64
	Depth     int
}

// PriceHistoryChain walks the original_listing_id chain (depth cap 10,
// matching the recursive CTE in original_source/etl/duplicate_detector.py)
// and returns every price observation across the chain, ordered by seen_at
// ascending, to reconstruct unified exposure history.
func (r *DuplicateRepository) PriceHistoryChain(ctx context.Context, listingID uint) ([]ChainHistoryPoint, error) {
	query := `
		WITH RECURSIVE chain(id, depth) AS (
			SELECT ?, 0
			UNION ALL
			SELECT l.original_listing_id, chain.depth + 1
			FROM listings l
			JOIN chain ON l.id = chain.id
			WHERE l.original_listing_id IS NOT NULL AND chain.depth < 10
		)
		SELECT lp.listing_id AS listing_id, lp.seen_at AS seen_at, lp.price AS price, chain.depth AS depth
		FROM chain
		JOIN listing_prices lp ON lp.listing_id = chain.id
		ORDER BY lp.seen_at ASC
	`
	var rows []ChainHistoryPoint
	if err := r.db.WithContext(ctx).Raw(query, listingID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("walk price history chain: %w", err)
	}
	return rows, nil
}

func (r *DuplicateRepository) DB() *gorm.DB { return r.db }
