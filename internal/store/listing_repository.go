package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chrisgross-ctrl-project/internal/geo"
)

// ListingCandidate is a denormalized row joining a listing to its latest
// observed price, the shape the KNN searcher scores directly.
type ListingCandidate struct {
	ID           uint
	SourceURL    string
	Lat          float64
	Lon          float64
	AreaTotal    float64
	Rooms        int
	Floor        *int
	TotalFloors  *int
	BuildingType string
	BuildingYear *int
	LatestPrice  float64
	LatestSeenAt time.Time
}

// ListingRepository is the listings side of the spatial store.
type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// CandidateListings returns active, latest-priced listings within an
// approximate bounding box around (lat, lon), last seen within maxAgeDays,
// optionally excluding one listing id. Mirrors the candidate query shape in
// the original KNN searcher (bounding box prefilter + latest-price join);
// exact great-circle distance is computed by the caller via internal/geo
// since that keeps the query portable across the Postgres and SQLite
// drivers this repository supports.
func (r *ListingRepository) CandidateListings(
	ctx context.Context,
	lat, lon float64,
	maxDistanceKm float64,
	maxAgeDays int,
	excludeListingID *uint,
	limit int,
) ([]ListingCandidate, error) {
	latMin, latMax, lonMin, lonMax := geo.BoundingBox(lat, lon, maxDistanceKm)
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	query := `
		SELECT
			l.id AS id,
			l.source_url AS source_url,
			l.lat AS lat,
			l.lon AS lon,
			l.area_total AS area_total,
			l.rooms AS rooms,
			l.floor AS floor,
			l.total_floors AS total_floors,
			l.building_type AS building_type,
			l.building_year AS building_year,
			lp.price AS latest_price,
			lp.seen_at AS latest_seen_at
		FROM listings l
		JOIN listing_prices lp ON lp.listing_id = l.id
			AND lp.seen_at = (SELECT MAX(seen_at) FROM listing_prices WHERE listing_id = l.id)
		WHERE l.active = ?
			AND l.deleted_at IS NULL
			AND l.lat IS NOT NULL AND l.lon IS NOT NULL
			AND l.lat BETWEEN ? AND ?
			AND l.lon BETWEEN ? AND ?
			AND l.last_seen_at >= ?
			AND (? = 0 OR l.id != ?)
		ORDER BY l.id ASC
		LIMIT ?
	`

	var excludeID uint
	if excludeListingID != nil {
		excludeID = *excludeListingID
	}

	var rows []ListingCandidate
	tx := r.db.WithContext(ctx).Raw(
		query,
		true, latMin, latMax, lonMin, lonMax, cutoff,
		excludeID, excludeID,
		limit,
	).Scan(&rows)
	if tx.Error != nil {
		return nil, fmt.Errorf("query candidate listings: %w", tx.Error)
	}
	return rows, nil
}

// AppendPrice inserts a new price observation for a listing, idempotent on
// (listing_id, seen_at) per spec.md §5, and records a ListingPriceChange
// when the price actually moved relative to the previous latest price.
func (r *ListingRepository) AppendPrice(ctx context.Context, listingID uint, price float64, seenAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prevPrice float64
		var hadPrev bool
		row := tx.Raw(`SELECT price FROM listing_prices WHERE listing_id = ? ORDER BY seen_at DESC LIMIT 1`, listingID).Row()
		if row != nil {
			if err := row.Scan(&prevPrice); err == nil {
				hadPrev = true
			}
		}

		if err := tx.Exec(
			`INSERT INTO listing_prices (listing_id, seen_at, price) VALUES (?, ?, ?)
			 ON CONFLICT (listing_id, seen_at) DO UPDATE SET price = excluded.price`,
			listingID, seenAt, price,
		).Error; err != nil {
			return fmt.Errorf("append listing price: %w", err)
		}

		if hadPrev && prevPrice > 0 && prevPrice != price {
			pct := (price - prevPrice) / prevPrice * 100
			if err := tx.Exec(
				`UPDATE listings SET price_change_count = price_change_count + 1, last_seen_at = ? WHERE id = ?`,
				seenAt, listingID,
			).Error; err != nil {
				return fmt.Errorf("update listing price-change counters: %w", err)
			}
			if err := tx.Exec(
				`INSERT INTO listing_price_changes (listing_id, old_price, new_price, change_percent, changed_at)
				 VALUES (?, ?, ?, ?, ?)`,
				listingID, prevPrice, price, pct, seenAt,
			).Error; err != nil {
				return fmt.Errorf("record listing price change: %w", err)
			}
		}
		return nil
	})
}

// AggregationRow is one active, latest-priced listing bucketed by region
// for the grid worker's daily recompute pass.
type AggregationRow struct {
	RegionID     uint
	AreaTotal    float64
	Rooms        int
	TotalFloors  *int
	BuildingType string
	LatestPrice  float64
}

// ActiveListingsForAggregation returns every active, latest-priced listing
// that has a resolved region, for the grid worker's daily recompute pass to
// bucket by (region, segment) and reduce to price-per-sqm samples.
func (r *ListingRepository) ActiveListingsForAggregation(ctx context.Context) ([]AggregationRow, error) {
	query := `
		SELECT
			l.region_id AS region_id,
			l.area_total AS area_total,
			l.rooms AS rooms,
			l.total_floors AS total_floors,
			l.building_type AS building_type,
			lp.price AS latest_price
		FROM listings l
		JOIN listing_prices lp ON lp.listing_id = l.id
			AND lp.seen_at = (SELECT MAX(seen_at) FROM listing_prices WHERE listing_id = l.id)
		WHERE l.active = ?
			AND l.deleted_at IS NULL
			AND l.region_id IS NOT NULL
			AND l.area_total > 0
	`
	var rows []AggregationRow
	tx := r.db.WithContext(ctx).Raw(query, true).Scan(&rows)
	if tx.Error != nil {
		return nil, fmt.Errorf("query active listings for aggregation: %w", tx.Error)
	}
	return rows, nil
}

func (r *ListingRepository) DB() *gorm.DB { return r.db }
