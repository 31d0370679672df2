package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chrisgross-ctrl-project/internal/geo"
)

// TransactionCandidate mirrors a recorded deal row scored by the
// transaction searcher.
type TransactionCandidate struct {
	ID           uint
	Street       string
	Area         float64
	DealPrice    float64
	PricePerSqm  float64
	YearBuild    *int
	Floor        *int
	Lat          float64
	Lon          float64
	DealDate     time.Time
}

// TransactionRepository is the recorded-deals side of the spatial store.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CandidateTransactions returns deals within an approximate bounding box and
// within ±20% of targetArea, dated on or after the age cutoff. Exact
// distance is computed by the caller, matching ListingRepository.
func (r *TransactionRepository) CandidateTransactions(
	ctx context.Context,
	lat, lon, targetArea float64,
	maxDistanceKm float64,
	maxAgeDays int,
	limit int,
) ([]TransactionCandidate, error) {
	latMin, latMax, lonMin, lonMax := geo.BoundingBox(lat, lon, maxDistanceKm)
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	areaMin, areaMax := targetArea*0.8, targetArea*1.2

	query := `
		SELECT
			id AS id, street AS street, area AS area,
			deal_price AS deal_price, price_per_sqm AS price_per_sqm,
			year_build AS year_build, floor AS floor,
			lat AS lat, lon AS lon, deal_date AS deal_date
		FROM transactions
		WHERE lat IS NOT NULL AND lon IS NOT NULL
			AND area > 0 AND price_per_sqm > 0
			AND deal_date >= ?
			AND area BETWEEN ? AND ?
			AND lat BETWEEN ? AND ?
			AND lon BETWEEN ? AND ?
		ORDER BY id ASC
		LIMIT ?
	`

	var rows []TransactionCandidate
	tx := r.db.WithContext(ctx).Raw(
		query, cutoff, areaMin, areaMax, latMin, latMax, lonMin, lonMax, limit,
	).Scan(&rows)
	if tx.Error != nil {
		return nil, fmt.Errorf("query candidate transactions: %w", tx.Error)
	}
	return rows, nil
}

func (r *TransactionRepository) DB() *gorm.DB { return r.db }
