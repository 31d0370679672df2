package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"chrisgross-ctrl-project/internal/models"
)

// GridRow is an aggregated grid row, possibly pooled across several
// (region, segment) pairs for a relaxed/district/global fallback level.
type GridRow struct {
	AvgPricePerSqm    float64
	MedianPricePerSqm float64
	MinPrice          float64
	MaxPrice          float64
	SampleCount       int
}

// AggregateRepository serves the grid aggregator's fallback cascade
// (spec.md §4.6) and the daily recompute job.
type AggregateRepository struct {
	db *gorm.DB
}

func NewAggregateRepository(db *gorm.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// SegmentID finds-or-creates the deterministic PropertySegment row for a
// (building_type, building_height, rooms_count) triple.
func (r *AggregateRepository) SegmentID(ctx context.Context, buildingType, buildingHeight string, roomsCount int) (uint, error) {
	var seg models.PropertySegment
	err := r.db.WithContext(ctx).
		Where("building_type = ? AND building_height = ? AND rooms_count = ?", buildingType, buildingHeight, roomsCount).
		First(&seg).Error
	if err == nil {
		return seg.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("lookup property segment: %w", err)
	}

	seg = models.PropertySegment{BuildingType: buildingType, BuildingHeight: buildingHeight, RoomsCount: roomsCount}
	if err := r.db.WithContext(ctx).Create(&seg).Error; err != nil {
		return 0, fmt.Errorf("create property segment: %w", err)
	}
	return seg.ID, nil
}

// ExactMatch returns the latest aggregate row for (region, segment) with
// sample >= 3, or nil if none qualifies.
func (r *AggregateRepository) ExactMatch(ctx context.Context, regionID, segmentID uint) (*models.GridAggregate, error) {
	var agg models.GridAggregate
	err := r.db.WithContext(ctx).
		Where("region_id = ? AND segment_id = ? AND sample_count >= 3", regionID, segmentID).
		Order("date DESC").
		First(&agg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query exact grid match: %w", err)
	}
	return &agg, nil
}

// RelaxedHeight pools the latest per-segment aggregates sharing
// (region, building_type, rooms_count) across any building_height.
func (r *AggregateRepository) RelaxedHeight(ctx context.Context, regionID uint, buildingType string, roomsCount int) (*GridRow, error) {
	return r.pooledByRegion(ctx, regionID, "building_type = ? AND rooms_count = ?", buildingType, roomsCount)
}

// RelaxedType pools latest per-segment aggregates sharing
// (region, building_height, rooms_count) across any building_type.
func (r *AggregateRepository) RelaxedType(ctx context.Context, regionID uint, buildingHeight string, roomsCount int) (*GridRow, error) {
	return r.pooledByRegion(ctx, regionID, "building_height = ? AND rooms_count = ?", buildingHeight, roomsCount)
}

// DistrictLevel pools every segment's latest aggregate within a region.
func (r *AggregateRepository) DistrictLevel(ctx context.Context, regionID uint) (*GridRow, error) {
	return r.pooledByRegion(ctx, regionID, "1 = 1")
}

func (r *AggregateRepository) pooledByRegion(ctx context.Context, regionID uint, segmentFilter string, args ...interface{}) (*GridRow, error) {
	var segmentIDs []uint
	q := r.db.WithContext(ctx).Model(&models.PropertySegment{}).Where(segmentFilter, args...)
	if err := q.Pluck("id", &segmentIDs).Error; err != nil {
		return nil, fmt.Errorf("resolve pooled segments: %w", err)
	}
	if len(segmentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT
			COALESCE(AVG(avg_price_per_sqm), 0) AS avg_price_per_sqm,
			COALESCE(AVG(median_price_per_sqm), 0) AS median_price_per_sqm,
			COALESCE(MIN(min_price), 0) AS min_price,
			COALESCE(MAX(max_price), 0) AS max_price,
			COALESCE(SUM(sample_count), 0) AS sample_count
		FROM grid_aggregates g
		WHERE g.region_id = ?
			AND g.segment_id IN ?
			AND g.date = (SELECT MAX(date) FROM grid_aggregates WHERE region_id = g.region_id AND segment_id = g.segment_id)
	`
	var row GridRow
	if err := r.db.WithContext(ctx).Raw(query, regionID, segmentIDs).Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("query pooled grid aggregate: %w", err)
	}
	if row.SampleCount < 3 {
		return nil, nil
	}
	return &row, nil
}

// GlobalAverage computes a citywide price-per-sqm average directly from
// each active listing's latest price within the trailing window (90 days
// in the original grid_estimator.py's global fallback), bypassing the
// aggregates table entirely since this level exists precisely for when no
// aggregate pool has enough samples.
func (r *AggregateRepository) GlobalAverage(ctx context.Context, windowDays int) (*GridRow, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	query := `
		SELECT
			COALESCE(AVG(lp.price / l.area_total), 0) AS avg_price_per_sqm,
			COALESCE(AVG(lp.price / l.area_total), 0) AS median_price_per_sqm,
			COALESCE(MIN(lp.price), 0) AS min_price,
			COALESCE(MAX(lp.price), 0) AS max_price,
			COUNT(*) AS sample_count
		FROM listings l
		JOIN listing_prices lp ON lp.listing_id = l.id
			AND lp.seen_at = (SELECT MAX(seen_at) FROM listing_prices WHERE listing_id = l.id)
		WHERE l.active = ? AND l.deleted_at IS NULL AND l.area_total > 0
			AND l.last_seen_at >= ?
	`
	var row GridRow
	if err := r.db.WithContext(ctx).Raw(query, true, cutoff).Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("query global grid average: %w", err)
	}
	if row.SampleCount == 0 {
		return nil, nil
	}
	return &row, nil
}

// UpsertDaily writes today's recomputed aggregate for (region, segment).
func (r *AggregateRepository) UpsertDaily(ctx context.Context, agg models.GridAggregate) error {
	return r.db.WithContext(ctx).Create(&agg).Error
}

func (r *AggregateRepository) DB() *gorm.DB { return r.db }
