// Package grid implements the grid aggregator's fallback cascade
// (spec.md §4.6): exact (region, segment), relax height, relax type,
// district-only, and citywide global.
package grid

import (
	"context"
	"fmt"
	"math"
	"sort"

	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/valuation"
)

const globalWindowDays = 90

// PooledRow is a pooled aggregate across several segments within a region,
// matching store.GridRow's shape without importing the store package.
type PooledRow struct {
	AvgPricePerSqm    float64
	MedianPricePerSqm float64
	MinPrice          float64
	MaxPrice          float64
	SampleCount       int
}

// AggregateStore is the subset of store.AggregateRepository the cascade
// needs; kept as an interface so grid tests run against a fake.
type AggregateStore interface {
	SegmentID(ctx context.Context, buildingType, buildingHeight string, roomsCount int) (uint, error)
	ExactMatch(ctx context.Context, regionID, segmentID uint) (*models.GridAggregate, error)
	RelaxedHeight(ctx context.Context, regionID uint, buildingType string, roomsCount int) (*PooledRow, error)
	RelaxedType(ctx context.Context, regionID uint, buildingHeight string, roomsCount int) (*PooledRow, error)
	DistrictLevel(ctx context.Context, regionID uint) (*PooledRow, error)
	GlobalAverage(ctx context.Context, windowDays int) (*PooledRow, error)
}

// Estimator serves the cascade over an AggregateStore.
type Estimator struct {
	store AggregateStore
}

func New(store AggregateStore) *Estimator {
	return &Estimator{store: store}
}

// BuildingHeightBucket maps a total_floors count to PropertySegment's
// building_height bucket (spec.md §3).
func BuildingHeightBucket(totalFloors int) string {
	switch {
	case totalFloors <= 5:
		return models.BuildingHeightLow
	case totalFloors <= 10:
		return models.BuildingHeightMedium
	default:
		return models.BuildingHeightHigh
	}
}

// RoomsClamp clamps a room count to the ≤5 bucket PropertySegment uses.
func RoomsClamp(rooms int) int {
	if rooms > 5 {
		return 5
	}
	if rooms < 0 {
		return 0
	}
	return rooms
}

// Estimate runs the cascade for a (region, building_type, total_floors,
// rooms) target, returning the first level with sample ≥ 3, or
// InsufficientData when every level is empty.
func (e *Estimator) Estimate(ctx context.Context, regionID uint, buildingType string, totalFloors, rooms int) (valuation.GridEstimate, error) {
	height := BuildingHeightBucket(totalFloors)
	clampedRooms := RoomsClamp(rooms)

	segmentID, err := e.store.SegmentID(ctx, buildingType, height, clampedRooms)
	if err != nil {
		return valuation.GridEstimate{}, fmt.Errorf("resolve property segment: %w", err)
	}

	if agg, err := e.store.ExactMatch(ctx, regionID, segmentID); err != nil {
		return valuation.GridEstimate{}, fmt.Errorf("query exact grid match: %w", err)
	} else if agg != nil {
		confidence := agg.Confidence
		if confidence <= 0 {
			confidence = 50
		}
		return valuation.GridEstimate{
			AvgPricePerSqm:    agg.AvgPricePerSqm,
			MedianPricePerSqm: agg.MedianPricePerSqm,
			MinPrice:          agg.MinPrice,
			MaxPrice:          agg.MaxPrice,
			SampleCount:       agg.SampleCount,
			Confidence:        confidence,
			Level:             valuation.GridLevelExact,
		}, nil
	}

	if row, err := e.store.RelaxedHeight(ctx, regionID, buildingType, clampedRooms); err != nil {
		return valuation.GridEstimate{}, fmt.Errorf("query relaxed-height grid match: %w", err)
	} else if row != nil {
		return fromPooled(*row, valuation.GridLevelRelaxedHeight, relaxedHeightConfidence(row.SampleCount)), nil
	}

	if row, err := e.store.RelaxedType(ctx, regionID, height, clampedRooms); err != nil {
		return valuation.GridEstimate{}, fmt.Errorf("query relaxed-type grid match: %w", err)
	} else if row != nil {
		return fromPooled(*row, valuation.GridLevelRelaxedType, relaxedTypeConfidence(row.SampleCount)), nil
	}

	if row, err := e.store.DistrictLevel(ctx, regionID); err != nil {
		return valuation.GridEstimate{}, fmt.Errorf("query district grid level: %w", err)
	} else if row != nil {
		return fromPooled(*row, valuation.GridLevelDistrict, districtConfidence(row.SampleCount)), nil
	}

	row, err := e.store.GlobalAverage(ctx, globalWindowDays)
	if err != nil {
		return valuation.GridEstimate{}, fmt.Errorf("query global grid average: %w", err)
	}
	if row == nil || row.SampleCount < 3 {
		return valuation.GridEstimate{}, valuation.InsufficientData("no grid aggregate survives the fallback cascade")
	}
	est := fromPooled(*row, valuation.GridLevelGlobal, 10)
	return est, nil
}

func fromPooled(row PooledRow, level valuation.GridLevel, confidence int) valuation.GridEstimate {
	return valuation.GridEstimate{
		AvgPricePerSqm:    row.AvgPricePerSqm,
		MedianPricePerSqm: row.MedianPricePerSqm,
		MinPrice:          row.MinPrice,
		MaxPrice:          row.MaxPrice,
		SampleCount:       row.SampleCount,
		Confidence:        confidence,
		Level:             level,
	}
}

// Confidence decreases monotonically with fallback depth (spec.md §8
// invariant 2): each level's base and per-sample bonus are strictly lower
// than the level before it at equal sample counts.
func relaxedHeightConfidence(n int) int {
	return clampConfidence(30 + int(math.Floor(float64(n)/5))*10)
}

func relaxedTypeConfidence(n int) int {
	return clampConfidence(20 + int(math.Floor(float64(n)/10))*10)
}

func districtConfidence(n int) int {
	return clampConfidence(10 + int(math.Floor(float64(n)/20))*10)
}

func clampConfidence(c int) int {
	if c > 100 {
		return 100
	}
	if c < 0 {
		return 0
	}
	return c
}

// DailyAggregate computes the recompute-job output for one (region,
// segment) from raw sample stats (spec.md §4.6): confidence =
// min(100, 20 + floor(n/5)*10), emitted only when n >= 3.
func DailyAggregate(regionID, segmentID uint, pricesPerSqm []float64) (models.GridAggregate, bool) {
	n := len(pricesPerSqm)
	if n < 3 {
		return models.GridAggregate{}, false
	}

	sorted := append([]float64(nil), pricesPerSqm...)
	sort.Float64s(sorted)

	sum := 0.0
	min := sorted[0]
	max := sorted[0]
	for _, p := range sorted {
		sum += p
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	avg := sum / float64(n)
	median := medianOfSorted(sorted)

	variance := 0.0
	for _, p := range sorted {
		d := p - avg
		variance += d * d
	}
	variance /= float64(n)

	return models.GridAggregate{
		RegionID:          regionID,
		SegmentID:         segmentID,
		AvgPricePerSqm:    avg,
		MedianPricePerSqm: median,
		MinPrice:          min,
		MaxPrice:          max,
		SampleCount:       n,
		StdDev:            math.Sqrt(variance),
		Confidence:        clampConfidence(20 + int(math.Floor(float64(n)/5))*10),
	}, true
}

func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
