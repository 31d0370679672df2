// Package gridrun implements the daily grid-aggregate recompute pass shared
// by the standalone gridworker command and the in-process scheduler
// internal/jobs runs inside cmd/server, so the two entrypoints can't drift.
package gridrun

import (
	"context"
	"fmt"

	"chrisgross-ctrl-project/internal/store"
	"chrisgross-ctrl-project/internal/valuation/grid"
)

type bucketKey struct {
	regionID  uint
	segmentID uint
}

// Result summarizes one recompute pass.
type Result struct {
	ListingsPooled int
	Buckets        int
	Upserted       int
}

func (r Result) String() string {
	return fmt.Sprintf("grid worker run: %d listings, %d buckets, %d aggregates upserted", r.ListingsPooled, r.Buckets, r.Upserted)
}

// Run pools every active listing's latest price by (region, segment),
// reduces each bucket to a GridAggregate, and upserts it.
func Run(ctx context.Context, listingRepo *store.ListingRepository, aggregateRepo *store.AggregateRepository) (Result, error) {
	rows, err := listingRepo.ActiveListingsForAggregation(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load active listings: %w", err)
	}

	buckets := make(map[bucketKey][]float64)
	for _, row := range rows {
		totalFloors := 0
		if row.TotalFloors != nil {
			totalFloors = *row.TotalFloors
		}
		heightBucket := grid.BuildingHeightBucket(totalFloors)
		roomsClamped := grid.RoomsClamp(row.Rooms)

		segmentID, err := aggregateRepo.SegmentID(ctx, row.BuildingType, heightBucket, roomsClamped)
		if err != nil {
			continue
		}

		key := bucketKey{regionID: row.RegionID, segmentID: segmentID}
		buckets[key] = append(buckets[key], row.LatestPrice/row.AreaTotal)
	}

	upserted := 0
	for key, pricesPerSqm := range buckets {
		agg, ok := grid.DailyAggregate(key.regionID, key.segmentID, pricesPerSqm)
		if !ok {
			continue
		}
		if err := aggregateRepo.UpsertDaily(ctx, agg); err != nil {
			continue
		}
		upserted++
	}

	return Result{ListingsPooled: len(rows), Buckets: len(buckets), Upserted: upserted}, nil
}
