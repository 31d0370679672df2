package store

import (
	"context"

	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/valuation/grid"
)

// GridAdapter exposes AggregateRepository as a grid.AggregateStore, converting
// between GridRow and grid.PooledRow (identical underlying structs) so the
// cascade package doesn't need to import the store package.
type GridAdapter struct {
	repo *AggregateRepository
}

func NewGridAdapter(repo *AggregateRepository) *GridAdapter {
	return &GridAdapter{repo: repo}
}

func (a *GridAdapter) SegmentID(ctx context.Context, buildingType, buildingHeight string, roomsCount int) (uint, error) {
	return a.repo.SegmentID(ctx, buildingType, buildingHeight, roomsCount)
}

func (a *GridAdapter) ExactMatch(ctx context.Context, regionID, segmentID uint) (*models.GridAggregate, error) {
	return a.repo.ExactMatch(ctx, regionID, segmentID)
}

func (a *GridAdapter) RelaxedHeight(ctx context.Context, regionID uint, buildingType string, roomsCount int) (*grid.PooledRow, error) {
	row, err := a.repo.RelaxedHeight(ctx, regionID, buildingType, roomsCount)
	return toPooledRow(row), err
}

func (a *GridAdapter) RelaxedType(ctx context.Context, regionID uint, buildingHeight string, roomsCount int) (*grid.PooledRow, error) {
	row, err := a.repo.RelaxedType(ctx, regionID, buildingHeight, roomsCount)
	return toPooledRow(row), err
}

func (a *GridAdapter) DistrictLevel(ctx context.Context, regionID uint) (*grid.PooledRow, error) {
	row, err := a.repo.DistrictLevel(ctx, regionID)
	return toPooledRow(row), err
}

func (a *GridAdapter) GlobalAverage(ctx context.Context, windowDays int) (*grid.PooledRow, error) {
	row, err := a.repo.GlobalAverage(ctx, windowDays)
	return toPooledRow(row), err
}

func toPooledRow(row *GridRow) *grid.PooledRow {
	if row == nil {
		return nil
	}
	return &grid.PooledRow{
		AvgPricePerSqm:    row.AvgPricePerSqm,
		MedianPricePerSqm: row.MedianPricePerSqm,
		MinPrice:          row.MinPrice,
		MaxPrice:          row.MaxPrice,
		SampleCount:       row.SampleCount,
	}
}
