package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"chrisgross-ctrl-project/internal/models"
)

// RegionRepository is the administrative-hierarchy side of the spatial
// store: polygons, levels, and name lookups.
type RegionRepository struct {
	db *gorm.DB
}

func NewRegionRepository(db *gorm.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// LoadAll returns every region, used to build and refresh the in-process
// polygon cache per spec.md §5 ("region polygon set is a read-mostly cache
// with a documented refresh interval").
func (r *RegionRepository) LoadAll(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	if err := r.db.WithContext(ctx).Find(&regions).Error; err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	return regions, nil
}

// FindByName resolves a district name using an exact match first, then a
// case-insensitive partial match, matching
// original_source/etl/district_matcher.py's find_district_by_name.
func (r *RegionRepository) FindByName(ctx context.Context, name string) (*models.Region, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil, nil
	}

	var region models.Region
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", lower).
		First(&region).Error
	if err == nil {
		return &region, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("find region by exact name: %w", err)
	}

	err = r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+lower+"%").
		First(&region).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find region by partial name: %w", err)
	}
	return &region, nil
}

func (r *RegionRepository) DB() *gorm.DB { return r.db }
