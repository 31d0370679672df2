package gridrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/store"
)

func seedListing(t *testing.T, db *gorm.DB, regionID uint, areaTotal float64, price float64, totalFloors int) {
	t.Helper()
	now := time.Now()
	listing := models.Listing{
		RegionID:     &regionID,
		AreaTotal:    areaTotal,
		Rooms:        2,
		TotalFloors:  &totalFloors,
		BuildingType: models.BuildingTypePanel,
		Active:       true,
		FirstSeenAt:  now,
		LastSeenAt:   now,
		InitialPrice: price,
	}
	require.NoError(t, db.Create(&listing).Error)
	require.NoError(t, db.Create(&models.ListingPrice{ListingID: listing.ID, SeenAt: now, Price: price}).Error)
}

func TestRunPoolsListingsAndUpsertsAggregates(t *testing.T) {
	db, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)

	listingRepo := store.NewListingRepository(db)
	aggregateRepo := store.NewAggregateRepository(db)

	var regionID uint = 1
	require.NoError(t, db.Create(&models.Region{ID: regionID, Name: "Центральный", Level: 1}).Error)

	seedListing(t, db, regionID, 50, 5_000_000, 9)
	seedListing(t, db, regionID, 55, 5_500_000, 9)
	seedListing(t, db, regionID, 60, 6_300_000, 9)

	result, err := Run(context.Background(), listingRepo, aggregateRepo)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ListingsPooled)
	assert.Equal(t, 1, result.Buckets)
	assert.Equal(t, 1, result.Upserted)

	var agg models.GridAggregate
	require.NoError(t, db.Where("region_id = ?", regionID).First(&agg).Error)
	assert.Equal(t, 3, agg.SampleCount)
	assert.Greater(t, agg.AvgPricePerSqm, 0.0)
}

func TestRunSkipsBucketsBelowMinimumSample(t *testing.T) {
	db, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)

	listingRepo := store.NewListingRepository(db)
	aggregateRepo := store.NewAggregateRepository(db)

	var regionID uint = 1
	require.NoError(t, db.Create(&models.Region{ID: regionID, Name: "Центральный", Level: 1}).Error)
	seedListing(t, db, regionID, 50, 5_000_000, 9)

	result, err := Run(context.Background(), listingRepo, aggregateRepo)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ListingsPooled)
	assert.Equal(t, 1, result.Buckets)
	assert.Equal(t, 0, result.Upserted)
}

func TestResultString(t *testing.T) {
	r := Result{ListingsPooled: 10, Buckets: 2, Upserted: 2}
	assert.Contains(t, r.String(), "10 listings")
}
