package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/store"
)

func TestGridRecomputeHandlerExecutesAndReportsCounts(t *testing.T) {
	db, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)

	var regionID uint = 1
	require.NoError(t, db.Create(&models.Region{ID: regionID, Name: "Центральный", Level: 1}).Error)

	now := time.Now()
	for i := 0; i < 3; i++ {
		totalFloors := 9
		listing := models.Listing{
			RegionID:     &regionID,
			AreaTotal:    50 + float64(i),
			Rooms:        2,
			TotalFloors:  &totalFloors,
			BuildingType: models.BuildingTypePanel,
			Active:       true,
			FirstSeenAt:  now,
			LastSeenAt:   now,
			InitialPrice: 5_000_000,
		}
		require.NoError(t, db.Create(&listing).Error)
		require.NoError(t, db.Create(&models.ListingPrice{ListingID: listing.ID, SeenAt: now, Price: 5_000_000}).Error)
	}

	listingRepo := store.NewListingRepository(db)
	aggregateRepo := store.NewAggregateRepository(db)
	handler := newGridRecomputeHandler(listingRepo, aggregateRepo)

	result, err := handler.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Data["listings_pooled"])
	assert.Equal(t, 1, result.Data["upserted"])
}
