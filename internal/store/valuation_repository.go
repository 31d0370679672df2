package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/valuation"
)

// ValuationRepository persists ValuationRecord snapshots, marshaling the
// comparable and investment sections to JSON text columns the same way the
// teacher's repositories snapshot nested structs into jsonb columns.
type ValuationRepository struct {
	db *gorm.DB
}

func NewValuationRepository(db *gorm.DB) *ValuationRepository {
	return &ValuationRepository{db: db}
}

// Save writes one valuation response as an append-only ValuationRecord plus
// its comparable-array child rows, in a single transaction.
func (r *ValuationRepository) Save(ctx context.Context, req valuation.ValuationRequest, resp valuation.ValuationResponse) (*models.ValuationRecord, error) {
	compJSON, err := json.Marshal(resp.Comparables)
	if err != nil {
		return nil, fmt.Errorf("marshal comparables snapshot: %w", err)
	}
	var invJSON []byte
	if resp.InvestmentBreakdown != nil {
		invJSON, err = json.Marshal(resp.InvestmentBreakdown)
		if err != nil {
			return nil, fmt.Errorf("marshal investment breakdown: %w", err)
		}
	}

	record := models.ValuationRecord{
		RequestLat:           req.Lat,
		RequestLon:           req.Lon,
		RequestAreaTotal:     req.AreaTotal,
		RequestRooms:         req.Rooms,
		EstimatedPrice:       resp.EstimatedPrice,
		EstimatedPricePerSqm: resp.EstimatedPricePerSqm,
		PriceRangeLow:        resp.PriceRangeLow,
		PriceRangeHigh:       resp.PriceRangeHigh,
		Confidence:           resp.Confidence,
		MethodUsed:           resp.MethodUsed,
		GridWeight:           resp.GridWeight,
		KNNWeight:            resp.KNNWeight,
		ComparablesJSON:      string(compJSON),
		InvestmentJSON:       string(invJSON),
		CreatedAt:            resp.Timestamp,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("create valuation record: %w", err)
		}
		for _, c := range resp.Comparables {
			row := models.ComparableRow{
				ValuationRecordID: record.ID,
				SourceKind:        c.SourceKind,
				SourceID:          c.SourceID,
				SimilarityScore:   c.SimilarityScore,
				Weight:            c.Weight,
				DistanceKm:        c.DistanceKm,
				AgeDays:           c.AgeDays,
				PricePerSqm:       c.PricePerSqm,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create comparable row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ValuationRepository) DB() *gorm.DB { return r.db }
