package store

import (
	"context"

	"chrisgross-ctrl-project/internal/valuation/transaction"
)

// TransactionSearchAdapter exposes TransactionRepository as a
// transaction.TransactionStore.
type TransactionSearchAdapter struct {
	repo *TransactionRepository
}

func NewTransactionSearchAdapter(repo *TransactionRepository) *TransactionSearchAdapter {
	return &TransactionSearchAdapter{repo: repo}
}

func (a *TransactionSearchAdapter) CandidateTransactions(ctx context.Context, lat, lon, targetArea, maxDistanceKm float64, maxAgeDays int, limit int) ([]transaction.Candidate, error) {
	rows, err := a.repo.CandidateTransactions(ctx, lat, lon, targetArea, maxDistanceKm, maxAgeDays, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transaction.Candidate, len(rows))
	for i, r := range rows {
		out[i] = transaction.Candidate{
			ID:          r.ID,
			Street:      r.Street,
			Lat:         r.Lat,
			Lon:         r.Lon,
			Area:        r.Area,
			DealPrice:   r.DealPrice,
			PricePerSqm: r.PricePerSqm,
			YearBuild:   r.YearBuild,
			Floor:       r.Floor,
			DealDate:    r.DealDate,
		}
	}
	return out, nil
}
