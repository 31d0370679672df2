// Package combined fuses the listings-side KNN searcher and the
// transaction-side searcher into a single estimate (spec.md §4.7), running
// both searches concurrently.
package combined

import (
	"context"
	"sync"

	"chrisgross-ctrl-project/internal/valuation"
)

// ListingsBargainDiscount is applied to the listings-side median ₽/m² before
// combination, since asking prices run above realized sale prices.
const ListingsBargainDiscount = 0.07

const (
	MethodListingsOnly    = "listings_only"
	MethodTransactionsOnly = "transactions_only"
	MethodCombined        = "combined"
)

// Searcher runs a KNN-shaped search (implemented by both the knn and
// transaction packages) to an arbitrary source.
type Searcher interface {
	Search(ctx context.Context, target valuation.PropertyFeatures, k int, maxDistanceKm float64, maxAgeDays int) (valuation.KNNEstimate, error)
}

// Engine fuses a listings searcher and a transaction searcher.
type Engine struct {
	listings     Searcher
	transactions Searcher
}

func New(listings, transactions Searcher) *Engine {
	return &Engine{listings: listings, transactions: transactions}
}

type sourceResult struct {
	estimate valuation.KNNEstimate
	err      error
}

// Estimate runs both searches concurrently (spec.md §5) and fuses their
// results. A deadline exceeded on one side degrades to the other rather than
// failing the whole request, per spec.md §7's Timeout policy.
func (e *Engine) Estimate(ctx context.Context, target valuation.PropertyFeatures, k int, maxDistanceKm float64, listingsMaxAgeDays, transactionsMaxAgeDays int) (valuation.ValuationResponse, error) {
	var wg sync.WaitGroup
	results := make(chan struct {
		side string
		res  sourceResult
	}, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		est, err := e.listings.Search(ctx, target, k, maxDistanceKm, listingsMaxAgeDays)
		results <- struct {
			side string
			res  sourceResult
		}{"listings", sourceResult{estimate: est, err: err}}
	}()
	go func() {
		defer wg.Done()
		est, err := e.transactions.Search(ctx, target, k, maxDistanceKm, transactionsMaxAgeDays)
		results <- struct {
			side string
			res  sourceResult
		}{"transactions", sourceResult{estimate: est, err: err}}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var listingsResult, transactionsResult sourceResult
	for r := range results {
		switch r.side {
		case "listings":
			listingsResult = r.res
		case "transactions":
			transactionsResult = r.res
		}
	}

	listingsOK := listingsResult.err == nil && len(listingsResult.estimate.Comparables) > 0
	transactionsOK := transactionsResult.err == nil && len(transactionsResult.estimate.Comparables) > 0

	if !listingsOK && !transactionsOK {
		return valuation.ValuationResponse{}, valuation.InsufficientData("neither listings nor transactions side returned comparables")
	}

	if listingsOK && !transactionsOK {
		return singleSourceResponse(listingsResult.estimate, MethodListingsOnly, true, target.AreaTotal), nil
	}
	if transactionsOK && !listingsOK {
		return singleSourceResponse(transactionsResult.estimate, MethodTransactionsOnly, false, target.AreaTotal), nil
	}

	return fuse(listingsResult.estimate, transactionsResult.estimate, target.AreaTotal), nil
}

func singleSourceResponse(est valuation.KNNEstimate, method string, isListings bool, areaTotal float64) valuation.ValuationResponse {
	psm := est.MedianPricePerSqm
	if isListings {
		psm *= 1 - ListingsBargainDiscount
	}
	price := psm * areaTotal

	resp := valuation.ValuationResponse{
		EstimatedPrice:       price,
		EstimatedPricePerSqm: psm,
		PriceRangeLow:        price * 0.95,
		PriceRangeHigh:       price * 1.05,
		Confidence:           confidenceTier(len(est.Comparables), false),
		MethodUsed:           method,
		ComparablesCount:     len(est.Comparables),
	}
	if isListings {
		resp.Comparables = est.Comparables
		resp.GridWeight = 0
		resp.KNNWeight = 1
	} else {
		resp.RosreestrDeals = est.Comparables
		resp.RosreestrCount = len(est.Comparables)
	}
	return resp
}

// fuse implements spec.md §4.7's weighted combination: listings median ₽/m²
// discounted by ListingsBargainDiscount, transactions undiscounted, weighted
// by 1.0*n_listings and 1.5*n_transactions. The combined ₽/m² is converted
// to a total price over areaTotal before the ±5% range is taken, since
// spec.md §8 invariant 1 requires price_range_low/high to bracket
// estimated_price itself, not the per-sqm figure.
func fuse(listings, transactions valuation.KNNEstimate, areaTotal float64) valuation.ValuationResponse {
	nListings := len(listings.Comparables)
	nTransactions := len(transactions.Comparables)

	listingsPSM := listings.MedianPricePerSqm * (1 - ListingsBargainDiscount)
	transactionsPSM := transactions.MedianPricePerSqm

	wListings := 1.0 * float64(nListings)
	wTransactions := 1.5 * float64(nTransactions)
	totalWeight := wListings + wTransactions

	combinedPSM := (listingsPSM*wListings + transactionsPSM*wTransactions) / totalWeight
	combinedPrice := combinedPSM * areaTotal

	// The worked example (spec.md §8 scenario D, n_listings=8,
	// n_transactions=4) lands on the "≥5" tier (base 65), not the sum
	// (12, which would be "≥10"): the gating count is the larger single
	// side's comparable count, not the combined total.
	dominant := nListings
	if nTransactions > dominant {
		dominant = nTransactions
	}
	confidence := confidenceTier(dominant, nListings >= 3 && nTransactions >= 3)

	low := combinedPrice * 0.95
	high := combinedPrice * 1.05

	return valuation.ValuationResponse{
		EstimatedPrice:       combinedPrice,
		EstimatedPricePerSqm: combinedPSM,
		PriceRangeLow:        low,
		PriceRangeHigh:       high,
		Confidence:           confidence,
		MethodUsed:           MethodCombined,
		GridWeight:           0,
		KNNWeight:            wListings / totalWeight,
		Comparables:          listings.Comparables,
		ComparablesCount:     nListings,
		RosreestrDeals:       transactions.Comparables,
		RosreestrCount:       nTransactions,
	}
}

// confidenceTier implements spec.md §4.7's tiers over the comparable count
// the caller passes (fuse passes the larger side's count, not the sum): 80
// at >=10, 65 at >=5, 50 at >=3, else 30; +10 (cap 90) when both sides
// contribute >=3 comparables each.
func confidenceTier(totalComparables int, bothSidesStrong bool) int {
	var base int
	switch {
	case totalComparables >= 10:
		base = 80
	case totalComparables >= 5:
		base = 65
	case totalComparables >= 3:
		base = 50
	default:
		base = 30
	}
	if bothSidesStrong {
		base += 10
		if base > 90 {
			base = 90
		}
	}
	return base
}
