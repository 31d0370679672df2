// Package hybrid composes a grid aggregate and a KNN listings result into a
// single listings-only price estimate (spec.md §4.5).
package hybrid

import (
	"math"
	"sort"

	"chrisgross-ctrl-project/internal/valuation"
)

// Bargain is the buyer-side discount applied to bottom-K asking prices.
const Bargain = 0.93

// Method tags the estimation strategy that produced a result.
const (
	MethodBottom1       = "bottom_1_with_bargain"
	MethodBottom2       = "bottom_2_with_bargain"
	MethodBottom3       = "bottom_3_with_bargain"
	MethodGridOnly      = "grid_only"
	MethodKNNHeavy      = "hybrid_knn_heavy"
	MethodGridHeavy     = "hybrid_grid_heavy"
	MethodBalanced      = "hybrid_balanced"
)

// Estimate combines a grid aggregate and a KNN estimate for a target area.
// grid may be the zero value with SampleCount 0 when no level qualified;
// knn may be nil when no comparable survived KNN filtering.
func Estimate(grid valuation.GridEstimate, knn *valuation.KNNEstimate, targetArea float64) (valuation.ValuationResponse, error) {
	if knn == nil || len(knn.Comparables) == 0 {
		if grid.SampleCount == 0 {
			return valuation.ValuationResponse{}, valuation.InsufficientData("no KNN comparable and no grid aggregate available")
		}
		return gridOnlyResponse(grid, targetArea), nil
	}

	pricePerSqm, method := bottomKPrice(knn.Comparables)
	estimatedPrice := pricePerSqm * targetArea

	// Carries the KNN searcher's own confidence rather than recomputing a
	// tier from comparable count; spec.md §4.5 doesn't pin which, and the
	// KNN confidence already folds in comparable count, similarity, and
	// distance (spec.md §4.3).
	confidence := knn.Confidence
	gridWeight, knnWeight := weightSplit(grid, *knn)

	low, high := band(estimatedPrice, confidence)

	return valuation.ValuationResponse{
		EstimatedPrice:       estimatedPrice,
		EstimatedPricePerSqm: pricePerSqm,
		PriceRangeLow:        low,
		PriceRangeHigh:       high,
		Confidence:           confidence,
		MethodUsed:           method,
		GridWeight:           gridWeight,
		KNNWeight:            knnWeight,
		Comparables:          knn.Comparables,
		ComparablesCount:     len(knn.Comparables),
	}, nil
}

func gridOnlyResponse(grid valuation.GridEstimate, targetArea float64) valuation.ValuationResponse {
	estimatedPrice := grid.MedianPricePerSqm * targetArea
	low, high := band(estimatedPrice, grid.Confidence)
	return valuation.ValuationResponse{
		EstimatedPrice:       estimatedPrice,
		EstimatedPricePerSqm: grid.MedianPricePerSqm,
		PriceRangeLow:        low,
		PriceRangeHigh:       high,
		Confidence:           grid.Confidence,
		MethodUsed:           MethodGridOnly,
		GridWeight:           1,
		KNNWeight:            0,
	}
}

// bottomKPrice implements the bottom-K bargain-pricing strategy: IQR outlier
// removal (when ≥4 comparables and ≥3 survive), sort ascending by corrected
// ₽/m², average the bottom min(3, n), apply the bargain discount.
func bottomKPrice(comparables []valuation.Comparable) (float64, string) {
	psm := make([]float64, len(comparables))
	for i, c := range comparables {
		psm[i] = c.PricePerSqm
	}

	survivors := removeIQROutliers(psm)
	sort.Float64s(survivors)

	k := 3
	if len(survivors) < k {
		k = len(survivors)
	}
	bottom := survivors[:k]

	sum := 0.0
	for _, p := range bottom {
		sum += p
	}
	avg := sum / float64(k)

	var method string
	switch k {
	case 1:
		method = MethodBottom1
	case 2:
		method = MethodBottom2
	default:
		method = MethodBottom3
	}

	return avg * Bargain, method
}

// removeIQROutliers drops values outside [Q1-1.5*IQR, Q3+1.5*IQR] when there
// are ≥4 input values and ≥3 survive the cut; otherwise returns the input
// unchanged (spec.md §4.5 step 1).
func removeIQROutliers(values []float64) []float64 {
	if len(values) < 4 {
		return append([]float64(nil), values...)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	var survivors []float64
	for _, v := range values {
		if v >= lower && v <= upper {
			survivors = append(survivors, v)
		}
	}

	if len(survivors) < 3 {
		return append([]float64(nil), values...)
	}
	return survivors
}

// percentile uses linear interpolation between closest ranks over an
// already-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lowIdx := int(math.Floor(rank))
	highIdx := int(math.Ceil(rank))
	if lowIdx == highIdx {
		return sorted[lowIdx]
	}
	frac := rank - float64(lowIdx)
	return sorted[lowIdx] + frac*(sorted[highIdx]-sorted[lowIdx])
}

// weightSplit reports the grid_weight/knn_weight pair surfaced in the
// response, reflecting how much the grid level's sample size can be trusted
// relative to the KNN comparable count even though the bottom-K price
// itself always derives from KNN alone when KNN data exists.
func weightSplit(grid valuation.GridEstimate, knn valuation.KNNEstimate) (float64, float64) {
	if grid.SampleCount == 0 {
		return 0, 1
	}
	gridScore := float64(grid.Confidence)
	knnScore := float64(knn.Confidence)
	total := gridScore + knnScore
	if total == 0 {
		return 0.5, 0.5
	}
	return gridScore / total, knnScore / total
}

// band converts a confidence score to a price-range multiplier (spec.md
// §4.5): 70+ -> ±5%, 50-69 -> ±10%, <50 -> ±15%.
func band(estimate float64, confidence int) (low, high float64) {
	var pct float64
	switch {
	case confidence >= 70:
		pct = 0.05
	case confidence >= 50:
		pct = 0.10
	default:
		pct = 0.15
	}
	return estimate * (1 - pct), estimate * (1 + pct)
}

// MethodTag classifies a combined grid/KNN weight split for reporting,
// matching spec.md §4.5's hybrid_* tags when both sources materially
// contribute.
func MethodTag(gridWeight, knnWeight float64) string {
	switch {
	case knnWeight >= 0.7:
		return MethodKNNHeavy
	case gridWeight >= 0.7:
		return MethodGridHeavy
	default:
		return MethodBalanced
	}
}
