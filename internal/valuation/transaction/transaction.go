// Package transaction implements the scored nearest-neighbour searcher over
// recorded Rosreestr deals (spec.md §4.4). It shares the KNN searcher's
// shape but never applies a bargain discount and filters candidates by
// area range instead of room tolerance.
package transaction

import (
	"context"
	"math"
	"sort"
	"time"

	"chrisgross-ctrl-project/internal/geo"
	"chrisgross-ctrl-project/internal/valuation"
)

const hardDistanceCapKm = 10.0

// Candidate is a denormalized recorded-deal row the searcher scores.
type Candidate struct {
	ID           uint
	Street       string
	Lat          float64
	Lon          float64
	Area         float64
	DealPrice    float64
	PricePerSqm  float64
	YearBuild    *int
	Floor        *int
	WallMaterial string
	DealDate     time.Time
}

// TransactionStore is the subset of store.TransactionRepository the searcher
// needs.
type TransactionStore interface {
	CandidateTransactions(ctx context.Context, lat, lon, targetArea, maxDistanceKm float64, maxAgeDays int, limit int) ([]Candidate, error)
}

// Searcher scores recorded-deal candidates against a target's features.
type Searcher struct {
	store TransactionStore
}

func New(store TransactionStore) *Searcher {
	return &Searcher{store: store}
}

type scored struct {
	candidate   Candidate
	distanceKm  float64
	score       float64
	pricePerSqm float64
	ageDays     int
}

// Search returns up to k scored comparables for target, per spec.md §4.4.
func (s *Searcher) Search(ctx context.Context, target valuation.PropertyFeatures, k int, maxDistanceKm float64, maxAgeDays int) (valuation.KNNEstimate, error) {
	radius := maxDistanceKm
	if radius > hardDistanceCapKm || radius <= 0 {
		radius = hardDistanceCapKm
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 365
	}

	rows, err := s.store.CandidateTransactions(ctx, target.Lat, target.Lon, target.AreaTotal, radius, maxAgeDays, 500)
	if err != nil {
		return valuation.KNNEstimate{}, valuation.StoreUnavailable(err)
	}

	var kept []scored
	for _, c := range rows {
		if !withinAreaBand(target.AreaTotal, c.Area) {
			continue
		}
		if !passesYearFilter(target, c) {
			continue
		}
		d := geo.HaversineKm(target.Lat, target.Lon, c.Lat, c.Lon)
		if d > radius {
			continue
		}
		kept = append(kept, scored{
			candidate:   c,
			distanceKm:  d,
			score:       score(target, c, d),
			pricePerSqm: c.PricePerSqm,
			ageDays:     ageDays(c.DealDate),
		})
	}

	if len(kept) == 0 {
		return valuation.KNNEstimate{}, valuation.InsufficientData("no transaction comparable survives filtering")
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		if kept[i].distanceKm != kept[j].distanceKm {
			return kept[i].distanceKm < kept[j].distanceKm
		}
		return kept[i].candidate.ID < kept[j].candidate.ID
	})

	if k <= 0 {
		k = 10
	}
	if len(kept) > k {
		kept = kept[:k]
	}

	return buildEstimate(kept), nil
}

// withinAreaBand enforces the ±20% area filter (spec.md §4.4), replacing
// the KNN searcher's room tolerance since transactions carry no room count.
func withinAreaBand(targetArea, candidateArea float64) bool {
	if targetArea <= 0 {
		return false
	}
	low := targetArea * 0.8
	high := targetArea * 1.2
	return candidateArea >= low && candidateArea <= high
}

// passesYearFilter is the building-class filter restricted to year, since
// transactions carry no total_floors attribute (spec.md §4.4).
func passesYearFilter(target valuation.PropertyFeatures, c Candidate) bool {
	if target.BuildingYear == nil || c.YearBuild == nil {
		return true
	}
	ty := *target.BuildingYear
	cy := *c.YearBuild
	if ty >= 2000 && cy < 1990 {
		return false
	}
	if ty < 1990 && cy >= 2000 {
		return false
	}
	return true
}

// score sums the four weighted components (spec.md §4.4: area 30, year 25,
// floor 15, distance 30).
func score(target valuation.PropertyFeatures, c Candidate, distanceKm float64) float64 {
	total := 0.0

	if target.AreaTotal > 0 && c.Area > 0 {
		a, b := target.AreaTotal, c.Area
		if a > b {
			a, b = b, a
		}
		total += 30 * (a / b)
	} else {
		total += 12 // proportional 10/25 rebase for a 30-weighted component
	}

	if target.BuildingYear == nil || c.YearBuild == nil {
		total += 12 // proportional rebase for a 25-weighted component
	} else {
		delta := *c.YearBuild - *target.BuildingYear
		if delta < 0 {
			delta = -delta
		}
		total += math.Max(0, 25-float64(delta))
	}

	if target.Floor == nil || c.Floor == nil {
		total += 7
	} else {
		delta := *c.Floor - *target.Floor
		if delta < 0 {
			delta = -delta
		}
		total += math.Max(0, 15-2*float64(delta))
	}

	switch {
	case distanceKm <= 1:
		total += 30
	case distanceKm <= 3:
		total += 22
	case distanceKm <= 5:
		total += 15
	default:
		total += math.Max(0, 15-3*(distanceKm-5))
	}

	return total
}

func ageDays(dealDate time.Time) int {
	if dealDate.IsZero() {
		return 0
	}
	d := time.Since(dealDate)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

func buildEstimate(kept []scored) valuation.KNNEstimate {
	sumScore := 0.0
	for _, sc := range kept {
		sumScore += sc.score
	}

	comparables := make([]valuation.Comparable, len(kept))
	pricesPerSqm := make([]float64, len(kept))
	weightedSum := 0.0

	for i, sc := range kept {
		weight := 1.0 / float64(len(kept))
		if sumScore > 0 {
			weight = sc.score / sumScore
		}

		comparables[i] = valuation.Comparable{
			SourceKind:      "transaction",
			SourceID:        sc.candidate.ID,
			Price:           sc.candidate.DealPrice,
			PricePerSqm:     sc.pricePerSqm,
			AreaTotal:       sc.candidate.Area,
			Floor:           sc.candidate.Floor,
			BuildingYear:    sc.candidate.YearBuild,
			Lat:             sc.candidate.Lat,
			Lon:             sc.candidate.Lon,
			DistanceKm:      sc.distanceKm,
			SeenAt:          sc.candidate.DealDate,
			AgeDays:         sc.ageDays,
			SimilarityScore: sc.score,
			Weight:          weight,
		}
		pricesPerSqm[i] = sc.pricePerSqm
		weightedSum += sc.pricePerSqm * weight
	}

	n := len(kept)
	sumSimilarity, sumDistance := 0.0, 0.0
	for _, sc := range kept {
		sumSimilarity += sc.score
		sumDistance += sc.distanceKm
	}
	avgSimilarity := sumSimilarity / float64(n)
	avgDistance := sumDistance / float64(n)

	confidence := int(math.Floor(
		20*math.Min(float64(n), 10)/10 +
			50*avgSimilarity/100 +
			30/(1+avgDistance),
	))
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	return valuation.KNNEstimate{
		AvgPricePerSqm:    weightedSum,
		MedianPricePerSqm: median(pricesPerSqm),
		Comparables:       comparables,
		Confidence:        confidence,
		TotalWeight:       1.0,
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
