// Package knn implements the scored nearest-neighbour searcher over active
// listings (spec.md §4.3).
package knn

import (
	"context"
	"math"
	"sort"
	"time"

	"chrisgross-ctrl-project/internal/geo"
	"chrisgross-ctrl-project/internal/models"
	"chrisgross-ctrl-project/internal/valuation"
)

const (
	hardDistanceCapKm  = 10.0
	backfillTargetSize = 5
	minKeptBeforeBackfill = 3
)

// Candidate is a denormalized listing row the searcher scores directly,
// independent of the store package's own row shape.
type Candidate struct {
	ID           uint
	SourceURL    string
	Lat          float64
	Lon          float64
	AreaTotal    float64
	Rooms        int
	Floor        *int
	TotalFloors  *int
	BuildingType string
	BuildingYear *int
	LatestPrice  float64
	LatestSeenAt time.Time
}

// ListingStore is the subset of store.ListingRepository the searcher needs.
type ListingStore interface {
	CandidateListings(ctx context.Context, lat, lon, maxDistanceKm float64, maxAgeDays int, excludeListingID *uint, limit int) ([]Candidate, error)
}

// Searcher scores listing candidates against a target's features.
type Searcher struct {
	store ListingStore
}

func New(store ListingStore) *Searcher {
	return &Searcher{store: store}
}

type scored struct {
	candidate   Candidate
	distanceKm  float64
	score       float64
	pricePerSqm float64
	ageDays     int
}

// Search returns up to k scored comparables for target, per spec.md §4.3.
func (s *Searcher) Search(ctx context.Context, target valuation.PropertyFeatures, k int, maxDistanceKm float64, maxAgeDays int) (valuation.KNNEstimate, error) {
	radius := maxDistanceKm
	if radius > hardDistanceCapKm || radius <= 0 {
		radius = hardDistanceCapKm
	}

	rows, err := s.store.CandidateListings(ctx, target.Lat, target.Lon, radius, maxAgeDays, target.ExcludeListingID, 500)
	if err != nil {
		return valuation.KNNEstimate{}, valuation.StoreUnavailable(err)
	}

	kept, excluded := s.filterAndScore(target, rows, radius)
	kept = backfill(kept, excluded)

	if len(kept) == 0 {
		return valuation.KNNEstimate{}, valuation.InsufficientData("no listing comparable survives filtering")
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

func (s *Searcher) filterAndScore(target valuation.PropertyFeatures, rows []Candidate, radius float64) (kept, excluded []scored) {
	for _, c := range rows {
		if target.ExcludeListingID != nil && c.ID == *target.ExcludeListingID {
			continue
		}
		if !roomsTolerance(target, c) {
			continue
		}

		d := geo.HaversineKm(target.Lat, target.Lon, c.Lat, c.Lon)
		if d > radius {
			continue
		}

		sc := scored{
			candidate:   c,
			distanceKm:  d,
			pricePerSqm: correctedPricePerSqm(target, c),
			ageDays:     ageDays(c.LatestSeenAt),
		}
		sc.score = score(target, c, d)

		if passesBuildingClass(target, c) {
			kept = append(kept, sc)
		} else {
			excluded = append(excluded, sc)
		}
	}
	return kept, excluded
}

func roomsTolerance(target valuation.PropertyFeatures, c Candidate) bool {
	if target.Rooms == nil {
		return true
	}
	delta := c.Rooms - *target.Rooms
	if delta < 0 {
		delta = -delta
	}
	if delta == 0 {
		return true
	}
	if delta == 1 {
		areaDelta := math.Abs(target.AreaTotal - c.AreaTotal)
		return areaDelta <= 10
	}
	return false
}

// passesBuildingClass enforces the coarse building-class comparability
// filter (spec.md §4.3); both rules are independent and a candidate must
// clear both.
func passesBuildingClass(target valuation.PropertyFeatures, c Candidate) bool {
	if target.TotalFloors != nil && c.TotalFloors != nil {
		tf := *target.TotalFloors
		cf := *c.TotalFloors
		switch {
		case tf >= 9:
			if cf <= 5 {
				return false
			}
		case tf <= 5:
			if cf >= 9 {
				return false
			}
		default: // 6-8
			if cf <= 5 || cf >= 17 {
				return false
			}
		}
	}

	if target.BuildingYear != nil && c.BuildingYear != nil {
		ty := *target.BuildingYear
		cy := *c.BuildingYear
		if ty >= 2000 && cy < 1990 {
			return false
		}
		if ty < 1990 && cy >= 2000 {
			return false
		}
	}

	return true
}

// backfill restores the closest-distance excluded candidates when fewer
// than minKeptBeforeBackfill survive the building-class filter, up to
// backfillTargetSize total.
func backfill(kept, excluded []scored) []scored {
	if len(kept) >= minKeptBeforeBackfill || len(excluded) == 0 {
		return kept
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i].distanceKm < excluded[j].distanceKm })

	need := backfillTargetSize - len(kept)
	if need > len(excluded) {
		need = len(excluded)
	}
	return append(kept, excluded[:need]...)
}

// score sums the five weighted components (spec.md §4.3), max 100.
func score(target valuation.PropertyFeatures, c Candidate, distanceKm float64) float64 {
	total := 0.0

	switch {
	case target.BuildingType == "" || target.BuildingType == models.BuildingTypeUnknown ||
		c.BuildingType == "" || c.BuildingType == models.BuildingTypeUnknown:
		total += 10
	case target.BuildingType == c.BuildingType:
		total += 20
	default:
		total += 5
	}

	if target.Rooms == nil {
		total += 10
	} else {
		delta := c.Rooms - *target.Rooms
		if delta < 0 {
			delta = -delta
		}
		total += math.Max(0, 20-10*float64(delta))
	}

	if target.AreaTotal > 0 && c.AreaTotal > 0 {
		a, b := target.AreaTotal, c.AreaTotal
		if a > b {
			a, b = b, a
		}
		total += 25 * (a / b)
	} else {
		total += 10
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
		total += 20
	case distanceKm <= 3:
		total += 15
	case distanceKm <= 5:
		total += 10
	default:
		total += math.Max(0, 10-2*(distanceKm-5))
	}

	return total
}

// correctedPricePerSqm applies the area and aging corrections (spec.md
// §4.3) on top of the candidate's raw asking price per square metre.
func correctedPricePerSqm(target valuation.PropertyFeatures, c Candidate) float64 {
	if c.AreaTotal <= 0 {
		return 0
	}
	price := c.LatestPrice / c.AreaTotal

	delta := target.AreaTotal - c.AreaTotal
	if math.Abs(delta) > 0.5 {
		price *= 1 - 0.001*delta
	}

	days := ageDays(c.LatestSeenAt)
	discount := math.Min(0.03, float64(days)/30*0.01)
	price *= 1 - discount

	return price
}

func ageDays(seenAt time.Time) int {
	if seenAt.IsZero() {
		return 0
	}
	d := time.Since(seenAt)
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
	sumSimilarity := 0.0
	sumDistance := 0.0

	for i, sc := range kept {
		weight := 1.0 / float64(len(kept))
		if sumScore > 0 {
			weight = sc.score / sumScore
		}

		var roomsPtr *int
		rooms := sc.candidate.Rooms
		roomsPtr = &rooms

		comparables[i] = valuation.Comparable{
			SourceKind:      "listing",
			SourceID:        sc.candidate.ID,
			URL:             sc.candidate.SourceURL,
			Price:           sc.candidate.LatestPrice,
			PricePerSqm:     sc.pricePerSqm,
			AreaTotal:       sc.candidate.AreaTotal,
			Rooms:           roomsPtr,
			Floor:           sc.candidate.Floor,
			BuildingType:    sc.candidate.BuildingType,
			BuildingYear:    sc.candidate.BuildingYear,
			Lat:             sc.candidate.Lat,
			Lon:             sc.candidate.Lon,
			DistanceKm:      sc.distanceKm,
			SeenAt:          sc.candidate.LatestSeenAt,
			AgeDays:         sc.ageDays,
			SimilarityScore: sc.score,
			Weight:          weight,
		}
		pricesPerSqm[i] = sc.pricePerSqm
		weightedSum += sc.pricePerSqm * weight
		sumSimilarity += sc.score
		sumDistance += sc.distanceKm
	}

	n := len(kept)
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
