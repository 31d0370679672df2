// Package valuation holds the types shared across the valuation
// sub-packages (knn, transaction, grid, hybrid, combined, investment,
// duplicate) so that none of them need to import one another's internals.
package valuation

import "time"

// PropertyFeatures describes the target property a searcher or engine is
// asked to value.
type PropertyFeatures struct {
	Lat, Lon  float64
	AreaTotal float64

	Rooms        *int
	Floor        *int
	TotalFloors  *int
	BuildingType string // "" or "unknown" means not provided
	BuildingYear *int

	ExcludeListingID *uint
}

// Comparable is the derived view over a listing or a transaction used in a
// ranked result, carrying the scoring/weighting fields spec.md §3 names.
type Comparable struct {
	SourceKind string // "listing" | "transaction"
	SourceID   uint
	URL        string

	Price       float64
	PricePerSqm float64 // corrected (area + aging adjustments applied)

	AreaTotal    float64
	Rooms        *int
	Floor        *int
	BuildingType string
	BuildingYear *int

	Lat, Lon   float64
	DistanceKm float64

	SeenAt  time.Time
	AgeDays int

	SimilarityScore float64 // [0,100]
	Weight          float64 // [0,1]
}

// GridLevel names the fallback depth a GridEstimate was produced at.
type GridLevel string

const (
	GridLevelExact          GridLevel = "exact"
	GridLevelRelaxedHeight  GridLevel = "relaxed_height"
	GridLevelRelaxedType    GridLevel = "relaxed_type"
	GridLevelDistrict       GridLevel = "district"
	GridLevelGlobal         GridLevel = "global"
)

// GridEstimate is the result of the grid aggregator's fallback cascade.
type GridEstimate struct {
	AvgPricePerSqm    float64
	MedianPricePerSqm float64
	MinPrice          float64
	MaxPrice          float64
	SampleCount       int
	Confidence        int
	Level             GridLevel
}

// KNNEstimate is the result of a nearest-neighbour search (listings or
// transactions).
type KNNEstimate struct {
	AvgPricePerSqm    float64
	MedianPricePerSqm float64
	Comparables       []Comparable
	Confidence        int
	TotalWeight       float64
}

// ValuationRequest is the wire-level input to the core (spec.md §6).
type ValuationRequest struct {
	Lat, Lon  float64
	AreaTotal float64

	Rooms        *int
	Floor        *int
	TotalFloors  *int
	BuildingType string
	BuildingYear *int

	ExcludeListingID *uint

	K             int
	MaxDistanceKm float64
	MaxAgeDays    int
}

// Features projects the request's property attributes into a
// PropertyFeatures value.
func (r ValuationRequest) Features() PropertyFeatures {
	return PropertyFeatures{
		Lat: r.Lat, Lon: r.Lon, AreaTotal: r.AreaTotal,
		Rooms: r.Rooms, Floor: r.Floor, TotalFloors: r.TotalFloors,
		BuildingType: r.BuildingType, BuildingYear: r.BuildingYear,
		ExcludeListingID: r.ExcludeListingID,
	}
}

// Defaults fills in the defaults named in spec.md §6.
func (r ValuationRequest) Defaults() ValuationRequest {
	if r.K <= 0 {
		r.K = 10
	}
	if r.MaxDistanceKm <= 0 {
		r.MaxDistanceKm = 5.0
	}
	if r.MaxAgeDays <= 0 {
		r.MaxAgeDays = 90
	}
	return r
}

// ValuationResponse is the wire-level output of the core (spec.md §6).
type ValuationResponse struct {
	EstimatedPrice       float64
	EstimatedPricePerSqm float64
	PriceRangeLow        float64
	PriceRangeHigh       float64
	Confidence           int
	MethodUsed           string
	GridWeight           float64
	KNNWeight            float64

	Comparables      []Comparable
	ComparablesCount int

	RosreestrDeals []Comparable
	RosreestrCount int

	InterestPrice        *float64
	InterestPricePerSqm  *float64
	ExpectedProfit       *float64
	ProfitRate           *float64
	MonthlyProfitRate    *float64
	InvestmentBreakdown  map[string]float64

	Timestamp time.Time
}
