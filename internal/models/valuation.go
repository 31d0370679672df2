package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Building type vocabulary, wire-level stable.
const (
	BuildingTypePanel     = "panel"
	BuildingTypeBrick     = "brick"
	BuildingTypeMonolithic = "monolithic"
	BuildingTypeBlock     = "block"
	BuildingTypeWood      = "wood"
	BuildingTypeOther     = "other"
	BuildingTypeUnknown   = "unknown"
)

// Building height buckets used by PropertySegment.
const (
	BuildingHeightLow    = "low"    // <= 5 floors
	BuildingHeightMedium = "medium" // 6-10 floors
	BuildingHeightHigh   = "high"   // >= 11 floors
)

// Listing is an active offer (asking price), with append-only price history.
type Listing struct {
	ID uint `json:"id" gorm:"primaryKey"`

	SourceURL string `json:"source_url"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	RegionID *uint `json:"region_id" gorm:"index"`

	AddressRaw       string `json:"address_raw"`
	AddressCanonical string `json:"address_canonical" gorm:"index"`

	Rooms       int      `json:"rooms"`
	AreaTotal   float64  `json:"area_total" gorm:"not null"`
	AreaLiving  *float64 `json:"area_living"`
	AreaKitchen *float64 `json:"area_kitchen"`

	Floor       *int `json:"floor"`
	TotalFloors *int `json:"total_floors"`

	BuildingType string `json:"building_type" gorm:"default:'unknown'"`
	BuildingYear *int   `json:"building_year"`

	SellerType string `json:"seller_type"`

	FirstSeenAt time.Time  `json:"first_seen_at" gorm:"not null;index"`
	LastSeenAt  time.Time  `json:"last_seen_at" gorm:"not null;index"`
	PublishedAt *time.Time `json:"published_at"`

	Active bool `json:"active" gorm:"default:true;index"`

	InitialPrice     float64 `json:"initial_price"`
	PriceChangeCount int     `json:"price_change_count" gorm:"default:0"`

	IsRepost          bool  `json:"is_repost" gorm:"default:false"`
	OriginalListingID *uint `json:"original_listing_id" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Prices []ListingPrice `json:"prices,omitempty" gorm:"foreignKey:ListingID"`
}

// LatestPrice returns the row with the max seen_at, or nil if none loaded.
func (l *Listing) LatestPrice() *ListingPrice {
	var latest *ListingPrice
	for i := range l.Prices {
		if latest == nil || l.Prices[i].SeenAt.After(latest.SeenAt) {
			latest = &l.Prices[i]
		}
	}
	return latest
}

// ListingPrice is an append-only (listing_id, seen_at, price) observation.
type ListingPrice struct {
	ListingID uint      `json:"listing_id" gorm:"primaryKey"`
	SeenAt    time.Time `json:"seen_at" gorm:"primaryKey"`
	Price     float64   `json:"price" gorm:"not null"`
}

func (ListingPrice) TableName() string {
	return "listing_prices"
}

// ListingPriceChange records a price delta, mirroring the teacher's
// PriceChangeEvent append for audit/notification purposes.
type ListingPriceChange struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ListingID     uint      `json:"listing_id" gorm:"not null;index"`
	OldPrice      float64   `json:"old_price"`
	NewPrice      float64   `json:"new_price"`
	ChangePercent float64   `json:"change_percent"`
	ChangedAt     time.Time `json:"changed_at" gorm:"not null;index"`
}

// Transaction is a closed sale (Rosreestr deal). Immutable after insert.
type Transaction struct {
	ID uint `json:"id" gorm:"primaryKey"`

	Street      string  `json:"street"`
	Area        float64 `json:"area" gorm:"not null"`
	DealPrice   float64 `json:"deal_price" gorm:"not null"`
	PricePerSqm float64 `json:"price_per_sqm" gorm:"not null"`

	YearBuild    *int   `json:"year_build"`
	Floor        *int   `json:"floor"`
	WallMaterial string `json:"wall_material"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	DealDate time.Time `json:"deal_date" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
}

// Region is an administrative polygon, level 1 (округ) .. 4 (квартал).
type Region struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"index"`
	Level    int    `json:"level" gorm:"not null"`
	ParentID *uint  `json:"parent_id" gorm:"index"`

	CentroidLat float64 `json:"centroid_lat"`
	CentroidLon float64 `json:"centroid_lon"`

	// WGS84 polygon, stored as WKT text; the ring is also kept here as flat
	// lon/lat arrays, which internal/region's in-process point-in-polygon
	// test reads.
	GeometryWKT  string         `json:"-" gorm:"column:geometry_wkt;type:text"`
	RingLons     pq.Float64Array `json:"-" gorm:"type:float8[]"`
	RingLats     pq.Float64Array `json:"-" gorm:"type:float8[]"`
}

// PropertySegment is a deterministic categorical bucket.
type PropertySegment struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	BuildingType   string `json:"building_type" gorm:"uniqueIndex:idx_segment_triple"`
	BuildingHeight string `json:"building_height" gorm:"uniqueIndex:idx_segment_triple"`
	RoomsCount     int    `json:"rooms_count" gorm:"uniqueIndex:idx_segment_triple"`
}

// GridAggregate is a daily row per (region, segment); only emitted when
// sample >= 3.
type GridAggregate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RegionID  uint      `json:"region_id" gorm:"index:idx_grid_lookup"`
	SegmentID uint      `json:"segment_id" gorm:"index:idx_grid_lookup"`
	Date      time.Time `json:"date" gorm:"index:idx_grid_lookup"`

	AvgPricePerSqm    float64 `json:"avg_price_per_sqm"`
	MedianPricePerSqm float64 `json:"median_price_per_sqm"`
	MinPrice          float64 `json:"min_price"`
	MaxPrice          float64 `json:"max_price"`
	SampleCount       int     `json:"sample_count"`
	StdDev            float64 `json:"stddev"`
	Confidence        int     `json:"confidence"`

	CreatedAt time.Time `json:"created_at"`
}

// ValuationRecord is the persisted, append-only output of one valuation.
type ValuationRecord struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	RequestLat       float64 `json:"request_lat"`
	RequestLon       float64 `json:"request_lon"`
	RequestAreaTotal float64 `json:"request_area_total"`
	RequestRooms     *int    `json:"request_rooms"`

	EstimatedPrice        float64 `json:"estimated_price"`
	EstimatedPricePerSqm  float64 `json:"estimated_price_per_sqm"`
	PriceRangeLow         float64 `json:"price_range_low"`
	PriceRangeHigh        float64 `json:"price_range_high"`
	Confidence            int     `json:"confidence"`
	MethodUsed            string  `json:"method_used"`
	GridWeight            float64 `json:"grid_weight"`
	KNNWeight             float64 `json:"knn_weight"`

	ComparablesJSON  string `json:"-" gorm:"column:comparables_json;type:jsonb"`
	InvestmentJSON   string `json:"-" gorm:"column:investment_json;type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	Comparables []ComparableRow `json:"comparables,omitempty" gorm:"foreignKey:ValuationRecordID"`
}

func (ValuationRecord) TableName() string {
	return "valuation_records"
}

// ComparableRow is the persisted child-table counterpart of the derived
// Comparable view: one row per comparable returned in a valuation response.
type ComparableRow struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	ValuationRecordID string  `json:"valuation_record_id" gorm:"index"`
	SourceKind        string  `json:"source_kind"` // "listing" | "transaction"
	SourceID          uint    `json:"source_id"`
	SimilarityScore   float64 `json:"similarity_score"`
	Weight            float64 `json:"weight"`
	DistanceKm        float64 `json:"distance_km"`
	AgeDays           int     `json:"age_days"`
	PricePerSqm       float64 `json:"price_per_sqm"`
}

func (ComparableRow) TableName() string {
	return "valuation_comparables"
}

// DuplicateEdge links a repost to its original listing.
type DuplicateEdge struct {
	OriginalListingID  uint      `json:"original_listing_id" gorm:"primaryKey"`
	DuplicateListingID uint      `json:"duplicate_listing_id" gorm:"primaryKey"`
	Similarity         float64   `json:"similarity"`
	Reason             string    `json:"reason"`
	DetectedAt         time.Time `json:"detected_at"`
}

func (DuplicateEdge) TableName() string {
	return "listing_duplicates"
}

// AllModels lists every model for AutoMigrate, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Region{},
		&PropertySegment{},
		&Listing{},
		&ListingPrice{},
		&ListingPriceChange{},
		&Transaction{},
		&GridAggregate{},
		&ValuationRecord{},
		&ComparableRow{},
		&DuplicateEdge{},
		&AdminUser{},
	}
}
