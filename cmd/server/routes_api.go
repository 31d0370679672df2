package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"chrisgross-ctrl-project/internal/address"
	"chrisgross-ctrl-project/internal/notify"
	"chrisgross-ctrl-project/internal/region"
	"chrisgross-ctrl-project/internal/store"
	"chrisgross-ctrl-project/internal/valuation"
	"chrisgross-ctrl-project/internal/valuation/combined"
	"chrisgross-ctrl-project/internal/valuation/duplicate"
	"chrisgross-ctrl-project/internal/valuation/grid"
	"chrisgross-ctrl-project/internal/valuation/hybrid"
	"chrisgross-ctrl-project/internal/valuation/investment"
	"chrisgross-ctrl-project/internal/valuation/knn"

	"github.com/gin-gonic/gin"
)

// Services bundles the engines the API routes call into, built once in
// main and shared across requests (every engine here is safe for
// concurrent use).
type Services struct {
	Combined   *combined.Engine
	Duplicate  *duplicate.Detector
	Region     *region.Resolver
	Address    *address.Normalizer
	Valuations *store.ValuationRepository
	Grid       *grid.Estimator
	KNN        *knn.Searcher
	Notify     *notify.Dispatcher
	AlertEmail string
}

// RegisterAPIRoutes registers the valuation, investment, duplicate
// detection, region resolution, and address normalization endpoints.
func RegisterAPIRoutes(r *gin.Engine, svc *Services) {
	v1 := r.Group("/api/v1")

	v1.POST("/estimate", estimateHandler(svc))
	v1.POST("/estimate/listings", estimateListingsHandler(svc))
	v1.POST("/investment", investmentHandler())
	v1.POST("/duplicates/detect", duplicateDetectHandler(svc))
	v1.GET("/duplicates/:id/exposure", duplicateExposureHandler(svc))
	v1.POST("/region/resolve", regionResolveHandler(svc))
	v1.POST("/address/normalize", addressNormalizeHandler(svc))
}

// estimateRequest is the wire shape for a valuation request; it mirrors
// valuation.ValuationRequest with json tags since that type is shared
// across packages that have no business depending on encoding/json.
type estimateRequest struct {
	Lat          float64 `json:"lat" binding:"required"`
	Lon          float64 `json:"lon" binding:"required"`
	AreaTotal    float64 `json:"area_total" binding:"required,gt=0"`
	Rooms        *int    `json:"rooms"`
	Floor        *int    `json:"floor"`
	TotalFloors  *int    `json:"total_floors"`
	BuildingType string  `json:"building_type"`
	BuildingYear *int    `json:"building_year"`

	K                      int     `json:"k"`
	MaxDistanceKm          float64 `json:"max_distance_km"`
	ListingsMaxAgeDays     int     `json:"listings_max_age_days"`
	TransactionsMaxAgeDays int     `json:"transactions_max_age_days"`
}

func estimateHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req estimateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		vr := valuation.ValuationRequest{
			Lat: req.Lat, Lon: req.Lon, AreaTotal: req.AreaTotal,
			Rooms: req.Rooms, Floor: req.Floor, TotalFloors: req.TotalFloors,
			BuildingType: req.BuildingType, BuildingYear: req.BuildingYear,
			K: req.K, MaxDistanceKm: req.MaxDistanceKm,
		}.Defaults()

		listingsMaxAge := req.ListingsMaxAgeDays
		if listingsMaxAge <= 0 {
			listingsMaxAge = vr.MaxAgeDays
		}
		transactionsMaxAge := req.TransactionsMaxAgeDays
		if transactionsMaxAge <= 0 {
			transactionsMaxAge = 365
		}

		resp, err := svc.Combined.Estimate(c.Request.Context(), vr.Features(), vr.K, vr.MaxDistanceKm, listingsMaxAge, transactionsMaxAge)
		if err != nil {
			writeValuationError(c, err)
			return
		}

		if svc.Valuations != nil {
			if _, err := svc.Valuations.Save(c.Request.Context(), vr, resp); err != nil {
				log.Printf("⚠️ failed to persist valuation audit record: %v", err)
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// estimateListingsHandler runs the listings-only grid+KNN cascade
// (spec.md §4.5) instead of the full listings+transactions fusion. The
// region is resolved here from the request's lat/lon; the request carries
// no region of its own.
func estimateListingsHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req estimateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		vr := valuation.ValuationRequest{
			Lat: req.Lat, Lon: req.Lon, AreaTotal: req.AreaTotal,
			Rooms: req.Rooms, Floor: req.Floor, TotalFloors: req.TotalFloors,
			BuildingType: req.BuildingType, BuildingYear: req.BuildingYear,
			K: req.K, MaxDistanceKm: req.MaxDistanceKm,
		}.Defaults()

		listingsMaxAge := req.ListingsMaxAgeDays
		if listingsMaxAge <= 0 {
			listingsMaxAge = vr.MaxAgeDays
		}

		lat, lon := req.Lat, req.Lon
		regionResult, err := svc.Region.Resolve(c.Request.Context(), &lat, &lon, "")
		if err != nil || regionResult.Region == nil {
			writeValuationError(c, valuation.InsufficientData("could not resolve a region for the requested coordinate"))
			return
		}

		totalFloors := 0
		if vr.TotalFloors != nil {
			totalFloors = *vr.TotalFloors
		}
		rooms := 0
		if vr.Rooms != nil {
			rooms = *vr.Rooms
		}

		gridEstimate, err := svc.Grid.Estimate(c.Request.Context(), regionResult.Region.ID, vr.BuildingType, totalFloors, rooms)
		if err != nil {
			writeValuationError(c, err)
			return
		}

		knnEstimate, err := svc.KNN.Search(c.Request.Context(), vr.Features(), vr.K, vr.MaxDistanceKm, listingsMaxAge)
		var knnPtr *valuation.KNNEstimate
		if err == nil {
			knnPtr = &knnEstimate
		}

		resp, err := hybrid.Estimate(gridEstimate, knnPtr, vr.AreaTotal)
		if err != nil {
			writeValuationError(c, err)
			return
		}

		if svc.Valuations != nil {
			if _, err := svc.Valuations.Save(c.Request.Context(), vr, resp); err != nil {
				log.Printf("⚠️ failed to persist valuation audit record: %v", err)
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// investmentRequest wraps investment.Params with the three inputs that vary
// per call (project type, market price, area) the params struct itself
// doesn't carry.
type investmentRequest struct {
	ProjectType string             `json:"project_type" binding:"required"`
	MarketPrice float64            `json:"market_price" binding:"required,gt=0"`
	AreaTotal   float64            `json:"area_total" binding:"required,gt=0"`
	Params      *investment.Params `json:"params"`
}

func investmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req investmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		params := investment.DefaultParams()
		if req.Params != nil {
			params = *req.Params
		}

		result, err := investment.Calculate(investment.ProjectType(req.ProjectType), req.MarketPrice, req.AreaTotal, params)
		if err != nil {
			writeValuationError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type duplicateDetectRequest struct {
	ListingID        uint       `json:"listing_id" binding:"required"`
	AddressCanonical string     `json:"address_canonical" binding:"required"`
	AreaTotal        float64    `json:"area_total"`
	Rooms            int        `json:"rooms"`
	FirstSeenAt      time.Time  `json:"first_seen_at" binding:"required"`
	PublishedAt      *time.Time `json:"published_at"`
}

func duplicateDetectHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req duplicateDetectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resolution, err := svc.Duplicate.Detect(c.Request.Context(), duplicate.ListingInfo{
			ID:               req.ListingID,
			AddressCanonical: req.AddressCanonical,
			AreaTotal:        req.AreaTotal,
			Rooms:            req.Rooms,
			FirstSeenAt:      req.FirstSeenAt,
			PublishedAt:      req.PublishedAt,
		})
		if err != nil {
			writeValuationError(c, err)
			return
		}

		if resolution.IsRepost && svc.Notify != nil && svc.AlertEmail != "" {
			subject := "Repost detected"
			body := fmt.Sprintf("Listing %d resolved as a repost of %d (similarity %.2f, reason: %s)",
				req.ListingID, resolution.OriginalID, resolution.Similarity, resolution.Reason)
			if err := svc.Notify.SendEmail(c.Request.Context(), svc.AlertEmail, subject, body, body); err != nil {
				log.Printf("⚠️ failed to send repost alert: %v", err)
			}
		}

		c.JSON(http.StatusOK, resolution)
	}
}

func duplicateExposureHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		stats, err := svc.Duplicate.Exposure(c.Request.Context(), uint(id))
		if err != nil {
			writeValuationError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

type regionResolveRequest struct {
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	AddressCanonical string   `json:"address_canonical"`
}

func regionResolveHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req regionResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := svc.Region.Resolve(c.Request.Context(), req.Lat, req.Lon, req.AddressCanonical)
		if err != nil {
			writeValuationError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type addressNormalizeRequest struct {
	Raw string `json:"raw" binding:"required"`
}

func addressNormalizeHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addressNormalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		canonical := svc.Address.Normalize(c.Request.Context(), req.Raw)
		c.JSON(http.StatusOK, gin.H{"canonical": canonical})
	}
}

// writeValuationError maps the closed valuation.Error taxonomy to HTTP
// status codes, per spec.md §7.
func writeValuationError(c *gin.Context, err error) {
	var verr *valuation.Error
	if !errors.As(err, &verr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"error": verr.Message, "kind": verr.Kind}
	if verr.Breakdown != nil {
		body["breakdown"] = verr.Breakdown
	}

	switch verr.Kind {
	case valuation.KindInvalidInput:
		c.JSON(http.StatusBadRequest, body)
	case valuation.KindInsufficientData, valuation.KindCostsExceedTarget, valuation.KindNormalizationFailed:
		c.JSON(http.StatusUnprocessableEntity, body)
	case valuation.KindTimeout:
		c.JSON(http.StatusGatewayTimeout, body)
	case valuation.KindStoreUnavailable:
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
