// Package region resolves a coordinate and/or address to the Moscow
// administrative region it falls within (segment/district resolver).
package region

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"chrisgross-ctrl-project/internal/geo"
	"chrisgross-ctrl-project/internal/models"
)

// nearestCentroidCapKm is the maximum distance a nearest-centroid fallback
// will accept before giving up and reporting Method "none".
const nearestCentroidCapKm = 5.0

const cacheKeyPrefix = "region:resolve:v1:"
const cacheTTL = 1 * time.Hour

// Method records which stage of the cascade produced the result.
type Method string

const (
	MethodPolygon  Method = "polygon"
	MethodCentroid Method = "nearest_centroid"
	MethodAddress  Method = "address_text"
	MethodNone     Method = "none"
)

// Result is the resolved region plus which stage produced it.
type Result struct {
	Region *models.Region
	Method Method
}

// Loader refreshes the polygon set; satisfied by store.RegionRepository.
type Loader interface {
	LoadAll(ctx context.Context) ([]models.Region, error)
	FindByName(ctx context.Context, name string) (*models.Region, error)
}

// Resolver holds an in-process, periodically refreshed copy of every region
// polygon (a read-mostly cache, since regions change on the order of years
// not requests) plus an optional Redis layer for resolved-point lookups.
type Resolver struct {
	loader Loader
	redis  *redis.Client
	rctx   context.Context

	mu      sync.RWMutex
	regions []models.Region
}

// New builds a Resolver. redisClient may be nil, in which case only the
// in-process polygon cache is used.
func New(loader Loader, redisClient *redis.Client) *Resolver {
	return &Resolver{loader: loader, redis: redisClient, rctx: context.Background()}
}

// Refresh reloads the polygon set from the store. Call on startup and on an
// interval (see RunRefreshLoop).
func (r *Resolver) Refresh(ctx context.Context) error {
	regions, err := r.loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh region cache: %w", err)
	}
	r.mu.Lock()
	r.regions = regions
	r.mu.Unlock()
	log.Printf("region cache refreshed: %d regions", len(regions))
	return nil
}

// RunRefreshLoop blocks, refreshing on interval until ctx is cancelled.
func (r *Resolver) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				log.Printf("region cache refresh failed: %v", err)
			}
		}
	}
}

// Resolve determines the region for a coordinate and/or canonical address,
// trying point-in-polygon, then nearest-centroid within a 5km cap, then an
// address-text district token lookup, in that order.
func (r *Resolver) Resolve(ctx context.Context, lat, lon *float64, addressCanonical string) (Result, error) {
	if lat != nil && lon != nil {
		if cached, ok := r.lookupCache(*lat, *lon); ok {
			return cached, nil
		}
	}

	result := r.resolveUncached(ctx, lat, lon, addressCanonical)

	if lat != nil && lon != nil && result.Method == MethodPolygon {
		r.storeCache(*lat, *lon, result)
	}
	return result, nil
}

func (r *Resolver) resolveUncached(ctx context.Context, lat, lon *float64, addressCanonical string) Result {
	if lat != nil && lon != nil {
		if region := r.byPolygon(*lat, *lon); region != nil {
			return Result{Region: region, Method: MethodPolygon}
		}
		if region := r.byNearestCentroid(*lat, *lon); region != nil {
			return Result{Region: region, Method: MethodCentroid}
		}
	}

	if token := districtToken(addressCanonical); token != "" {
		if region, err := r.loader.FindByName(ctx, token); err == nil && region != nil {
			return Result{Region: region, Method: MethodAddress}
		}
	}

	return Result{Method: MethodNone}
}

// byPolygon returns the innermost (highest Level) region whose ring contains
// the point, since finer-grained regions nest inside coarser ones.
func (r *Resolver) byPolygon(lat, lon float64) *models.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.Region
	for i := range r.regions {
		reg := &r.regions[i]
		if len(reg.RingLats) < 3 {
			continue
		}
		if !geo.PointInPolygon(lat, lon, reg.RingLons, reg.RingLats) {
			continue
		}
		if best == nil || reg.Level > best.Level {
			best = reg
		}
	}
	return best
}

// byNearestCentroid falls back to whichever region's centroid is closest,
// provided it's within nearestCentroidCapKm.
func (r *Resolver) byNearestCentroid(lat, lon float64) *models.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.Region
	bestDist := math.Inf(1)
	for i := range r.regions {
		reg := &r.regions[i]
		d := geo.HaversineKm(lat, lon, reg.CentroidLat, reg.CentroidLon)
		if d < bestDist {
			bestDist = d
			best = reg
		}
	}
	if best == nil || bestDist > nearestCentroidCapKm {
		return nil
	}
	return best
}

// districtToken pulls a plausible district/region name token out of a
// canonical address string for the last-resort text lookup. The canonical
// form has already stripped street/house/apartment tokens, so what remains
// is frequently just the street name; this returns the first word as the
// best-effort candidate, letting FindByName's partial match do the rest.
func districtToken(addressCanonical string) string {
	addressCanonical = strings.TrimSpace(addressCanonical)
	if addressCanonical == "" {
		return ""
	}
	fields := strings.Fields(addressCanonical)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (r *Resolver) lookupCache(lat, lon float64) (Result, bool) {
	if r.redis == nil {
		return Result{}, false
	}
	val, err := r.redis.Get(r.rctx, cacheKey(lat, lon)).Result()
	if err != nil {
		return Result{}, false
	}
	var region models.Region
	if err := json.Unmarshal([]byte(val), &region); err != nil {
		return Result{}, false
	}
	return Result{Region: &region, Method: MethodPolygon}, true
}

func (r *Resolver) storeCache(lat, lon float64, result Result) {
	if r.redis == nil || result.Region == nil {
		return
	}
	data, err := json.Marshal(result.Region)
	if err != nil {
		return
	}
	if err := r.redis.Set(r.rctx, cacheKey(lat, lon), data, cacheTTL).Err(); err != nil {
		log.Printf("region cache write failed: %v", err)
	}
}

// cacheKey rounds to ~11m precision (4 decimal places), enough to dedupe
// repeated lookups for the same building without inflating key cardinality.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%s%.4f:%.4f", cacheKeyPrefix, lat, lon)
}
