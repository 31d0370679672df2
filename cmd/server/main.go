package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"chrisgross-ctrl-project/internal/address"
	"chrisgross-ctrl-project/internal/auth"
	"chrisgross-ctrl-project/internal/config"
	"chrisgross-ctrl-project/internal/gridrun"
	"chrisgross-ctrl-project/internal/handlers"
	"chrisgross-ctrl-project/internal/jobs"
	"chrisgross-ctrl-project/internal/middleware"
	"chrisgross-ctrl-project/internal/notify"
	"chrisgross-ctrl-project/internal/region"
	"chrisgross-ctrl-project/internal/security"
	"chrisgross-ctrl-project/internal/store"
	"chrisgross-ctrl-project/internal/valuation/combined"
	"chrisgross-ctrl-project/internal/valuation/duplicate"
	"chrisgross-ctrl-project/internal/valuation/grid"
	"chrisgross-ctrl-project/internal/valuation/knn"
	"chrisgross-ctrl-project/internal/valuation/transaction"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("🚀 Starting Moscow Valuation Engine...")

	cfg := config.LoadConfig()
	log.Println("⚙️ Configuration loaded")

	gormDB, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("📊 Spatial store connected and migrated")

	sqlDB, _ := gormDB.DB()
	authManager := auth.NewSimpleAuthManager(sqlDB)
	log.Println("🔐 Authentication manager initialized")

	encryptionManager, err := security.NewEncryptionManager(gormDB)
	if err != nil {
		log.Printf("⚠️ Warning: encryption manager initialization failed: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		log.Println("🧮 Redis cache client initialized")
	}

	// Spatial store repositories.
	listingRepo := store.NewListingRepository(gormDB)
	transactionRepo := store.NewTransactionRepository(gormDB)
	regionRepo := store.NewRegionRepository(gormDB)
	aggregateRepo := store.NewAggregateRepository(gormDB)
	duplicateRepo := store.NewDuplicateRepository(gormDB)
	valuationRepo := store.NewValuationRepository(gormDB)

	// Adapters bridging store rows to each valuation sub-package's local
	// candidate/row shapes.
	gridAdapter := store.NewGridAdapter(aggregateRepo)
	knnAdapter := store.NewListingKNNAdapter(listingRepo)
	transactionAdapter := store.NewTransactionSearchAdapter(transactionRepo)
	duplicateAdapter := store.NewDuplicateDetectorAdapter(duplicateRepo)

	// Valuation engines.
	gridEstimator := grid.New(gridAdapter)
	knnSearcher := knn.New(knnAdapter)
	transactionSearcher := transaction.New(transactionAdapter)
	combinedEngine := combined.New(knnSearcher, transactionSearcher)
	duplicateDetector := duplicate.New(duplicateAdapter)

	regionResolver := region.New(regionRepo, redisClient)
	if err := regionResolver.Refresh(context.Background()); err != nil {
		log.Printf("⚠️ Warning: initial region cache refresh failed: %v", err)
	}
	go regionResolver.RunRefreshLoop(context.Background(), cfg.RegionRefreshInterval)

	var suggestionClient address.SuggestionClient
	if cfg.SuggestionAPIKey != "" {
		suggestionClient = address.NewDaDataSuggestionClient("https://suggestions.dadata.ru/suggestions/api/4_1/rs/suggest/address", cfg.SuggestionAPIKey)
	}
	addressNormalizer := address.New(suggestionClient)

	notifyDispatcher := notify.New(context.Background(), cfg)

	jobManager := jobs.NewJobManager(2)
	jobManager.RegisterJob(&jobs.Job{
		ID:         "grid_recompute",
		Name:       "grid aggregate recompute",
		Handler:    newGridRecomputeHandler(listingRepo, aggregateRepo),
		Timeout:    10 * time.Minute,
		MaxRetries: 2,
		RetryDelay: 5 * time.Minute,
	})
	if err := jobManager.ScheduleJob("grid_recompute", "daily grid recompute", "0 2 * * *", nil); err != nil {
		log.Printf("⚠️ Warning: failed to schedule grid recompute job: %v", err)
	}
	jobManager.Start()
	defer jobManager.Stop()

	svc := &Services{
		Combined:   combinedEngine,
		Duplicate:  duplicateDetector,
		Region:     regionResolver,
		Address:    addressNormalizer,
		Valuations: valuationRepo,
		Grid:       gridEstimator,
		KNN:        knnSearcher,
		Notify:     notifyDispatcher,
		AlertEmail: cfg.EmailFromAddress,
	}

	r := gin.Default()

	r.Use(func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/static/") {
			c.Header("X-Content-Type-Options", "nosniff")
		}
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})
	log.Println("🛡️ Security headers applied")

	securityMiddleware := middleware.NewSecurityMiddleware(gormDB)
	r.Use(gin.WrapH(securityMiddleware.SQLInjectionProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))))
	r.Use(gin.WrapH(securityMiddleware.XSSProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))))
	log.Println("🛡️ SQL injection and XSS protection applied")

	RegisterHealthRoutes(r, gormDB, authManager, encryptionManager)
	RegisterAPIRoutes(r, svc)
	handlers.RegisterAdminAuthRoutes(r, gormDB, cfg.JWTSecret)
	log.Println("🛣️ Routes registered")

	if err := ValidateGinRoutes(r); err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("🏁 Listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

// gridRecomputeHandler adapts gridrun.Run to jobs.JobHandler so the daily
// pooled-statistics recompute (spec.md §4.4) runs on the in-process
// scheduler instead of only from the standalone cmd/gridworker binary.
type gridRecomputeHandler struct {
	listingRepo   *store.ListingRepository
	aggregateRepo *store.AggregateRepository
}

func newGridRecomputeHandler(listingRepo *store.ListingRepository, aggregateRepo *store.AggregateRepository) *gridRecomputeHandler {
	return &gridRecomputeHandler{listingRepo: listingRepo, aggregateRepo: aggregateRepo}
}

func (h *gridRecomputeHandler) Execute(ctx context.Context, _ map[string]interface{}) (*jobs.JobResult, error) {
	result, err := gridrun.Run(ctx, h.listingRepo, h.aggregateRepo)
	if err != nil {
		return nil, err
	}
	return &jobs.JobResult{
		Success: true,
		Data: map[string]interface{}{
			"listings_pooled": result.ListingsPooled,
			"buckets":         result.Buckets,
			"upserted":        result.Upserted,
		},
	}, nil
}
