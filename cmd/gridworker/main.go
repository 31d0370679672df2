// Command gridworker runs the daily grid-aggregate recompute pass: it pools
// every active listing's latest price by (region, segment), reduces each
// bucket to a GridAggregate row, and upserts it, so the grid estimator's
// fallback cascade (spec.md §4.4) has fresh pooled statistics to read at
// request time instead of recomputing them inline. Intended to run from an
// external scheduler (cron/k8s CronJob); cmd/server additionally runs the
// same pass in-process on a timer via internal/jobs.
package main

import (
	"context"
	"log"

	"chrisgross-ctrl-project/internal/config"
	"chrisgross-ctrl-project/internal/gridrun"
	"chrisgross-ctrl-project/internal/notify"
	"chrisgross-ctrl-project/internal/store"
)

func main() {
	log.Println("🚀 Starting grid aggregate worker...")

	cfg := config.LoadConfig()

	gormDB, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}

	listingRepo := store.NewListingRepository(gormDB)
	aggregateRepo := store.NewAggregateRepository(gormDB)
	dispatcher := notify.New(context.Background(), cfg)

	ctx := context.Background()
	result, err := gridrun.Run(ctx, listingRepo, aggregateRepo)
	if err != nil {
		log.Fatalf("❌ Grid recompute run failed: %v", err)
	}

	log.Printf("✅ %s", result)
	if err := dispatcher.SendEmail(ctx, cfg.EmailFromAddress, "Grid worker run summary", result.String(), result.String()); err != nil {
		log.Printf("⚠️ Run summary notification failed: %v", err)
	}
}
