package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Apurer/foodcourt-server/internal/app/api"
	orderpostgres "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/persistence/postgres"
	platformobservability "github.com/Apurer/foodcourt-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/foodcourt-server/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := platformobservability.NewLogger(nil, "info")
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, cleanup, err := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set; nothing to purge")
	}

	cutoff := time.Now().UTC().Add(-cfg.IdempotencyTTL)
	removed, err := orderpostgres.NewIdempotencyStore(db).PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("idempotency purge completed", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
}
