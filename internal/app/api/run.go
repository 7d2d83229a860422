package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	foodcourtserver "github.com/Apurer/foodcourt-server/go"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/notify"
	orderworkflows "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/auth"
	platformobservability "github.com/Apurer/foodcourt-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/foodcourt-server/internal/platform/postgres"
	"github.com/Apurer/foodcourt-server/internal/platform/ratelimit"
)

const (
	serviceName = "foodcourt-api"

	limiterSweepInterval = time.Minute
	purgeInterval        = time.Hour
	shutdownTimeout      = 10 * time.Second
)

// Run boots the food court HTTP API and blocks until ctx is cancelled or
// the server fails.
func Run(ctx context.Context) error {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer closeDB()
	stores, err := BuildStores(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	feed := notify.NewBroadcaster(0)
	rdb, err := ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, status pushes stay in-process", slog.String("error", err.Error()))
	}
	if rdb != nil {
		defer rdb.Close()
		relay := notify.NewRedisRelay(rdb, cfg.StatusChannel, feed, logger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("status relay stopped", slog.String("error", err.Error()))
			}
		}()
		logger.Info("status pushes relayed through redis", slog.String("channel", cfg.StatusChannel))
	}

	services, err := BuildServices(cfg, stores, StatusNotifier(rdb, cfg.StatusChannel, feed), instruments)
	if err != nil {
		return err
	}

	var settlement ordersports.SettlementOrchestrator = orderworkflows.NewInlineSettlement(services.Orders)
	if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, settling payments inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		settlement = orderworkflows.NewTemporalSettlement(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, limiterSweepInterval)
	go purgeIdempotencyKeys(ctx, stores.Idempotency, cfg.IdempotencyTTL, logger)

	var vendorTokens *auth.VendorTokens
	if cfg.VendorJWTSecret != "" {
		if vendorTokens, err = auth.NewVendorTokens(cfg.VendorJWTSecret, auth.DefaultTokenTTL); err != nil {
			return err
		}
	} else {
		logger.Warn("VENDOR_JWT_SECRET not set, vendor routes are unauthenticated")
	}

	handlers := foodcourtserver.ApiHandleFunctions{
		CartAPI:      foodcourtserver.NewCartAPI(services.Carts, services.Orders),
		OrdersAPI:    foodcourtserver.NewOrdersAPI(services.Orders, services.Carts, settlement, feed),
		VendorAPI:    foodcourtserver.NewVendorAPI(services.Orders, feed),
		CatalogAPI:   foodcourtserver.NewCatalogAPI(stores.Catalog),
		Limiter:      limiter,
		VendorTokens: vendorTokens,
	}
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router = foodcourtserver.NewRouterWithGinEngine(router, handlers)

	return serve(ctx, ":"+cfg.Port, router, logger)
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("food court API listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		logger.Error("food court API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("food court API stopped")
	return nil
}

func purgeIdempotencyKeys(ctx context.Context, store ordersports.IdempotencyStore, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := store.PurgeOlderThan(ctx, now.Add(-ttl))
			if err != nil {
				logger.Warn("idempotency purge failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.Info("idempotency keys purged", slog.Int64("removed", removed))
			}
		}
	}
}
