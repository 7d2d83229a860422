package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	cartmemory "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/memory"
	cartobs "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/observability"
	cartpostgres "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/persistence/postgres"
	cartapp "github.com/Apurer/foodcourt-server/internal/domains/cart/application"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	catalogmemory "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	ordermemory "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/memory"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/notify"
	ordersobs "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/foodcourt-server/internal/domains/orders/application"
	orderdomain "github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/memstore"
	"github.com/Apurer/foodcourt-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/foodcourt-server/internal/platform/observability"
	"github.com/Apurer/foodcourt-server/internal/shared/keyedmutex"
)

// Stores is the persistence of one process: either every adapter in memory
// or every adapter on the same Postgres database.
type Stores struct {
	Catalog     catalogports.Lookup
	Carts       cartports.Repository
	Orders      ordersports.Repository
	UnitOfWork  ordersports.UnitOfWork
	Idempotency ordersports.IdempotencyStore
}

// BuildStores picks the adapters for db. A nil db selects the in-memory
// adapters; otherwise the schema is migrated first.
func BuildStores(ctx context.Context, cfg Config, db *gorm.DB, logger *slog.Logger) (*Stores, error) {
	seed := catalogdomain.DemoCatalog()
	if db == nil {
		catalog := catalogmemory.NewCatalog()
		if cfg.SeedCatalog {
			var err error
			if catalog, err = catalogmemory.NewSeededCatalog(seed); err != nil {
				return nil, fmt.Errorf("seed catalog: %w", err)
			}
		}
		mem, err := memstore.New(cartmemory.Table(), ordermemory.Table())
		if err != nil {
			return nil, fmt.Errorf("create memory store: %w", err)
		}
		carts := cartmemory.NewRepository(mem)
		orders := ordermemory.NewRepository(mem)
		logger.Info("stores configured in memory", slog.Bool("catalog.seeded", cfg.SeedCatalog))
		return &Stores{
			Catalog:     catalog,
			Carts:       carts,
			Orders:      orders,
			UnitOfWork:  ordermemory.NewUnitOfWork(mem, carts, orders),
			Idempotency: ordermemory.NewIdempotencyStore(),
		}, nil
	}

	if err := migrations.Run(db); err != nil {
		return nil, err
	}
	catalog := catalogpostgres.NewCatalog(db)
	if cfg.SeedCatalog {
		seeded, err := catalog.Seed(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("catalog seed checked", slog.Bool("catalog.seeded", seeded))
	}
	logger.Info("stores configured with postgres")
	return &Stores{
		Catalog:     catalog,
		Carts:       cartpostgres.NewRepository(db),
		Orders:      orderpostgres.NewRepository(db),
		UnitOfWork:  orderpostgres.NewUnitOfWork(db),
		Idempotency: orderpostgres.NewIdempotencyStore(db),
	}, nil
}

// Services are the instrumented application services.
type Services struct {
	Carts  cartports.Service
	Orders ordersports.Service
}

// BuildServices wires the cart and order services over stores. Both share
// one lock map so checkout and cart edits on a token serialise.
func BuildServices(cfg Config, stores *Stores, notifier ordersports.Notifier, instruments *platformobservability.Instruments) (*Services, error) {
	logger := instruments.Logger
	locks := keyedmutex.New()
	pricing, err := orderdomain.NewPricing(cfg.TaxRate)
	if err != nil {
		return nil, err
	}
	carts := cartobs.New(
		cartapp.NewService(stores.Carts, stores.Catalog, locks),
		cartobs.WithLogger(logger),
		cartobs.WithTracer(instruments.Tracer("internal.cart.application")),
		cartobs.WithMeter(instruments.Meter("internal.cart.application")),
	)
	core, err := ordersapp.NewService(ordersapp.Dependencies{
		UnitOfWork:      stores.UnitOfWork,
		Orders:          stores.Orders,
		Carts:           stores.Carts,
		Catalog:         stores.Catalog,
		Idempotency:     stores.Idempotency,
		Notifier:        notifier,
		Locks:           locks,
		Pricing:         pricing,
		PaymentLinkBase: cfg.PaymentLinkBase,
	}, ordersapp.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	orders := ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	return &Services{Carts: carts, Orders: orders}, nil
}

// ConnectRedis dials addr and verifies it answers. An empty addr yields nil.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// StatusNotifier returns where committed transitions are published: Redis
// when available so every instance hears them, the local feed otherwise.
func StatusNotifier(rdb *redis.Client, channel string, local *notify.Broadcaster) ordersports.Notifier {
	if rdb == nil {
		return local
	}
	return notify.NewRedisPublisher(rdb, channel)
}

// ConnectTemporal dials the Temporal frontend with tracing and structured logging.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
