package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/foodcourt-server/internal/app/api"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/notify"
	platformobservability "github.com/Apurer/foodcourt-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/foodcourt-server/internal/platform/postgres"
	orderactivities "github.com/Apurer/foodcourt-server/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/foodcourt-server/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "foodcourt-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Error("failed to open postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeDB()
	if db == nil {
		logger.Warn("worker running on in-memory stores; settlements will not reach the API process")
	}
	stores, err := api.BuildStores(ctx, cfg, db, logger)
	if err != nil {
		logger.Error("failed to build stores", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb, err := api.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, settlement pushes are not broadcast", slog.String("error", err.Error()))
	}
	if rdb != nil {
		defer rdb.Close()
	}
	services, err := api.BuildServices(cfg, stores, api.StatusNotifier(rdb, cfg.StatusChannel, notify.NewBroadcaster(0)), instruments)
	if err != nil {
		logger.Error("failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	settlementActivities := orderactivities.NewActivities(services.Orders)

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.SettlementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.PaymentSettlementWorkflow, workflow.RegisterOptions{Name: orderworkflows.PaymentSettlementWorkflowName})
	w.RegisterActivityWithOptions(settlementActivities.MarkOrderPaid, activity.RegisterOptions{Name: orderactivities.MarkOrderPaidActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.SettlementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
