package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/foodcourt-server/internal/platform/temporal/activities/orders"
)

// RunSettlementSequence executes the activities that confirm an order's payment.
func RunSettlementSequence(ctx workflow.Context, input ordersports.SettleOrderInput) (*ordersports.StatusView, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("settlement sequence started", "orderId", input.OrderID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var view ordersports.StatusView
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), orderactivities.MarkOrderPaidActivityName, input).Get(ctx, &view)
	if err != nil {
		logger.Error("settlement sequence failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	logger.Info("settlement sequence completed", "orderId", input.OrderID, "status", string(view.Status))
	return &view, nil
}
