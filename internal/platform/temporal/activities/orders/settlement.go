package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/foodcourt-server/internal/domains/orders/application"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

const (
	// MarkOrderPaidActivityName records a confirmed payment on an order.
	MarkOrderPaidActivityName = "orders.activities.MarkOrderPaid"
	// errTypeOrderNotFound marks failures retrying cannot fix.
	errTypeOrderNotFound = "OrderNotFound"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// MarkOrderPaid is idempotent, so retried attempts converge on the same status.
func (a *Activities) MarkOrderPaid(ctx context.Context, input ordersports.SettleOrderInput) (*ordersports.StatusView, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("settlement activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("settlement activity not initialized")
	}
	logger.Info("MarkOrderPaid activity started", "orderId", input.OrderID, "paymentRef", input.PaymentRef)
	view, err := a.service.MarkPaid(ctx, input.OrderID)
	if err != nil {
		logger.Error("MarkOrderPaid activity failed", "orderId", input.OrderID, "error", err)
		if errors.Is(err, ordersapp.ErrOrderNotFound) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), errTypeOrderNotFound, err)
		}
		return nil, err
	}
	logger.Info("MarkOrderPaid activity completed", "orderId", input.OrderID, "status", string(view.Status))
	return view, nil
}
