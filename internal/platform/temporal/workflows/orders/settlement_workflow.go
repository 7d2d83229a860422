package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/temporal/sequences"
)

const (
	// PaymentSettlementWorkflowName is the public identifier for registering the workflow.
	PaymentSettlementWorkflowName = "orders.workflows.PaymentSettlement"
	// SettlementTaskQueue is the queue consumed by the worker processing settlement workflows.
	SettlementTaskQueue = "ORDER_SETTLEMENT"
)

// PaymentSettlementWorkflowInput carries the confirmed payment.
type PaymentSettlementWorkflowInput struct {
	Settle  ordersports.SettleOrderInput
	TraceID string
}

// PaymentSettlementWorkflow marks the order paid, which releases its created
// sub-orders to the kitchens.
func PaymentSettlementWorkflow(ctx workflow.Context, input PaymentSettlementWorkflowInput) (*ordersports.StatusView, error) {
	logger := workflow.GetLogger(ctx)
	orderID := input.Settle.OrderID
	logger.Info("PaymentSettlementWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	view, err := sequences.RunSettlementSequence(ctx, input.Settle)
	if err != nil {
		logger.Error("PaymentSettlementWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return nil, err
	}
	logger.Info("PaymentSettlementWorkflow completed", withTraceID(input.TraceID, "orderId", orderID, "status", string(view.Status))...)
	return view, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
