package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/foodcourt-server/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.SettlementOrchestrator = (*TemporalSettlement)(nil)
	_ ports.SettlementOrchestrator = (*InlineSettlement)(nil)
)

// TemporalSettlement runs payment settlement as a Temporal workflow.
type TemporalSettlement struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSettlement wires a Temporal client into the orchestrator.
func NewTemporalSettlement(c client.Client) *TemporalSettlement {
	return &TemporalSettlement{client: c, taskQueue: orderworkflows.SettlementTaskQueue}
}

// SettleOrder starts (or joins) the settlement workflow of the order and
// waits for its result. One workflow id per order keeps retries single.
func (o *TemporalSettlement) SettleOrder(ctx context.Context, input ports.SettleOrderInput) (*ports.StatusView, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal settlement not configured")
	}
	workflowID := SettlementWorkflowID(input.OrderID)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.PaymentSettlementWorkflowName,
		orderworkflows.PaymentSettlementWorkflowInput{Settle: input, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var view ports.StatusView
	if err := run.Get(ctx, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// InlineSettlement marks the order paid synchronously, for tests and when
// Temporal is disabled.
type InlineSettlement struct {
	service ports.Service
}

func NewInlineSettlement(service ports.Service) *InlineSettlement {
	return &InlineSettlement{service: service}
}

func (o *InlineSettlement) SettleOrder(ctx context.Context, input ports.SettleOrderInput) (*ports.StatusView, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline settlement not configured")
	}
	return o.service.MarkPaid(ctx, input.OrderID)
}

// SettlementWorkflowID is deterministic per order.
func SettlementWorkflowID(orderID int64) string {
	return fmt.Sprintf("order-settlement-%d", orderID)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
