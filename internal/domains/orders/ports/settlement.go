package ports

import "context"

// SettleOrderInput identifies the order whose payment was confirmed.
type SettleOrderInput struct {
	OrderID    int64
	PaymentRef string
}

// SettlementOrchestrator drives payment confirmation, durably when a
// workflow engine is configured.
type SettlementOrchestrator interface {
	SettleOrder(ctx context.Context, input SettleOrderInput) (*StatusView, error)
}
