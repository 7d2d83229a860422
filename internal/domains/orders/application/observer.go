package application

import (
	"context"
	"fmt"

	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// GetStatus derives the aggregate status from the stored sub-orders.
// Concurrent polls of one order share a single repository read.
func (s *Service) GetStatus(ctx context.Context, orderID int64) (*ports.StatusView, error) {
	key := fmt.Sprintf("%d@%d", orderID, s.generation.Load())
	v, err, _ := s.polls.Do(key, func() (any, error) {
		return s.readStatus(context.WithoutCancel(ctx), orderID)
	})
	if err != nil {
		return nil, err
	}
	return cloneView(v.(*ports.StatusView)), nil
}

// GetOrder hides orders of other tokens behind ErrOrderNotFound.
func (s *Service) GetOrder(ctx context.Context, orderID int64, token string) (*domain.Order, error) {
	if err := cartdomain.ValidateToken(token); err != nil {
		return nil, mapError(err)
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.Token != token {
		return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}
	return order, nil
}

// ListHistory returns the token's orders newest first. limit <= 0 returns all.
func (s *Service) ListHistory(ctx context.Context, token string, limit int) ([]*domain.Order, error) {
	if err := cartdomain.ValidateToken(token); err != nil {
		return nil, mapError(err)
	}
	return s.orders.ListByOwner(ctx, token, limit)
}

func (s *Service) readStatus(ctx context.Context, orderID int64) (*ports.StatusView, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return statusView(order), nil
}

func statusView(order *domain.Order) *ports.StatusView {
	view := &ports.StatusView{
		OrderID:    order.ID,
		Status:     order.Status(),
		Payable:    order.Total,
		PaymentRef: order.PaymentRef,
		PaidAt:     order.PaidAt,
		SubOrders:  make([]ports.SubOrderView, 0, len(order.SubOrders)),
	}
	for _, sub := range order.SubOrders {
		view.SubOrders = append(view.SubOrders, ports.SubOrderView{
			VendorID:   sub.VendorID,
			VendorName: sub.VendorName,
			Status:     sub.Status,
			UpdatedAt:  sub.UpdatedAt,
		})
	}
	return view
}

func cloneView(v *ports.StatusView) *ports.StatusView {
	clone := *v
	clone.SubOrders = append([]ports.SubOrderView(nil), v.SubOrders...)
	if v.PaidAt != nil {
		paid := *v.PaidAt
		clone.PaidAt = &paid
	}
	return &clone
}
