package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// AdvanceSubOrder moves the vendor's own sub-order one step. Rejections
// leave the stored status untouched.
func (s *Service) AdvanceSubOrder(ctx context.Context, input ports.AdvanceInput) (*ports.StatusView, error) {
	to, err := domain.ParseStatus(string(input.To))
	if err != nil {
		return nil, mapError(err)
	}
	unlock, err := s.locks.Lock(ctx, subOrderLockKey(input.OrderID, input.VendorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	sub, err := order.SubOrder(input.VendorID)
	if err != nil {
		return nil, fmt.Errorf("%w: order %d vendor %d", err, input.OrderID, input.VendorID)
	}
	from := sub.Status
	if err := domain.CanTransition(from, to); err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if err := s.orders.UpdateSubOrderStatus(ctx, input.OrderID, input.VendorID, from, to, at); err != nil {
		return nil, mapError(err)
	}
	s.generation.Add(1)
	s.publish(ctx, domain.StatusChanged{
		OrderID:  input.OrderID,
		VendorID: input.VendorID,
		From:     from,
		To:       to,
		Cause:    domain.CauseVendor,
		At:       at,
	})
	return s.readStatus(ctx, input.OrderID)
}

// MarkPaid records payment once and pushes every created sub-order into
// preparing. Repeated calls finish whatever an earlier failed call left in
// created; sub-orders already moved on are left alone.
func (s *Service) MarkPaid(ctx context.Context, orderID int64) (*ports.StatusView, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	at := s.now().UTC()
	if _, err := s.orders.MarkPaid(ctx, orderID, at); err != nil {
		return nil, mapError(err)
	}
	for _, sub := range order.SubOrders {
		if sub.Status != domain.StatusCreated {
			continue
		}
		err := s.orders.UpdateSubOrderStatus(ctx, orderID, sub.VendorID, domain.StatusCreated, domain.StatusPreparing, at)
		if errors.Is(err, ports.ErrStatusChanged) {
			continue
		}
		if err != nil {
			return nil, mapError(err)
		}
		s.generation.Add(1)
		s.publish(ctx, domain.StatusChanged{
			OrderID:  orderID,
			VendorID: sub.VendorID,
			From:     domain.StatusCreated,
			To:       domain.StatusPreparing,
			Cause:    domain.CausePayment,
			At:       at,
		})
	}
	return s.readStatus(ctx, orderID)
}
