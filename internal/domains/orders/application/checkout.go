package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// Checkout converts the token's cart into one order with a sub-order per
// vendor. The order insert and the cart clear commit together or not at all.
func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*ports.Receipt, error) {
	if err := cartdomain.ValidateToken(input.Token); err != nil {
		return nil, mapError(err)
	}
	unlock, err := s.locks.Lock(ctx, cartports.LockKey(input.Token))
	if err != nil {
		return nil, err
	}
	defer unlock()

	key := strings.TrimSpace(input.IdempotencyKey)
	tokenHash := hashToken(input.Token)
	if key != "" {
		if receipt, err := s.replay(ctx, key, tokenHash); receipt != nil || err != nil {
			return receipt, err
		}
	}

	var created *domain.Order
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		cart, err := tx.Carts().Get(ctx, input.Token)
		if errors.Is(err, cartports.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return ErrEmptyCart
		}
		groups, err := s.draftGroups(ctx, cart)
		if err != nil {
			return err
		}
		order, err := domain.NewOrder(input.Token, input.TableNo, s.newRef(), groups, s.pricing, s.now().UTC())
		if err != nil {
			return err
		}
		if created, err = tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return tx.Carts().Clear(ctx, cart)
	})
	if err != nil {
		return nil, mapError(err)
	}

	if key != "" {
		record := ports.IdempotencyRecord{Key: key, TokenHash: tokenHash, OrderID: created.ID, CreatedAt: s.now().UTC()}
		if _, err := s.idempotency.Save(ctx, record); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "idempotency key not stored",
				slog.Int64("order.id", created.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	s.verifyCleared(ctx, input.Token, created.ID)
	return s.receipt(created, false), nil
}

func (s *Service) replay(ctx context.Context, key, tokenHash string) (*ports.Receipt, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil || record == nil {
		return nil, err
	}
	if record.TokenHash != tokenHash {
		return nil, ErrIdempotencyConflict
	}
	order, err := s.orders.Get(ctx, record.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	return s.receipt(order, true), nil
}

func (s *Service) draftGroups(ctx context.Context, cart *cartdomain.Cart) ([]domain.DraftGroup, error) {
	vendorGroups := cart.GroupByVendor()
	groups := make([]domain.DraftGroup, 0, len(vendorGroups))
	for _, vg := range vendorGroups {
		vendor, err := s.catalog.GetVendor(ctx, vg.VendorID)
		if err != nil {
			return nil, fmt.Errorf("%w: vendor %d: %w", ErrVendorUnavailable, vg.VendorID, err)
		}
		group := domain.DraftGroup{VendorID: vendor.ID, VendorName: vendor.Name}
		for _, line := range vg.Lines {
			group.Lines = append(group.Lines, domain.Line{
				ItemName:  line.ItemName,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// verifyCleared re-reads the cart after commit. A non-empty cart here means
// the transaction boundary leaked.
func (s *Service) verifyCleared(ctx context.Context, token string, orderID int64) {
	cart, err := s.carts.Get(ctx, token)
	if err != nil || cart.IsEmpty() {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelError, "cart not cleared after checkout",
		slog.String("invariant", "partial_checkout"),
		slog.Int64("order.id", orderID),
		slog.Int("cart.lines", len(cart.Lines)),
	)
}

func (s *Service) receipt(order *domain.Order, replayed bool) *ports.Receipt {
	return &ports.Receipt{
		OrderID:     order.ID,
		Status:      order.Status(),
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Payable:     order.Total,
		PaymentRef:  order.PaymentRef,
		PaymentLink: s.paymentLink(order.PaymentRef),
		Vendors:     len(order.SubOrders),
		CreatedAt:   order.CreatedAt,
		Replayed:    replayed,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
