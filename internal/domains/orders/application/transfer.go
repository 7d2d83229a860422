package application

import (
	"context"
	"errors"

	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// TransferIdentity hands a guest's cart lines and order history to another
// token, typically right after sign-in.
func (s *Service) TransferIdentity(ctx context.Context, from, to string) (*ports.TransferResult, error) {
	if err := cartdomain.ValidateToken(from); err != nil {
		return nil, mapError(err)
	}
	if err := cartdomain.ValidateToken(to); err != nil {
		return nil, mapError(err)
	}
	result := &ports.TransferResult{}
	if from == to {
		return result, nil
	}
	unlock, err := s.locks.LockAll(ctx, cartports.LockKey(from), cartports.LockKey(to))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		source, err := tx.Carts().Get(ctx, from)
		if err != nil && !errors.Is(err, cartports.ErrNotFound) {
			return err
		}
		if !source.IsEmpty() {
			target, err := tx.Carts().Get(ctx, to)
			if errors.Is(err, cartports.ErrNotFound) {
				target, err = cartdomain.New(to), nil
			}
			if err != nil {
				return err
			}
			target.Absorb(source, s.now().UTC())
			if _, err := tx.Carts().Save(ctx, target); err != nil {
				return err
			}
			if err := tx.Carts().Clear(ctx, source); err != nil {
				return err
			}
			result.LinesMoved = len(source.Lines)
		}
		moved, err := tx.Orders().ReassignOwner(ctx, from, to)
		if err != nil {
			return err
		}
		result.OrdersMoved = moved
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}
