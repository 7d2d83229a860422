package application

import (
	"errors"
	"fmt"

	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated an order invariant.
	ErrInvalidInput = errors.New("invalid order input")

	ErrEmptyCart      = errors.New("cart is empty")
	ErrOrderNotFound  = errors.New("order not found")
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrVendorUnavailable means a vendor in the cart could not be resolved
	// at checkout.
	ErrVendorUnavailable = errors.New("vendor unavailable")

	ErrInvalidTransition   = domain.ErrInvalidTransition
	ErrSubOrderNotFound    = domain.ErrSubOrderNotFound
	ErrIdempotencyConflict = ports.ErrIdempotencyConflict
	ErrConcurrentUpdate    = cartports.ErrConcurrentUpdate
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrNoSubOrders),
		errors.Is(err, cartdomain.ErrInvalidToken):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrOrderNotFound, err)
	case errors.Is(err, ports.ErrStatusChanged):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}
	return err
}
