package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
)

var (
	// ErrInvalidInput signals the request violated a cart invariant.
	ErrInvalidInput = errors.New("invalid cart input")
	// ErrItemUnavailable means the catalog item is missing, inactive, or the
	// catalog could not be read.
	ErrItemUnavailable = errors.New("item no longer available")
	ErrLineNotFound    = domain.ErrLineNotFound
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrInvalidToken) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
