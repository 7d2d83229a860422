package ports

import (
	"context"
	"errors"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
)

var (
	ErrNotFound = errors.New("cart not found")
	// ErrConcurrentUpdate means the stored cart changed since it was read.
	ErrConcurrentUpdate = errors.New("cart modified concurrently")
)

// Repository persists whole carts keyed by identity token.
type Repository interface {
	Get(ctx context.Context, token string) (*domain.Cart, error)
	// Save stores cart if its Version still matches, assigns ids to new
	// lines and returns the stored cart with the bumped version.
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	// Clear empties the cart, keeping the row. Same version check as Save.
	Clear(ctx context.Context, cart *domain.Cart) error
}

// LockKey is the keyed-mutex key guarding a token's cart. Every writer of a
// cart (add, remove, checkout, transfer) takes it.
func LockKey(token string) string {
	return "cart:" + token
}
