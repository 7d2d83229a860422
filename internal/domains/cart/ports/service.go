package ports

import (
	"context"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
)

// AddItemInput carries the catalog item to add.
type AddItemInput struct {
	Token    string
	ItemID   int64
	Quantity int
}

// RemoveItemInput targets one line of the token's cart.
type RemoveItemInput struct {
	Token  string
	LineID int64
}

// ReorderInput carries the history lines to re-resolve.
type ReorderInput struct {
	Token string
	Lines []domain.HistoryLine
}

// Service exposes the cart aggregator and reorder resolver.
type Service interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	AddItem(ctx context.Context, input AddItemInput) (*domain.Cart, error)
	RemoveItem(ctx context.Context, input RemoveItemInput) (*domain.Cart, error)
	Reorder(ctx context.Context, input ReorderInput) (*domain.ReorderResult, error)
}
