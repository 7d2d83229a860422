package ports

import (
	"context"
	"errors"
	"time"

	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStatusChanged means the sub-order was no longer in the expected
	// state when the compare-and-set ran.
	ErrStatusChanged = errors.New("sub-order status changed concurrently")
)

// VendorOrderQuery filters a vendor's sub-orders. Zero values mean "any".
type VendorOrderQuery struct {
	VendorID int64
	Statuses []domain.Status
	Since    time.Time
	Limit    int
}

// Repository persists orders with their sub-orders and line snapshots.
type Repository interface {
	// Create assigns the order id and stores the order atomically.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	// ListByOwner returns newest first; limit <= 0 means all.
	ListByOwner(ctx context.Context, token string, limit int) ([]*domain.Order, error)
	// ListByVendor returns orders holding a matching sub-order, newest first.
	ListByVendor(ctx context.Context, query VendorOrderQuery) ([]*domain.Order, error)
	// UpdateSubOrderStatus is a compare-and-set on the sub-order status.
	UpdateSubOrderStatus(ctx context.Context, orderID, vendorID int64, from, to domain.Status, at time.Time) error
	// MarkPaid records the payment time once and reports whether it did.
	MarkPaid(ctx context.Context, orderID int64, at time.Time) (bool, error)
	// ReassignOwner moves every order of from to to.
	ReassignOwner(ctx context.Context, from, to string) (int64, error)
}

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Carts() cartports.Repository
	Orders() Repository
}

// UnitOfWork commits everything fn wrote through tx, or nothing.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
