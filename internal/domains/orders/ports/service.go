package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
)

// CheckoutInput converts the token's cart into an order.
type CheckoutInput struct {
	Token          string
	TableNo        string
	IdempotencyKey string
}

// Receipt is what checkout hands back to the shopper.
type Receipt struct {
	OrderID     int64
	Status      domain.Status
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Payable     decimal.Decimal
	PaymentRef  string
	PaymentLink string
	Vendors     int
	CreatedAt   time.Time
	// Replayed is set when an idempotency key matched an earlier checkout.
	Replayed bool
}

// SubOrderView is one vendor's progress as seen by the shopper.
type SubOrderView struct {
	VendorID   int64
	VendorName string
	Status     domain.Status
	UpdatedAt  time.Time
}

// StatusView is the pollable status of an order.
type StatusView struct {
	OrderID    int64
	Status     domain.Status
	Payable    decimal.Decimal
	PaymentRef string
	PaidAt     *time.Time
	SubOrders  []SubOrderView
}

// AdvanceInput asks to move one vendor's sub-order.
type AdvanceInput struct {
	VendorID int64
	OrderID  int64
	To       domain.Status
}

// VendorOrdersQuery lists a vendor's sub-orders. Empty Statuses means the
// non-terminal ones.
type VendorOrdersQuery struct {
	VendorID int64
	Statuses []domain.Status
	Limit    int
}

// VendorOrder is a vendor's view of its share of an order.
type VendorOrder struct {
	OrderID   int64
	TableNo   string
	Status    domain.Status
	Subtotal  decimal.Decimal
	Lines     []domain.Line
	Paid      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TopItem counts units sold of one menu item name.
type TopItem struct {
	Name     string
	Quantity int
}

// VendorStats aggregates a vendor's sub-orders.
type VendorStats struct {
	VendorID        int64
	TotalOrders     int
	PendingOrders   int
	CompletedOrders int
	CancelledOrders int
	Revenue         decimal.Decimal
	MenuItems       int
	TopItems        []TopItem
	Since           time.Time
}

// DailyRevenue is one UTC day of a vendor's analytics.
type DailyRevenue struct {
	Date    time.Time
	Orders  int
	Revenue decimal.Decimal
}

// TransferResult reports what an identity transfer moved.
type TransferResult struct {
	LinesMoved  int
	OrdersMoved int64
}

// Service exposes checkout, fulfillment and the status observer.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*Receipt, error)
	GetStatus(ctx context.Context, orderID int64) (*StatusView, error)
	// GetOrder returns the order only when token owns it.
	GetOrder(ctx context.Context, orderID int64, token string) (*domain.Order, error)
	ListHistory(ctx context.Context, token string, limit int) ([]*domain.Order, error)
	ListVendorOrders(ctx context.Context, query VendorOrdersQuery) ([]VendorOrder, error)
	AdvanceSubOrder(ctx context.Context, input AdvanceInput) (*StatusView, error)
	MarkPaid(ctx context.Context, orderID int64) (*StatusView, error)
	VendorStats(ctx context.Context, vendorID int64, since time.Time) (*VendorStats, error)
	VendorAnalytics(ctx context.Context, vendorID int64, days int) ([]DailyRevenue, error)
	TransferIdentity(ctx context.Context, from, to string) (*TransferResult, error)
}
