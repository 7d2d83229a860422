package ports

import (
	"context"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
)

// Notifier is told about every committed sub-order transition. Delivery is
// best effort; readers always re-read the repository.
type Notifier interface {
	Publish(ctx context.Context, event domain.StatusChanged) error
}

// StatusFilter selects events for a subscriber. Zero fields match everything.
type StatusFilter struct {
	OrderID  int64
	VendorID int64
}

// Matches reports whether event passes the filter.
func (f StatusFilter) Matches(event domain.StatusChanged) bool {
	if f.OrderID != 0 && f.OrderID != event.OrderID {
		return false
	}
	if f.VendorID != 0 && f.VendorID != event.VendorID {
		return false
	}
	return true
}

// StatusFeed hands out live subscriptions to status changes. The returned
// cancel func must be called to release the subscription.
type StatusFeed interface {
	Subscribe(filter StatusFilter) (<-chan domain.StatusChanged, func())
}
