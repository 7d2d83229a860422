package ports

import (
	"context"
	"errors"

	"github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
)

var (
	ErrVendorNotFound = errors.New("vendor not found")
	ErrItemNotFound   = errors.New("menu item not found")
)

// Lookup is the read-only catalog the cart and reorder flows consult. It is
// the single source of truth for current prices and availability.
type Lookup interface {
	GetVendor(ctx context.Context, id int64) (*domain.Vendor, error)
	VendorByName(ctx context.Context, name string) (*domain.Vendor, error)
	ListVendors(ctx context.Context) ([]*domain.Vendor, error)
	// Menu lists a vendor's items ordered by name; activeOnly hides retired entries.
	Menu(ctx context.Context, vendorID int64, activeOnly bool) ([]*domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
}
