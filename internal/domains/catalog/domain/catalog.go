package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidVendor = errors.New("invalid vendor")
	ErrInvalidItem   = errors.New("invalid menu item")
)

// Vendor is a food court stall.
type Vendor struct {
	ID      int64
	Name    string
	StallNo string
	GSTIN   string
}

// Validate rejects vendors without a usable display name.
func (v Vendor) Validate() error {
	if v.ID <= 0 {
		return errors.Join(ErrInvalidVendor, errors.New("id must be positive"))
	}
	if strings.TrimSpace(v.Name) == "" {
		return errors.Join(ErrInvalidVendor, errors.New("name is required"))
	}
	return nil
}

// Item is one sellable menu entry. Active=false hides it from carts and reorders.
type Item struct {
	ID       int64
	VendorID int64
	Name     string
	Price    decimal.Decimal
	Active   bool
}

// Validate enforces the catalog schema at the boundary: a name, an owning
// vendor and a strictly positive price with at most two decimal places.
func (i Item) Validate() error {
	switch {
	case i.ID <= 0:
		return errors.Join(ErrInvalidItem, errors.New("id must be positive"))
	case i.VendorID <= 0:
		return errors.Join(ErrInvalidItem, errors.New("vendor id must be positive"))
	case strings.TrimSpace(i.Name) == "":
		return errors.Join(ErrInvalidItem, errors.New("name is required"))
	case !i.Price.IsPositive():
		return errors.Join(ErrInvalidItem, errors.New("price must be positive"))
	case !i.Price.Equal(i.Price.Round(2)):
		return errors.Join(ErrInvalidItem, errors.New("price has more than two decimal places"))
	}
	return nil
}
