package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidToken    = errors.New("identity token is required")
)

// Line is one cart entry. UnitPrice is the catalog price read by the most
// recent add of this item.
type Line struct {
	ID        int64
	VendorID  int64
	ItemID    int64
	ItemName  string
	Quantity  int
	UnitPrice decimal.Decimal
	AddedAt   time.Time
}

// Total is UnitPrice × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart belongs to exactly one identity token. Version guards optimistic
// writes; zero means the cart has never been stored.
type Cart struct {
	Token     string
	Lines     []Line
	Version   int64
	UpdatedAt time.Time
}

// New returns an empty cart for token.
func New(token string) *Cart {
	return &Cart{Token: token}
}

// ValidateToken rejects blank identity tokens.
func ValidateToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	return nil
}

// Add merges quantity into the line for itemID, or appends a new line.
// The line's price is replaced by unitPrice either way.
func (c *Cart) Add(vendorID, itemID int64, itemName string, quantity int, unitPrice decimal.Decimal, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	c.UpdatedAt = now
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity += quantity
			c.Lines[i].UnitPrice = unitPrice
			c.Lines[i].ItemName = itemName
			c.Lines[i].VendorID = vendorID
			c.Lines[i].AddedAt = now
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{
		VendorID:  vendorID,
		ItemID:    itemID,
		ItemName:  itemName,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   now,
	})
	return nil
}

// Remove drops a line entirely.
func (c *Cart) Remove(lineID int64, now time.Time) error {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = now
			return nil
		}
	}
	return ErrLineNotFound
}

// Absorb folds other's lines into c. Shared items sum their quantities and
// keep the most recently observed price.
func (c *Cart) Absorb(other *Cart, now time.Time) {
	if other == nil {
		return
	}
	for _, line := range other.Lines {
		merged := false
		for i := range c.Lines {
			if c.Lines[i].ItemID != line.ItemID {
				continue
			}
			c.Lines[i].Quantity += line.Quantity
			if line.AddedAt.After(c.Lines[i].AddedAt) {
				c.Lines[i].UnitPrice = line.UnitPrice
				c.Lines[i].ItemName = line.ItemName
				c.Lines[i].AddedAt = line.AddedAt
			}
			merged = true
			break
		}
		if !merged {
			line.ID = 0
			c.Lines = append(c.Lines, line)
		}
	}
	c.UpdatedAt = now
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// ItemCount is the total quantity across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// VendorGroup is the slice of a cart sold by one vendor.
type VendorGroup struct {
	VendorID int64
	Lines    []Line
	Subtotal decimal.Decimal
}

// GroupByVendor splits the cart per vendor, ordered by vendor id.
func (c *Cart) GroupByVendor() []VendorGroup {
	index := map[int64]int{}
	var groups []VendorGroup
	for _, line := range c.Lines {
		i, ok := index[line.VendorID]
		if !ok {
			i = len(groups)
			index[line.VendorID] = i
			groups = append(groups, VendorGroup{VendorID: line.VendorID, Subtotal: decimal.Zero})
		}
		groups[i].Lines = append(groups[i].Lines, line)
		groups[i].Subtotal = groups[i].Subtotal.Add(line.Total())
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].VendorID < groups[j].VendorID })
	return groups
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = append([]Line(nil), c.Lines...)
	return &clone
}
