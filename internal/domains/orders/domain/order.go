package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoSubOrders      = errors.New("order needs at least one vendor")
	ErrSubOrderNotFound = errors.New("vendor has no sub-order in this order")
	ErrInvalidTaxRate   = errors.New("tax rate must be in [0, 1)")
)

// Line is an immutable snapshot taken at checkout. It deliberately carries
// no catalog item id; reorders match by name.
type Line struct {
	VendorID   int64
	VendorName string
	ItemName   string
	Quantity   int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
}

// SubOrder is one vendor's share of an order.
type SubOrder struct {
	VendorID   int64
	VendorName string
	Status     Status
	Subtotal   decimal.Decimal
	UpdatedAt  time.Time
}

// Transition moves the sub-order along the state machine.
func (s *SubOrder) Transition(to Status, at time.Time) error {
	if err := CanTransition(s.Status, to); err != nil {
		return err
	}
	s.Status = to
	s.UpdatedAt = at
	return nil
}

// Order is created once at checkout and never deleted.
type Order struct {
	ID         int64
	Token      string
	TableNo    string
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	PaymentRef string
	PaidAt     *time.Time
	CreatedAt  time.Time
	SubOrders  []SubOrder
	Lines      []Line
}

// Status is recomputed from the sub-orders on every call.
func (o *Order) Status() Status {
	statuses := make([]Status, 0, len(o.SubOrders))
	for _, sub := range o.SubOrders {
		statuses = append(statuses, sub.Status)
	}
	return Aggregate(statuses)
}

// SubOrder returns the vendor's sub-order.
func (o *Order) SubOrder(vendorID int64) (*SubOrder, error) {
	for i := range o.SubOrders {
		if o.SubOrders[i].VendorID == vendorID {
			return &o.SubOrders[i], nil
		}
	}
	return nil, ErrSubOrderNotFound
}

// VendorLines returns the line snapshots sold by vendorID.
func (o *Order) VendorLines(vendorID int64) []Line {
	var lines []Line
	for _, l := range o.Lines {
		if l.VendorID == vendorID {
			lines = append(lines, l)
		}
	}
	return lines
}

// IsPaid reports whether payment has been confirmed.
func (o *Order) IsPaid() bool {
	return o.PaidAt != nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.SubOrders = append([]SubOrder(nil), o.SubOrders...)
	clone.Lines = append([]Line(nil), o.Lines...)
	if o.PaidAt != nil {
		paid := *o.PaidAt
		clone.PaidAt = &paid
	}
	return &clone
}

// Pricing applies the configured tax rate to a combined subtotal.
type Pricing struct {
	taxRate decimal.Decimal
}

// NewPricing validates the tax rate.
func NewPricing(taxRate decimal.Decimal) (Pricing, error) {
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Pricing{}, ErrInvalidTaxRate
	}
	return Pricing{taxRate: taxRate}, nil
}

// TaxRate returns the configured rate.
func (p Pricing) TaxRate() decimal.Decimal {
	return p.taxRate
}

// Quote returns tax (rounded half away from zero to 0.01) and the payable total.
func (p Pricing) Quote(subtotal decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(p.taxRate).Round(2)
	return tax, subtotal.Add(tax)
}

// DraftGroup is one vendor's slice of a cart being converted.
type DraftGroup struct {
	VendorID   int64
	VendorName string
	Lines      []Line
}

// NewOrder builds an unsaved order with every sub-order in created.
func NewOrder(token, tableNo, paymentRef string, groups []DraftGroup, pricing Pricing, now time.Time) (*Order, error) {
	if len(groups) == 0 {
		return nil, ErrNoSubOrders
	}
	order := &Order{
		Token:      token,
		TableNo:    strings.TrimSpace(tableNo),
		PaymentRef: paymentRef,
		CreatedAt:  now,
		Subtotal:   decimal.Zero,
	}
	for _, g := range groups {
		sub := SubOrder{VendorID: g.VendorID, VendorName: g.VendorName, Status: StatusCreated, Subtotal: decimal.Zero, UpdatedAt: now}
		for _, l := range g.Lines {
			l.VendorID = g.VendorID
			l.VendorName = g.VendorName
			l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			sub.Subtotal = sub.Subtotal.Add(l.LineTotal)
			order.Lines = append(order.Lines, l)
		}
		order.Subtotal = order.Subtotal.Add(sub.Subtotal)
		order.SubOrders = append(order.SubOrders, sub)
	}
	order.Tax, order.Total = pricing.Quote(order.Subtotal)
	return order, nil
}
