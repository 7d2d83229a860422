package mapper

import (
	"time"

	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
)

// CartLine is the transport shape of one cart line. Money is a fixed
// two-decimal string.
type CartLine struct {
	LineID    int64     `json:"lineId"`
	VendorID  int64     `json:"vendorId"`
	ItemID    int64     `json:"itemId"`
	ItemName  string    `json:"itemName"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unitPrice"`
	LineTotal string    `json:"lineTotal"`
	AddedAt   time.Time `json:"addedAt"`
}

// Cart is the transport shape of a cart.
type Cart struct {
	Token     string     `json:"token"`
	Lines     []CartLine `json:"lines"`
	ItemCount int        `json:"itemCount"`
	Subtotal  string     `json:"subtotal"`
}

// AddItemRequest is the body of POST /v1/cart/items.
type AddItemRequest struct {
	Token    string `json:"token" binding:"required"`
	ItemID   int64  `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity"`
}

// HistoryLine is one line a client asks to reorder.
type HistoryLine struct {
	VendorName string `json:"vendorName" binding:"required"`
	ItemName   string `json:"itemName" binding:"required"`
	Quantity   int    `json:"quantity"`
}

// ReorderRequest is the body of POST /v1/reorder.
type ReorderRequest struct {
	Token string        `json:"token" binding:"required"`
	Lines []HistoryLine `json:"lines"`
}

// SkippedLine reports a history line reorder could not resolve.
type SkippedLine struct {
	VendorName string `json:"vendorName"`
	ItemName   string `json:"itemName"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// ReorderResult is the response of both reorder endpoints.
type ReorderResult struct {
	Added   int           `json:"added"`
	Skipped int           `json:"skipped"`
	Reasons []SkippedLine `json:"reasons"`
	Cart    Cart          `json:"cart"`
}

// FromDomainCart converts a cart to its transport representation.
func FromDomainCart(cart *cartdomain.Cart) Cart {
	if cart == nil {
		return Cart{Lines: []CartLine{}, Subtotal: "0.00"}
	}
	out := Cart{
		Token:     cart.Token,
		Lines:     make([]CartLine, 0, len(cart.Lines)),
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal().StringFixed(2),
	}
	for _, line := range cart.Lines {
		out.Lines = append(out.Lines, CartLine{
			LineID:    line.ID,
			VendorID:  line.VendorID,
			ItemID:    line.ItemID,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.Total().StringFixed(2),
			AddedAt:   line.AddedAt,
		})
	}
	return out
}

// ToDomainHistoryLines converts requested reorder lines.
func ToDomainHistoryLines(lines []HistoryLine) []cartdomain.HistoryLine {
	out := make([]cartdomain.HistoryLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartdomain.HistoryLine{VendorName: l.VendorName, ItemName: l.ItemName, Quantity: l.Quantity})
	}
	return out
}

// FromDomainReorderResult converts a reorder outcome.
func FromDomainReorderResult(result *cartdomain.ReorderResult) ReorderResult {
	out := ReorderResult{Reasons: []SkippedLine{}}
	if result == nil {
		out.Cart = FromDomainCart(nil)
		return out
	}
	out.Added = result.Added
	out.Skipped = result.SkippedCount()
	out.Cart = FromDomainCart(result.Cart)
	for _, s := range result.Skipped {
		out.Reasons = append(out.Reasons, SkippedLine{
			VendorName: s.Line.VendorName,
			ItemName:   s.Line.ItemName,
			Quantity:   s.Line.Quantity,
			Reason:     string(s.Reason),
			Detail:     s.Detail,
		})
	}
	return out
}
