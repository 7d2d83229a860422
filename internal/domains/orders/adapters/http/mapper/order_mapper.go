package mapper

import (
	"time"

	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// CheckoutRequest is the body of POST /v1/checkout.
type CheckoutRequest struct {
	Token   string `json:"token" binding:"required"`
	TableNo string `json:"tableNo"`
}

// Receipt is returned by checkout.
type Receipt struct {
	OrderID     int64     `json:"orderId"`
	Status      string    `json:"status"`
	Subtotal    string    `json:"subtotal"`
	Tax         string    `json:"tax"`
	Payable     string    `json:"payable"`
	PaymentRef  string    `json:"paymentRef"`
	PaymentLink string    `json:"paymentLink,omitempty"`
	Vendors     int       `json:"vendors"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SubOrderStatus struct {
	VendorID   int64     `json:"vendorId"`
	VendorName string    `json:"vendorName"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OrderStatus is the pollable status document.
type OrderStatus struct {
	OrderID    int64            `json:"orderId"`
	Status     string           `json:"status"`
	Payable    string           `json:"payable"`
	PaymentRef string           `json:"paymentRef"`
	Paid       bool             `json:"paid"`
	PaidAt     *time.Time       `json:"paidAt,omitempty"`
	SubOrders  []SubOrderStatus `json:"subOrders"`
}

type OrderLine struct {
	VendorID   int64  `json:"vendorId"`
	VendorName string `json:"vendorName"`
	ItemName   string `json:"itemName"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unitPrice"`
	LineTotal  string `json:"lineTotal"`
}

// Order is one entry of the shopper's history.
type Order struct {
	OrderID   int64            `json:"orderId"`
	Status    string           `json:"status"`
	TableNo   string           `json:"tableNo,omitempty"`
	Subtotal  string           `json:"subtotal"`
	Tax       string           `json:"tax"`
	Payable   string           `json:"payable"`
	Paid      bool             `json:"paid"`
	CreatedAt time.Time        `json:"createdAt"`
	SubOrders []SubOrderStatus `json:"subOrders"`
	Lines     []OrderLine      `json:"lines"`
}

// ReorderOrderRequest is the body of POST /v1/orders/:orderId/reorder.
type ReorderOrderRequest struct {
	Token string `json:"token" binding:"required"`
}

// TransferRequest is the body of POST /v1/cart/transfer.
type TransferRequest struct {
	FromToken string `json:"fromToken" binding:"required"`
	ToToken   string `json:"toToken" binding:"required"`
}

type TransferResult struct {
	LinesMoved  int   `json:"linesMoved"`
	OrdersMoved int64 `json:"ordersMoved"`
}

// AdvanceRequest is the body of the vendor status PATCH.
type AdvanceRequest struct {
	Status string `json:"status" binding:"required"`
}

// VendorOrder is one sub-order on a vendor's board.
type VendorOrder struct {
	OrderID   int64       `json:"orderId"`
	TableNo   string      `json:"tableNo,omitempty"`
	Status    string      `json:"status"`
	Subtotal  string      `json:"subtotal"`
	Paid      bool        `json:"paid"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type TopItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type VendorStats struct {
	VendorID        int64      `json:"vendorId"`
	TotalOrders     int        `json:"totalOrders"`
	PendingOrders   int        `json:"pendingOrders"`
	CompletedOrders int        `json:"completedOrders"`
	CancelledOrders int        `json:"cancelledOrders"`
	Revenue         string     `json:"revenue"`
	MenuItems       int        `json:"menuItems"`
	TopItems        []TopItem  `json:"topItems"`
	Since           *time.Time `json:"since,omitempty"`
}

type DailyRevenue struct {
	Date    string `json:"date"`
	Orders  int    `json:"orders"`
	Revenue string `json:"revenue"`
}

func FromReceipt(r *ports.Receipt) Receipt {
	return Receipt{
		OrderID:     r.OrderID,
		Status:      string(r.Status),
		Subtotal:    r.Subtotal.StringFixed(2),
		Tax:         r.Tax.StringFixed(2),
		Payable:     r.Payable.StringFixed(2),
		PaymentRef:  r.PaymentRef,
		PaymentLink: r.PaymentLink,
		Vendors:     r.Vendors,
		CreatedAt:   r.CreatedAt,
	}
}

func FromStatusView(v *ports.StatusView) OrderStatus {
	out := OrderStatus{
		OrderID:    v.OrderID,
		Status:     string(v.Status),
		Payable:    v.Payable.StringFixed(2),
		PaymentRef: v.PaymentRef,
		Paid:       v.PaidAt != nil,
		PaidAt:     v.PaidAt,
		SubOrders:  make([]SubOrderStatus, 0, len(v.SubOrders)),
	}
	for _, sub := range v.SubOrders {
		out.SubOrders = append(out.SubOrders, SubOrderStatus{
			VendorID:   sub.VendorID,
			VendorName: sub.VendorName,
			Status:     string(sub.Status),
			UpdatedAt:  sub.UpdatedAt,
		})
	}
	return out
}

func FromDomainOrder(o *domain.Order) Order {
	out := Order{
		OrderID:   o.ID,
		Status:    string(o.Status()),
		TableNo:   o.TableNo,
		Subtotal:  o.Subtotal.StringFixed(2),
		Tax:       o.Tax.StringFixed(2),
		Payable:   o.Total.StringFixed(2),
		Paid:      o.IsPaid(),
		CreatedAt: o.CreatedAt,
		SubOrders: make([]SubOrderStatus, 0, len(o.SubOrders)),
		Lines:     fromLines(o.Lines),
	}
	for _, sub := range o.SubOrders {
		out.SubOrders = append(out.SubOrders, SubOrderStatus{
			VendorID:   sub.VendorID,
			VendorName: sub.VendorName,
			Status:     string(sub.Status),
			UpdatedAt:  sub.UpdatedAt,
		})
	}
	return out
}

func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromDomainOrder(o))
	}
	return out
}

// ToHistoryLines turns an order's snapshots into reorder input. Only names
// and quantities survive; the snapshot has no catalog ids.
func ToHistoryLines(o *domain.Order) []cartdomain.HistoryLine {
	lines := make([]cartdomain.HistoryLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, cartdomain.HistoryLine{VendorName: l.VendorName, ItemName: l.ItemName, Quantity: l.Quantity})
	}
	return lines
}

func FromVendorOrders(orders []ports.VendorOrder) []VendorOrder {
	out := make([]VendorOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, VendorOrder{
			OrderID:   o.OrderID,
			TableNo:   o.TableNo,
			Status:    string(o.Status),
			Subtotal:  o.Subtotal.StringFixed(2),
			Paid:      o.Paid,
			Lines:     fromLines(o.Lines),
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		})
	}
	return out
}

func FromVendorStats(s *ports.VendorStats) VendorStats {
	out := VendorStats{
		VendorID:        s.VendorID,
		TotalOrders:     s.TotalOrders,
		PendingOrders:   s.PendingOrders,
		CompletedOrders: s.CompletedOrders,
		CancelledOrders: s.CancelledOrders,
		Revenue:         s.Revenue.StringFixed(2),
		MenuItems:       s.MenuItems,
		TopItems:        make([]TopItem, 0, len(s.TopItems)),
	}
	if !s.Since.IsZero() {
		since := s.Since
		out.Since = &since
	}
	for _, item := range s.TopItems {
		out.TopItems = append(out.TopItems, TopItem{Name: item.Name, Quantity: item.Quantity})
	}
	return out
}

func FromDailyRevenue(days []ports.DailyRevenue) []DailyRevenue {
	out := make([]DailyRevenue, 0, len(days))
	for _, d := range days {
		out = append(out, DailyRevenue{Date: d.Date.Format(time.DateOnly), Orders: d.Orders, Revenue: d.Revenue.StringFixed(2)})
	}
	return out
}

func FromTransferResult(r *ports.TransferResult) TransferResult {
	return TransferResult{LinesMoved: r.LinesMoved, OrdersMoved: r.OrdersMoved}
}

func fromLines(lines []domain.Line) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderLine{
			VendorID:   l.VendorID,
			VendorName: l.VendorName,
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			LineTotal:  l.LineTotal.StringFixed(2),
		})
	}
	return out
}
