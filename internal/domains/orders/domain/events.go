package domain

import "time"

// Event is the base interface for order domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Cause names what drove a transition.
type Cause string

const (
	CauseVendor  Cause = "vendor"
	CausePayment Cause = "payment"
)

// StatusChanged is raised after a sub-order transition commits.
type StatusChanged struct {
	OrderID  int64     `json:"orderId"`
	VendorID int64     `json:"vendorId"`
	From     Status    `json:"from"`
	To       Status    `json:"to"`
	Cause    Cause     `json:"cause"`
	At       time.Time `json:"at"`
}

func (e StatusChanged) EventName() string {
	return "orders.suborder.status_changed"
}

func (e StatusChanged) OccurredAt() time.Time {
	return e.At
}
