package domain

// HistoryLine is what an order remembers of a purchased line: names and a
// quantity, but no catalog id.
type HistoryLine struct {
	VendorName string
	ItemName   string
	Quantity   int
}

// SkipReason explains why a history line could not be re-added.
type SkipReason string

const (
	SkipVendorNotFound  SkipReason = "VendorNotFound"
	SkipCatalogMismatch SkipReason = "CatalogMismatch"
)

// SkippedLine pairs an unresolvable history line with its reason.
type SkippedLine struct {
	Line   HistoryLine
	Reason SkipReason
	Detail string
}

// ReorderResult reports partial success of a reorder.
type ReorderResult struct {
	Added int
	// AddedUnits sums the quantities of the added lines.
	AddedUnits int
	Skipped    []SkippedLine
	Cart       *Cart
}

// SkippedCount is len(Skipped).
func (r *ReorderResult) SkippedCount() int {
	return len(r.Skipped)
}
