package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

const (
	defaultVendorListLimit = 20
	maxVendorListLimit     = 100
	defaultAnalyticsDays   = 7
	maxAnalyticsDays       = 90
	topItemsCount          = 5
)

var activeStatuses = []domain.Status{domain.StatusCreated, domain.StatusPreparing, domain.StatusReady}

// ListVendorOrders lists the vendor's share of orders, newest first. Without
// a status filter only non-terminal sub-orders are returned.
func (s *Service) ListVendorOrders(ctx context.Context, query ports.VendorOrdersQuery) ([]ports.VendorOrder, error) {
	if err := s.ensureVendor(ctx, query.VendorID); err != nil {
		return nil, err
	}
	statuses := query.Statuses
	if len(statuses) == 0 {
		statuses = activeStatuses
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultVendorListLimit
	}
	if limit > maxVendorListLimit {
		limit = maxVendorListLimit
	}
	orders, err := s.orders.ListByVendor(ctx, ports.VendorOrderQuery{VendorID: query.VendorID, Statuses: statuses, Limit: limit})
	if err != nil {
		return nil, err
	}
	result := make([]ports.VendorOrder, 0, len(orders))
	for _, order := range orders {
		sub, err := order.SubOrder(query.VendorID)
		if err != nil {
			continue
		}
		result = append(result, ports.VendorOrder{
			OrderID:   order.ID,
			TableNo:   order.TableNo,
			Status:    sub.Status,
			Subtotal:  sub.Subtotal,
			Lines:     order.VendorLines(query.VendorID),
			Paid:      order.IsPaid(),
			CreatedAt: order.CreatedAt,
			UpdatedAt: sub.UpdatedAt,
		})
	}
	return result, nil
}

// VendorStats aggregates every sub-order of the vendor created at or after
// since. Cancelled sub-orders count but earn no revenue.
func (s *Service) VendorStats(ctx context.Context, vendorID int64, since time.Time) (*ports.VendorStats, error) {
	if err := s.ensureVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByVendor(ctx, ports.VendorOrderQuery{VendorID: vendorID, Since: since})
	if err != nil {
		return nil, err
	}
	menu, err := s.catalog.Menu(ctx, vendorID, false)
	if err != nil {
		return nil, err
	}

	stats := &ports.VendorStats{VendorID: vendorID, Revenue: decimal.Zero, MenuItems: len(menu), Since: since}
	sold := map[string]int{}
	for _, order := range orders {
		sub, err := order.SubOrder(vendorID)
		if err != nil {
			continue
		}
		stats.TotalOrders++
		switch sub.Status {
		case domain.StatusCreated, domain.StatusPreparing:
			stats.PendingOrders++
		case domain.StatusCompleted:
			stats.CompletedOrders++
		case domain.StatusCancelled:
			stats.CancelledOrders++
			continue
		}
		stats.Revenue = stats.Revenue.Add(sub.Subtotal)
		for _, line := range order.VendorLines(vendorID) {
			sold[line.ItemName] += line.Quantity
		}
	}
	stats.TopItems = topItems(sold, topItemsCount)
	return stats, nil
}

// VendorAnalytics buckets the vendor's non-cancelled revenue per UTC day over
// the last days days, oldest first, including empty days.
func (s *Service) VendorAnalytics(ctx context.Context, vendorID int64, days int) ([]ports.DailyRevenue, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	if days > maxAnalyticsDays {
		return nil, fmt.Errorf("%w: days must be at most %d", ErrInvalidInput, maxAnalyticsDays)
	}
	if err := s.ensureVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	today := truncateDay(s.now().UTC())
	start := today.AddDate(0, 0, -(days - 1))
	orders, err := s.orders.ListByVendor(ctx, ports.VendorOrderQuery{VendorID: vendorID, Since: start})
	if err != nil {
		return nil, err
	}

	buckets := make([]ports.DailyRevenue, days)
	for i := range buckets {
		buckets[i] = ports.DailyRevenue{Date: start.AddDate(0, 0, i), Revenue: decimal.Zero}
	}
	for _, order := range orders {
		sub, err := order.SubOrder(vendorID)
		if err != nil || sub.Status == domain.StatusCancelled {
			continue
		}
		i := int(truncateDay(order.CreatedAt.UTC()).Sub(start).Hours() / 24)
		if i < 0 || i >= days {
			continue
		}
		buckets[i].Orders++
		buckets[i].Revenue = buckets[i].Revenue.Add(sub.Subtotal)
	}
	return buckets, nil
}

func (s *Service) ensureVendor(ctx context.Context, vendorID int64) error {
	if _, err := s.catalog.GetVendor(ctx, vendorID); err != nil {
		if errors.Is(err, catalogports.ErrVendorNotFound) {
			return fmt.Errorf("%w: %d", ErrVendorNotFound, vendorID)
		}
		return err
	}
	return nil
}

func topItems(sold map[string]int, n int) []ports.TopItem {
	items := make([]ports.TopItem, 0, len(sold))
	for name, qty := range sold {
		items = append(items, ports.TopItem{Name: name, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
