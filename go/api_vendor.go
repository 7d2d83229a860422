package foodcourtserver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/http/mapper"
	orderdomain "github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// VendorAPI exposes a vendor's board: its sub-orders, status changes and
// sales figures.
type VendorAPI struct {
	service ordersports.Service
	feed    ordersports.StatusFeed
}

func NewVendorAPI(service ordersports.Service, feed ordersports.StatusFeed) VendorAPI {
	return VendorAPI{service: service, feed: feed}
}

// Get /v1/vendors/:vendorId/orders
// Lists the vendor's sub-orders, newest first
func (api *VendorAPI) ListOrders(c *gin.Context) {
	query, ok := bindVendorQuery(c)
	if !ok {
		return
	}
	orders, err := api.service.ListVendorOrders(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromVendorOrders(orders))
}

// Patch /v1/vendors/:vendorId/orders/:orderId/status
// Moves the vendor's sub-order one step forward or cancels it
func (api *VendorAPI) AdvanceStatus(c *gin.Context) {
	vendorID, ok := bindPathID(c, "vendorId")
	if !ok {
		return
	}
	orderID, ok := bindPathID(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.AdvanceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	view, err := api.service.AdvanceSubOrder(c.Request.Context(), ordersports.AdvanceInput{
		VendorID: vendorID,
		OrderID:  orderID,
		To:       orderdomain.Status(payload.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromStatusView(view))
}

// Get /v1/vendors/:vendorId/stats
// Returns order counts, revenue and best sellers
func (api *VendorAPI) Stats(c *gin.Context) {
	vendorID, ok := bindPathID(c, "vendorId")
	if !ok {
		return
	}
	since, ok := bindQueryTime(c, "since")
	if !ok {
		return
	}
	stats, err := api.service.VendorStats(c.Request.Context(), vendorID, since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromVendorStats(stats))
}

// Get /v1/vendors/:vendorId/analytics
// Returns revenue per day for the last N days
func (api *VendorAPI) Analytics(c *gin.Context) {
	vendorID, ok := bindPathID(c, "vendorId")
	if !ok {
		return
	}
	days, ok := bindQueryInt(c, "days", 0)
	if !ok {
		return
	}
	if days < 0 {
		respondBadRequest(c, fmt.Errorf("invalid days: must not be negative"))
		return
	}
	revenue, err := api.service.VendorAnalytics(c.Request.Context(), vendorID, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDailyRevenue(revenue))
}

// Get /v1/vendors/:vendorId/events
// Streams the vendor's board as server-sent events, one frame per change
func (api *VendorAPI) StreamEvents(c *gin.Context) {
	query, ok := bindVendorQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var events <-chan orderdomain.StatusChanged
	if api.feed != nil {
		var cancel func()
		events, cancel = api.feed.Subscribe(ordersports.StatusFilter{VendorID: query.VendorID})
		defer cancel()
	}
	board, err := api.service.ListVendorOrders(ctx, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SSEvent("orders", orderhttpmapper.FromVendorOrders(board))
	c.Writer.Flush()
	if events == nil {
		return
	}
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, open := <-events:
			if !open {
				return false
			}
			return api.sendBoard(ctx, c, query)
		}
	})
}

func (api *VendorAPI) sendBoard(ctx context.Context, c *gin.Context, query ordersports.VendorOrdersQuery) bool {
	board, err := api.service.ListVendorOrders(ctx, query)
	if err != nil {
		return false
	}
	c.SSEvent("orders", orderhttpmapper.FromVendorOrders(board))
	return true
}

func bindVendorQuery(c *gin.Context) (ordersports.VendorOrdersQuery, bool) {
	vendorID, ok := bindPathID(c, "vendorId")
	if !ok {
		return ordersports.VendorOrdersQuery{}, false
	}
	limit, ok := bindQueryInt(c, "limit", 0)
	if !ok {
		return ordersports.VendorOrdersQuery{}, false
	}
	raw, ok := bindQueryStrings(c, "status")
	if !ok {
		return ordersports.VendorOrdersQuery{}, false
	}
	statuses := make([]orderdomain.Status, 0, len(raw))
	for _, value := range raw {
		status, err := orderdomain.ParseStatus(value)
		if err != nil {
			respondBadRequest(c, err)
			return ordersports.VendorOrdersQuery{}, false
		}
		statuses = append(statuses, status)
	}
	return ordersports.VendorOrdersQuery{VendorID: vendorID, Statuses: statuses, Limit: limit}, true
}
