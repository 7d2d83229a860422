package foodcourtserver

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	carthttpmapper "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/http/mapper"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	orderhttpmapper "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/http/mapper"
	orderdomain "github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets shoppers retry checkout safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrdersAPI wires HTTP transport with checkout, the status observer and
// payment settlement.
type OrdersAPI struct {
	service    ordersports.Service
	carts      cartports.Service
	settlement ordersports.SettlementOrchestrator
	feed       ordersports.StatusFeed
}

// NewOrdersAPI creates an OrdersAPI. A nil feed makes the event streams
// send a single snapshot.
func NewOrdersAPI(service ordersports.Service, carts cartports.Service, settlement ordersports.SettlementOrchestrator, feed ordersports.StatusFeed) OrdersAPI {
	return OrdersAPI{service: service, carts: carts, settlement: settlement, feed: feed}
}

// Post /v1/checkout
// Converts the caller's cart into one order with a sub-order per vendor
func (api *OrdersAPI) Checkout(c *gin.Context) {
	var payload orderhttpmapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	receipt, err := api.service.Checkout(c.Request.Context(), ordersports.CheckoutInput{
		Token:          payload.Token,
		TableNo:        strings.TrimSpace(payload.TableNo),
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if receipt.Replayed {
		c.Header("Idempotent-Replayed", "true")
		status = http.StatusOK
	}
	c.JSON(status, orderhttpmapper.FromReceipt(receipt))
}

// Get /v1/orders/:orderId
// Returns the aggregate and per-vendor status of an order
func (api *OrdersAPI) GetOrderStatus(c *gin.Context) {
	id, ok := bindPathID(c, "orderId")
	if !ok {
		return
	}
	view, err := api.service.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromStatusView(view))
}

// Get /v1/orders
// Lists the caller's past orders, newest first
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	limit, ok := bindQueryInt(c, "limit", 0)
	if !ok {
		return
	}
	orders, err := api.service.ListHistory(c.Request.Context(), c.Query("token"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Post /v1/orders/:orderId/reorder
// Adds the lines of one of the caller's orders back into the cart
func (api *OrdersAPI) ReorderOrder(c *gin.Context) {
	id, ok := bindPathID(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.ReorderOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id, payload.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := api.carts.Reorder(c.Request.Context(), cartports.ReorderInput{
		Token: payload.Token,
		Lines: orderhttpmapper.ToHistoryLines(order),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainReorderResult(result))
}

// Post /v1/orders/:orderId/mark-paid
// Confirms payment and starts preparation at every vendor still waiting
func (api *OrdersAPI) MarkPaid(c *gin.Context) {
	id, ok := bindPathID(c, "orderId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	current, err := api.service.GetStatus(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := api.settlement.SettleOrder(ctx, ordersports.SettleOrderInput{
		OrderID:    id,
		PaymentRef: current.PaymentRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromStatusView(view))
}

// Get /v1/orders/:orderId/events
// Streams the order status as server-sent events until it is terminal
func (api *OrdersAPI) StreamStatus(c *gin.Context) {
	id, ok := bindPathID(c, "orderId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var events <-chan orderdomain.StatusChanged
	if api.feed != nil {
		// Subscribe before the first read so no transition falls in between.
		var cancel func()
		events, cancel = api.feed.Subscribe(ordersports.StatusFilter{OrderID: id})
		defer cancel()
	}
	view, err := api.service.GetStatus(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SSEvent("status", orderhttpmapper.FromStatusView(view))
	c.Writer.Flush()
	if events == nil || view.Status.IsTerminal() {
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
			// Frames carry a fresh read, never the event payload.
			fresh, err := api.service.GetStatus(ctx, id)
			if err != nil {
				return false
			}
			c.SSEvent("status", orderhttpmapper.FromStatusView(fresh))
			return !fresh.Status.IsTerminal()
		}
	})
}
