// Package foodcourtserver is the HTTP transport of the food court API.
package foodcourtserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/foodcourt-server/internal/platform/auth"
	"github.com/Apurer/foodcourt-server/internal/platform/ratelimit"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Vendor routes act on one vendor's sub-orders and are guarded by a
	// vendor token when one is configured.
	Vendor bool
}

// ApiHandleFunctions groups the handlers of every bounded context plus the
// optional guards applied in front of them.
type ApiHandleFunctions struct {
	CartAPI    CartAPI
	OrdersAPI  OrdersAPI
	VendorAPI  VendorAPI
	CatalogAPI CatalogAPI

	// Limiter throttles every /v1 route per caller. Nil disables it.
	Limiter *ratelimit.Limiter
	// VendorTokens guards vendor routes. Nil leaves them open.
	VendorTokens *auth.VendorTokens
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the food court routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		chain := make([]gin.HandlerFunc, 0, 3)
		if handleFunctions.Limiter != nil {
			chain = append(chain, RateLimit(handleFunctions.Limiter))
		}
		if route.Vendor && handleFunctions.VendorTokens != nil {
			chain = append(chain, RequireVendor(handleFunctions.VendorTokens))
		}
		chain = append(chain, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, chain...)
	}
	return router
}

// DefaultHandleFunc is the default handler for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{Name: "GetCart", Method: http.MethodGet, Pattern: "/v1/cart", HandlerFunc: handleFunctions.CartAPI.GetCart},
		{Name: "AddCartItem", Method: http.MethodPost, Pattern: "/v1/cart/items", HandlerFunc: handleFunctions.CartAPI.AddItem},
		{Name: "RemoveCartItem", Method: http.MethodDelete, Pattern: "/v1/cart/items/:lineId", HandlerFunc: handleFunctions.CartAPI.RemoveItem},
		{Name: "TransferCart", Method: http.MethodPost, Pattern: "/v1/cart/transfer", HandlerFunc: handleFunctions.CartAPI.TransferCart},
		{Name: "Reorder", Method: http.MethodPost, Pattern: "/v1/reorder", HandlerFunc: handleFunctions.CartAPI.Reorder},

		{Name: "Checkout", Method: http.MethodPost, Pattern: "/v1/checkout", HandlerFunc: handleFunctions.OrdersAPI.Checkout},
		{Name: "ListOrders", Method: http.MethodGet, Pattern: "/v1/orders", HandlerFunc: handleFunctions.OrdersAPI.ListOrders},
		{Name: "GetOrderStatus", Method: http.MethodGet, Pattern: "/v1/orders/:orderId", HandlerFunc: handleFunctions.OrdersAPI.GetOrderStatus},
		{Name: "ReorderOrder", Method: http.MethodPost, Pattern: "/v1/orders/:orderId/reorder", HandlerFunc: handleFunctions.OrdersAPI.ReorderOrder},
		{Name: "MarkOrderPaid", Method: http.MethodPost, Pattern: "/v1/orders/:orderId/mark-paid", HandlerFunc: handleFunctions.OrdersAPI.MarkPaid},
		{Name: "StreamOrderStatus", Method: http.MethodGet, Pattern: "/v1/orders/:orderId/events", HandlerFunc: handleFunctions.OrdersAPI.StreamStatus},

		{Name: "ListVendorOrders", Method: http.MethodGet, Pattern: "/v1/vendors/:vendorId/orders", HandlerFunc: handleFunctions.VendorAPI.ListOrders, Vendor: true},
		{Name: "AdvanceSubOrder", Method: http.MethodPatch, Pattern: "/v1/vendors/:vendorId/orders/:orderId/status", HandlerFunc: handleFunctions.VendorAPI.AdvanceStatus, Vendor: true},
		{Name: "VendorStats", Method: http.MethodGet, Pattern: "/v1/vendors/:vendorId/stats", HandlerFunc: handleFunctions.VendorAPI.Stats, Vendor: true},
		{Name: "VendorAnalytics", Method: http.MethodGet, Pattern: "/v1/vendors/:vendorId/analytics", HandlerFunc: handleFunctions.VendorAPI.Analytics, Vendor: true},
		{Name: "StreamVendorOrders", Method: http.MethodGet, Pattern: "/v1/vendors/:vendorId/events", HandlerFunc: handleFunctions.VendorAPI.StreamEvents, Vendor: true},

		{Name: "ListCatalogVendors", Method: http.MethodGet, Pattern: "/v1/catalog/vendors", HandlerFunc: handleFunctions.CatalogAPI.ListVendors},
		{Name: "GetCatalogMenu", Method: http.MethodGet, Pattern: "/v1/catalog/menus", HandlerFunc: handleFunctions.CatalogAPI.GetMenu},
	}
}
