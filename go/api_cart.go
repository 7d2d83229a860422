package foodcourtserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	carthttpmapper "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/http/mapper"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	orderhttpmapper "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

// CartAPI wires HTTP transport with the cart aggregator and reorder resolver.
type CartAPI struct {
	carts  cartports.Service
	orders ordersports.Service
}

// NewCartAPI creates a CartAPI. orders backs the identity transfer, which
// also moves order history.
func NewCartAPI(carts cartports.Service, orders ordersports.Service) CartAPI {
	return CartAPI{carts: carts, orders: orders}
}

// Get /v1/cart
// Returns the caller's cart with current prices
func (api *CartAPI) GetCart(c *gin.Context) {
	cart, err := api.carts.GetCart(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Post /v1/cart/items
// Adds a catalog item, merging with an existing line of the same item
func (api *CartAPI) AddItem(c *gin.Context) {
	var payload carthttpmapper.AddItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	cart, err := api.carts.AddItem(c.Request.Context(), cartports.AddItemInput{
		Token:    payload.Token,
		ItemID:   payload.ItemID,
		Quantity: payload.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Delete /v1/cart/items/:lineId
// Removes one line from the caller's cart
func (api *CartAPI) RemoveItem(c *gin.Context) {
	lineID, ok := bindPathID(c, "lineId")
	if !ok {
		return
	}
	cart, err := api.carts.RemoveItem(c.Request.Context(), cartports.RemoveItemInput{
		Token:  c.Query("token"),
		LineID: lineID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainCart(cart))
}

// Post /v1/cart/transfer
// Moves a guest cart and its order history to another identity
func (api *CartAPI) TransferCart(c *gin.Context) {
	var payload orderhttpmapper.TransferRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.orders.TransferIdentity(c.Request.Context(), payload.FromToken, payload.ToToken)
	if err != nil {
		respondError(c, err)
		return
	}
	cart, err := api.carts.GetCart(c.Request.Context(), payload.ToToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transfer": orderhttpmapper.FromTransferResult(result),
		"cart":     carthttpmapper.FromDomainCart(cart),
	})
}

// Post /v1/reorder
// Re-resolves history lines against the current catalog into the cart
func (api *CartAPI) Reorder(c *gin.Context) {
	var payload carthttpmapper.ReorderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := api.carts.Reorder(c.Request.Context(), cartports.ReorderInput{
		Token: payload.Token,
		Lines: carthttpmapper.ToDomainHistoryLines(payload.Lines),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carthttpmapper.FromDomainReorderResult(result))
}
