//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	pacttest "github.com/Apurer/foodcourt-server/test/pact"

	foodcourtserver "github.com/Apurer/foodcourt-server/go"
	"github.com/Apurer/foodcourt-server/internal/app/api"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/notify"
	orderworkflows "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/foodcourt-server/internal/platform/observability"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	margherita     int64 = 1
	chickenBiryani int64 = 3
)

func TestFoodcourtProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogSeeded: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateCartFilled: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.fillCart(t)
			}
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.fillCart(t)
				app.checkout(t)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
	})
	require.NoError(t, err)
}

// contractProviderApp swaps in a fresh in-memory stack per provider state so
// order ids restart at 1.
type contractProviderApp struct {
	current atomic.Pointer[providerStack]
	server  *httptest.Server
}

type providerStack struct {
	router http.Handler
	carts  cartports.Service
	orders ordersports.Service
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.current.Load().router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	instruments := platformobservability.Noop()
	cfg := api.Config{
		TaxRate:         decimal.RequireFromString("0.05"),
		PaymentLinkBase: "https://example.com/pay/",
		SeedCatalog:     true,
	}
	stores, err := api.BuildStores(ctx, cfg, nil, instruments.Logger)
	require.NoError(t, err)
	feed := notify.NewBroadcaster(0)
	services, err := api.BuildServices(cfg, stores, feed, instruments)
	require.NoError(t, err)

	handlers := foodcourtserver.ApiHandleFunctions{
		CartAPI:    foodcourtserver.NewCartAPI(services.Carts, services.Orders),
		OrdersAPI:  foodcourtserver.NewOrdersAPI(services.Orders, services.Carts, orderworkflows.NewInlineSettlement(services.Orders), feed),
		VendorAPI:  foodcourtserver.NewVendorAPI(services.Orders, feed),
		CatalogAPI: foodcourtserver.NewCatalogAPI(stores.Catalog),
	}
	router := gin.New()
	router.Use(gin.Recovery())
	a.current.Store(&providerStack{
		router: foodcourtserver.NewRouterWithGinEngine(router, handlers),
		carts:  services.Carts,
		orders: services.Orders,
	})
}

func (a *contractProviderApp) fillCart(t testing.TB) {
	t.Helper()
	stack := a.current.Load()
	for _, input := range []cartports.AddItemInput{
		{Token: pacttest.GuestToken, ItemID: margherita, Quantity: 2},
		{Token: pacttest.GuestToken, ItemID: chickenBiryani, Quantity: 1},
	} {
		_, err := stack.carts.AddItem(context.Background(), input)
		require.NoError(t, err)
	}
}

func (a *contractProviderApp) checkout(t testing.TB) {
	t.Helper()
	receipt, err := a.current.Load().orders.Checkout(context.Background(), ordersports.CheckoutInput{
		Token:   pacttest.GuestToken,
		TableNo: pacttest.TableNo,
	})
	require.NoError(t, err)
	require.Equal(t, pacttest.ExistingOrderID, receipt.OrderID)
}
