package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartmemory "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/memory"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	catalogmemory "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/memstore"
	"github.com/Apurer/foodcourt-server/internal/shared/keyedmutex"
)

type fixture struct {
	svc     *Service
	catalog *catalogmemory.Catalog
	repo    *cartmemory.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	catalog, err := catalogmemory.NewSeededCatalog(catalogdomain.DemoCatalog())
	require.NoError(t, err)
	db, err := memstore.New(cartmemory.Table())
	require.NoError(t, err)
	repo := cartmemory.NewRepository(db)
	clock := func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return fixture{
		svc:     NewService(repo, catalog, keyedmutex.New(), WithClock(clock)),
		catalog: catalog,
		repo:    repo,
	}
}

// flakyLookup fails every call whose target is in the fail set.
type flakyLookup struct {
	catalogports.Lookup
	failItems   map[int64]bool
	failVendors map[string]bool
}

var errCatalogDown = errors.New("catalog timeout")

func (f flakyLookup) GetItem(ctx context.Context, id int64) (*catalogdomain.Item, error) {
	if f.failItems[id] {
		return nil, errCatalogDown
	}
	return f.Lookup.GetItem(ctx, id)
}

func (f flakyLookup) VendorByName(ctx context.Context, name string) (*catalogdomain.Vendor, error) {
	if f.failVendors[name] {
		return nil, errCatalogDown
	}
	return f.Lookup.VendorByName(ctx, name)
}

func TestService_GetCartWithoutCartIsEmpty(t *testing.T) {
	f := newFixture(t)
	cart, err := f.svc.GetCart(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Subtotal().IsZero())
}

func TestService_GetCartRejectsBlankToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetCart(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_AddItemMergesAndPricesFromCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 1, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.catalog.PutItem(catalogdomain.Item{ID: 1, VendorID: 1, Name: "Margherita", Price: decimal.NewFromInt(219), Active: true}))

	cart, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(657)))

	cart, err = f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 5, Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(716)))
}

func TestService_AddItemUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.catalog.SetActive(2, false))

	_, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 2, Quantity: 1})
	assert.ErrorIs(t, err, ErrItemUnavailable)

	_, err = f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 404, Quantity: 1})
	assert.ErrorIs(t, err, ErrItemUnavailable)

	flaky := NewService(f.repo, flakyLookup{Lookup: f.catalog, failItems: map[int64]bool{1: true}}, keyedmutex.New())
	_, err = flaky.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrItemUnavailable)
	assert.ErrorIs(t, err, errCatalogDown)

	cart, err := f.svc.GetCart(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestService_AddItemRejectsBadQuantity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddItem(context.Background(), ports.AddItemInput{Token: "tok", ItemID: 1, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_RemoveItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	mine, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "mine", ItemID: 1, Quantity: 1})
	require.NoError(t, err)
	theirs, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "theirs", ItemID: 3, Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, ports.RemoveItemInput{Token: "mine", LineID: theirs.Lines[0].ID})
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = f.svc.RemoveItem(ctx, ports.RemoveItemInput{Token: "nobody", LineID: 1})
	assert.ErrorIs(t, err, ErrLineNotFound)

	cart, err := f.svc.RemoveItem(ctx, ports.RemoveItemInput{Token: "mine", LineID: mine.Lines[0].ID})
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Subtotal().IsZero())
}

func TestService_ConcurrentAddsAreNotLost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 5, Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := f.svc.GetCart(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, n, cart.Lines[0].Quantity)
	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(59*n)))
}

func TestService_ReorderSkipsDeactivatedItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	history := []domain.HistoryLine{
		{VendorName: "Pizza Hub", ItemName: "Margherita", Quantity: 2},
		{VendorName: "Pizza Hub", ItemName: "Farmhouse", Quantity: 1},
		{VendorName: "Chaat Corner", ItemName: "Pani Puri", Quantity: 3},
	}
	require.NoError(t, f.catalog.SetActive(2, false))

	result, err := f.svc.Reorder(ctx, ports.ReorderInput{Token: "tok", Lines: history})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	require.Equal(t, 1, result.SkippedCount())
	assert.Equal(t, domain.SkipCatalogMismatch, result.Skipped[0].Reason)
	assert.Equal(t, "Farmhouse", result.Skipped[0].Line.ItemName)
	assert.Len(t, result.Cart.Lines, 2)
}

func TestService_ReorderTwiceAddsTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	history := []domain.HistoryLine{{VendorName: "Biryani Bay", ItemName: "Veg Biryani", Quantity: 2}}

	_, err := f.svc.Reorder(ctx, ports.ReorderInput{Token: "tok", Lines: history})
	require.NoError(t, err)
	result, err := f.svc.Reorder(ctx, ports.ReorderInput{Token: "tok", Lines: history})
	require.NoError(t, err)

	require.Len(t, result.Cart.Lines, 1)
	assert.Equal(t, 4, result.Cart.Lines[0].Quantity)
}

func TestService_ReorderVendorGoneAndCatalogFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.repo, flakyLookup{Lookup: f.catalog, failVendors: map[string]bool{"Chaat Corner": true}}, keyedmutex.New())

	history := []domain.HistoryLine{
		{VendorName: "Dosa Den", ItemName: "Masala Dosa", Quantity: 1},
		{VendorName: "Chaat Corner", ItemName: "Dahi Puri", Quantity: 1},
		{VendorName: "Pizza Hub", ItemName: "margherita", Quantity: 1},
		{VendorName: "Biryani Bay", ItemName: "Chicken Biryani", Quantity: 1},
	}
	result, err := svc.Reorder(ctx, ports.ReorderInput{Token: "tok", Lines: history})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	require.Equal(t, 3, result.SkippedCount())
	assert.Equal(t, domain.SkipVendorNotFound, result.Skipped[0].Reason)
	assert.Equal(t, domain.SkipVendorNotFound, result.Skipped[1].Reason)
	assert.Equal(t, domain.SkipCatalogMismatch, result.Skipped[2].Reason, "matching is exact")
}

func TestService_ReorderWithNoLines(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.Reorder(context.Background(), ports.ReorderInput{Token: "tok"})
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Zero(t, result.SkippedCount())
	assert.True(t, result.Cart.IsEmpty())
}

// countingRepo counts saves and fails them while failSaves is set.
type countingRepo struct {
	ports.Repository
	mu        sync.Mutex
	saves     int
	failSaves bool
}

func (r *countingRepo) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	r.mu.Lock()
	r.saves++
	fail := r.failSaves
	r.mu.Unlock()
	if fail {
		return nil, ports.ErrConcurrentUpdate
	}
	return r.Repository.Save(ctx, cart)
}

func TestService_ReorderSavesMatchedLinesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := &countingRepo{Repository: f.repo}
	svc := NewService(repo, f.catalog, keyedmutex.New())
	history := []domain.HistoryLine{
		{VendorName: "Pizza Hub", ItemName: "Margherita", Quantity: 2},
		{VendorName: "Pizza Hub", ItemName: "Farmhouse", Quantity: 1},
		{VendorName: "Biryani Bay", ItemName: "Chicken Biryani", Quantity: 0},
	}

	result, err := svc.Reorder(ctx, ports.ReorderInput{Token: "tok", Lines: history})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	require.Equal(t, 1, result.SkippedCount())
	assert.Equal(t, domain.SkipCatalogMismatch, result.Skipped[0].Reason)
	assert.Equal(t, 1, repo.saves)
	assert.Len(t, result.Cart.Lines, 2)
}

func TestService_ReorderStorageFailureLeavesCartUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.AddItem(ctx, ports.AddItemInput{Token: "tok", ItemID: 3, Quantity: 1})
	require.NoError(t, err)

	repo := &countingRepo{Repository: f.repo, failSaves: true}
	svc := NewService(repo, f.catalog, keyedmutex.New())
	history := []domain.HistoryLine{
		{VendorName: "Pizza Hub", ItemName: "Margherita", Quantity: 2},
		{VendorName: "Pizza Hub", ItemName: "Farmhouse", Quantity: 1},
	}

	result, err := svc.Reorder(ctx, ports.ReorderInput{Token: "tok", Lines: history})
	require.ErrorIs(t, err, ports.ErrConcurrentUpdate)
	assert.Nil(t, result)

	cart, err := f.svc.GetCart(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1, "no reordered line may be persisted")
	assert.Equal(t, int64(3), cart.Lines[0].ItemID)
}
