package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	cartmemory "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/memory"
	cartobs "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/observability"
	cartapp "github.com/Apurer/foodcourt-server/internal/domains/cart/application"
	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	catalogmemory "github.com/Apurer/foodcourt-server/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	"github.com/Apurer/foodcourt-server/internal/platform/memstore"
	"github.com/Apurer/foodcourt-server/internal/shared/keyedmutex"
)

type harness struct {
	svc    cartports.Service
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newHarness(t *testing.T) harness {
	t.Helper()
	catalog, err := catalogmemory.NewSeededCatalog(catalogdomain.DemoCatalog())
	require.NoError(t, err)
	db, err := memstore.New(cartmemory.Table())
	require.NoError(t, err)
	core := cartapp.NewService(cartmemory.NewRepository(db), catalog, keyedmutex.New())

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	logs := &bytes.Buffer{}
	svc := cartobs.New(core,
		cartobs.WithLogger(slog.New(slog.NewJSONHandler(logs, nil))),
		cartobs.WithTracer(tp.Tracer("test")),
		cartobs.WithMeter(mp.Meter("test")),
	)
	return harness{svc: svc, spans: spans, reader: reader, logs: logs}
}

func (h harness) counter(t *testing.T, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				out[dp.Attributes.Encoded(attribute.DefaultEncoder())] += dp.Value
			}
		}
	}
	return out
}

func TestItemsAdded_CountsDirectAddsAndReorders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.AddItem(ctx, cartports.AddItemInput{Token: "guest-secret", ItemID: 1, Quantity: 2})
	require.NoError(t, err)

	result, err := h.svc.Reorder(ctx, cartports.ReorderInput{Token: "guest-secret", Lines: []cartdomain.HistoryLine{
		{VendorName: "Biryani Bay", ItemName: "Chicken Biryani", Quantity: 3},
		{VendorName: "Dosa Den", ItemName: "Masala Dosa", Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	assert.Equal(t, int64(5), h.counter(t, "cart.service.items_added")[""])
	reorder := h.counter(t, "cart.service.reorder_lines")
	assert.Equal(t, int64(1), reorder["outcome=added"])
	assert.Equal(t, int64(1), reorder["outcome=VendorNotFound"])

	assert.Contains(t, h.logs.String(), "reorder partially matched")
	assert.NotContains(t, h.logs.String(), "guest-secret")
}

func TestAddItem_UnavailableIsRejectedAndWarned(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.AddItem(context.Background(), cartports.AddItemInput{Token: "tok", ItemID: 999, Quantity: 1})
	require.ErrorIs(t, err, cartapp.ErrItemUnavailable)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "CartService.AddItem", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	rejections := h.counter(t, "cart.service.rejections")
	assert.Equal(t, int64(1), rejections["op=add,reason=item_unavailable"])
	assert.Empty(t, h.counter(t, "cart.service.items_added"))
	assert.Contains(t, h.logs.String(), `"level":"WARN"`)
}
