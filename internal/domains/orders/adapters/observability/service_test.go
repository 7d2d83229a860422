package observability_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ordersobs "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/foodcourt-server/internal/domains/orders/application"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

type stubService struct {
	ports.Service
	advanceErr error
}

func (s *stubService) Checkout(_ context.Context, _ ports.CheckoutInput) (*ports.Receipt, error) {
	return &ports.Receipt{OrderID: 7, Vendors: 2, Payable: decimal.RequireFromString("210.00")}, nil
}

func (s *stubService) AdvanceSubOrder(_ context.Context, input ports.AdvanceInput) (*ports.StatusView, error) {
	if s.advanceErr != nil {
		return nil, s.advanceErr
	}
	return &ports.StatusView{OrderID: input.OrderID, Status: input.To}, nil
}

type harness struct {
	svc    ports.Service
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newHarness(t *testing.T, inner ports.Service) harness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	logs := &bytes.Buffer{}
	svc := ordersobs.New(inner,
		ordersobs.WithLogger(slog.New(slog.NewJSONHandler(logs, nil))),
		ordersobs.WithTracer(tp.Tracer("test")),
		ordersobs.WithMeter(mp.Meter("test")),
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

func TestCheckout_RecordsSpanMetricAndHidesToken(t *testing.T) {
	h := newHarness(t, &stubService{})

	receipt, err := h.svc.Checkout(context.Background(), ports.CheckoutInput{Token: "guest-secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), receipt.OrderID)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "OrdersService.Checkout", ended[0].Name())

	checkouts := h.counter(t, "orders.service.checkouts")
	assert.Equal(t, int64(1), checkouts["outcome=created"])

	assert.Contains(t, h.logs.String(), "order checked out")
	assert.NotContains(t, h.logs.String(), "guest-secret")
}

func TestAdvanceSubOrder_RejectionIsWarnAndCounted(t *testing.T) {
	rejected := fmt.Errorf("%w: completed to preparing", ordersapp.ErrInvalidTransition)
	h := newHarness(t, &stubService{advanceErr: rejected})

	_, err := h.svc.AdvanceSubOrder(context.Background(), ports.AdvanceInput{OrderID: 1, VendorID: 2, To: domain.StatusPreparing})
	require.ErrorIs(t, err, ordersapp.ErrInvalidTransition)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	rejections := h.counter(t, "orders.service.transition_rejections")
	assert.Equal(t, int64(1), rejections["order.status.target=preparing,reason=invalid_transition"])

	assert.Contains(t, h.logs.String(), `"level":"WARN"`)
}

func TestAdvanceSubOrder_CountsCommittedTransition(t *testing.T) {
	h := newHarness(t, &stubService{})

	view, err := h.svc.AdvanceSubOrder(context.Background(), ports.AdvanceInput{OrderID: 1, VendorID: 2, To: domain.StatusReady})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, view.Status)

	transitions := h.counter(t, "orders.service.transitions")
	assert.Equal(t, int64(1), transitions["cause=vendor,order.status=ready"])
}
