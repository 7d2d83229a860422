package observability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersapp "github.com/Apurer/foodcourt-server/internal/domains/orders/application"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/foodcourt-server/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*ports.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.Checkout", trace.WithAttributes(
		tokenAttr(input.Token),
		attribute.Bool("checkout.idempotent", input.IdempotencyKey != ""),
	))
	defer span.End()

	receipt, err := s.inner.Checkout(ctx, input)
	if err != nil {
		s.metrics.recordCheckout(ctx, outcome(err))
		return nil, s.handleError(ctx, span, err, "checkout failed", tokenLog(input.Token))
	}
	span.SetAttributes(attribute.Int64("order.id", receipt.OrderID), attribute.Int("order.vendors", receipt.Vendors))
	if receipt.Replayed {
		s.metrics.recordCheckout(ctx, "replayed")
	} else {
		s.metrics.recordCheckout(ctx, "created")
	}
	s.logInfo(ctx, "order checked out",
		slog.Int64("order.id", receipt.OrderID),
		slog.Int("order.vendors", receipt.Vendors),
		slog.String("order.payable", receipt.Payable.StringFixed(2)),
		slog.Bool("order.replayed", receipt.Replayed),
	)
	return receipt, nil
}

func (s *Service) GetStatus(ctx context.Context, orderID int64) (*ports.StatusView, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetStatus", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	view, err := s.inner.GetStatus(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to read order status", slog.Int64("order.id", orderID))
	}
	span.SetAttributes(attribute.String("order.status", string(view.Status)))
	return view, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64, token string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", orderID), tokenAttr(token)))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, orderID, token)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return order, nil
}

func (s *Service) ListHistory(ctx context.Context, token string, limit int) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListHistory", trace.WithAttributes(tokenAttr(token), attribute.Int("limit", limit)))
	defer span.End()

	orders, err := s.inner.ListHistory(ctx, token, limit)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list order history", tokenLog(token))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) ListVendorOrders(ctx context.Context, query ports.VendorOrdersQuery) ([]ports.VendorOrder, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListVendorOrders", trace.WithAttributes(attribute.Int64("vendor.id", query.VendorID)))
	defer span.End()

	orders, err := s.inner.ListVendorOrders(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list vendor orders", slog.Int64("vendor.id", query.VendorID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) AdvanceSubOrder(ctx context.Context, input ports.AdvanceInput) (*ports.StatusView, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.AdvanceSubOrder", trace.WithAttributes(
		attribute.Int64("order.id", input.OrderID),
		attribute.Int64("vendor.id", input.VendorID),
		attribute.String("order.status.target", string(input.To)),
	))
	defer span.End()

	view, err := s.inner.AdvanceSubOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejection(ctx, input.To, err)
		return nil, s.handleError(ctx, span, err, "sub-order transition rejected",
			slog.Int64("order.id", input.OrderID),
			slog.Int64("vendor.id", input.VendorID),
			slog.String("order.status.target", string(input.To)),
		)
	}
	s.metrics.recordTransition(ctx, input.To, "vendor")
	s.logInfo(ctx, "sub-order advanced",
		slog.Int64("order.id", input.OrderID),
		slog.Int64("vendor.id", input.VendorID),
		slog.String("order.status", string(input.To)),
		slog.String("order.aggregate_status", string(view.Status)),
	)
	return view, nil
}

func (s *Service) MarkPaid(ctx context.Context, orderID int64) (*ports.StatusView, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.MarkPaid", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	view, err := s.inner.MarkPaid(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark order paid", slog.Int64("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, domain.StatusPreparing, "payment")
	s.logInfo(ctx, "order marked paid", slog.Int64("order.id", orderID), slog.String("order.status", string(view.Status)))
	return view, nil
}

func (s *Service) VendorStats(ctx context.Context, vendorID int64, since time.Time) (*ports.VendorStats, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.VendorStats", trace.WithAttributes(attribute.Int64("vendor.id", vendorID)))
	defer span.End()

	stats, err := s.inner.VendorStats(ctx, vendorID, since)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to compute vendor stats", slog.Int64("vendor.id", vendorID))
	}
	return stats, nil
}

func (s *Service) VendorAnalytics(ctx context.Context, vendorID int64, days int) ([]ports.DailyRevenue, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.VendorAnalytics", trace.WithAttributes(
		attribute.Int64("vendor.id", vendorID),
		attribute.Int("analytics.days", days),
	))
	defer span.End()

	series, err := s.inner.VendorAnalytics(ctx, vendorID, days)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to compute vendor analytics", slog.Int64("vendor.id", vendorID))
	}
	return series, nil
}

func (s *Service) TransferIdentity(ctx context.Context, from, to string) (*ports.TransferResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.TransferIdentity", trace.WithAttributes(
		attribute.String("identity.from_digest", tokenDigest(from)),
		attribute.String("identity.to_digest", tokenDigest(to)),
	))
	defer span.End()

	result, err := s.inner.TransferIdentity(ctx, from, to)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "identity transfer failed")
	}
	s.logInfo(ctx, "identity transferred",
		slog.String("identity.from_digest", tokenDigest(from)),
		slog.String("identity.to_digest", tokenDigest(to)),
		slog.Int("cart.lines_moved", result.LinesMoved),
		slog.Int64("orders.moved", result.OrdersMoved),
	)
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		level := slog.LevelError
		if outcome(err) != "error" {
			level = slog.LevelWarn
		}
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, level, msg, attrs...)
	}
	return err
}

// outcome classifies caller-visible rejections; "error" marks faults.
func outcome(err error) string {
	switch {
	case errors.Is(err, ordersapp.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ordersapp.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ordersapp.ErrSubOrderNotFound):
		return "forbidden"
	case errors.Is(err, ordersapp.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ordersapp.ErrVendorNotFound):
		return "vendor_not_found"
	case errors.Is(err, ordersapp.ErrVendorUnavailable):
		return "vendor_unavailable"
	case errors.Is(err, ordersapp.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, ordersapp.ErrConcurrentUpdate):
		return "concurrent_update"
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return "invalid_input"
	}
	return "error"
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

func tokenAttr(token string) attribute.KeyValue {
	return attribute.String("cart.token_digest", tokenDigest(token))
}

func tokenLog(token string) slog.Attr {
	return slog.String("cart.token_digest", tokenDigest(token))
}

type serviceMetrics struct {
	checkouts   metric.Int64Counter
	transitions metric.Int64Counter
	rejections  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("orders.service.checkouts", metric.WithDescription("Checkout attempts by outcome"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Committed sub-order transitions"))
	rejections, _ := m.Int64Counter("orders.service.transition_rejections", metric.WithDescription("Sub-order transitions rejected"))
	return serviceMetrics{checkouts: checkouts, transitions: transitions, rejections: rejections}
}

func (m serviceMetrics) recordCheckout(ctx context.Context, result string) {
	if m.checkouts != nil {
		m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, to domain.Status, cause string) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.status", string(to)),
			attribute.String("cause", cause),
		))
	}
}

func (m serviceMetrics) recordRejection(ctx context.Context, to domain.Status, err error) {
	if m.rejections != nil {
		m.rejections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.status.target", string(to)),
			attribute.String("reason", outcome(err)),
		))
	}
}

var _ ports.Service = (*Service)(nil)
