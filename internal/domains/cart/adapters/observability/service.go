package observability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	cartapp "github.com/Apurer/foodcourt-server/internal/domains/cart/application"
	cartdomain "github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
)

const tracerName = "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/observability/service"

// Service decorates the cart service with tracing, logging, and metrics.
type Service struct {
	inner   cartports.Service
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

// New wraps the core cart service.
func New(inner cartports.Service, opts ...Option) cartports.Service {
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

func (s *Service) GetCart(ctx context.Context, token string) (*cartdomain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart", trace.WithAttributes(tokenAttr(token)))
	defer span.End()

	cart, err := s.inner.GetCart(ctx, token)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", tokenLog(token))
	}
	span.SetAttributes(attribute.Int("cart.lines", len(cart.Lines)))
	return cart, nil
}

func (s *Service) AddItem(ctx context.Context, input cartports.AddItemInput) (*cartdomain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem", trace.WithAttributes(
		tokenAttr(input.Token),
		attribute.Int64("item.id", input.ItemID),
		attribute.Int("item.quantity", input.Quantity),
	))
	defer span.End()

	cart, err := s.inner.AddItem(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, "add", err)
		return nil, s.handleError(ctx, span, err, "failed to add item", tokenLog(input.Token), slog.Int64("item.id", input.ItemID))
	}
	s.metrics.recordAdded(ctx, input.Quantity)
	s.logInfo(ctx, "item added to cart",
		tokenLog(input.Token),
		slog.Int64("item.id", input.ItemID),
		slog.Int("cart.lines", len(cart.Lines)),
		slog.String("cart.subtotal", cart.Subtotal().StringFixed(2)),
	)
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, input cartports.RemoveItemInput) (*cartdomain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem", trace.WithAttributes(
		tokenAttr(input.Token),
		attribute.Int64("line.id", input.LineID),
	))
	defer span.End()

	cart, err := s.inner.RemoveItem(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, "remove", err)
		return nil, s.handleError(ctx, span, err, "failed to remove line", tokenLog(input.Token), slog.Int64("line.id", input.LineID))
	}
	s.logInfo(ctx, "line removed from cart", tokenLog(input.Token), slog.Int64("line.id", input.LineID))
	return cart, nil
}

func (s *Service) Reorder(ctx context.Context, input cartports.ReorderInput) (*cartdomain.ReorderResult, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.Reorder", trace.WithAttributes(
		tokenAttr(input.Token),
		attribute.Int("reorder.lines", len(input.Lines)),
	))
	defer span.End()

	result, err := s.inner.Reorder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reorder", tokenLog(input.Token))
	}
	span.SetAttributes(attribute.Int("reorder.added", result.Added), attribute.Int("reorder.skipped", result.SkippedCount()))
	s.metrics.recordReorder(ctx, result)
	s.metrics.recordAdded(ctx, result.AddedUnits)
	attrs := []slog.Attr{tokenLog(input.Token), slog.Int("added", result.Added), slog.Int("skipped", result.SkippedCount())}
	if result.SkippedCount() > 0 {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "reorder partially matched", attrs...)
	} else {
		s.logInfo(ctx, "reorder matched", attrs...)
	}
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
		if isExpected(err) {
			level = slog.LevelWarn
		}
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, level, msg, attrs...)
	}
	return err
}

// isExpected separates shopper mistakes from faults worth paging on.
func isExpected(err error) bool {
	return errors.Is(err, cartapp.ErrItemUnavailable) ||
		errors.Is(err, cartapp.ErrLineNotFound) ||
		errors.Is(err, cartapp.ErrInvalidInput)
}

// Tokens are credentials for guest carts; only a digest reaches telemetry.
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
	itemsAdded     metric.Int64Counter
	rejections     metric.Int64Counter
	reorderedLines metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	itemsAdded, _ := m.Int64Counter("cart.service.items_added", metric.WithDescription("Units added to carts"))
	rejections, _ := m.Int64Counter("cart.service.rejections", metric.WithDescription("Cart mutations rejected"))
	reordered, _ := m.Int64Counter("cart.service.reorder_lines", metric.WithDescription("History lines processed by reorder"))
	return serviceMetrics{itemsAdded: itemsAdded, rejections: rejections, reorderedLines: reordered}
}

func (m serviceMetrics) recordAdded(ctx context.Context, quantity int) {
	if m.itemsAdded != nil && quantity > 0 {
		m.itemsAdded.Add(ctx, int64(quantity))
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, op string, err error) {
	if m.rejections == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, cartapp.ErrItemUnavailable):
		reason = "item_unavailable"
	case errors.Is(err, cartapp.ErrLineNotFound):
		reason = "line_not_found"
	case errors.Is(err, cartapp.ErrInvalidInput):
		reason = "invalid_input"
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("reason", reason)))
}

func (m serviceMetrics) recordReorder(ctx context.Context, result *cartdomain.ReorderResult) {
	if m.reorderedLines == nil {
		return
	}
	m.reorderedLines.Add(ctx, int64(result.Added), metric.WithAttributes(attribute.String("outcome", "added")))
	for _, skipped := range result.Skipped {
		m.reorderedLines.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(skipped.Reason))))
	}
}

var _ cartports.Service = (*Service)(nil)
