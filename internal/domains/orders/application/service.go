package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	"github.com/Apurer/foodcourt-server/internal/shared/keyedmutex"
)

// Dependencies groups the collaborators of the order service.
type Dependencies struct {
	UnitOfWork  ports.UnitOfWork
	Orders      ports.Repository
	Carts       cartports.Repository
	Catalog     catalogports.Lookup
	Idempotency ports.IdempotencyStore
	Notifier    ports.Notifier
	// Locks must be the map the cart service uses.
	Locks *keyedmutex.Map

	Pricing         domain.Pricing
	PaymentLinkBase string
}

// Service implements checkout, sub-order fulfillment and the status observer.
type Service struct {
	uow         ports.UnitOfWork
	orders      ports.Repository
	carts       cartports.Repository
	catalog     catalogports.Lookup
	idempotency ports.IdempotencyStore
	notifier    ports.Notifier
	locks       *keyedmutex.Map
	pricing     domain.Pricing
	linkBase    string
	logger      *slog.Logger
	now         func() time.Time
	newRef      func() string

	polls singleflight.Group
	// generation is bumped after every committed transition so status polls
	// started afterwards never share an older in-flight read.
	generation atomic.Uint64
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for invariant breaches and publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPaymentRefGenerator overrides how placeholder payment references are made.
func WithPaymentRefGenerator(gen func() string) Option {
	return func(s *Service) { s.newRef = gen }
}

// NewService validates deps and wires the order use cases.
func NewService(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.UnitOfWork == nil:
		return nil, errors.New("orders: unit of work is required")
	case deps.Orders == nil:
		return nil, errors.New("orders: order repository is required")
	case deps.Carts == nil:
		return nil, errors.New("orders: cart repository is required")
	case deps.Catalog == nil:
		return nil, errors.New("orders: catalog lookup is required")
	case deps.Idempotency == nil:
		return nil, errors.New("orders: idempotency store is required")
	}
	s := &Service{
		uow:         deps.UnitOfWork,
		orders:      deps.Orders,
		carts:       deps.Carts,
		catalog:     deps.Catalog,
		idempotency: deps.Idempotency,
		notifier:    deps.Notifier,
		locks:       deps.Locks,
		pricing:     deps.Pricing,
		linkBase:    strings.TrimRight(deps.PaymentLinkBase, "/"),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		newRef:      func() string { return "STUB-" + uuid.NewString() },
	}
	if s.locks == nil {
		s.locks = keyedmutex.New()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ ports.Service = (*Service)(nil)

func (s *Service) publish(ctx context.Context, event domain.StatusChanged) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "status change not published",
			slog.Int64("order.id", event.OrderID),
			slog.Int64("vendor.id", event.VendorID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) paymentLink(ref string) string {
	if s.linkBase == "" || ref == "" {
		return ""
	}
	return s.linkBase + "/" + ref
}

func subOrderLockKey(orderID, vendorID int64) string {
	return fmt.Sprintf("suborder:%d:%d", orderID, vendorID)
}
