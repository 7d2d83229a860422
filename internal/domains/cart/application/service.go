package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	catalogdomain "github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
	"github.com/Apurer/foodcourt-server/internal/shared/keyedmutex"
)

// Service implements the cart aggregator and the reorder resolver.
type Service struct {
	repo    ports.Repository
	catalog catalogports.Lookup
	locks   *keyedmutex.Map
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the cart use cases. locks must be shared with every other
// component that mutates carts.
func NewService(repo ports.Repository, catalog catalogports.Lookup, locks *keyedmutex.Map, opts ...Option) *Service {
	s := &Service{repo: repo, catalog: catalog, locks: locks, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.Service = (*Service)(nil)

// GetCart returns the token's cart; a token without one gets an empty cart.
func (s *Service) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	if err := domain.ValidateToken(token); err != nil {
		return nil, mapError(err)
	}
	return s.load(ctx, token)
}

func (s *Service) AddItem(ctx context.Context, input ports.AddItemInput) (*domain.Cart, error) {
	if err := domain.ValidateToken(input.Token); err != nil {
		return nil, mapError(err)
	}
	if input.Quantity < 1 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	item, err := s.catalog.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: item %d: %w", ErrItemUnavailable, input.ItemID, err)
	}
	if !item.Active {
		return nil, fmt.Errorf("%w: item %d is inactive", ErrItemUnavailable, input.ItemID)
	}

	unlock, err := s.locks.Lock(ctx, ports.LockKey(input.Token))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.load(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if err := cart.Add(item.VendorID, item.ID, item.Name, input.Quantity, item.Price, s.now().UTC()); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, cart)
}

func (s *Service) RemoveItem(ctx context.Context, input ports.RemoveItemInput) (*domain.Cart, error) {
	if err := domain.ValidateToken(input.Token); err != nil {
		return nil, mapError(err)
	}
	unlock, err := s.locks.Lock(ctx, ports.LockKey(input.Token))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.load(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if err := cart.Remove(input.LineID, s.now().UTC()); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, cart)
}

// Reorder re-resolves history lines by vendor and item name against the live
// catalog and adds every match in a single save under the token lock, so the
// cart either gains all matched lines or none. Unresolvable lines are
// reported, never fatal.
func (s *Service) Reorder(ctx context.Context, input ports.ReorderInput) (*domain.ReorderResult, error) {
	if err := domain.ValidateToken(input.Token); err != nil {
		return nil, mapError(err)
	}
	result := &domain.ReorderResult{}
	type match struct {
		line domain.HistoryLine
		item *catalogdomain.Item
	}
	matches := make([]match, 0, len(input.Lines))
	for _, line := range input.Lines {
		item, reason, detail := s.resolve(ctx, line)
		if reason != "" {
			result.Skipped = append(result.Skipped, domain.SkippedLine{Line: line, Reason: reason, Detail: detail})
			continue
		}
		matches = append(matches, match{line: line, item: item})
	}

	unlock, err := s.locks.Lock(ctx, ports.LockKey(input.Token))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.load(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for _, m := range matches {
		err := cart.Add(m.item.VendorID, m.item.ID, m.item.Name, m.line.Quantity, m.item.Price, now)
		if errors.Is(err, domain.ErrInvalidQuantity) {
			result.Skipped = append(result.Skipped, domain.SkippedLine{Line: m.line, Reason: domain.SkipCatalogMismatch, Detail: err.Error()})
			continue
		}
		if err != nil {
			return nil, mapError(err)
		}
		result.Added++
		result.AddedUnits += m.line.Quantity
	}
	if result.Added > 0 {
		if cart, err = s.repo.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	result.Cart = cart
	return result, nil
}

func (s *Service) resolve(ctx context.Context, line domain.HistoryLine) (*catalogdomain.Item, domain.SkipReason, string) {
	vendor, err := s.catalog.VendorByName(ctx, line.VendorName)
	if err != nil {
		return nil, domain.SkipVendorNotFound, err.Error()
	}
	menu, err := s.catalog.Menu(ctx, vendor.ID, true)
	if err != nil {
		return nil, domain.SkipCatalogMismatch, err.Error()
	}
	for _, item := range menu {
		if item.Name == line.ItemName && item.Active {
			return item, "", ""
		}
	}
	return nil, domain.SkipCatalogMismatch, fmt.Sprintf("no active item named %q at %q", line.ItemName, line.VendorName)
}

func (s *Service) load(ctx context.Context, token string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.New(token), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}
