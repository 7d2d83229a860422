package memory

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/memstore"
)

const ordersTable = "orders"

var _ ports.Repository = (*Repository)(nil)

// Table is the memdb schema for orders.
func Table() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: ordersTable,
		Indexes: map[string]*memdb.IndexSchema{
			"id":    {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
			"token": {Name: "token", Indexer: &memdb.StringFieldIndex{Field: "Token"}},
		},
	}
}

// Repository is an in-memory order adapter on top of the shared memstore.
// Stored orders are never mutated; writes insert a modified clone.
type Repository struct {
	scope  memstore.Scope
	nextID *atomic.Int64
}

func NewRepository(db *memdb.MemDB) *Repository {
	return &Repository{scope: memstore.Scope{DB: db}, nextID: new(atomic.Int64)}
}

// WithTxn returns a repository bound to txn; its writes commit with txn.
func (r *Repository) WithTxn(txn *memdb.Txn) *Repository {
	return &Repository{scope: memstore.Scope{DB: r.scope.DB, Txn: txn}, nextID: r.nextID}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	clone.ID = r.nextID.Add(1)
	err := r.scope.Write(func(txn *memdb.Txn) error {
		return txn.Insert(ordersTable, clone)
	})
	if err != nil {
		return nil, err
	}
	return clone.Clone(), nil
}

func (r *Repository) Get(_ context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := r.scope.Read(func(txn *memdb.Txn) error {
		stored, err := lookup(txn, id)
		if err != nil {
			return err
		}
		order = stored.Clone()
		return nil
	})
	return order, err
}

func (r *Repository) ListByOwner(_ context.Context, token string, limit int) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.scope.Read(func(txn *memdb.Txn) error {
		it, err := txn.Get(ordersTable, "token", token)
		if err != nil {
			return err
		}
		orders = memstore.Collect[*domain.Order](it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newestFirst(orders, limit), nil
}

func (r *Repository) ListByVendor(_ context.Context, q ports.VendorOrderQuery) ([]*domain.Order, error) {
	var matched []*domain.Order
	err := r.scope.Read(func(txn *memdb.Txn) error {
		it, err := txn.Get(ordersTable, "id")
		if err != nil {
			return err
		}
		for _, order := range memstore.Collect[*domain.Order](it) {
			if !q.Since.IsZero() && order.CreatedAt.Before(q.Since) {
				continue
			}
			sub, err := order.SubOrder(q.VendorID)
			if err != nil || !statusIn(sub.Status, q.Statuses) {
				continue
			}
			matched = append(matched, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newestFirst(matched, q.Limit), nil
}

func (r *Repository) UpdateSubOrderStatus(_ context.Context, orderID, vendorID int64, from, to domain.Status, at time.Time) error {
	return r.scope.Write(func(txn *memdb.Txn) error {
		stored, err := lookup(txn, orderID)
		if err != nil {
			return err
		}
		next := stored.Clone()
		sub, err := next.SubOrder(vendorID)
		if err != nil {
			return err
		}
		if sub.Status != from {
			return ports.ErrStatusChanged
		}
		sub.Status = to
		sub.UpdatedAt = at
		return txn.Insert(ordersTable, next)
	})
}

func (r *Repository) MarkPaid(_ context.Context, orderID int64, at time.Time) (bool, error) {
	changed := false
	err := r.scope.Write(func(txn *memdb.Txn) error {
		stored, err := lookup(txn, orderID)
		if err != nil {
			return err
		}
		if stored.PaidAt != nil {
			return nil
		}
		next := stored.Clone()
		paid := at
		next.PaidAt = &paid
		changed = true
		return txn.Insert(ordersTable, next)
	})
	return changed, err
}

func (r *Repository) ReassignOwner(_ context.Context, from, to string) (int64, error) {
	var moved int64
	err := r.scope.Write(func(txn *memdb.Txn) error {
		it, err := txn.Get(ordersTable, "token", from)
		if err != nil {
			return err
		}
		// Drain before writing: inserting while iterating the same index is unsafe.
		owned := memstore.Collect[*domain.Order](it)
		for _, stored := range owned {
			next := stored.Clone()
			next.Token = to
			if err := txn.Insert(ordersTable, next); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	return moved, err
}

func lookup(txn *memdb.Txn, id int64) (*domain.Order, error) {
	raw, err := txn.First(ordersTable, "id", id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ports.ErrNotFound
	}
	return raw.(*domain.Order), nil
}

func statusIn(s domain.Status, set []domain.Status) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

func newestFirst(orders []*domain.Order, limit int) []*domain.Order {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	out := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Clone())
	}
	return out
}
