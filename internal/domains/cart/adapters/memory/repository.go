package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/platform/memstore"
)

const cartsTable = "carts"

var _ ports.Repository = (*Repository)(nil)

// Table is the memdb schema for carts.
func Table() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: cartsTable,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Token"}},
		},
	}
}

// cartRecord is immutable once inserted; every write inserts a fresh one.
type cartRecord struct {
	Token     string
	Lines     []domain.Line
	Version   int64
	UpdatedAt time.Time
}

// Repository is an in-memory cart adapter on top of the shared memstore.
type Repository struct {
	scope   memstore.Scope
	lineSeq *atomic.Int64
}

func NewRepository(db *memdb.MemDB) *Repository {
	return &Repository{scope: memstore.Scope{DB: db}, lineSeq: new(atomic.Int64)}
}

// WithTxn returns a repository bound to txn; its writes commit with txn.
func (r *Repository) WithTxn(txn *memdb.Txn) *Repository {
	return &Repository{scope: memstore.Scope{DB: r.scope.DB, Txn: txn}, lineSeq: r.lineSeq}
}

func (r *Repository) Get(_ context.Context, token string) (*domain.Cart, error) {
	var cart *domain.Cart
	err := r.scope.Read(func(txn *memdb.Txn) error {
		rec, err := lookup(txn, token)
		if err != nil {
			return err
		}
		if rec == nil {
			return ports.ErrNotFound
		}
		cart = rec.toDomain()
		return nil
	})
	return cart, err
}

func (r *Repository) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart == nil {
		return nil, errors.New("cart is nil")
	}
	var saved *domain.Cart
	err := r.scope.Write(func(txn *memdb.Txn) error {
		if err := checkVersion(txn, cart); err != nil {
			return err
		}
		rec := &cartRecord{
			Token:     cart.Token,
			Lines:     append([]domain.Line(nil), cart.Lines...),
			Version:   cart.Version + 1,
			UpdatedAt: cart.UpdatedAt,
		}
		for i := range rec.Lines {
			if rec.Lines[i].ID == 0 {
				rec.Lines[i].ID = r.lineSeq.Add(1)
			}
		}
		if err := txn.Insert(cartsTable, rec); err != nil {
			return err
		}
		saved = rec.toDomain()
		return nil
	})
	return saved, err
}

func (r *Repository) Clear(_ context.Context, cart *domain.Cart) error {
	if cart == nil {
		return errors.New("cart is nil")
	}
	return r.scope.Write(func(txn *memdb.Txn) error {
		if err := checkVersion(txn, cart); err != nil {
			return err
		}
		if cart.Version == 0 {
			return nil
		}
		return txn.Insert(cartsTable, &cartRecord{
			Token:     cart.Token,
			Version:   cart.Version + 1,
			UpdatedAt: time.Now().UTC(),
		})
	})
}

func lookup(txn *memdb.Txn, token string) (*cartRecord, error) {
	raw, err := txn.First(cartsTable, "id", token)
	if err != nil || raw == nil {
		return nil, err
	}
	return raw.(*cartRecord), nil
}

func checkVersion(txn *memdb.Txn, cart *domain.Cart) error {
	current, err := lookup(txn, cart.Token)
	if err != nil {
		return err
	}
	stored := int64(0)
	if current != nil {
		stored = current.Version
	}
	if stored != cart.Version {
		return ports.ErrConcurrentUpdate
	}
	return nil
}

func (r *cartRecord) toDomain() *domain.Cart {
	return &domain.Cart{
		Token:     r.Token,
		Lines:     append([]domain.Line(nil), r.Lines...),
		Version:   r.Version,
		UpdatedAt: r.UpdatedAt,
	}
}
