package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	cartpostgres "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/persistence/postgres"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork runs cart and order writes inside one database transaction.
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork wires a transaction runner over db.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if u == nil || u.db == nil {
		return errors.New("postgres unit of work not configured")
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, gormTx{
			carts:  cartpostgres.NewRepository(tx),
			orders: NewRepository(tx),
		})
	})
}

type gormTx struct {
	carts  *cartpostgres.Repository
	orders *Repository
}

func (t gormTx) Carts() cartports.Repository { return t.carts }
func (t gormTx) Orders() ports.Repository    { return t.orders }
