package memory

import (
	"context"

	"github.com/hashicorp/go-memdb"

	cartmemory "github.com/Apurer/foodcourt-server/internal/domains/cart/adapters/memory"
	cartports "github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork runs cart and order writes in one memdb write transaction.
// Both repositories must live on db.
type UnitOfWork struct {
	db     *memdb.MemDB
	carts  *cartmemory.Repository
	orders *Repository
}

func NewUnitOfWork(db *memdb.MemDB, carts *cartmemory.Repository, orders *Repository) *UnitOfWork {
	return &UnitOfWork{db: db, carts: carts, orders: orders}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	txn := u.db.Txn(true)
	defer txn.Abort()
	if err := fn(ctx, memoryTx{carts: u.carts.WithTxn(txn), orders: u.orders.WithTxn(txn)}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

type memoryTx struct {
	carts  *cartmemory.Repository
	orders *Repository
}

func (t memoryTx) Carts() cartports.Repository { return t.carts }
func (t memoryTx) Orders() ports.Repository    { return t.orders }
