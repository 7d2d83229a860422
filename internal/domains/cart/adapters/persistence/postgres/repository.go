package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/foodcourt-server/internal/domains/cart/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists carts in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Pass a transaction
// handle to make writes part of a larger unit of work.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type cartRecord struct {
	Token     string    `gorm:"primaryKey;column:token;type:varchar(128)"`
	Version   int64     `gorm:"column:version;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (cartRecord) TableName() string { return "carts" }

type cartLineRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	CartToken string          `gorm:"column:cart_token;type:varchar(128);not null;index"`
	VendorID  int64           `gorm:"column:vendor_id;not null"`
	ItemID    int64           `gorm:"column:item_id;not null"`
	ItemName  string          `gorm:"column:item_name;type:varchar(120);not null"`
	Quantity  int             `gorm:"column:qty;not null"`
	UnitPrice decimal.Decimal `gorm:"column:price_snapshot;type:numeric(10,2);not null"`
	AddedAt   time.Time       `gorm:"column:added_at"`
}

func (cartLineRecord) TableName() string { return "cart_lines" }

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&cartRecord{}, &cartLineRecord{}}
}

func (r *Repository) Get(ctx context.Context, token string) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return get(r.db.WithContext(ctx), token)
}

func (r *Repository) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errors.New("cart is nil")
	}
	var saved *domain.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, cart); err != nil {
			return err
		}
		keep := make([]int64, 0, len(cart.Lines))
		for _, line := range cart.Lines {
			if line.ID != 0 {
				keep = append(keep, line.ID)
			}
		}
		stale := tx.Where("cart_token = ?", cart.Token)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&cartLineRecord{}).Error; err != nil {
			return err
		}
		for _, line := range cart.Lines {
			rec := toLineRecord(cart.Token, line)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"vendor_id", "item_id", "item_name", "qty", "price_snapshot", "added_at"}),
			}).Create(&rec).Error; err != nil {
				return err
			}
		}
		var err error
		saved, err = get(tx, cart.Token)
		return err
	})
	return saved, err
}

func (r *Repository) Clear(ctx context.Context, cart *domain.Cart) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if cart == nil {
		return errors.New("cart is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cart.Version == 0 {
			var count int64
			if err := tx.Model(&cartRecord{}).Where("token = ?", cart.Token).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ports.ErrConcurrentUpdate
			}
			return nil
		}
		if err := bumpVersion(tx, cart); err != nil {
			return err
		}
		return tx.Where("cart_token = ?", cart.Token).Delete(&cartLineRecord{}).Error
	})
}

// bumpVersion creates the cart row on first write, or advances its version
// only when the caller read the current one.
func bumpVersion(tx *gorm.DB, cart *domain.Cart) error {
	if cart.Version == 0 {
		rec := cartRecord{Token: cart.Token, Version: 1}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrConcurrentUpdate
		}
		return nil
	}
	res := tx.Model(&cartRecord{}).
		Where("token = ? AND version = ?", cart.Token, cart.Version).
		Updates(map[string]any{"version": gorm.Expr("version + 1"), "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConcurrentUpdate
	}
	return nil
}

func get(db *gorm.DB, token string) (*domain.Cart, error) {
	var rec cartRecord
	if err := db.First(&rec, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var lines []cartLineRecord
	if err := db.Where("cart_token = ?", token).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	cart := &domain.Cart{Token: rec.Token, Version: rec.Version, UpdatedAt: rec.UpdatedAt}
	for _, l := range lines {
		cart.Lines = append(cart.Lines, domain.Line{
			ID:        l.ID,
			VendorID:  l.VendorID,
			ItemID:    l.ItemID,
			ItemName:  l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			AddedAt:   l.AddedAt,
		})
	}
	return cart, nil
}

func toLineRecord(token string, line domain.Line) cartLineRecord {
	return cartLineRecord{
		ID:        line.ID,
		CartToken: token,
		VendorID:  line.VendorID,
		ItemID:    line.ItemID,
		ItemName:  line.ItemName,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		AddedAt:   line.AddedAt,
	}
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres cart repository not configured")
	}
	return nil
}
