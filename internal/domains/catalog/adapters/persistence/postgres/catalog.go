package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/foodcourt-server/internal/domains/catalog/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/catalog/ports"
)

var _ ports.Lookup = (*Catalog)(nil)

// Catalog reads vendors and menus from PostgreSQL using GORM.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog wires a PostgreSQL-backed catalog. Caller manages DB lifecycle.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

type vendorRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;type:varchar(120);uniqueIndex;not null"`
	StallNo   string    `gorm:"column:stall_no;type:varchar(20)"`
	GSTIN     string    `gorm:"column:gstin;type:varchar(20)"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (vendorRecord) TableName() string { return "vendors" }

type menuItemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	VendorID  int64           `gorm:"column:vendor_id;not null;index:idx_menu_vendor_active"`
	Name      string          `gorm:"column:item_name;type:varchar(120);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Active    bool            `gorm:"column:is_active;not null;default:true;index:idx_menu_vendor_active"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (menuItemRecord) TableName() string { return "menu_items" }

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&vendorRecord{}, &menuItemRecord{}}
}

func (c *Catalog) GetVendor(ctx context.Context, id int64) (*domain.Vendor, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var rec vendorRecord
	if err := c.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrVendorNotFound
		}
		return nil, err
	}
	return rec.toDomain()
}

func (c *Catalog) VendorByName(ctx context.Context, name string) (*domain.Vendor, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var rec vendorRecord
	if err := c.db.WithContext(ctx).First(&rec, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrVendorNotFound
		}
		return nil, err
	}
	return rec.toDomain()
}

func (c *Catalog) ListVendors(ctx context.Context) ([]*domain.Vendor, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var records []vendorRecord
	if err := c.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	vendors := make([]*domain.Vendor, 0, len(records))
	for i := range records {
		v, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, nil
}

func (c *Catalog) Menu(ctx context.Context, vendorID int64, activeOnly bool) ([]*domain.Item, error) {
	if _, err := c.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	query := c.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var records []menuItemRecord
	if err := query.Order("item_name, id").Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]*domain.Item, 0, len(records))
	for i := range records {
		item, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Catalog) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var rec menuItemRecord
	if err := c.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrItemNotFound
		}
		return nil, err
	}
	return rec.toDomain()
}

// SetActive toggles availability of a menu item.
func (c *Catalog) SetActive(ctx context.Context, itemID int64, active bool) error {
	if err := c.ensureDB(); err != nil {
		return err
	}
	res := c.db.WithContext(ctx).Model(&menuItemRecord{}).Where("id = ?", itemID).
		Updates(map[string]any{"is_active": active, "updated_at": gorm.Expr("NOW()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrItemNotFound
	}
	return nil
}

// Seed loads seed into an empty catalog. A populated catalog is left alone
// and reported as seeded=false.
func (c *Catalog) Seed(ctx context.Context, seed []domain.SeedVendor) (bool, error) {
	if err := c.ensureDB(); err != nil {
		return false, err
	}
	seeded := false
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&vendorRecord{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, sv := range seed {
			if err := sv.Vendor.Validate(); err != nil {
				return err
			}
			v := vendorRecord{ID: sv.Vendor.ID, Name: sv.Vendor.Name, StallNo: sv.Vendor.StallNo, GSTIN: sv.Vendor.GSTIN}
			if err := tx.Create(&v).Error; err != nil {
				return fmt.Errorf("seed vendor %q: %w", sv.Vendor.Name, err)
			}
			for _, item := range sv.Items {
				if err := item.Validate(); err != nil {
					return err
				}
				rec := menuItemRecord{ID: item.ID, VendorID: item.VendorID, Name: item.Name, Price: item.Price, Active: item.Active}
				if err := tx.Create(&rec).Error; err != nil {
					return fmt.Errorf("seed item %q: %w", item.Name, err)
				}
			}
		}
		// Explicit ids leave the serial sequences behind.
		for _, table := range []string{"vendors", "menu_items"} {
			stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))", table, table)
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

func (c *Catalog) ensureDB() error {
	if c == nil || c.db == nil {
		return errors.New("postgres catalog not configured")
	}
	return nil
}

func (r vendorRecord) toDomain() (*domain.Vendor, error) {
	v := &domain.Vendor{ID: r.ID, Name: r.Name, StallNo: r.StallNo, GSTIN: r.GSTIN}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("vendor row %d: %w", r.ID, err)
	}
	return v, nil
}

func (r menuItemRecord) toDomain() (*domain.Item, error) {
	item := &domain.Item{ID: r.ID, VendorID: r.VendorID, Name: r.Name, Price: r.Price, Active: r.Active}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("menu row %d: %w", r.ID, err)
	}
	return item, nil
}
