package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate root. VendorIDs duplicates the
// sub-order keys so vendor listings hit one GIN index.
type orderRecord struct {
	ID         int64             `gorm:"primaryKey;column:id"`
	Token      string            `gorm:"column:token;type:varchar(128);not null;index"`
	TableNo    string            `gorm:"column:table_no;type:varchar(16)"`
	Subtotal   decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax        decimal.Decimal   `gorm:"column:total_tax;type:numeric(12,2);not null"`
	Total      decimal.Decimal   `gorm:"column:total_gross;type:numeric(12,2);not null"`
	PaymentRef string            `gorm:"column:payment_id;type:varchar(64);uniqueIndex"`
	PaidAt     *time.Time        `gorm:"column:paid_at"`
	VendorIDs  pq.Int64Array     `gorm:"column:vendor_ids;type:bigint[];index:idx_orders_vendor_ids,type:gin"`
	CreatedAt  time.Time         `gorm:"column:created_at;index"`
	SubOrders  []subOrderRecord  `gorm:"foreignKey:OrderID"`
	Lines      []orderLineRecord `gorm:"foreignKey:OrderID"`
}

func (orderRecord) TableName() string { return "orders" }

type subOrderRecord struct {
	OrderID    int64           `gorm:"primaryKey;column:order_id;autoIncrement:false"`
	VendorID   int64           `gorm:"primaryKey;column:vendor_id;autoIncrement:false;index:idx_sub_orders_vendor_status"`
	VendorName string          `gorm:"column:vendor_name;type:varchar(120)"`
	Status     string          `gorm:"column:status;type:varchar(32);not null;index:idx_sub_orders_vendor_status"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (subOrderRecord) TableName() string { return "sub_orders" }

type orderLineRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	OrderID    int64           `gorm:"column:order_id;not null;index"`
	VendorID   int64           `gorm:"column:vendor_id;not null"`
	VendorName string          `gorm:"column:vendor_name;type:varchar(120)"`
	ItemName   string          `gorm:"column:item_name;type:varchar(120);not null"`
	Quantity   int             `gorm:"column:qty;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Models lists the records this adapter owns, for schema migration.
func Models() []any {
	return []any{&orderRecord{}, &subOrderRecord{}, &orderLineRecord{}, &idempotencyRecord{}}
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	rec := toRecord(order)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx, rec.ID)
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var rec orderRecord
	if err := r.preload(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListByOwner(ctx context.Context, token string, limit int) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.preload(ctx).Where("token = ?", token).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *Repository) ListByVendor(ctx context.Context, q ports.VendorOrderQuery) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.preload(ctx).Where("? = ANY(vendor_ids)", q.VendorID)
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("EXISTS (SELECT 1 FROM sub_orders so WHERE so.order_id = orders.id AND so.vendor_id = ? AND so.status IN ?)", q.VendorID, statuses)
	}
	if !q.Since.IsZero() {
		query = query.Where("created_at >= ?", q.Since)
	}
	query = query.Order("created_at DESC, id DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return r.find(query)
}

func (r *Repository) UpdateSubOrderStatus(ctx context.Context, orderID, vendorID int64, from, to domain.Status, at time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&subOrderRecord{}).
		Where("order_id = ? AND vendor_id = ? AND status = ?", orderID, vendorID, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := db.Model(&subOrderRecord{}).Where("order_id = ? AND vendor_id = ?", orderID, vendorID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ports.ErrStatusChanged
	}
	if err := db.Model(&orderRecord{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return domain.ErrSubOrderNotFound
}

func (r *Repository) MarkPaid(ctx context.Context, orderID int64, at time.Time) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&orderRecord{}).Where("id = ? AND paid_at IS NULL", orderID).Update("paid_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	var count int64
	if err := db.Model(&orderRecord{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ports.ErrNotFound
	}
	return false, nil
}

func (r *Repository) ReassignOwner(ctx context.Context, from, to string) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&orderRecord{}).Where("token = ?", from).Update("token", to)
	return res.RowsAffected, res.Error
}

func (r *Repository) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("SubOrders", func(db *gorm.DB) *gorm.DB { return db.Order("vendor_id") }).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *Repository) find(query *gorm.DB) ([]*domain.Order, error) {
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:         order.ID,
		Token:      order.Token,
		TableNo:    order.TableNo,
		Subtotal:   order.Subtotal,
		Tax:        order.Tax,
		Total:      order.Total,
		PaymentRef: order.PaymentRef,
		PaidAt:     order.PaidAt,
		CreatedAt:  order.CreatedAt,
	}
	for _, sub := range order.SubOrders {
		rec.VendorIDs = append(rec.VendorIDs, sub.VendorID)
		rec.SubOrders = append(rec.SubOrders, subOrderRecord{
			VendorID:   sub.VendorID,
			VendorName: sub.VendorName,
			Status:     string(sub.Status),
			Subtotal:   sub.Subtotal,
			UpdatedAt:  sub.UpdatedAt,
		})
	}
	for _, line := range order.Lines {
		rec.Lines = append(rec.Lines, orderLineRecord{
			VendorID:   line.VendorID,
			VendorName: line.VendorName,
			ItemName:   line.ItemName,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			LineTotal:  line.LineTotal,
		})
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:         r.ID,
		Token:      r.Token,
		TableNo:    r.TableNo,
		Subtotal:   r.Subtotal,
		Tax:        r.Tax,
		Total:      r.Total,
		PaymentRef: r.PaymentRef,
		PaidAt:     r.PaidAt,
		CreatedAt:  r.CreatedAt,
	}
	for _, sub := range r.SubOrders {
		order.SubOrders = append(order.SubOrders, domain.SubOrder{
			VendorID:   sub.VendorID,
			VendorName: sub.VendorName,
			Status:     domain.Status(sub.Status),
			Subtotal:   sub.Subtotal,
			UpdatedAt:  sub.UpdatedAt,
		})
	}
	for _, line := range r.Lines {
		order.Lines = append(order.Lines, domain.Line{
			VendorID:   line.VendorID,
			VendorName: line.VendorName,
			ItemName:   line.ItemName,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			LineTotal:  line.LineTotal,
		})
	}
	return order
}
