// Package mysql 订单的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressColumns 地址列，嵌入订单表
type AddressColumns struct {
	Street  string `gorm:"column:street;type:varchar(200)"`
	City    string `gorm:"column:city;type:varchar(100)"`
	State   string `gorm:"column:state;type:varchar(100)"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20)"`
	Country string `gorm:"column:country;type:varchar(100)"`
}

// OrderModel 订单数据库模型
type OrderModel struct {
	ID            string          `gorm:"column:id;primaryKey;type:varchar(36)"`
	CustomerID    string          `gorm:"column:customer_id;type:varchar(36);index;not null"`
	Currency      string          `gorm:"column:currency;type:char(3);not null"`
	Status        string          `gorm:"column:status;type:varchar(20);index;not null"`
	PaymentStatus string          `gorm:"column:payment_status;type:varchar(20);not null"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:decimal(20,4);not null"`
	Tax           decimal.Decimal `gorm:"column:tax;type:decimal(20,4);not null"`
	ShippingCost  decimal.Decimal `gorm:"column:shipping_cost;type:decimal(20,4);not null"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(20,4);not null"`
	Shipping      AddressColumns  `gorm:"embedded;embeddedPrefix:shipping_"`
	HasBilling    bool            `gorm:"column:has_billing;not null;default:false"`
	Billing       AddressColumns  `gorm:"embedded;embeddedPrefix:billing_"`
	Notes         string          `gorm:"column:notes;type:varchar(1000)"`
	OrderDate     time.Time       `gorm:"column:order_date;index;not null"`
	Version       int64           `gorm:"column:version;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 订单明细数据库模型
type OrderItemModel struct {
	ID          string          `gorm:"column:id;primaryKey;type:varchar(36)"`
	OrderID     string          `gorm:"column:order_id;type:varchar(36);index;not null"`
	Position    int             `gorm:"column:position;not null"`
	ProductID   string          `gorm:"column:product_id;type:varchar(36);not null"`
	ProductName string          `gorm:"column:product_name;type:varchar(200);not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(20,4);not null"`
	Currency    string          `gorm:"column:currency;type:char(3);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:decimal(20,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// AutoMigrate 迁移订单相关表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OrderModel{}, &OrderItemModel{})
}

// OrderMySQLRepository 订单仓储实现
type OrderMySQLRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &OrderMySQLRepository{db: db}
}

func (r *OrderMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *OrderMySQLRepository) Save(ctx context.Context, o *domain.Order) error {
	db := r.getDB(ctx)
	m := toOrderModel(o)

	if o.Version == 0 {
		m.Version = 1
		if err := db.Create(m).Error; err != nil {
			return fmt.Errorf("%w: failed to create order: %w", common.ErrPersistenceFailure, err)
		}
	} else {
		m.Version = o.Version + 1
		res := db.Model(&OrderModel{}).
			Where("id = ? AND version = ?", o.ID, o.Version).
			Select("*").Omit("id", "created_at", "deleted_at").
			Updates(m)
		if res.Error != nil {
			return fmt.Errorf("%w: failed to update order: %w", common.ErrPersistenceFailure, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %s was modified concurrently", common.ErrConcurrencyConflict, o.ID)
		}
	}

	if err := r.saveItems(db, o); err != nil {
		return err
	}
	o.Version = m.Version
	return nil
}

func (r *OrderMySQLRepository) saveItems(db *gorm.DB, o *domain.Order) error {
	keep := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		keep = append(keep, item.ID)
	}
	stale := db.Where("order_id = ?", o.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&OrderItemModel{}).Error; err != nil {
		return fmt.Errorf("%w: failed to remove order items: %w", common.ErrPersistenceFailure, err)
	}
	if len(o.Items) == 0 {
		return nil
	}

	now := time.Now()
	items := make([]OrderItemModel, 0, len(o.Items))
	for i, item := range o.Items {
		items = append(items, OrderItemModel{
			ID:          item.ID,
			OrderID:     o.ID,
			Position:    i,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.Amount,
			Currency:    item.UnitPrice.Currency,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice.Amount,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "quantity", "total_price", "updated_at"}),
	}).Create(&items).Error
	if err != nil {
		return fmt.Errorf("%w: failed to save order items: %w", common.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *OrderMySQLRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	db := r.getDB(ctx)
	var m OrderModel
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("order", id)
		}
		return nil, fmt.Errorf("%w: failed to load order: %w", common.ErrPersistenceFailure, err)
	}
	orders, err := r.withItems(db, []OrderModel{m})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *OrderMySQLRepository) ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]*domain.Order, int64, error) {
	db := r.getDB(ctx)
	q := db.Model(&OrderModel{}).Where("customer_id = ?", customerID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count orders: %w", common.ErrPersistenceFailure, err)
	}
	if limit <= 0 {
		limit = 20
	}
	var models []OrderModel
	if err := q.Order("order_date DESC, id").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list orders: %w", common.ErrPersistenceFailure, err)
	}
	orders, err := r.withItems(db, models)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// withItems 一次查询加载全部订单明细
func (r *OrderMySQLRepository) withItems(db *gorm.DB, models []OrderModel) ([]*domain.Order, error) {
	if len(models) == 0 {
		return []*domain.Order{}, nil
	}
	ids := make([]string, 0, len(models))
	for i := range models {
		ids = append(ids, models[i].ID)
	}
	var items []OrderItemModel
	if err := db.Where("order_id IN ?", ids).Order("order_id, position").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load order items: %w", common.ErrPersistenceFailure, err)
	}
	byOrder := make(map[string][]*domain.OrderItem, len(models))
	for i := range items {
		it := &items[i]
		byOrder[it.OrderID] = append(byOrder[it.OrderID], &domain.OrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   common.Money{Amount: it.UnitPrice, Currency: it.Currency},
			Quantity:    it.Quantity,
			TotalPrice:  common.Money{Amount: it.TotalPrice, Currency: it.Currency},
		})
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		o := toOrder(&models[i])
		o.Items = byOrder[o.ID]
		o.InitFSM()
		orders = append(orders, o)
	}
	return orders, nil
}

func toOrderModel(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Currency:      o.Currency,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Subtotal:      o.Subtotal.Amount,
		Tax:           o.Tax.Amount,
		ShippingCost:  o.ShippingCost.Amount,
		Total:         o.Total.Amount,
		Shipping:      AddressColumns(o.ShippingAddress),
		Notes:         o.Notes,
		OrderDate:     o.OrderDate,
		CreatedAt:     o.OrderDate,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.BillingAddress != nil {
		m.HasBilling = true
		m.Billing = AddressColumns(*o.BillingAddress)
	}
	return m
}

func toOrder(m *OrderModel) *domain.Order {
	money := func(d decimal.Decimal) common.Money {
		return common.Money{Amount: d, Currency: m.Currency}
	}
	o := &domain.Order{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		Currency:        m.Currency,
		Status:          domain.OrderStatus(m.Status),
		PaymentStatus:   common.PaymentStatus(m.PaymentStatus),
		Subtotal:        money(m.Subtotal),
		Tax:             money(m.Tax),
		ShippingCost:    money(m.ShippingCost),
		Total:           money(m.Total),
		ShippingAddress: domain.Address(m.Shipping),
		Notes:           m.Notes,
		OrderDate:       m.OrderDate,
		UpdatedAt:       m.UpdatedAt,
		Version:         m.Version,
	}
	if m.HasBilling {
		billing := domain.Address(m.Billing)
		o.BillingAddress = &billing
	}
	return o
}
