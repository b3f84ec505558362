// Package mysql 购物车的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartModel 购物车数据库模型
type CartModel struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	CustomerID   string    `gorm:"column:customer_id;type:varchar(36);uniqueIndex;not null"`
	LastModified time.Time `gorm:"column:last_modified;not null"`
	Version      int64     `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (CartModel) TableName() string { return "carts" }

// CartItemModel 购物车明细数据库模型
type CartItemModel struct {
	ID          string          `gorm:"column:id;primaryKey;type:varchar(36)"`
	CartID      string          `gorm:"column:cart_id;type:varchar(36);index;not null"`
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

func (CartItemModel) TableName() string { return "cart_items" }

// AutoMigrate 迁移购物车相关表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&CartModel{}, &CartItemModel{})
}

// CartMySQLRepository 购物车仓储实现
type CartMySQLRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &CartMySQLRepository{db: db}
}

func (r *CartMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *CartMySQLRepository) Save(ctx context.Context, cart *domain.Cart) error {
	db := r.getDB(ctx)
	version, err := r.saveCart(db, cart)
	if err != nil {
		return err
	}
	if err := r.saveItems(db, cart); err != nil {
		return err
	}
	cart.Version = version
	return nil
}

// saveCart 新车按客户唯一插入，已有购物车按版本更新，返回新版本号
func (r *CartMySQLRepository) saveCart(db *gorm.DB, cart *domain.Cart) (int64, error) {
	if cart.Version == 0 {
		m := &CartModel{
			ID:           cart.ID,
			CustomerID:   cart.CustomerID,
			LastModified: cart.LastModified,
			Version:      1,
			CreatedAt:    cart.CreatedAt,
			UpdatedAt:    cart.LastModified,
		}
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoNothing: true,
		}).Create(m)
		if res.Error != nil {
			return 0, fmt.Errorf("%w: failed to create cart: %w", common.ErrPersistenceFailure, res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, fmt.Errorf("%w: cart for customer %s was created concurrently", common.ErrConcurrencyConflict, cart.CustomerID)
		}
		return 1, nil
	}

	res := db.Model(&CartModel{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]any{
			"last_modified": cart.LastModified,
			"version":       cart.Version + 1,
			"updated_at":    cart.LastModified,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: failed to update cart: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: cart %s was modified concurrently", common.ErrConcurrencyConflict, cart.ID)
	}
	return cart.Version + 1, nil
}

func (r *CartMySQLRepository) saveItems(db *gorm.DB, cart *domain.Cart) error {
	keep := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		keep = append(keep, item.ID)
	}
	stale := db.Where("cart_id = ?", cart.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&CartItemModel{}).Error; err != nil {
		return fmt.Errorf("%w: failed to remove cart items: %w", common.ErrPersistenceFailure, err)
	}

	if len(cart.Items) == 0 {
		return nil
	}
	items := make([]CartItemModel, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemModel{
			ID:          item.ID,
			CartID:      cart.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.Amount,
			Currency:    item.UnitPrice.Currency,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice.Amount,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&items).Error; err != nil {
		return fmt.Errorf("%w: failed to save cart items: %w", common.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *CartMySQLRepository) GetByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error) {
	db := r.getDB(ctx)

	var m CartModel
	if err := db.Where("customer_id = ?", customerID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("cart for customer", customerID)
		}
		return nil, fmt.Errorf("%w: failed to load cart: %w", common.ErrPersistenceFailure, err)
	}

	var items []CartItemModel
	if err := db.Where("cart_id = ?", m.ID).Order("created_at, id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load cart items: %w", common.ErrPersistenceFailure, err)
	}

	cart := &domain.Cart{
		ID:           m.ID,
		CustomerID:   m.CustomerID,
		LastModified: m.LastModified,
		CreatedAt:    m.CreatedAt,
		Version:      m.Version,
		Items:        make([]*domain.CartItem, 0, len(items)),
	}
	for i := range items {
		it := &items[i]
		cart.Items = append(cart.Items, &domain.CartItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   common.Money{Amount: it.UnitPrice, Currency: it.Currency},
			Quantity:    it.Quantity,
			TotalPrice:  common.Money{Amount: it.TotalPrice, Currency: it.Currency},
			CreatedAt:   it.CreatedAt,
			UpdatedAt:   it.UpdatedAt,
		})
	}
	return cart, nil
}
