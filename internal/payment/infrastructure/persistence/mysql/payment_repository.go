// Package mysql 支付与未匹配网关事件的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
)

// PaymentModel 支付数据库模型
type PaymentModel struct {
	ID                    string          `gorm:"column:id;primaryKey;type:varchar(36)"`
	OrderID               string          `gorm:"column:order_id;type:varchar(36);index;not null"`
	Amount                decimal.Decimal `gorm:"column:amount;type:decimal(20,4);not null"`
	Currency              string          `gorm:"column:currency;type:char(3);not null"`
	Status                string          `gorm:"column:status;type:varchar(20);index;not null"`
	Method                string          `gorm:"column:method;type:varchar(32);not null"`
	ExternalTransactionID string          `gorm:"column:external_transaction_id;type:varchar(255);index"`
	Gateway               string          `gorm:"column:gateway;type:varchar(50)"`
	PaymentDate           time.Time       `gorm:"column:payment_date;not null"`
	Version               int64           `gorm:"column:version;not null"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (PaymentModel) TableName() string { return "payments" }

// AutoMigrate 迁移支付相关表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&PaymentModel{}, &ParkedEventModel{})
}

// PaymentMySQLRepository 支付仓储实现
type PaymentMySQLRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &PaymentMySQLRepository{db: db}
}

func (r *PaymentMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *PaymentMySQLRepository) Save(ctx context.Context, p *domain.Payment) error {
	db := r.getDB(ctx)
	m := toPaymentModel(p)

	if p.Version == 0 {
		m.Version = 1
		if err := db.Create(m).Error; err != nil {
			return fmt.Errorf("%w: failed to create payment: %w", common.ErrPersistenceFailure, err)
		}
		p.Version = m.Version
		return nil
	}

	m.Version = p.Version + 1
	res := db.Model(&PaymentModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Select("*").Omit("id", "created_at", "deleted_at").
		Updates(m)
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update payment: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: payment %s was modified concurrently", common.ErrConcurrencyConflict, p.ID)
	}
	p.Version = m.Version
	return nil
}

func (r *PaymentMySQLRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.first(ctx, "payment", id, "id = ?", id)
}

// GetByOrderID 返回订单最近一笔支付
func (r *PaymentMySQLRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.first(ctx, "payment for order", orderID, "order_id = ?", orderID)
}

func (r *PaymentMySQLRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	if transactionID == "" {
		return nil, common.NotFound("payment with transaction", transactionID)
	}
	return r.first(ctx, "payment with transaction", transactionID, "external_transaction_id = ?", transactionID)
}

func (r *PaymentMySQLRepository) first(ctx context.Context, entity, key string, query string, args ...any) (*domain.Payment, error) {
	var m PaymentModel
	err := r.getDB(ctx).Where(query, args...).Order("payment_date DESC, id").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound(entity, key)
		}
		return nil, fmt.Errorf("%w: failed to load payment: %w", common.ErrPersistenceFailure, err)
	}
	return toPayment(&m), nil
}

func toPaymentModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:                    p.ID,
		OrderID:               p.OrderID,
		Amount:                p.Amount.Amount,
		Currency:              p.Amount.Currency,
		Status:                string(p.Status),
		Method:                string(p.Method),
		ExternalTransactionID: p.ExternalTransactionID,
		Gateway:               p.Gateway,
		PaymentDate:           p.PaymentDate,
		CreatedAt:             p.PaymentDate,
		UpdatedAt:             p.UpdatedAt,
	}
}

func toPayment(m *PaymentModel) *domain.Payment {
	p := &domain.Payment{
		ID:                    m.ID,
		OrderID:               m.OrderID,
		Amount:                common.Money{Amount: m.Amount, Currency: m.Currency},
		Status:                common.PaymentStatus(m.Status),
		Method:                domain.PaymentMethod(m.Method),
		ExternalTransactionID: m.ExternalTransactionID,
		Gateway:               m.Gateway,
		PaymentDate:           m.PaymentDate,
		UpdatedAt:             m.UpdatedAt,
		Version:               m.Version,
	}
	p.InitFSM()
	return p
}
