// Package mysql 客户档案的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
)

// CustomerModel 客户数据库模型
type CustomerModel struct {
	ID               string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	FirstName        string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName         string    `gorm:"column:last_name;type:varchar(100);not null"`
	Email            string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone            string    `gorm:"column:phone;type:varchar(20)"`
	IsActive         bool      `gorm:"column:is_active;not null"`
	RegistrationDate time.Time `gorm:"column:registration_date;index;not null"`
	Version          int64     `gorm:"column:version;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (CustomerModel) TableName() string { return "customers" }

// AutoMigrate 迁移客户表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&CustomerModel{})
}

// CustomerMySQLRepository 客户仓储实现
type CustomerMySQLRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) domain.CustomerRepository {
	return &CustomerMySQLRepository{db: db}
}

func (r *CustomerMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *CustomerMySQLRepository) Save(ctx context.Context, c *domain.Customer) error {
	db := r.getDB(ctx)
	m := toCustomerModel(c)

	if c.Version == 0 {
		m.Version = 1
		if err := db.Create(m).Error; err != nil {
			return fmt.Errorf("%w: failed to create customer: %w", common.ErrPersistenceFailure, err)
		}
		c.Version = 1
		return nil
	}

	res := db.Model(&CustomerModel{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"first_name": m.FirstName,
			"last_name":  m.LastName,
			"email":      m.Email,
			"phone":      m.Phone,
			"is_active":  m.IsActive,
			"version":    c.Version + 1,
			"updated_at": m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update customer: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: customer %s was modified concurrently", common.ErrConcurrencyConflict, c.ID)
	}
	c.Version++
	return nil
}

func (r *CustomerMySQLRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.first(ctx, "customer", id, "id = ?", id)
}

func (r *CustomerMySQLRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	email = domain.NormalizeEmail(email)
	return r.first(ctx, "customer with email", email, "email = ?", email)
}

func (r *CustomerMySQLRepository) first(ctx context.Context, entity, key, cond string, arg any) (*domain.Customer, error) {
	var m CustomerModel
	if err := r.getDB(ctx).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound(entity, key)
		}
		return nil, fmt.Errorf("%w: failed to load customer: %w", common.ErrPersistenceFailure, err)
	}
	return toCustomer(&m), nil
}

func (r *CustomerMySQLRepository) List(ctx context.Context, filter domain.CustomerFilter) ([]*domain.Customer, int64, error) {
	q := r.getDB(ctx).Model(&CustomerModel{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count customers: %w", common.ErrPersistenceFailure, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	var models []CustomerModel
	if err := q.Order("registration_date, id").Offset(filter.Offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list customers: %w", common.ErrPersistenceFailure, err)
	}
	out := make([]*domain.Customer, 0, len(models))
	for i := range models {
		out = append(out, toCustomer(&models[i]))
	}
	return out, total, nil
}

// Delete 逻辑删除后邮箱可被重新注册
func (r *CustomerMySQLRepository) Delete(ctx context.Context, id string) error {
	db := r.getDB(ctx)
	var m CustomerModel
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFound("customer", id)
		}
		return fmt.Errorf("%w: failed to load customer: %w", common.ErrPersistenceFailure, err)
	}
	res := db.Model(&CustomerModel{}).Where("id = ?", id).Updates(map[string]any{
		"email":      deletedEmail(m.ID, m.Email),
		"deleted_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to delete customer: %w", common.ErrPersistenceFailure, res.Error)
	}
	return nil
}

// deletedEmail 唯一索引同样约束已删除行，删除时改写邮箱
func deletedEmail(id, email string) string {
	return "deleted+" + id + "+" + email
}

func toCustomerModel(c *domain.Customer) *CustomerModel {
	return &CustomerModel{
		ID:               c.ID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		IsActive:         c.IsActive,
		RegistrationDate: c.RegistrationDate,
		Version:          c.Version,
		CreatedAt:        c.RegistrationDate,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toCustomer(m *CustomerModel) *domain.Customer {
	return &domain.Customer{
		ID:               m.ID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Phone:            m.Phone,
		IsActive:         m.IsActive,
		RegistrationDate: m.RegistrationDate,
		Version:          m.Version,
		UpdatedAt:        m.UpdatedAt,
	}
}
