// Package domain 客户档案领域模型
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// Customer 客户聚合根，邮箱全局唯一且以小写保存
type Customer struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	IsActive         bool
	RegistrationDate time.Time
	// Version 乐观锁版本，由仓储维护
	Version   int64
	UpdatedAt time.Time
}

// NewCustomer 注册新客户，初始为启用状态
func NewCustomer(firstName, lastName, email, phone string) (*Customer, error) {
	c := &Customer{ID: uuid.NewString(), IsActive: true}
	if err := c.UpdateProfile(firstName, lastName, phone); err != nil {
		return nil, err
	}
	if err := c.ChangeEmail(email); err != nil {
		return nil, err
	}
	c.RegistrationDate = c.UpdatedAt
	return c, nil
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// UpdateProfile 修改姓名与电话
func (c *Customer) UpdateProfile(firstName, lastName, phone string) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return fmt.Errorf("%w: first and last name are required", common.ErrValidationFailed)
	}
	c.FirstName = firstName
	c.LastName = lastName
	c.Phone = phone
	c.touch()
	return nil
}

func (c *Customer) ChangeEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidationFailed)
	}
	c.Email = email
	c.touch()
	return nil
}

func (c *Customer) Activate() {
	c.IsActive = true
	c.touch()
}

func (c *Customer) Deactivate() {
	c.IsActive = false
	c.touch()
}

func (c *Customer) touch() {
	c.UpdatedAt = time.Now()
}

// NormalizeEmail 去除首尾空白并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
