package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
)

// CreateCustomerCommand 注册客户命令
type CreateCustomerCommand struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Email     string `validate:"required,email,max=200"`
	Phone     string `validate:"max=20"`
}

// UpdateCustomerCommand 更新客户档案
type UpdateCustomerCommand struct {
	CustomerID string `validate:"required"`
	FirstName  string `validate:"required,max=100"`
	LastName   string `validate:"required,max=100"`
	Email      string `validate:"required,email,max=200"`
	Phone      string `validate:"max=20"`
}

// ActivateCustomerCommand 启用客户
type ActivateCustomerCommand struct {
	CustomerID string `validate:"required"`
}

// DeactivateCustomerCommand 停用客户
type DeactivateCustomerCommand struct {
	CustomerID string `validate:"required"`
}

// DeleteCustomerCommand 逻辑删除客户
type DeleteCustomerCommand struct {
	CustomerID string `validate:"required"`
}

// CustomerCommandService 客户命令服务
type CustomerCommandService struct {
	repo      domain.CustomerRepository
	publisher common.EventPublisher
	logger    *slog.Logger
}

func NewCustomerCommandService(repo domain.CustomerRepository, publisher common.EventPublisher, logger *slog.Logger) *CustomerCommandService {
	return &CustomerCommandService{repo: repo, publisher: publisher, logger: logger}
}

// CreateCustomer 注册客户，邮箱不区分大小写地唯一
func (s *CustomerCommandService) CreateCustomer(ctx context.Context, cmd CreateCustomerCommand) (CustomerDTO, error) {
	if err := s.requireFreeEmail(ctx, "CreateCustomerCommand", cmd.Email, ""); err != nil {
		return CustomerDTO{}, err
	}
	customer, err := domain.NewCustomer(cmd.FirstName, cmd.LastName, cmd.Email, cmd.Phone)
	if err != nil {
		return CustomerDTO{}, err
	}
	if err := s.repo.Save(ctx, customer); err != nil {
		return CustomerDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicCustomerRegistered, customer.ID, domain.CustomerRegisteredEvent{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Timestamp:  time.Now(),
	})
	return toCustomerDTO(customer), nil
}

func (s *CustomerCommandService) UpdateCustomer(ctx context.Context, cmd UpdateCustomerCommand) (CustomerDTO, error) {
	if err := s.requireFreeEmail(ctx, "UpdateCustomerCommand", cmd.Email, cmd.CustomerID); err != nil {
		return CustomerDTO{}, err
	}
	return s.mutate(ctx, cmd.CustomerID, func(c *domain.Customer) error {
		if err := c.UpdateProfile(cmd.FirstName, cmd.LastName, cmd.Phone); err != nil {
			return err
		}
		return c.ChangeEmail(cmd.Email)
	})
}

func (s *CustomerCommandService) ActivateCustomer(ctx context.Context, cmd ActivateCustomerCommand) (CustomerDTO, error) {
	return s.mutate(ctx, cmd.CustomerID, func(c *domain.Customer) error {
		c.Activate()
		return nil
	})
}

func (s *CustomerCommandService) DeactivateCustomer(ctx context.Context, cmd DeactivateCustomerCommand) (CustomerDTO, error) {
	return s.mutate(ctx, cmd.CustomerID, func(c *domain.Customer) error {
		c.Deactivate()
		return nil
	})
}

func (s *CustomerCommandService) DeleteCustomer(ctx context.Context, cmd DeleteCustomerCommand) (struct{}, error) {
	if err := s.repo.Delete(ctx, cmd.CustomerID); err != nil {
		return struct{}{}, err
	}
	common.Notify(ctx, s.publisher, s.logger, domain.TopicCustomerDeleted, cmd.CustomerID, domain.CustomerDeletedEvent{
		CustomerID: cmd.CustomerID,
		Timestamp:  time.Now(),
	})
	return struct{}{}, nil
}

// requireFreeEmail 邮箱未被其他客户占用，owner 为当前客户 ID
func (s *CustomerCommandService) requireFreeEmail(ctx context.Context, request, email, owner string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == owner {
		return nil
	}
	return common.NewValidationError(request, "email "+existing.Email+" is already registered")
}

func (s *CustomerCommandService) mutate(ctx context.Context, id string, fn func(*domain.Customer) error) (CustomerDTO, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return CustomerDTO{}, err
	}
	if err := fn(customer); err != nil {
		return CustomerDTO{}, err
	}
	if err := s.repo.Save(ctx, customer); err != nil {
		return CustomerDTO{}, err
	}
	return toCustomerDTO(customer), nil
}
