// Package application 客户档案的命令与查询
package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
)

// CustomerApplicationService 客户门面
type CustomerApplicationService struct {
	pipeline *pipeline.Pipeline
	Command  *CustomerCommandService
	Query    *CustomerQueryService
}

// NewCustomerApplicationService 创建门面并向管道注册处理器
func NewCustomerApplicationService(p *pipeline.Pipeline, repo domain.CustomerRepository, publisher common.EventPublisher, logger *slog.Logger) *CustomerApplicationService {
	s := &CustomerApplicationService{
		pipeline: p,
		Command:  NewCustomerCommandService(repo, publisher, logger),
		Query:    NewCustomerQueryService(repo),
	}
	pipeline.HandleCommand(p, s.Command.CreateCustomer)
	pipeline.HandleCommand(p, s.Command.UpdateCustomer)
	pipeline.HandleCommand(p, s.Command.ActivateCustomer)
	pipeline.HandleCommand(p, s.Command.DeactivateCustomer)
	pipeline.HandleCommand(p, s.Command.DeleteCustomer)
	pipeline.HandleQuery(p, s.Query.GetCustomerByID)
	pipeline.HandleQuery(p, s.Query.ListCustomers)
	return s
}

func (s *CustomerApplicationService) CreateCustomer(ctx context.Context, cmd CreateCustomerCommand) (CustomerDTO, error) {
	return pipeline.Send[CustomerDTO](ctx, s.pipeline, cmd)
}

func (s *CustomerApplicationService) UpdateCustomer(ctx context.Context, cmd UpdateCustomerCommand) (CustomerDTO, error) {
	return pipeline.Send[CustomerDTO](ctx, s.pipeline, cmd)
}

func (s *CustomerApplicationService) ActivateCustomer(ctx context.Context, id string) (CustomerDTO, error) {
	return pipeline.Send[CustomerDTO](ctx, s.pipeline, ActivateCustomerCommand{CustomerID: id})
}

func (s *CustomerApplicationService) DeactivateCustomer(ctx context.Context, id string) (CustomerDTO, error) {
	return pipeline.Send[CustomerDTO](ctx, s.pipeline, DeactivateCustomerCommand{CustomerID: id})
}

func (s *CustomerApplicationService) DeleteCustomer(ctx context.Context, id string) error {
	_, err := pipeline.Send[struct{}](ctx, s.pipeline, DeleteCustomerCommand{CustomerID: id})
	return err
}

func (s *CustomerApplicationService) GetCustomerByID(ctx context.Context, id string) (CustomerDTO, error) {
	return pipeline.Send[CustomerDTO](ctx, s.pipeline, GetCustomerByIDQuery{CustomerID: id})
}

func (s *CustomerApplicationService) ListCustomers(ctx context.Context, q ListCustomersQuery) (CustomerListDTO, error) {
	return pipeline.Send[CustomerListDTO](ctx, s.pipeline, q)
}
