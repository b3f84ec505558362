package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
)

// conflictRetries 版本冲突时命令的最大执行次数
const conflictRetries = 3

// CartApplicationService 购物车门面
type CartApplicationService struct {
	pipeline *pipeline.Pipeline
	Command  *CartCommandService
	Query    *CartQueryService
}

// NewCartApplicationService 创建门面并向管道注册处理器
func NewCartApplicationService(p *pipeline.Pipeline, repo domain.CartRepository, products ProductReader, publisher common.EventPublisher, logger *slog.Logger) *CartApplicationService {
	s := &CartApplicationService{
		pipeline: p,
		Command:  NewCartCommandService(repo, products, publisher, logger),
		Query:    NewCartQueryService(repo),
	}
	pipeline.HandleCommand(p, s.Command.AddToCart)
	pipeline.HandleCommand(p, s.Command.RemoveFromCart)
	pipeline.HandleCommand(p, s.Command.UpdateCartItem)
	pipeline.HandleCommand(p, s.Command.ClearCart)
	pipeline.HandleQuery(p, s.Query.GetCartByCustomer)
	return s
}

func (s *CartApplicationService) AddToCart(ctx context.Context, cmd AddToCartCommand) (CartDTO, error) {
	return s.send(ctx, cmd)
}

func (s *CartApplicationService) RemoveFromCart(ctx context.Context, cmd RemoveFromCartCommand) (CartDTO, error) {
	return s.send(ctx, cmd)
}

func (s *CartApplicationService) UpdateCartItem(ctx context.Context, cmd UpdateCartItemCommand) (CartDTO, error) {
	return s.send(ctx, cmd)
}

func (s *CartApplicationService) ClearCart(ctx context.Context, customerID string) (CartDTO, error) {
	return s.send(ctx, ClearCartCommand{CustomerID: customerID})
}

// send 每次重试都是新的事务，重新读取购物车后再应用命令
func (s *CartApplicationService) send(ctx context.Context, cmd any) (CartDTO, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	return backoff.Retry(ctx, func() (CartDTO, error) {
		dto, err := pipeline.Send[CartDTO](ctx, s.pipeline, cmd)
		if err != nil && !errors.Is(err, common.ErrConcurrencyConflict) {
			return dto, backoff.Permanent(err)
		}
		return dto, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(conflictRetries))
}

func (s *CartApplicationService) GetCartByCustomer(ctx context.Context, customerID string) (CartDTO, error) {
	return pipeline.Send[CartDTO](ctx, s.pipeline, GetCartByCustomerQuery{CustomerID: customerID})
}
