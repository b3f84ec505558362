package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// AddToCartCommand 添加商品到购物车命令
type AddToCartCommand struct {
	CustomerID string `validate:"required,max=36"`
	ProductID  string `validate:"required,max=36"`
	Quantity   int    `validate:"gt=0"`
}

// RemoveFromCartCommand 从购物车移除明细命令
type RemoveFromCartCommand struct {
	CustomerID string `validate:"required"`
	ItemID     string `validate:"required"`
}

// UpdateCartItemCommand 修改明细数量命令
type UpdateCartItemCommand struct {
	CustomerID string `validate:"required"`
	ItemID     string `validate:"required"`
	Quantity   int    `validate:"gt=0"`
}

// ClearCartCommand 清空购物车命令
type ClearCartCommand struct {
	CustomerID string `validate:"required"`
}

// ProductReader 读取商品当前名称与价格
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	repo      domain.CartRepository
	products  ProductReader
	publisher common.EventPublisher
	logger    *slog.Logger
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(repo domain.CartRepository, products ProductReader, publisher common.EventPublisher, logger *slog.Logger) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

// AddToCart 快照商品名称与价格加入购物车，客户没有购物车时创建
func (s *CartCommandService) AddToCart(ctx context.Context, cmd AddToCartCommand) (CartDTO, error) {
	product, err := s.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return CartDTO{}, err
	}
	if !product.IsAvailableForPurchase() {
		return CartDTO{}, fmt.Errorf("%w: product %s is %s", common.ErrProductUnavailable, product.ID, product.Status)
	}

	cart, err := s.repo.GetByCustomerID(ctx, cmd.CustomerID)
	created := false
	if errors.Is(err, common.ErrNotFound) {
		cart, created = domain.NewCart(cmd.CustomerID), true
	} else if err != nil {
		return CartDTO{}, err
	}

	if _, err := cart.AddItem(product.ID, product.Name, product.Price, cmd.Quantity); err != nil {
		return CartDTO{}, err
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return CartDTO{}, err
	}

	if created {
		common.Notify(ctx, s.publisher, s.logger, domain.TopicCartCreated, cart.CustomerID, domain.CartCreatedEvent{
			CartID:     cart.ID,
			CustomerID: cart.CustomerID,
			Timestamp:  time.Now(),
		})
	}
	common.Notify(ctx, s.publisher, s.logger, domain.TopicCartItemAdded, cart.CustomerID, domain.CartItemAddedEvent{
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		ProductID:  product.ID,
		Quantity:   cmd.Quantity,
		UnitPrice:  product.Price.Amount.String(),
		Currency:   product.Price.Currency,
		Timestamp:  time.Now(),
	})
	return toCartDTO(cart), nil
}

// RemoveFromCart 移除明细
func (s *CartCommandService) RemoveFromCart(ctx context.Context, cmd RemoveFromCartCommand) (CartDTO, error) {
	cart, err := s.repo.GetByCustomerID(ctx, cmd.CustomerID)
	if err != nil {
		return CartDTO{}, err
	}

	cart.RemoveItem(cmd.ItemID)
	if err := s.repo.Save(ctx, cart); err != nil {
		return CartDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicCartItemRemoved, cart.CustomerID, domain.CartItemRemovedEvent{
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		ItemID:     cmd.ItemID,
		Timestamp:  time.Now(),
	})
	return toCartDTO(cart), nil
}

// UpdateCartItem 修改明细数量
func (s *CartCommandService) UpdateCartItem(ctx context.Context, cmd UpdateCartItemCommand) (CartDTO, error) {
	cart, err := s.repo.GetByCustomerID(ctx, cmd.CustomerID)
	if err != nil {
		return CartDTO{}, err
	}
	if err := cart.UpdateItemQuantity(cmd.ItemID, cmd.Quantity); err != nil {
		return CartDTO{}, err
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return CartDTO{}, err
	}
	return toCartDTO(cart), nil
}

// ClearCart 清空购物车，购物车本身保留
func (s *CartCommandService) ClearCart(ctx context.Context, cmd ClearCartCommand) (CartDTO, error) {
	cart, err := s.repo.GetByCustomerID(ctx, cmd.CustomerID)
	if err != nil {
		return CartDTO{}, err
	}

	cart.Clear()
	if err := s.repo.Save(ctx, cart); err != nil {
		return CartDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicCartCleared, cart.CustomerID, domain.CartClearedEvent{
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		Timestamp:  time.Now(),
	})
	return toCartDTO(cart), nil
}
