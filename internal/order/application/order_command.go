package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// AddressInput 地址入参
type AddressInput struct {
	Street  string `json:"street" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"max=100"`
	ZipCode string `json:"zip_code" validate:"required,max=20"`
	Country string `json:"country" validate:"required,max=100"`
}

// OrderItemInput 订单明细入参，名称与单价由调用方快照
type OrderItemInput struct {
	ProductID   string          `json:"product_id" validate:"required,max=36"`
	ProductName string          `json:"product_name" validate:"required,max=200"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gt=0"`
	Currency    string          `json:"currency" validate:"currency"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
}

// CreateOrderCommand 创建订单命令
type CreateOrderCommand struct {
	CustomerID      string `validate:"required,max=36"`
	ShippingAddress AddressInput
	BillingAddress  *AddressInput    `validate:"omitempty"`
	Notes           string           `validate:"max=1000"`
	Items           []OrderItemInput `validate:"min=1,dive"`
}

// CheckoutCartCommand 由购物车生成订单并清空购物车
type CheckoutCartCommand struct {
	CustomerID      string `validate:"required,max=36"`
	ShippingAddress AddressInput
	BillingAddress  *AddressInput `validate:"omitempty"`
	Notes           string        `validate:"max=1000"`
}

// AddOrderItemCommand 向待处理订单追加明细
type AddOrderItemCommand struct {
	OrderID string `validate:"required"`
	Item    OrderItemInput
}

// RemoveOrderItemCommand 从待处理订单移除明细
type RemoveOrderItemCommand struct {
	OrderID string `validate:"required"`
	ItemID  string `validate:"required"`
}

// SetOrderChargesCommand 设置税费与运费，币种与订单一致
type SetOrderChargesCommand struct {
	OrderID      string          `validate:"required"`
	Tax          decimal.Decimal `validate:"gte=0"`
	ShippingCost decimal.Decimal `validate:"gte=0"`
}

// UpdateOrderStatusCommand 推进订单状态
type UpdateOrderStatusCommand struct {
	OrderID string `validate:"required"`
	Status  string `validate:"required,oneof=PROCESSING SHIPPED DELIVERED CANCELED"`
}

// CancelOrderCommand 取消订单
type CancelOrderCommand struct {
	OrderID string `validate:"required"`
}

// SameCurrencyRule 订单明细必须使用同一币种
func SameCurrencyRule(_ context.Context, cmd CreateOrderCommand) []string {
	for _, it := range cmd.Items[min(1, len(cmd.Items)):] {
		if it.Currency != cmd.Items[0].Currency {
			return []string{"Items must all use the same currency"}
		}
	}
	return nil
}

// OrderCommandService 订单命令服务
type OrderCommandService struct {
	repo      domain.OrderRepository
	carts     cart.CartRepository
	publisher common.EventPublisher
	logger    *slog.Logger
}

// NewOrderCommandService 创建订单命令服务实例
func NewOrderCommandService(repo domain.OrderRepository, carts cart.CartRepository, publisher common.EventPublisher, logger *slog.Logger) *OrderCommandService {
	return &OrderCommandService{
		repo:      repo,
		carts:     carts,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder 以调用方提供的快照创建订单
func (s *OrderCommandService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderDTO, error) {
	order, err := newOrder(cmd.CustomerID, cmd.Items[0].Currency, cmd.ShippingAddress, cmd.BillingAddress, cmd.Notes)
	if err != nil {
		return OrderDTO{}, err
	}
	for _, in := range cmd.Items {
		item, err := toOrderItem(in)
		if err != nil {
			return OrderDTO{}, err
		}
		if err := order.AddItem(item); err != nil {
			return OrderDTO{}, err
		}
	}
	return s.create(ctx, order)
}

// CheckoutCart 用购物车快照创建订单，随后清空购物车
func (s *OrderCommandService) CheckoutCart(ctx context.Context, cmd CheckoutCartCommand) (OrderDTO, error) {
	c, err := s.carts.GetByCustomerID(ctx, cmd.CustomerID)
	if err != nil {
		return OrderDTO{}, err
	}
	if c.IsEmpty() {
		return OrderDTO{}, common.NewValidationError("CheckoutCartCommand", "cart is empty")
	}

	order, err := newOrder(cmd.CustomerID, c.Currency(), cmd.ShippingAddress, cmd.BillingAddress, cmd.Notes)
	if err != nil {
		return OrderDTO{}, err
	}
	for _, ci := range c.Items {
		item, err := domain.NewOrderItem(ci.ProductID, ci.ProductName, ci.UnitPrice, ci.Quantity)
		if err != nil {
			return OrderDTO{}, err
		}
		if err := order.AddItem(item); err != nil {
			return OrderDTO{}, err
		}
	}

	dto, err := s.create(ctx, order)
	if err != nil {
		return OrderDTO{}, err
	}
	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		return OrderDTO{}, err
	}
	common.Notify(ctx, s.publisher, s.logger, cart.TopicCartCleared, c.CustomerID, cart.CartClearedEvent{
		CartID:     c.ID,
		CustomerID: c.CustomerID,
		Timestamp:  time.Now(),
	})
	return dto, nil
}

// AddOrderItem 追加明细
func (s *OrderCommandService) AddOrderItem(ctx context.Context, cmd AddOrderItemCommand) (OrderDTO, error) {
	item, err := toOrderItem(cmd.Item)
	if err != nil {
		return OrderDTO{}, err
	}
	return s.mutate(ctx, cmd.OrderID, func(o *domain.Order) error {
		return o.AddItem(item)
	})
}

// RemoveOrderItem 移除明细
func (s *OrderCommandService) RemoveOrderItem(ctx context.Context, cmd RemoveOrderItemCommand) (OrderDTO, error) {
	return s.mutate(ctx, cmd.OrderID, func(o *domain.Order) error {
		return o.RemoveItem(cmd.ItemID)
	})
}

// SetOrderCharges 设置税费与运费
func (s *OrderCommandService) SetOrderCharges(ctx context.Context, cmd SetOrderChargesCommand) (OrderDTO, error) {
	return s.mutate(ctx, cmd.OrderID, func(o *domain.Order) error {
		if err := o.SetTax(common.Money{Amount: cmd.Tax, Currency: o.Currency}); err != nil {
			return err
		}
		return o.SetShippingCost(common.Money{Amount: cmd.ShippingCost, Currency: o.Currency})
	})
}

// UpdateOrderStatus 推进订单状态
func (s *OrderCommandService) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (OrderDTO, error) {
	to, err := domain.ParseOrderStatus(cmd.Status)
	if err != nil {
		return OrderDTO{}, err
	}
	return s.transition(ctx, cmd.OrderID, to)
}

// CancelOrder 取消订单
func (s *OrderCommandService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (OrderDTO, error) {
	return s.transition(ctx, cmd.OrderID, domain.OrderStatusCanceled)
}

func (s *OrderCommandService) transition(ctx context.Context, id string, to domain.OrderStatus) (OrderDTO, error) {
	var from domain.OrderStatus
	dto, err := s.mutate(ctx, id, func(o *domain.Order) error {
		from = o.Status
		return o.TransitionTo(ctx, to)
	})
	if err != nil {
		return OrderDTO{}, err
	}

	common.Notify(ctx, s.publisher, s.logger, domain.TopicOrderStatusChanged, dto.ID, domain.OrderStatusChangedEvent{
		OrderID:    dto.ID,
		CustomerID: dto.CustomerID,
		OldStatus:  string(from),
		NewStatus:  dto.Status,
		OccurredOn: time.Now(),
	})
	return dto, nil
}

func (s *OrderCommandService) create(ctx context.Context, order *domain.Order) (OrderDTO, error) {
	if err := s.repo.Save(ctx, order); err != nil {
		return OrderDTO{}, err
	}
	common.Notify(ctx, s.publisher, s.logger, domain.TopicOrderCreated, order.ID, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ItemCount:  len(order.Items),
		Total:      order.Total.Amount.String(),
		Currency:   order.Currency,
		OccurredOn: time.Now(),
	})
	return toOrderDTO(order), nil
}

func (s *OrderCommandService) mutate(ctx context.Context, id string, fn func(*domain.Order) error) (OrderDTO, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return OrderDTO{}, err
	}
	if err := fn(order); err != nil {
		return OrderDTO{}, err
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return OrderDTO{}, err
	}
	return toOrderDTO(order), nil
}

func newOrder(customerID, currency string, shipping AddressInput, billing *AddressInput, notes string) (*domain.Order, error) {
	ship, err := toAddress(shipping)
	if err != nil {
		return nil, err
	}
	var bill *domain.Address
	if billing != nil {
		b, err := toAddress(*billing)
		if err != nil {
			return nil, err
		}
		bill = &b
	}
	return domain.NewOrder(customerID, currency, ship, bill, notes)
}

func toAddress(in AddressInput) (domain.Address, error) {
	return domain.NewAddress(in.Street, in.City, in.State, in.ZipCode, in.Country)
}

func toOrderItem(in OrderItemInput) (*domain.OrderItem, error) {
	price, err := common.NewMoney(in.UnitPrice, in.Currency)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", in.ProductID, err)
	}
	return domain.NewOrderItem(in.ProductID, in.ProductName, price, in.Quantity)
}
