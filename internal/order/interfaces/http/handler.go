// Package http 订单 HTTP 接口
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// Handler 订单 HTTP 处理器
type Handler struct {
	service *application.OrderApplicationService
}

// NewHandler 创建处理器
func NewHandler(service *application.OrderApplicationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/orders")
	{
		g.POST("", h.CreateOrder)
		g.POST("/checkout", h.Checkout)
		g.GET("/:id", h.GetOrder)
		g.POST("/:id/items", h.AddItem)
		g.DELETE("/:id/items/:item_id", h.RemoveItem)
		g.PUT("/:id/charges", h.SetCharges)
		g.PUT("/:id/status", h.UpdateStatus)
		g.POST("/:id/cancel", h.CancelOrder)
	}
	r.GET("/customers/:customer_id/orders", h.ListByCustomer)
}

type CreateOrderReq struct {
	CustomerID      string                       `json:"customer_id"`
	ShippingAddress application.AddressInput     `json:"shipping_address"`
	BillingAddress  *application.AddressInput    `json:"billing_address"`
	Notes           string                       `json:"notes"`
	Items           []application.OrderItemInput `json:"items"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderReq
	if !bind(c, &req) {
		return
	}
	order, err := h.service.CreateOrder(c.Request.Context(), application.CreateOrderCommand{
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
		Items:           req.Items,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, order)
}

type CheckoutReq struct {
	CustomerID      string                    `json:"customer_id"`
	ShippingAddress application.AddressInput  `json:"shipping_address"`
	BillingAddress  *application.AddressInput `json:"billing_address"`
	Notes           string                    `json:"notes"`
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutReq
	if !bind(c, &req) {
		return
	}
	order, err := h.service.CheckoutCart(c.Request.Context(), application.CheckoutCartCommand{
		CustomerID:      req.CustomerID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

func (h *Handler) ListByCustomer(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.service.ListOrdersByCustomer(c.Request.Context(), application.ListOrdersByCustomerQuery{
		CustomerID: c.Param("customer_id"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) AddItem(c *gin.Context) {
	var item application.OrderItemInput
	if !bind(c, &item) {
		return
	}
	order, err := h.service.AddOrderItem(c.Request.Context(), application.AddOrderItemCommand{
		OrderID: c.Param("id"),
		Item:    item,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	order, err := h.service.RemoveOrderItem(c.Request.Context(), application.RemoveOrderItemCommand{
		OrderID: c.Param("id"),
		ItemID:  c.Param("item_id"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

type ChargesReq struct {
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

func (h *Handler) SetCharges(c *gin.Context) {
	var req ChargesReq
	if !bind(c, &req) {
		return
	}
	order, err := h.service.SetOrderCharges(c.Request.Context(), application.SetOrderChargesCommand{
		OrderID:      c.Param("id"),
		Tax:          req.Tax,
		ShippingCost: req.ShippingCost,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

type StatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusReq
	if !bind(c, &req) {
		return
	}
	order, err := h.service.UpdateOrderStatus(c.Request.Context(), application.UpdateOrderStatusCommand{
		OrderID: c.Param("id"),
		Status:  req.Status,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	order, err := h.service.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, order)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, common.NewValidationError("request body", err.Error()))
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	response.Error(c, common.HTTPStatus(err), err)
}
