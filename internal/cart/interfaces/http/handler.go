// Package http 购物车 HTTP 接口
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

type Handler struct {
	service *application.CartApplicationService
}

func NewHandler(service *application.CartApplicationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/customers/:customer_id/cart")
	{
		g.GET("", h.GetCart)
		g.DELETE("", h.ClearCart)
		g.POST("/items", h.AddItem)
		g.PUT("/items/:item_id", h.UpdateItem)
		g.DELETE("/items/:item_id", h.RemoveItem)
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.service.GetCartByCustomer(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cart)
}

func (h *Handler) ClearCart(c *gin.Context) {
	cart, err := h.service.ClearCart(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cart)
}

type AddItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, common.NewValidationError("request body", err.Error()))
		return
	}
	cart, err := h.service.AddToCart(c.Request.Context(), application.AddToCartCommand{
		CustomerID: c.Param("customer_id"),
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cart)
}

type UpdateItemReq struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateItem(c *gin.Context) {
	var req UpdateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, common.NewValidationError("request body", err.Error()))
		return
	}
	cart, err := h.service.UpdateCartItem(c.Request.Context(), application.UpdateCartItemCommand{
		CustomerID: c.Param("customer_id"),
		ItemID:     c.Param("item_id"),
		Quantity:   req.Quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cart)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	cart, err := h.service.RemoveFromCart(c.Request.Context(), application.RemoveFromCartCommand{
		CustomerID: c.Param("customer_id"),
		ItemID:     c.Param("item_id"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, cart)
}

func fail(c *gin.Context, err error) {
	response.Error(c, common.HTTPStatus(err), err)
}
