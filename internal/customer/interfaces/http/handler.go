// Package http 客户档案 HTTP 接口
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/customer/application"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

type Handler struct {
	service *application.CustomerApplicationService
}

func NewHandler(service *application.CustomerApplicationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 路径参数与购物车、订单路由保持同名
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/customers")
	{
		g.POST("", h.CreateCustomer)
		g.GET("", h.ListCustomers)
		g.GET("/:customer_id", h.GetCustomer)
		g.PUT("/:customer_id", h.UpdateCustomer)
		g.DELETE("/:customer_id", h.DeleteCustomer)
		g.POST("/:customer_id/activate", h.ActivateCustomer)
		g.POST("/:customer_id/deactivate", h.DeactivateCustomer)
	}
}

type CustomerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CustomerReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.CreateCustomer(c.Request.Context(), application.CreateCustomerCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	dto, err := h.service.GetCustomerByID(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) ListCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	active, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	list, err := h.service.ListCustomers(c.Request.Context(), application.ListCustomersQuery{
		ActiveOnly: active,
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	var req CustomerReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.UpdateCustomer(c.Request.Context(), application.UpdateCustomerCommand{
		CustomerID: c.Param("customer_id"),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	if err := h.service.DeleteCustomer(c.Request.Context(), c.Param("customer_id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) ActivateCustomer(c *gin.Context) {
	dto, err := h.service.ActivateCustomer(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) DeactivateCustomer(c *gin.Context) {
	dto, err := h.service.DeactivateCustomer(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
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
