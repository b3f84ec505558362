// Package http 商品目录 HTTP 接口
package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

type Handler struct {
	service *application.CatalogApplicationService
}

func NewHandler(service *application.CatalogApplicationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/products")
	{
		g.POST("", h.CreateProduct)
		g.GET("", h.ListProducts)
		g.GET("/:id", h.GetProduct)
		g.PUT("/:id", h.UpdateProduct)
		g.DELETE("/:id", h.DeleteProduct)
		g.PUT("/:id/price", h.UpdatePrice)
		g.POST("/:id/stock/add", h.AddStock)
		g.POST("/:id/stock/reduce", h.ReduceStock)
		g.PUT("/:id/stock", h.UpdateStock)
		g.PUT("/:id/status", h.UpdateStatus)
		g.DELETE("/:id/status", h.ResumeStockTracking)
		g.PUT("/:id/low-stock-threshold", h.SetLowStockThreshold)
	}

	cg := r.Group("/categories")
	{
		cg.POST("", h.CreateCategory)
		cg.GET("", h.ListCategories)
		cg.GET("/:id", h.GetCategory)
		cg.PUT("/:id", h.UpdateCategory)
		cg.DELETE("/:id", h.DeleteCategory)
		cg.POST("/:id/activate", h.ActivateCategory)
		cg.POST("/:id/deactivate", h.DeactivateCategory)
	}
}

type CreateProductReq struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	CategoryID        string          `json:"category_id"`
	SKU               string          `json:"sku"`
	ImageURL          string          `json:"image_url"`
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	Stock             int             `json:"stock"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:              req.Name,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		SKU:               req.SKU,
		ImageURL:          req.ImageURL,
		Price:             req.Price,
		Currency:          req.Currency,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto)
}

func (h *Handler) GetProduct(c *gin.Context) {
	dto, err := h.service.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	available, _ := strconv.ParseBool(c.DefaultQuery("available", "false"))

	list, err := h.service.ListProducts(c.Request.Context(), application.ListProductsQuery{
		CategoryID:    c.Query("category_id"),
		AvailableOnly: available,
		Page:          page,
		PageSize:      size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

type UpdateProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	ImageURL    string `json:"image_url"`
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req UpdateProductReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.UpdateProduct(c.Request.Context(), application.UpdateProductCommand{
		ProductID:   c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.service.DeleteProduct(c.Request.Context(), application.DeleteProductCommand{ProductID: c.Param("id")}); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

type UpdatePriceReq struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

func (h *Handler) UpdatePrice(c *gin.Context) {
	var req UpdatePriceReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.UpdateProductPrice(c.Request.Context(), application.UpdateProductPriceCommand{
		ProductID: c.Param("id"),
		Price:     req.Price,
		Currency:  req.Currency,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

type StockReq struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

func (h *Handler) AddStock(c *gin.Context) {
	var req StockReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.AddProductStock(c.Request.Context(), application.AddProductStockCommand{
		ProductID: c.Param("id"), Quantity: req.Quantity, Reason: req.Reason,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) ReduceStock(c *gin.Context) {
	var req StockReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.ReduceProductStock(c.Request.Context(), application.ReduceProductStockCommand{
		ProductID: c.Param("id"), Quantity: req.Quantity, Reason: req.Reason,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) UpdateStock(c *gin.Context) {
	var req StockReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.UpdateProductStock(c.Request.Context(), application.UpdateProductStockCommand{
		ProductID: c.Param("id"), Quantity: req.Quantity, Reason: req.Reason,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.UpdateProductStatus(c.Request.Context(), application.UpdateProductStatusCommand{
		ProductID: c.Param("id"), Status: req.Status,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) ResumeStockTracking(c *gin.Context) {
	dto, err := h.service.ResumeStockTracking(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

type ThresholdReq struct {
	Threshold int `json:"threshold"`
}

func (h *Handler) SetLowStockThreshold(c *gin.Context) {
	var req ThresholdReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.SetLowStockThreshold(c.Request.Context(), application.SetLowStockThresholdCommand{
		ProductID: c.Param("id"), Threshold: req.Threshold,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

type CategoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	ImageURL    string `json:"image_url"`
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.CreateCategory(c.Request.Context(), application.CreateCategoryCommand{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, dto)
}

func (h *Handler) GetCategory(c *gin.Context) {
	dto, err := h.service.GetCategoryByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) ListCategories(c *gin.Context) {
	active, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	list, err := h.service.ListCategories(c.Request.Context(), application.ListCategoriesQuery{
		ParentID:   c.Query("parent_id"),
		ActiveOnly: active,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// UpdateCategory 父分类创建后不可更改
func (h *Handler) UpdateCategory(c *gin.Context) {
	var req CategoryReq
	if !bind(c, &req) {
		return
	}
	dto, err := h.service.UpdateCategory(c.Request.Context(), application.UpdateCategoryCommand{
		CategoryID:  c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) ActivateCategory(c *gin.Context) {
	dto, err := h.service.ActivateCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto)
}

func (h *Handler) DeactivateCategory(c *gin.Context) {
	dto, err := h.service.DeactivateCategory(c.Request.Context(), c.Param("id"))
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
