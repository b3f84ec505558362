// Package http 支付 HTTP 接口与网关 Webhook 入口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/payment/application"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// SignatureHeader 网关签名请求头
const SignatureHeader = "Stripe-Signature"

const maxWebhookBytes = 1 << 20

// Handler 支付 HTTP 处理器
type Handler struct {
	service *application.PaymentApplicationService
}

// NewHandler 创建处理器
func NewHandler(service *application.PaymentApplicationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/payments")
	{
		g.POST("", h.CreatePayment)
		g.POST("/webhook", h.Webhook)
		g.GET("/parked-events", h.ListParked)
		g.POST("/parked-events/replay", h.ReplayParked)
		g.GET("/transactions/:transaction_id", h.GetByTransaction)
		g.GET("/:id", h.GetPayment)
		g.POST("/:id/confirm", h.ConfirmPayment)
		g.POST("/:id/complete", h.CompletePayment)
		g.POST("/:id/fail", h.FailPayment)
		g.POST("/:id/cancel", h.CancelPayment)
		g.POST("/:id/refund", h.RefundPayment)
	}
	r.GET("/orders/:id/payment", h.GetByOrder)
}

type CreatePaymentReq struct {
	OrderID    string `json:"order_id"`
	Method     string `json:"method"`
	UseGateway bool   `json:"use_gateway"`
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentReq
	if !bind(c, &req) {
		return
	}
	payment, err := h.service.CreatePayment(c.Request.Context(), application.CreatePaymentCommand{
		OrderID:    req.OrderID,
		Method:     req.Method,
		UseGateway: req.UseGateway,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, payment)
}

func (h *Handler) GetPayment(c *gin.Context) {
	payment, err := h.service.GetPaymentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

func (h *Handler) GetByOrder(c *gin.Context) {
	payment, err := h.service.GetPaymentByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

func (h *Handler) GetByTransaction(c *gin.Context) {
	payment, err := h.service.GetPaymentByTransactionID(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	payment, err := h.service.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

type CompletePaymentReq struct {
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) CompletePayment(c *gin.Context) {
	var req CompletePaymentReq
	if !bind(c, &req) {
		return
	}
	payment, err := h.service.CompletePayment(c.Request.Context(), application.CompletePaymentCommand{
		PaymentID:     c.Param("id"),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

func (h *Handler) FailPayment(c *gin.Context) {
	payment, err := h.service.FailPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

func (h *Handler) CancelPayment(c *gin.Context) {
	payment, err := h.service.CancelPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

func (h *Handler) RefundPayment(c *gin.Context) {
	payment, err := h.service.RefundPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payment)
}

// Webhook 原样读取请求体用于验签；处理失败返回 5xx 以便网关重投
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ErrorWithStatus(c, http.StatusRequestEntityTooLarge, "webhook payload too large", nil)
			return
		}
		fail(c, common.NewValidationError("webhook payload", err.Error()))
		return
	}
	if err := h.service.HandleGatewayEvent(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"received": true})
}

func (h *Handler) ListParked(c *gin.Context) {
	events, err := h.service.ListParkedGatewayEvents(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, events)
}

func (h *Handler) ReplayParked(c *gin.Context) {
	res, err := h.service.ReplayParkedGatewayEvents(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
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
