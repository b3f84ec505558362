// Package response 统一 HTTP 响应结构
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
)

// Body 响应体
type Body struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 返回 200 与数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Code: 0, Message: "ok", Data: data})
}

// Created 返回 201 与数据
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Code: 0, Message: "created", Data: data})
}

// ErrorWithStatus 返回指定状态码的错误
func ErrorWithStatus(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, Body{
		Code:      status,
		Message:   message,
		Details:   details,
		RequestID: contextx.RequestID(c.Request.Context()),
	})
}

type detailer interface {
	ErrorDetails() any
}

// Error 按状态码输出错误，5xx 不暴露内部细节
func Error(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		ErrorWithStatus(c, status, http.StatusText(status), nil)
		return
	}
	var d detailer
	if errors.As(err, &d) {
		ErrorWithStatus(c, status, err.Error(), d.ErrorDetails())
		return
	}
	ErrorWithStatus(c, status, err.Error(), nil)
}
