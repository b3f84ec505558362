package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// 错误类别，调用方通过 errors.Is 判断
var (
	ErrValidationFailed        = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrInvalidStateTransition  = errors.New("invalid state transition")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrCurrencyMismatch        = errors.New("currency mismatch")
	ErrPersistenceFailure      = errors.New("persistence failure")
	ErrWebhookSignatureInvalid = errors.New("webhook signature invalid")
	ErrConcurrencyConflict     = errors.New("concurrent modification")
	ErrProductUnavailable      = errors.New("product unavailable for purchase")
)

// ValidationError 携带全部违反的规则
type ValidationError struct {
	Request    string
	Violations []string
}

// NewValidationError 创建校验错误
func NewValidationError(request string, violations ...string) *ValidationError {
	return &ValidationError{Request: request, Violations: violations}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Request, strings.Join(e.Violations, "; "))
}

// ErrorDetails 返回给客户端的违规列表
func (e *ValidationError) ErrorDetails() any {
	return e.Violations
}

// Is 使 errors.Is(err, ErrValidationFailed) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// TransitionError 状态流转被拒绝，记录当前与目标状态
type TransitionError struct {
	Entity string
	From   string
	To     string
}

// NewTransitionError 创建状态流转错误
func NewTransitionError(entity, from, to string) *TransitionError {
	return &TransitionError{Entity: entity, From: from, To: to}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s cannot move from %s to %s", e.Entity, e.From, e.To)
}

// Is 使 errors.Is(err, ErrInvalidStateTransition) 成立
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// NotFound 包装 ErrNotFound
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// HTTPStatus 将错误类别映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStateTransition),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrProductUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrWebhookSignatureInvalid):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
