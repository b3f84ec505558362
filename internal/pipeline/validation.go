package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/common"
)

// Rule 请求级校验规则，返回违规描述列表
type Rule func(ctx context.Context, req any) []string

// Validator 结构体标签校验 + 按请求类型注册的规则
type Validator struct {
	validate *validator.Validate
	mu       sync.RWMutex
	rules    map[reflect.Type][]Rule
}

// NewValidator 创建校验器，注册 decimal 类型与 currency 标签
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return common.IsValidCurrency(fl.Field().String())
	})
	return &Validator{validate: v, rules: make(map[reflect.Type][]Rule)}
}

// RegisterTag 注册自定义标签
func (v *Validator) RegisterTag(tag string, fn func(value string) bool) error {
	return v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
}

// AddRule 为请求类型 T 追加一条规则
func AddRule[T any](v *Validator, rule func(ctx context.Context, req T) []string) {
	t := reflect.TypeFor[T]()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[t] = append(v.rules[t], func(ctx context.Context, req any) []string {
		return rule(ctx, req.(T))
	})
}

// Validate 返回全部违规描述，为空表示通过
func (v *Validator) Validate(ctx context.Context, req any) []string {
	var violations []string

	if rv := reflect.Indirect(reflect.ValueOf(req)); rv.Kind() == reflect.Struct {
		if err := v.validate.StructCtx(ctx, req); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fe := range fieldErrs {
					violations = append(violations, describe(fe))
				}
			} else {
				violations = append(violations, err.Error())
			}
		}
	}

	v.mu.RLock()
	rules := v.rules[reflect.TypeOf(req)]
	v.mu.RUnlock()
	for _, rule := range rules {
		violations = append(violations, rule(ctx, req)...)
	}
	return violations
}

func describe(fe validator.FieldError) string {
	field := fe.StructNamespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("%s must contain at most %s item(s)", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "currency":
		return fmt.Sprintf("%s must be a 3-letter uppercase currency code", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}
