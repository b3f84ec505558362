// Package common 存放各限界上下文共享的值对象、错误类别与事件发布接口
package common

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// 小数位不是 2 的币种
var currencyScales = map[string]int32{
	"JPY": 0, "KRW": 0, "VND": 0, "CLP": 0, "ISK": 0, "UGX": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// CurrencyScale 币种的最小单位小数位数
func CurrencyScale(currency string) int32 {
	if scale, ok := currencyScales[currency]; ok {
		return scale
	}
	return 2
}

// IsValidCurrency 判断是否为三位大写字母货币代码
func IsValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// Money 金额值对象，金额与币种不可分离
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney 创建金额，币种必须是三位大写字母
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if !IsValidCurrency(currency) {
		return Money{}, NewValidationError("Money", fmt.Sprintf("currency %q must be a 3-letter uppercase code", currency))
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MustMoney 从字符串金额创建，格式错误时 panic，仅用于常量与测试
func MustMoney(amount string, currency string) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	m, err := NewMoney(d, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero 指定币种的零值
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add 相加，币种不同返回 ErrCurrencyMismatch
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Subtract 相减，币种不同返回 ErrCurrencyMismatch
func (m Money) Subtract(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Multiply 按整数数量放大
func (m Money) Multiply(quantity int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(quantity))), Currency: m.Currency}
}

// Equal 数值与币种均相同（10 与 10.00 相等）
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

// IsZero 金额为零
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsPositive 金额大于零
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative 金额小于零
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Format 按币种小数位输出金额
func (m Money) Format() string {
	return m.Amount.StringFixed(CurrencyScale(m.Currency))
}

func (m Money) String() string {
	return m.Format() + " " + m.Currency
}

func (m Money) sameCurrency(o Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return nil
}
