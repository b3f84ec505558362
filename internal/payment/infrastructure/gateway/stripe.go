// Package gateway Stripe 风格支付网关客户端，基于 resty 与熔断器
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
)

// 网关调用错误
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected request")
)

// Config 网关客户端配置
type Config struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	MaxRetries    int
	// SignatureTolerance 签名时间戳与当前时间的最大偏差
	SignatureTolerance time.Duration
}

// StripeGateway domain.Gateway 的 Stripe 实现
type StripeGateway struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewStripeGateway 创建网关客户端
func NewStripeGateway(cfg Config, logger *slog.Logger) *StripeGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SignatureTolerance <= 0 {
		cfg.SignatureTolerance = 5 * time.Minute
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrGatewayRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &StripeGateway{
		client:  client,
		breaker: breaker,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

type paymentIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent 以最小货币单位创建 payment intent
func (g *StripeGateway) CreateIntent(ctx context.Context, amount common.Money, customerRef string, metadata map[string]string) (string, error) {
	form := map[string]string{
		"amount":                             strconv.FormatInt(toMinorUnits(amount), 10),
		"currency":                           strings.ToLower(amount.Currency),
		"automatic_payment_methods[enabled]": "true",
		"description":                        "Order payment for customer " + customerRef,
		"metadata[customer_id]":              customerRef,
	}
	for k, v := range metadata {
		form["metadata["+k+"]"] = v
	}

	pi, err := g.post(ctx, "/v1/payment_intents", form)
	if err != nil {
		return "", err
	}
	g.logger.InfoContext(ctx, "payment intent created", "intent_id", pi.ID, "amount", amount.String())
	return pi.ID, nil
}

// ConfirmIntent 确认 payment intent，succeeded 或 processing 视为成功
func (g *StripeGateway) ConfirmIntent(ctx context.Context, externalID string) (bool, error) {
	pi, err := g.post(ctx, "/v1/payment_intents/"+externalID+"/confirm", nil)
	if err != nil {
		return false, err
	}
	return pi.Status == "succeeded" || pi.Status == "processing", nil
}

func (g *StripeGateway) post(ctx context.Context, path string, form map[string]string) (*paymentIntent, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		var pi paymentIntent
		var apiErr apiError
		resp, err := g.client.R().
			SetContext(ctx).
			SetFormData(form).
			SetResult(&pi).
			SetError(&apiErr).
			Post(path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, fmt.Errorf("gateway returned %d", resp.StatusCode())
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: %d %s: %s", ErrGatewayRejected, resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Message)
		}
		return &pi, nil
	})
	if err != nil {
		if errors.Is(err, ErrGatewayRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrGatewayUnavailable, path, err)
	}
	return out.(*paymentIntent), nil
}

// VerifyWebhookSignature 校验 "t=<unix>,v1=<hex>" 形式的签名头，签名内容为 "<t>.<payload>"
func (g *StripeGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" || signature == "" {
		return false
	}
	var ts string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || len(candidates) == 0 {
		return false
	}
	skew := g.now().Sub(time.Unix(sec, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > g.cfg.SignatureTolerance {
		return false
	}

	expected := Sign(g.cfg.WebhookSecret, ts, payload)
	for _, c := range candidates {
		if hmac.Equal([]byte(c), []byte(expected)) {
			return true
		}
	}
	return false
}

// Sign 计算签名，十六进制编码
func Sign(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader 生成签名头，供测试与本地联调
func SignatureHeader(secret string, at time.Time, payload []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + Sign(secret, ts, payload)
}

type webhookEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID            string `json:"id"`
			PaymentIntent string `json:"payment_intent"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook 解析事件；退款事件以原始 payment intent 关联支付
func (g *StripeGateway) ParseWebhook(payload []byte) (domain.WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.WebhookEvent{}, common.NewValidationError("webhook payload", err.Error())
	}
	if env.ID == "" || env.Type == "" {
		return domain.WebhookEvent{}, common.NewValidationError("webhook payload", "event id and type are required")
	}

	evt := domain.WebhookEvent{
		ID:            env.ID,
		Type:          env.Type,
		TransactionID: env.Data.Object.ID,
		Created:       time.Unix(env.Created, 0),
	}
	if env.Type == domain.EventChargeRefunded {
		evt.TransactionID = env.Data.Object.PaymentIntent
	}
	return evt, nil
}

func toMinorUnits(m common.Money) int64 {
	return m.Amount.Shift(common.CurrencyScale(m.Currency)).Round(0).IntPart()
}
