package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	customerapp "github.com/wyfcoding/ecommerce/internal/customer/application"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	paymentapp "github.com/wyfcoding/ecommerce/internal/payment/application"
	"github.com/wyfcoding/ecommerce/internal/payment/infrastructure/gateway"
	"github.com/wyfcoding/ecommerce/internal/payment/infrastructure/idempotency"
	paymenthttp "github.com/wyfcoding/ecommerce/internal/payment/interfaces/http"
	"github.com/wyfcoding/ecommerce/pkg/db/dbtest"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/outbox"
)

const webhookSecret = "whsec_e2e"

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type harness struct {
	app    *App
	router *gin.Engine
	intent int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{}

	stripe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/payment_intents":
			h.intent++
			_, _ = fmt.Fprintf(w, `{"id":"pi_%d","status":"requires_confirmation"}`, h.intent)
		case strings.HasSuffix(r.URL.Path, "/confirm"):
			_, _ = w.Write([]byte(`{"status":"succeeded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(stripe.Close)

	gdb := dbtest.Open(t, Migrate)
	h.app = New(Options{
		DB:      gdb,
		Logger:  logger.Discard(),
		Metrics: metrics.New("e2e"),
		Gateway: gateway.NewStripeGateway(gateway.Config{
			BaseURL:       stripe.URL,
			SecretKey:     "sk_test",
			WebhookSecret: webhookSecret,
			Timeout:       2 * time.Second,
		}, logger.Discard()),
		GatewayName:              "stripe",
		Idempotency:              idempotency.NewMemoryStore(time.Hour),
		DefaultLowStockThreshold: 5,
	})
	h.router = h.app.Router()
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func (h *harness) webhook(t *testing.T, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	header := http.Header{}
	header.Set(paymenthttp.SignatureHeader, gateway.SignatureHeader(webhookSecret, time.Now(), payload))
	return h.do(t, http.MethodPost, "/api/v1/payments/webhook", payload, header)
}

func eventPayload(id, typ, intent string) []byte {
	return fmt.Appendf(nil, `{"id":%q,"type":%q,"created":%d,"data":{"object":{"id":%q}}}`, id, typ, time.Now().Unix(), intent)
}

// checkout 上架商品、加入购物车并下单
func (h *harness) checkout(t *testing.T, customer string) orderapp.OrderDTO {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":     "Mechanical Keyboard",
		"sku":      "KB-" + customer,
		"price":    "49.90",
		"currency": "USD",
		"stock":    10,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[catalogapp.ProductDTO](t, rec)

	rec = h.do(t, http.MethodPost, "/api/v1/customers/"+customer+"/cart/items", map[string]any{
		"product_id": product.ID,
		"quantity":   2,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/v1/orders/checkout", map[string]any{
		"customer_id": customer,
		"shipping_address": map[string]string{
			"street":   "1 Market St",
			"city":     "San Francisco",
			"zip_code": "94105",
			"country":  "US",
		},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[orderapp.OrderDTO](t, rec)
}

func TestApp_CheckoutAndPayViaWebhook(t *testing.T) {
	h := newHarness(t)
	order := h.checkout(t, "cust-1")
	assert.Equal(t, "99.80", order.Total)

	rec := h.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"order_id":    order.ID,
		"method":      "stripe",
		"use_gateway": true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decode[paymentapp.PaymentDTO](t, rec)
	assert.Equal(t, "99.80", payment.Amount)
	assert.Equal(t, "PENDING", payment.Status)
	assert.Equal(t, "pi_1", payment.ExternalTransactionID)

	payload := eventPayload("evt_1", "payment_intent.succeeded", "pi_1")
	rec = h.webhook(t, payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.webhook(t, payload)
	require.Equal(t, http.StatusOK, rec.Code, "redelivery is acknowledged")

	rec = h.do(t, http.MethodGet, "/api/v1/orders/"+order.ID+"/payment", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", decode[paymentapp.PaymentDTO](t, rec).Status)

	rec = h.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", decode[orderapp.OrderDTO](t, rec).PaymentStatus)

	var changes int64
	require.NoError(t, h.app.DB.Model(&outbox.Message{}).Where("topic = ?", "payment.status_changed").Count(&changes).Error)
	assert.EqualValues(t, 1, changes)

	rec = h.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Contains(t, rec.Body.String(), `e2e_gateway_events_total{outcome="duplicate",type="payment_intent.succeeded"} 1`)
}

func TestApp_WebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	payload := eventPayload("evt_1", "payment_intent.succeeded", "pi_1")

	header := http.Header{}
	header.Set(paymenthttp.SignatureHeader, gateway.SignatureHeader("whsec_forged", time.Now(), payload))
	rec := h.do(t, http.MethodPost, "/api/v1/payments/webhook", payload, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/payments/webhook", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApp_UnmatchedEventIsParkedAndReplayed(t *testing.T) {
	h := newHarness(t)

	rec := h.webhook(t, eventPayload("evt_early", "payment_intent.succeeded", "pi_1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/v1/payments/parked-events", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	parked := decode[[]paymentapp.ParkedEventDTO](t, rec)
	require.Len(t, parked, 1)
	assert.Equal(t, "pi_1", parked[0].TransactionID)

	order := h.checkout(t, "cust-2")
	rec = h.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"order_id":    order.ID,
		"method":      "stripe",
		"use_gateway": true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/v1/payments/parked-events/replay", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, paymentapp.ReplayResultDTO{Processed: 1, Resolved: 1}, decode[paymentapp.ReplayResultDTO](t, rec))

	rec = h.do(t, http.MethodGet, "/api/v1/payments/transactions/pi_1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", decode[paymentapp.PaymentDTO](t, rec).Status)

	rec = h.do(t, http.MethodGet, "/api/v1/payments/parked-events", nil, nil)
	assert.Empty(t, decode[[]paymentapp.ParkedEventDTO](t, rec))
}

func TestApp_ConfirmThroughGateway(t *testing.T) {
	h := newHarness(t)
	order := h.checkout(t, "cust-3")

	rec := h.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"order_id":    order.ID,
		"method":      "credit_card",
		"use_gateway": true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decode[paymentapp.PaymentDTO](t, rec)

	rec = h.do(t, http.MethodPost, "/api/v1/payments/"+payment.ID+"/confirm", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "COMPLETED", decode[paymentapp.PaymentDTO](t, rec).Status)

	rec = h.do(t, http.MethodPost, "/api/v1/payments/"+payment.ID+"/refund", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "REFUNDED", decode[paymentapp.PaymentDTO](t, rec).Status)

	rec = h.do(t, http.MethodPost, "/api/v1/payments/"+payment.ID+"/fail", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApp_CategoriesAndCustomers(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Peripherals"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decode[catalogapp.CategoryDTO](t, rec)

	rec = h.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Trackball",
		"sku":         "TB-1",
		"category_id": category.ID,
		"price":       "79.00",
		"currency":    "USD",
		"stock":       3,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	trackball := decode[catalogapp.ProductDTO](t, rec)
	assert.Equal(t, category.ID, trackball.CategoryID)

	rec = h.do(t, http.MethodGet, "/api/v1/products?category_id="+category.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[catalogapp.ProductListDTO](t, rec).Items, 1)

	rec = h.do(t, http.MethodPost, "/api/v1/categories/"+category.ID+"/deactivate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Mouse",
		"sku":         "MS-1",
		"category_id": category.ID,
		"price":       "19.00",
		"currency":    "USD",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/v1/categories/"+category.ID, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/customers", map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customer := decode[customerapp.CustomerDTO](t, rec)

	rec = h.do(t, http.MethodGet, "/api/v1/customers/"+customer.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", decode[customerapp.CustomerDTO](t, rec).Email)

	rec = h.do(t, http.MethodPost, "/api/v1/customers/"+customer.ID+"/cart/items", map[string]any{
		"product_id": trackball.ID,
		"quantity":   1,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(t, http.MethodGet, "/api/v1/customers/"+customer.ID+"/cart", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/v1/customers/"+customer.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/v1/customers/"+customer.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_Health(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
