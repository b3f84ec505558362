package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/common"
)

func newTestPayment(t *testing.T, opts ...Option) *Payment {
	t.Helper()
	p, err := NewPayment("order-1", common.MustMoney("25.00", "USD"), PaymentMethodStripe, opts...)
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := newTestPayment(t, WithGateway("stripe"), WithExternalTransactionID("pi_1"))
	assert.Equal(t, common.PaymentStatusPending, p.Status)
	assert.Equal(t, "stripe", p.Gateway)
	assert.Equal(t, "pi_1", p.ExternalTransactionID)
	assert.NotEmpty(t, p.ID)

	_, err := NewPayment("", common.MustMoney("1", "USD"), PaymentMethodStripe)
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	_, err = NewPayment("order-1", common.Zero("USD"), PaymentMethodStripe)
	assert.ErrorIs(t, err, common.ErrValidationFailed)
}

func TestPayment_CompleteOnlyOnce(t *testing.T) {
	ctx := context.Background()
	p := newTestPayment(t)

	assert.ErrorIs(t, p.MarkAsCompleted(ctx, ""), common.ErrValidationFailed)
	require.NoError(t, p.MarkAsCompleted(ctx, "pi_9"))
	assert.True(t, p.IsSuccessful())
	assert.Equal(t, "pi_9", p.ExternalTransactionID)

	err := p.MarkAsCompleted(ctx, "pi_9")
	assert.ErrorIs(t, err, common.ErrInvalidStateTransition)
	var te *common.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "COMPLETED", te.From)
}

func TestPayment_StateMachine(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		prepare func(*Payment) error
		act     func(*Payment) error
		want    common.PaymentStatus
		wantErr bool
	}{
		{"fail pending", nil, func(p *Payment) error { return p.MarkAsFailed(ctx) }, common.PaymentStatusFailed, false},
		{"cancel pending", nil, func(p *Payment) error { return p.Cancel(ctx) }, common.PaymentStatusCancelled, false},
		{"refund pending", nil, func(p *Payment) error { return p.MarkAsRefunded(ctx) }, common.PaymentStatusPending, true},
		{"refund completed",
			func(p *Payment) error { return p.MarkAsCompleted(ctx, "pi") },
			func(p *Payment) error { return p.MarkAsRefunded(ctx) }, common.PaymentStatusRefunded, false},
		{"cancel completed",
			func(p *Payment) error { return p.MarkAsCompleted(ctx, "pi") },
			func(p *Payment) error { return p.Cancel(ctx) }, common.PaymentStatusCompleted, true},
		{"fail after failed",
			func(p *Payment) error { return p.MarkAsFailed(ctx) },
			func(p *Payment) error { return p.MarkAsFailed(ctx) }, common.PaymentStatusFailed, true},
		{"complete refunded",
			func(p *Payment) error {
				if err := p.MarkAsCompleted(ctx, "pi"); err != nil {
					return err
				}
				return p.MarkAsRefunded(ctx)
			},
			func(p *Payment) error { return p.MarkAsCompleted(ctx, "pi") }, common.PaymentStatusRefunded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPayment(t)
			if tt.prepare != nil {
				require.NoError(t, tt.prepare(p))
			}
			err := tt.act(p)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidStateTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, p.Status)
		})
	}
}

func TestPayment_InitFSMAfterLoad(t *testing.T) {
	p := &Payment{ID: "p", Status: common.PaymentStatusCompleted}
	require.NoError(t, p.MarkAsRefunded(context.Background()))
	assert.Equal(t, common.PaymentStatusRefunded, p.Status)
}

func TestPayment_CanceledContextLeavesStateUnchanged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPayment(t)
	assert.ErrorIs(t, p.MarkAsFailed(ctx), context.Canceled)
	assert.Equal(t, common.PaymentStatusPending, p.Status)
}

func TestParsePaymentMethod(t *testing.T) {
	for in, want := range map[string]PaymentMethod{
		"CreditCard":       PaymentMethodCreditCard,
		"credit_card":      PaymentMethodCreditCard,
		"apple-pay":        PaymentMethodApplePay,
		"CASH_ON_DELIVERY": PaymentMethodCashOnDelivery,
		"PayPal":           PaymentMethodPayPal,
	} {
		got, err := ParsePaymentMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParsePaymentMethod("bitcoin")
	assert.ErrorIs(t, err, common.ErrValidationFailed)
}
