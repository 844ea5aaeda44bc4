package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/your-org/checkout-backend/internal/config"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeProcessor simulates Stripe's idempotency contract: calls that carry a
// previously seen idempotency key get the original intent back, anything
// else creates a fresh one.
type fakeProcessor struct {
	byKey  map[string]*stripe.PaymentIntent
	calls  []*stripe.PaymentIntentParams
	err    error
	nextID int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{byKey: make(map[string]*stripe.PaymentIntent)}
}

func (p *fakeProcessor) CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	p.calls = append(p.calls, params)
	if p.err != nil {
		return nil, p.err
	}

	key := ""
	if params.IdempotencyKey != nil {
		key = *params.IdempotencyKey
	}
	if existing, ok := p.byKey[key]; ok {
		return existing, nil
	}

	p.nextID++
	intent := &stripe.PaymentIntent{
		ID:           stripeIntentID(p.nextID),
		ClientSecret: stripeIntentID(p.nextID) + "_secret",
		Amount:       *params.Amount,
		Metadata:     params.Metadata,
	}
	p.byKey[key] = intent
	return intent, nil
}

func stripeIntentID(n int) string {
	return fmt.Sprintf("pi_test_%d", n)
}

func configuredService(processor Processor) *Service {
	cfg := &config.Config{}
	cfg.Payment.Stripe.SecretKey = "sk_test_123"
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Service{
		config:    cfg,
		processor: processor,
		logger:    logger,
	}
}

func TestIdempotencyKey(t *testing.T) {
	assert.Equal(t, "order_ORD-123_payment_intent", IdempotencyKey("ORD-123"))
	// Pure function of the order id: same input, same key, always
	assert.Equal(t, IdempotencyKey("ORD-123"), IdempotencyKey("ORD-123"))
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"85", "usd", 8500},
		{"85.50", "usd", 8550},
		{"0.50", "usd", 50},
		{"85.005", "usd", 8501}, // half away from zero
		{"120", "inr", 12000},
		{"500", "jpy", 500}, // zero-decimal currency
		{"500.4", "jpy", 500},
	}

	for _, tt := range tests {
		got := MinorUnits(dec(tt.amount), tt.currency)
		assert.Equal(t, tt.want, got, "MinorUnits(%s, %s)", tt.amount, tt.currency)
	}
}

func TestCreateIntent_NotConfigured(t *testing.T) {
	svc := &Service{config: &config.Config{}, processor: newFakeProcessor(), logger: logrus.New()}

	_, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		OrderID: "ORD-1",
		Amount:  dec("100"),
	})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateIntent_MissingOrderID(t *testing.T) {
	svc := configuredService(newFakeProcessor())

	_, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		Amount: dec("100"),
	})
	assert.ErrorIs(t, err, ErrMissingOrderID)
}

func TestCreateIntent_AmountTooSmall(t *testing.T) {
	svc := configuredService(newFakeProcessor())

	for _, amount := range []string{"0", "-5", "0.49"} {
		_, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
			OrderID: "ORD-1",
			Amount:  dec(amount),
		})
		assert.ErrorIs(t, err, ErrAmountTooSmall, "amount %s", amount)
	}

	// Exactly the minimum charge passes
	intent, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		OrderID: "ORD-1",
		Amount:  dec("0.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), intent.Amount)
}

func TestCreateIntent_RetryReturnsSameIntent(t *testing.T) {
	processor := newFakeProcessor()
	svc := configuredService(processor)

	req := &CreateIntentRequest{
		OrderID:  "ORD-99",
		Amount:   dec("85"),
		Currency: "usd",
	}

	first, err := svc.CreateIntent(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.CreateIntent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ProcessorIntentID, second.ProcessorIntentID)
	assert.Equal(t, first.ClientSecret, second.ClientSecret)

	// Both calls carried the same processor-side idempotency key
	require.Len(t, processor.calls, 2)
	assert.Equal(t, "order_ORD-99_payment_intent", *processor.calls[0].IdempotencyKey)
	assert.Equal(t, *processor.calls[0].IdempotencyKey, *processor.calls[1].IdempotencyKey)
}

func TestCreateIntent_ParamsAndMetadata(t *testing.T) {
	processor := newFakeProcessor()
	svc := configuredService(processor)

	intent, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		OrderID:  "ORD-7",
		Amount:   dec("85"),
		Currency: "USD",
		Attribution: Attribution{
			CustomerName:   "Ada Lovelace",
			Email:          "ada@example.com",
			OriginalAmount: dec("100"),
			DiscountAmount: dec("15"),
			VoucherCode:    "SAVE15",
			VoucherID:      "v-1",
			Subtotal:       "69",
			Shipping:       "0",
			Tax:            "3.45",
		},
	})
	require.NoError(t, err)

	require.Len(t, processor.calls, 1)
	params := processor.calls[0]
	assert.Equal(t, int64(8500), *params.Amount)
	assert.Equal(t, "usd", *params.Currency)
	assert.True(t, *params.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, "ORD-7", params.Metadata["orderId"])
	assert.Equal(t, "ada@example.com", params.Metadata["email"])
	assert.Equal(t, "100.00", params.Metadata["originalAmount"])
	assert.Equal(t, "15.00", params.Metadata["discountAmount"])
	assert.Equal(t, "SAVE15", params.Metadata["voucherCode"])
	assert.Equal(t, "v-1", params.Metadata["voucherId"])

	assert.Equal(t, int64(8500), intent.Amount)
	assert.Equal(t, int64(10000), intent.OriginalAmount)
	assert.Equal(t, int64(1500), intent.DiscountAmount)
	assert.True(t, intent.VoucherApplied)
}

func TestCreateIntent_NoVoucher(t *testing.T) {
	svc := configuredService(newFakeProcessor())

	intent, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		OrderID: "ORD-8",
		Amount:  dec("85"),
		Attribution: Attribution{
			OriginalAmount: dec("85"),
		},
	})
	require.NoError(t, err)

	assert.False(t, intent.VoucherApplied)
	assert.Equal(t, int64(0), intent.DiscountAmount)
}

func TestCreateIntent_DefaultsToUSD(t *testing.T) {
	processor := newFakeProcessor()
	svc := configuredService(processor)

	_, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		OrderID: "ORD-9",
		Amount:  dec("85"),
	})
	require.NoError(t, err)

	assert.Equal(t, "usd", *processor.calls[0].Currency)
}

func TestCreateIntent_ProcessorErrorsPropagate(t *testing.T) {
	processor := newFakeProcessor()
	processor.err = errors.New("card network unreachable")
	svc := configuredService(processor)

	_, err := svc.CreateIntent(context.Background(), &CreateIntentRequest{
		OrderID: "ORD-10",
		Amount:  dec("85"),
	})

	var procErr *ProcessorError
	require.True(t, errors.As(err, &procErr))
	assert.ErrorContains(t, err, "card network unreachable")
}
