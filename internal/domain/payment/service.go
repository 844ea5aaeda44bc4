// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/your-org/checkout-backend/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinimumChargeMinorUnits is the processor's smallest chargeable amount
// (the equivalent of $0.50).
const MinimumChargeMinorUnits = 50

var (
	// ErrNotConfigured is returned when no processor credentials are set.
	ErrNotConfigured = errors.New("payment processor not configured")

	// ErrAmountTooSmall is returned for non-positive amounts or amounts
	// below the processor minimum. Not retryable without changing the order.
	ErrAmountTooSmall = errors.New("payment amount too small")

	// ErrMissingOrderID is returned when no order id is supplied; the order
	// id anchors idempotency, so an intent can never be created without one.
	ErrMissingOrderID = errors.New("order id is required for payment processing")

	// ErrIntentNotFound is returned when no local intent record exists for
	// an order.
	ErrIntentNotFound = errors.New("payment intent not found")
)

// ProcessorError wraps a failure from the payment processor. It is safe for
// the caller to retry with the identical order id: the idempotency key makes
// the replay collide with any intent the processor may already have created.
type ProcessorError struct {
	Err error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment processor error: %v", e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

// Processor creates payment intents at the external payment processor
type Processor interface {
	CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// stripeProcessor is the production Processor backed by the Stripe API
type stripeProcessor struct{}

func (stripeProcessor) CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}

// Attribution is the processor-visible metadata attached to an intent for
// later reconciliation and audit.
type Attribution struct {
	CustomerName   string
	Email          string
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	VoucherCode    string
	VoucherID      string
	Subtotal       string
	Shipping       string
	Tax            string
}

// CreateIntentRequest describes a payment intent to create
type CreateIntentRequest struct {
	OrderID     string
	Amount      decimal.Decimal // Final amount in major units
	Currency    string
	Attribution Attribution
}

// Intent is the result of a successful intent creation
type Intent struct {
	ClientSecret      string
	ProcessorIntentID string
	Amount            int64 // In minor units
	OriginalAmount    int64
	DiscountAmount    int64
	VoucherApplied    bool
}

// Service issues payment intents against the external processor
type Service struct {
	db        *gorm.DB
	config    *config.Config
	processor Processor
	logger    *logrus.Logger
}

// NewService creates a payment service backed by the Stripe API
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return NewServiceWithProcessor(db, cfg, stripeProcessor{})
}

// NewServiceWithProcessor creates a payment service backed by the given
// processor
func NewServiceWithProcessor(db *gorm.DB, cfg *config.Config, processor Processor) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		processor: processor,
		logger:    logrus.StandardLogger(),
	}
}

// IdempotencyKey derives the processor idempotency token for an order. It
// is a pure function of the order id alone, independent of amount, so two
// creation calls for the same order always collide at the processor and the
// processor returns the original intent instead of creating a second charge.
func IdempotencyKey(orderID string) string {
	return "order_" + orderID + "_payment_intent"
}

// Currencies charged in whole units rather than hundredths.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// MinorUnits converts a major-unit amount into the processor's minor units
// with currency-aware rounding.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateIntent asks the processor to create (or, on retry, return) the
// payment intent for an order and records attribution metadata locally.
// The processor call is bounded by ctx; a timeout must be treated by the
// caller as an unknown outcome, resolved by re-issuing with the same order
// id rather than assuming failure.
func (s *Service) CreateIntent(ctx context.Context, req *CreateIntentRequest) (*Intent, error) {
	if !s.config.IsPaymentConfigured() {
		return nil, ErrNotConfigured
	}
	if req.OrderID == "" {
		return nil, ErrMissingOrderID
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}

	amountMinor := MinorUnits(req.Amount, currency)
	if !req.Amount.IsPositive() || amountMinor < MinimumChargeMinorUnits {
		return nil, ErrAmountTooSmall
	}

	idempotencyKey := IdempotencyKey(req.OrderID)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"orderId":        req.OrderID,
			"customerName":   req.Attribution.CustomerName,
			"email":          req.Attribution.Email,
			"originalAmount": req.Attribution.OriginalAmount.StringFixed(2),
			"discountAmount": req.Attribution.DiscountAmount.StringFixed(2),
			"voucherCode":    req.Attribution.VoucherCode,
			"voucherId":      req.Attribution.VoucherID,
			"subtotal":       req.Attribution.Subtotal,
			"shipping":       req.Attribution.Shipping,
			"tax":            req.Attribution.Tax,
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(idempotencyKey)

	intent, err := s.processor.CreateIntent(params)
	if err != nil {
		return nil, &ProcessorError{Err: err}
	}

	s.recordIntent(ctx, req, idempotencyKey, intent, amountMinor, currency)

	return &Intent{
		ClientSecret:      intent.ClientSecret,
		ProcessorIntentID: intent.ID,
		Amount:            amountMinor,
		OriginalAmount:    MinorUnits(req.Attribution.OriginalAmount, currency),
		DiscountAmount:    MinorUnits(req.Attribution.DiscountAmount, currency),
		VoucherApplied:    req.Attribution.VoucherID != "",
	}, nil
}

// recordIntent upserts the local intent record keyed by order id. The
// processor has already committed the intent at this point, so a local
// write failure is logged rather than surfaced: the processor record is
// recoverable through the idempotency key.
func (s *Service) recordIntent(ctx context.Context, req *CreateIntentRequest, idempotencyKey string, intent *stripe.PaymentIntent, amountMinor int64, currency string) {
	if s.db == nil {
		return
	}

	record := IntentRecord{
		OrderID:           req.OrderID,
		IdempotencyKey:    idempotencyKey,
		ProcessorIntentID: intent.ID,
		Amount:            amountMinor,
		Currency:          strings.ToUpper(currency),
		DiscountAmount:    MinorUnits(req.Attribution.DiscountAmount, currency),
		OriginalAmount:    MinorUnits(req.Attribution.OriginalAmount, currency),
		Status:            IntentStatusCreated,
	}
	if req.Attribution.VoucherID != "" {
		voucherID := req.Attribution.VoucherID
		record.AppliedVoucherID = &voucherID
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"processor_intent_id", "amount", "discount_amount", "applied_voucher_id", "updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_id":  req.OrderID,
			"intent_id": intent.ID,
		}).WithError(err).Warn("Failed to record payment intent")
	}
}

// GetByOrderID returns the local intent record for an order
func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*IntentRecord, error) {
	if s.db == nil {
		return nil, ErrIntentNotFound
	}

	var record IntentRecord
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	return &record, nil
}

// MarkStatus updates the cached status of an intent after a processor
// event. Missing records are ignored: the processor still owns the truth.
func (s *Service) MarkStatus(ctx context.Context, processorIntentID string, status IntentStatus) error {
	if s.db == nil {
		return nil
	}

	err := s.db.WithContext(ctx).Model(&IntentRecord{}).
		Where("processor_intent_id = ?", processorIntentID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update payment intent status: %w", err)
	}
	return nil
}
