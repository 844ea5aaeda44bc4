// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/payment"
	"github.com/your-org/checkout-backend/internal/domain/voucher"
)

// PaymentHandler handles payment intent and webhook endpoints
type PaymentHandler struct {
	paymentService *payment.Service
	voucherService *voucher.Service
	config         *config.Config
}

// NewPaymentHandler creates a new payment handler on top of the given
// payment service and voucher store
func NewPaymentHandler(paymentService *payment.Service, store voucher.Store, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		voucherService: voucher.NewService(store),
		config:         cfg,
	}
}

// OrderPricing is the pricing breakdown forwarded by the checkout client
type OrderPricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
}

// OrderData carries customer attribution for the payment intent
type OrderData struct {
	CustomerName string        `json:"customerName"`
	Email        string        `json:"email"`
	Pricing      *OrderPricing `json:"pricing"`
}

// CreateIntentRequest represents a payment intent creation request
type CreateIntentRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Currency    string           `json:"currency"`
	OrderID     string           `json:"orderId"`
	OrderData   *OrderData       `json:"orderData"`
	VoucherCode string           `json:"voucherCode"`
}

// CreateIntent handles POST /payment/create-intent.
//
// The voucher, if any, is re-evaluated server-side against the submitted
// amount. An ineligible voucher is not an error at this stage: the intent
// is created for the undiscounted amount and voucherApplied comes back
// false, the same verdict the validation endpoint would have given.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid amount",
		})
		return
	}

	originalAmount := *req.Amount
	finalAmount := originalAmount
	discountAmount := decimal.Zero
	voucherID := ""

	var email, customerName string
	if req.OrderData != nil {
		email = req.OrderData.Email
		customerName = req.OrderData.CustomerName
	}

	if req.VoucherCode != "" {
		verdict, err := h.voucherService.Evaluate(c.Request.Context(), req.VoucherCode, originalAmount, email)
		if err != nil {
			logrus.WithError(err).WithField("code", req.VoucherCode).Warn("Voucher lookup failed during intent creation")
		} else if verdict.Valid {
			discountAmount = verdict.DiscountAmount
			finalAmount = verdict.FinalAmount
			voucherID = verdict.Voucher.ID
		}
	}

	attribution := payment.Attribution{
		CustomerName:   customerName,
		Email:          email,
		OriginalAmount: originalAmount,
		DiscountAmount: discountAmount,
		VoucherCode:    req.VoucherCode,
		VoucherID:      voucherID,
		Subtotal:       "0",
		Shipping:       "0",
		Tax:            "0",
	}
	if req.OrderData != nil && req.OrderData.Pricing != nil {
		attribution.Subtotal = req.OrderData.Pricing.Subtotal.String()
		attribution.Shipping = req.OrderData.Pricing.Shipping.String()
		attribution.Tax = req.OrderData.Pricing.Tax.String()
	}

	intent, err := h.paymentService.CreateIntent(c.Request.Context(), &payment.CreateIntentRequest{
		OrderID:     req.OrderID,
		Amount:      finalAmount,
		Currency:    req.Currency,
		Attribution: attribution,
	})
	if err != nil {
		h.respondIntentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ProcessorIntentID,
		"amount":          intent.Amount,
		"originalAmount":  intent.OriginalAmount,
		"discountAmount":  intent.DiscountAmount,
		"voucherApplied":  intent.VoucherApplied,
	})
}

// GetIntent handles GET /payment/intent/:orderId. It reads the local
// record only; clients needing processor-fresh state should re-issue
// create-intent with the same order id.
func (h *PaymentHandler) GetIntent(c *gin.Context) {
	record, err := h.paymentService.GetByOrderID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Payment intent not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve payment intent",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"intent": record,
	})
}

func (h *PaymentHandler) respondIntentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Payment processing not configured",
		})
	case errors.Is(err, payment.ErrMissingOrderID):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Order ID is required for payment processing",
		})
	case errors.Is(err, payment.ErrAmountTooSmall):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Payment amount too small. Minimum $0.50 required.",
		})
	default:
		logrus.WithError(err).Error("Failed to create payment intent")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create payment intent",
			"details": err.Error(),
		})
	}
}

// Webhook handles POST /webhooks/stripe.
//
// With a webhook secret configured the payload signature is verified;
// without one (test mode) the event is trusted as-is. Events are always
// acknowledged once decoded: the processor owns the retry schedule, and a
// redemption conflict on an exhausted voucher is an audit concern, not a
// reason to make Stripe redeliver.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	if !h.config.IsPaymentConfigured() {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var event stripe.Event
	if secret := h.config.Payment.Stripe.WebhookSecret; secret != "" {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
	} else if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event data"})
			return
		}
		h.handlePaymentSucceeded(c.Request.Context(), &pi)

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			if err := h.paymentService.MarkStatus(c.Request.Context(), pi.ID, payment.IntentStatusFailed); err != nil {
				logrus.WithError(err).WithField("intent_id", pi.ID).Error("Failed to mark payment intent failed")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// handlePaymentSucceeded finalizes a confirmed payment: the local intent
// record is marked succeeded and the voucher named in the intent metadata,
// if any, is redeemed.
func (h *PaymentHandler) handlePaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) {
	log := logrus.WithFields(logrus.Fields{
		"intent_id": pi.ID,
		"order_id":  pi.Metadata["orderId"],
	})

	if err := h.paymentService.MarkStatus(ctx, pi.ID, payment.IntentStatusSucceeded); err != nil {
		log.WithError(err).Error("Failed to mark payment intent succeeded")
	}

	voucherID := pi.Metadata["voucherId"]
	if voucherID == "" {
		log.Info("Payment confirmed")
		return
	}

	discount, err := decimal.NewFromString(pi.Metadata["discountAmount"])
	if err != nil {
		discount = decimal.Zero
	}

	err = h.voucherService.Redeem(ctx, voucher.Redemption{
		VoucherID:      voucherID,
		UserEmail:      pi.Metadata["email"],
		OrderID:        pi.Metadata["orderId"],
		DiscountAmount: discount,
	})
	switch {
	case errors.Is(err, voucher.ErrExhausted):
		log.WithField("voucher_id", voucherID).Warn("Voucher exhausted between evaluation and payment confirmation")
	case errors.Is(err, voucher.ErrNotFound):
		log.WithField("voucher_id", voucherID).Warn("Voucher deleted before payment confirmation")
	case err != nil:
		log.WithError(err).WithField("voucher_id", voucherID).Error("Failed to redeem voucher")
	default:
		log.WithField("voucher_id", voucherID).Info("Payment confirmed and voucher redeemed")
	}
}
