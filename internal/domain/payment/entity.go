// internal/domain/payment/entity.go
package payment

import (
	"time"
)

// IntentStatus mirrors the processor-side intent status we care about.
// The processor remains the source of truth; this record is a local
// cache and audit trail keyed by order id.
type IntentStatus string

const (
	IntentStatusCreated   IntentStatus = "created"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
)

// IntentRecord is the local record of a payment intent. At most one exists
// per order id; the idempotency key derives from the order id alone, so a
// retried creation call replays safely against the processor and lands on
// the same row here.
type IntentRecord struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	OrderID           string       `gorm:"uniqueIndex;not null;size:100" json:"order_id"`
	IdempotencyKey    string       `gorm:"not null;size:150" json:"idempotency_key"`
	ProcessorIntentID string       `gorm:"index;size:255" json:"processor_intent_id"`
	Amount            int64        `gorm:"not null" json:"amount"` // In minor units
	Currency          string       `gorm:"size:3;default:'USD'" json:"currency"`
	AppliedVoucherID  *string      `gorm:"type:uuid" json:"applied_voucher_id"`
	DiscountAmount    int64        `gorm:"default:0" json:"discount_amount"`
	OriginalAmount    int64        `gorm:"not null" json:"original_amount"`
	Status            IntentStatus `gorm:"not null;default:'created';size:20" json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// TableName overrides the default table name
func (IntentRecord) TableName() string {
	return "payment_intents"
}
