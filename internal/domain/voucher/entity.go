// internal/domain/voucher/entity.go
package voucher

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountType represents how a voucher reduces the order amount
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid reports whether the discount type is a known kind
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// Voucher represents a promotional code entity
type Voucher struct {
	ID                string              `gorm:"type:uuid;primaryKey" json:"id"`
	Code              string              `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description       string              `gorm:"type:text" json:"description,omitempty"`
	DiscountType      DiscountType        `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue     decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MinOrderValue     decimal.Decimal     `gorm:"type:numeric(10,2);not null;default:0" json:"min_order_value"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"max_discount_amount"`
	UsageLimit        *int                `json:"usage_limit"`
	UsedCount         int                 `gorm:"not null;default:0" json:"used_count"`
	UserLimit         int                 `gorm:"not null;default:1" json:"user_limit"`
	ValidFrom         time.Time           `gorm:"not null" json:"valid_from"`
	ValidUntil        *time.Time          `json:"valid_until"`
	IsActive          bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedBy         string              `gorm:"size:255" json:"created_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// BeforeCreate assigns an ID and normalizes the code before persisting
func (v *Voucher) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.Code = NormalizeCode(v.Code)
	if v.ValidFrom.IsZero() {
		v.ValidFrom = time.Now().UTC()
	}
	return nil
}

// Exhausted reports whether the total usage limit has been reached
func (v *Voucher) Exhausted() bool {
	return v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit
}

// DiscountFor computes the discount this voucher grants against an order
// amount: percentage of the amount or a fixed value, clamped first to the
// optional maximum cap and then to the order amount itself so the discount
// can never invert the total. Rounded to 2 decimals.
func (v *Voucher) DiscountFor(orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	if v.DiscountType == DiscountTypePercentage {
		discount = orderAmount.Mul(v.DiscountValue).Div(decimal.NewFromInt(100))
	} else {
		discount = v.DiscountValue
	}

	if v.MaxDiscountAmount.Valid && discount.GreaterThan(v.MaxDiscountAmount.Decimal) {
		discount = v.MaxDiscountAmount.Decimal
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}

	return discount.Round(2)
}

// UsageRecord is an append-only record of a successful voucher redemption.
// Its count per (voucher, customer) enforces the per-customer limit.
type UsageRecord struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	VoucherID      string          `gorm:"type:uuid;not null;index" json:"voucher_id"`
	UserEmail      string          `gorm:"size:255;index" json:"user_email"`
	OrderID        string          `gorm:"size:100" json:"order_id"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"discount_amount"`
	UsedAt         time.Time       `gorm:"not null" json:"used_at"`
}

// TableName overrides the default table name
func (UsageRecord) TableName() string {
	return "voucher_usage"
}

// BeforeCreate assigns an ID and timestamp before persisting
func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.UsedAt.IsZero() {
		u.UsedAt = time.Now().UTC()
	}
	return nil
}

// NormalizeCode upper-cases and trims a voucher code. Codes are stored and
// looked up in this canonical form so matching is case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
