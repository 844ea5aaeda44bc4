// internal/domain/voucher/admin.go
package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequest represents voucher creation data
type CreateRequest struct {
	Code              string           `json:"code" binding:"required"`
	Description       string           `json:"description"`
	DiscountType      DiscountType     `json:"discount_type" binding:"required"`
	DiscountValue     decimal.Decimal  `json:"discount_value" binding:"required"`
	MinOrderValue     decimal.Decimal  `json:"min_order_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit"`
	UserLimit         *int             `json:"user_limit"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until"`
	IsActive          *bool            `json:"is_active"`
	CreatedBy         string           `json:"-"`
}

// Patch is a partial voucher update. Every field is optional; nil means
// "leave unchanged". Applied via Apply rather than field-by-field handler
// code so the merge rules live in one place.
type Patch struct {
	Code              *string          `json:"code"`
	Description       *string          `json:"description"`
	DiscountType      *DiscountType    `json:"discount_type"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinOrderValue     *decimal.Decimal `json:"min_order_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        *int             `json:"usage_limit"`
	UserLimit         *int             `json:"user_limit"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until"`
	IsActive          *bool            `json:"is_active"`
}

// Apply merges the patch into the voucher
func (p *Patch) Apply(v *Voucher) {
	if p.Code != nil {
		v.Code = NormalizeCode(*p.Code)
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.DiscountType != nil {
		v.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		v.DiscountValue = *p.DiscountValue
	}
	if p.MinOrderValue != nil {
		v.MinOrderValue = *p.MinOrderValue
	}
	if p.MaxDiscountAmount != nil {
		v.MaxDiscountAmount = decimal.NullDecimal{Decimal: *p.MaxDiscountAmount, Valid: true}
	}
	if p.UsageLimit != nil {
		v.UsageLimit = p.UsageLimit
	}
	if p.UserLimit != nil {
		v.UserLimit = *p.UserLimit
	}
	if p.ValidFrom != nil {
		v.ValidFrom = *p.ValidFrom
	}
	if p.ValidUntil != nil {
		v.ValidUntil = p.ValidUntil
	}
	if p.IsActive != nil {
		v.IsActive = *p.IsActive
	}
}

// Stats summarizes the voucher pool for the admin dashboard
type Stats struct {
	TotalVouchers  int `json:"total_vouchers"`
	ActiveVouchers int `json:"active_vouchers"`
	TotalUsage     int `json:"total_usage"`
	ExpiringSoon   int `json:"expiring_soon"`
}

// validateDiscount rejects discount values that can never be meaningful
func validateDiscount(discountType DiscountType, value decimal.Decimal) error {
	if !discountType.IsValid() {
		return fmt.Errorf("invalid discount type: %s", discountType)
	}
	if discountType == DiscountTypePercentage {
		if value.LessThanOrEqual(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("percentage discount must be between 0 and 100")
		}
		return nil
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("fixed discount must be positive")
	}
	return nil
}

// Create creates a new voucher from an admin request
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Voucher, error) {
	if err := validateDiscount(req.DiscountType, req.DiscountValue); err != nil {
		return nil, err
	}

	v := &Voucher{
		Code:          NormalizeCode(req.Code),
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		UsageLimit:    req.UsageLimit,
		UserLimit:     1,
		IsActive:      true,
		CreatedBy:     req.CreatedBy,
	}
	if req.MaxDiscountAmount != nil {
		v.MaxDiscountAmount = decimal.NullDecimal{Decimal: *req.MaxDiscountAmount, Valid: true}
	}
	if req.UserLimit != nil {
		v.UserLimit = *req.UserLimit
	}
	if req.ValidFrom != nil {
		v.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		v.ValidUntil = req.ValidUntil
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}

	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get retrieves a single voucher by id
func (s *Service) Get(ctx context.Context, id string) (*Voucher, error) {
	return s.store.GetByID(ctx, id)
}

// List retrieves all vouchers together with pool statistics
func (s *Service) List(ctx context.Context) ([]Voucher, *Stats, error) {
	vouchers, err := s.store.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	soon := now.Add(7 * 24 * time.Hour)

	stats := &Stats{TotalVouchers: len(vouchers)}
	for _, v := range vouchers {
		stats.TotalUsage += v.UsedCount
		if v.IsActive && (v.ValidUntil == nil || v.ValidUntil.After(now)) {
			stats.ActiveVouchers++
		}
		if v.IsActive && v.ValidUntil != nil && v.ValidUntil.After(now) && !v.ValidUntil.After(soon) {
			stats.ExpiringSoon++
		}
	}

	return vouchers, stats, nil
}

// Update applies a typed patch to an existing voucher
func (s *Service) Update(ctx context.Context, id string, patch *Patch) (*Voucher, error) {
	v, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(v)

	if err := validateDiscount(v.DiscountType, v.DiscountValue); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Delete removes a voucher
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
