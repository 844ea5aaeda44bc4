// internal/domain/voucher/service.go
package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RejectionCode is the machine-readable reason a voucher was not accepted
type RejectionCode string

const (
	RejectionInvalidCode       RejectionCode = "invalid_code"
	RejectionInactive          RejectionCode = "inactive"
	RejectionNotStarted        RejectionCode = "not_started"
	RejectionExpired           RejectionCode = "expired"
	RejectionUsageLimit        RejectionCode = "usage_limit_exceeded"
	RejectionMinimumNotMet     RejectionCode = "minimum_not_met"
	RejectionUserLimitExceeded RejectionCode = "user_limit_exceeded"
)

// Verdict is the outcome of evaluating a voucher against an order amount.
// A rejection is a normal business outcome, not an error: Evaluate only
// returns an error when the store itself fails.
//
// A valid verdict is advisory, not a reservation. The used counter is
// incremented only when a payment is confirmed (see Redeem), and that
// increment can still fail with ErrExhausted under concurrency.
type Verdict struct {
	Valid          bool
	Reason         RejectionCode
	Message        string
	Voucher        *Voucher
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

func reject(reason RejectionCode, message string) *Verdict {
	return &Verdict{Valid: false, Reason: reason, Message: message}
}

// Service evaluates and redeems vouchers
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new voucher service
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// Evaluate checks a code against the order amount and optional customer
// identity, applying the eligibility rules in a fixed order so failures are
// reported deterministically at every call site:
//
//	lookup, active flag, validity window, total usage limit,
//	minimum order value, per-customer limit, discount computation.
//
// It is read-only; it never increments counters or writes usage records.
func (s *Service) Evaluate(ctx context.Context, code string, orderAmount decimal.Decimal, userEmail string) (*Verdict, error) {
	v, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return reject(RejectionInvalidCode, "Invalid voucher code"), nil
		}
		return nil, err
	}

	if !v.IsActive {
		return reject(RejectionInactive, "This voucher is no longer active"), nil
	}

	now := s.now().UTC()
	if now.Before(v.ValidFrom) {
		return reject(RejectionNotStarted, "This voucher is not yet valid"), nil
	}
	if v.ValidUntil != nil && now.After(*v.ValidUntil) {
		return reject(RejectionExpired, "This voucher has expired"), nil
	}

	if v.Exhausted() {
		return reject(RejectionUsageLimit, "This voucher has reached its usage limit"), nil
	}

	if orderAmount.LessThan(v.MinOrderValue) {
		msg := fmt.Sprintf("Minimum order value of $%s required", v.MinOrderValue.StringFixed(2))
		return reject(RejectionMinimumNotMet, msg), nil
	}

	if userEmail != "" && v.UserLimit > 0 {
		count, err := s.store.CountUsage(ctx, v.ID, userEmail)
		if err != nil {
			return nil, err
		}
		if count >= int64(v.UserLimit) {
			return reject(RejectionUserLimitExceeded, "You have already used this voucher"), nil
		}
	}

	discount := v.DiscountFor(orderAmount)
	final := orderAmount.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	unit := "$"
	if v.DiscountType == DiscountTypePercentage {
		unit = "%"
	}

	return &Verdict{
		Valid:          true,
		Message:        fmt.Sprintf("%s%s discount applied successfully!", v.DiscountValue.String(), unit),
		Voucher:        v,
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

// Redemption describes a confirmed voucher use to be recorded
type Redemption struct {
	VoucherID      string
	UserEmail      string
	OrderID        string
	DiscountAmount decimal.Decimal
}

// Redeem consumes one use of a voucher after the corresponding payment is
// confirmed. The increment is a single conditional update in the store, so
// a voucher that was exhausted between evaluation and confirmation fails
// here with ErrExhausted rather than over-redeeming; callers should surface
// that conflict to the user instead of retrying.
func (s *Service) Redeem(ctx context.Context, r Redemption) error {
	if err := s.store.IncrementUsage(ctx, r.VoucherID); err != nil {
		return err
	}

	record := &UsageRecord{
		VoucherID:      r.VoucherID,
		UserEmail:      r.UserEmail,
		OrderID:        r.OrderID,
		DiscountAmount: r.DiscountAmount,
	}
	if err := s.store.RecordUsage(ctx, record); err != nil {
		return fmt.Errorf("voucher %s redeemed but usage record failed: %w", r.VoucherID, err)
	}
	return nil
}
