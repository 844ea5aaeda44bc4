package voucher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeStore serves a fixed voucher set from memory and counts writes so
// tests can assert exactly what the service touched.
type fakeStore struct {
	vouchers     map[string]*Voucher
	usageByEmail map[string]int64
	usageErr     error
	incrementErr error
	increments   []string
	records      []*UsageRecord
}

func newFakeStore(vouchers ...*Voucher) *fakeStore {
	s := &fakeStore{
		vouchers:     make(map[string]*Voucher),
		usageByEmail: make(map[string]int64),
	}
	for _, v := range vouchers {
		s.vouchers[NormalizeCode(v.Code)] = v
	}
	return s
}

func (s *fakeStore) FindByCode(_ context.Context, code string) (*Voucher, error) {
	v, ok := s.vouchers[NormalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*Voucher, error) {
	for _, v := range s.vouchers {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) CountUsage(_ context.Context, voucherID, userEmail string) (int64, error) {
	if s.usageErr != nil {
		return 0, s.usageErr
	}
	return s.usageByEmail[voucherID+"/"+userEmail], nil
}

func (s *fakeStore) IncrementUsage(_ context.Context, voucherID string) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	for _, v := range s.vouchers {
		if v.ID == voucherID {
			if v.Exhausted() {
				return ErrExhausted
			}
			v.UsedCount++
			s.increments = append(s.increments, voucherID)
			return nil
		}
	}
	return ErrNotFound
}

func (s *fakeStore) RecordUsage(_ context.Context, record *UsageRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *fakeStore) List(_ context.Context) ([]Voucher, error) {
	var out []Voucher
	for _, v := range s.vouchers {
		out = append(out, *v)
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, v *Voucher) error {
	code := NormalizeCode(v.Code)
	if _, ok := s.vouchers[code]; ok {
		return ErrCodeExists
	}
	v.Code = code
	s.vouchers[code] = v
	return nil
}

func (s *fakeStore) Save(_ context.Context, v *Voucher) error {
	s.vouchers[NormalizeCode(v.Code)] = v
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	for code, v := range s.vouchers {
		if v.ID == id {
			delete(s.vouchers, code)
			return nil
		}
	}
	return ErrNotFound
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func activeVoucher() *Voucher {
	limit := 100
	until := fixedNow.Add(30 * 24 * time.Hour)
	return &Voucher{
		ID:            "v-1",
		Code:          "SAVE15",
		DiscountType:  DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(15),
		MaxDiscountAmount: decimal.NullDecimal{
			Decimal: decimal.NewFromInt(15),
			Valid:   true,
		},
		MinOrderValue: decimal.NewFromInt(50),
		UsageLimit:    &limit,
		UserLimit:     1,
		ValidFrom:     fixedNow.Add(-24 * time.Hour),
		ValidUntil:    &until,
		IsActive:      true,
	}
}

func TestEvaluate_PercentageWithCap(t *testing.T) {
	svc := newTestService(newFakeStore(activeVoucher()))

	verdict, err := svc.Evaluate(context.Background(), "SAVE15", dec("100"), "")
	require.NoError(t, err)

	require.True(t, verdict.Valid)
	assert.True(t, verdict.DiscountAmount.Equal(dec("15")), "discount = %s", verdict.DiscountAmount)
	assert.True(t, verdict.FinalAmount.Equal(dec("85")), "final = %s", verdict.FinalAmount)
	assert.Equal(t, "15% discount applied successfully!", verdict.Message)
}

func TestEvaluate_CapClampsDiscount(t *testing.T) {
	v := activeVoucher()
	v.MaxDiscountAmount = decimal.NullDecimal{Decimal: decimal.NewFromInt(10), Valid: true}
	svc := newTestService(newFakeStore(v))

	verdict, err := svc.Evaluate(context.Background(), "SAVE15", dec("200"), "")
	require.NoError(t, err)

	require.True(t, verdict.Valid)
	// 15% of 200 is 30, clamped by the cap
	assert.True(t, verdict.DiscountAmount.Equal(dec("10")))
	assert.True(t, verdict.FinalAmount.Equal(dec("190")))
}

func TestEvaluate_FixedDiscountNeverInvertsTotal(t *testing.T) {
	until := fixedNow.Add(time.Hour)
	v := &Voucher{
		ID:            "v-2",
		Code:          "FLAT50",
		DiscountType:  DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(50),
		ValidFrom:     fixedNow.Add(-time.Hour),
		ValidUntil:    &until,
		IsActive:      true,
	}
	svc := newTestService(newFakeStore(v))

	verdict, err := svc.Evaluate(context.Background(), "FLAT50", dec("30"), "")
	require.NoError(t, err)

	require.True(t, verdict.Valid)
	assert.True(t, verdict.DiscountAmount.Equal(dec("30")), "discount clamped to order amount")
	assert.True(t, verdict.FinalAmount.IsZero())
}

func TestEvaluate_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Voucher)
		code       string
		amount     decimal.Decimal
		userEmail  string
		wantReason RejectionCode
	}{
		{
			name:       "unknown code",
			mutate:     func(v *Voucher) {},
			code:       "NOSUCH",
			amount:     dec("100"),
			wantReason: RejectionInvalidCode,
		},
		{
			name:       "inactive",
			mutate:     func(v *Voucher) { v.IsActive = false },
			code:       "SAVE15",
			amount:     dec("100"),
			wantReason: RejectionInactive,
		},
		{
			name:       "not yet valid",
			mutate:     func(v *Voucher) { v.ValidFrom = fixedNow.Add(time.Hour) },
			code:       "SAVE15",
			amount:     dec("100"),
			wantReason: RejectionNotStarted,
		},
		{
			name: "expired",
			mutate: func(v *Voucher) {
				past := fixedNow.Add(-time.Minute)
				v.ValidUntil = &past
			},
			code:       "SAVE15",
			amount:     dec("100"),
			wantReason: RejectionExpired,
		},
		{
			name: "usage limit reached",
			mutate: func(v *Voucher) {
				limit := 10
				v.UsageLimit = &limit
				v.UsedCount = 10
			},
			code:       "SAVE15",
			amount:     dec("100"),
			wantReason: RejectionUsageLimit,
		},
		{
			name:       "below minimum order value",
			mutate:     func(v *Voucher) {},
			code:       "SAVE15",
			amount:     dec("49.99"),
			wantReason: RejectionMinimumNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := activeVoucher()
			tt.mutate(v)
			svc := newTestService(newFakeStore(v))

			verdict, err := svc.Evaluate(context.Background(), tt.code, tt.amount, tt.userEmail)
			require.NoError(t, err)

			assert.False(t, verdict.Valid)
			assert.Equal(t, tt.wantReason, verdict.Reason)
			assert.NotEmpty(t, verdict.Message)
		})
	}
}

func TestEvaluate_MinimumMessageNamesTheMinimum(t *testing.T) {
	svc := newTestService(newFakeStore(activeVoucher()))

	verdict, err := svc.Evaluate(context.Background(), "SAVE15", dec("10"), "")
	require.NoError(t, err)

	require.False(t, verdict.Valid)
	assert.Equal(t, "Minimum order value of $50.00 required", verdict.Message)
}

func TestEvaluate_ExactMinimumIsEligible(t *testing.T) {
	svc := newTestService(newFakeStore(activeVoucher()))

	verdict, err := svc.Evaluate(context.Background(), "SAVE15", dec("50"), "")
	require.NoError(t, err)
	assert.True(t, verdict.Valid, "an order exactly at the minimum qualifies")

	verdict, err = svc.Evaluate(context.Background(), "SAVE15", dec("49.99"), "")
	require.NoError(t, err)
	assert.False(t, verdict.Valid, "one cent below the minimum does not")
}

func TestEvaluate_UserLimit(t *testing.T) {
	store := newFakeStore(activeVoucher())
	store.usageByEmail["v-1/repeat@example.com"] = 1
	svc := newTestService(store)

	verdict, err := svc.Evaluate(context.Background(), "SAVE15", dec("100"), "repeat@example.com")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, RejectionUserLimitExceeded, verdict.Reason)
	assert.Equal(t, "You have already used this voucher", verdict.Message)

	// Anonymous callers skip the per-user check entirely
	verdict, err = svc.Evaluate(context.Background(), "SAVE15", dec("100"), "")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
}

func TestEvaluate_CodeIsCaseInsensitive(t *testing.T) {
	svc := newTestService(newFakeStore(activeVoucher()))

	verdict, err := svc.Evaluate(context.Background(), "  save15 ", dec("100"), "")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	svc := newTestService(newFakeStore(activeVoucher()))

	first, err := svc.Evaluate(context.Background(), "SAVE15", dec("100"), "a@example.com")
	require.NoError(t, err)
	second, err := svc.Evaluate(context.Background(), "SAVE15", dec("100"), "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Valid, second.Valid)
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
	assert.True(t, first.FinalAmount.Equal(second.FinalAmount))
}

func TestEvaluate_IsReadOnly(t *testing.T) {
	store := newFakeStore(activeVoucher())
	svc := newTestService(store)

	_, err := svc.Evaluate(context.Background(), "SAVE15", dec("100"), "a@example.com")
	require.NoError(t, err)

	assert.Empty(t, store.increments)
	assert.Empty(t, store.records)
}

func TestEvaluate_StoreFailureIsAnError(t *testing.T) {
	store := newFakeStore(activeVoucher())
	store.usageErr = errors.New("connection reset")
	svc := newTestService(store)

	_, err := svc.Evaluate(context.Background(), "SAVE15", dec("100"), "a@example.com")
	assert.Error(t, err)
}

func TestRedeem(t *testing.T) {
	store := newFakeStore(activeVoucher())
	svc := newTestService(store)

	err := svc.Redeem(context.Background(), Redemption{
		VoucherID:      "v-1",
		UserEmail:      "a@example.com",
		OrderID:        "order-42",
		DiscountAmount: dec("15"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"v-1"}, store.increments)
	require.Len(t, store.records, 1)
	assert.Equal(t, "order-42", store.records[0].OrderID)
	assert.Equal(t, "a@example.com", store.records[0].UserEmail)
}

func TestRedeem_ExhaustedVoucherConflicts(t *testing.T) {
	v := activeVoucher()
	limit := 1
	v.UsageLimit = &limit
	v.UsedCount = 1
	store := newFakeStore(v)
	svc := newTestService(store)

	err := svc.Redeem(context.Background(), Redemption{VoucherID: "v-1"})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, store.records, "no usage record after a failed increment")
}

func TestRedeem_UnknownVoucher(t *testing.T) {
	svc := newTestService(newFakeStore())

	err := svc.Redeem(context.Background(), Redemption{VoucherID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}
