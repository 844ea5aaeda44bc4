// internal/domain/voucher/store.go
package voucher

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no voucher matches the given code or id.
	ErrNotFound = errors.New("voucher not found")

	// ErrExhausted is returned by IncrementUsage when the conditional update
	// finds the usage limit already reached. It is distinct from an
	// eligibility rejection: it surfaces only at redemption time, after an
	// advisory evaluation has already passed.
	ErrExhausted = errors.New("voucher usage limit exhausted")

	// ErrCodeExists is returned when creating a voucher with a code that is
	// already taken.
	ErrCodeExists = errors.New("voucher code already exists")
)

// Store is the narrow persistence interface the voucher services depend on.
// Cross-request coordination is delegated entirely to the backing database:
// IncrementUsage must be a single conditional update, never read-then-write.
type Store interface {
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	GetByID(ctx context.Context, id string) (*Voucher, error)
	CountUsage(ctx context.Context, voucherID, userEmail string) (int64, error)
	IncrementUsage(ctx context.Context, voucherID string) error
	RecordUsage(ctx context.Context, record *UsageRecord) error

	List(ctx context.Context) ([]Voucher, error)
	Create(ctx context.Context, v *Voucher) error
	Save(ctx context.Context, v *Voucher) error
	Delete(ctx context.Context, id string) error
}

// GormStore implements Store on top of a gorm-managed relational database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a gorm-backed voucher store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByCode fetches a voucher by its normalized code
func (s *GormStore) FindByCode(ctx context.Context, code string) (*Voucher, error) {
	var v Voucher
	err := s.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch voucher: %w", err)
	}
	return &v, nil
}

// GetByID fetches a voucher by id
func (s *GormStore) GetByID(ctx context.Context, id string) (*Voucher, error) {
	var v Voucher
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch voucher: %w", err)
	}
	return &v, nil
}

// CountUsage counts existing usage records for a (voucher, customer) pair
func (s *GormStore) CountUsage(ctx context.Context, voucherID, userEmail string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UsageRecord{}).
		Where("voucher_id = ? AND user_email = ?", voucherID, userEmail).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count voucher usage: %w", err)
	}
	return count, nil
}

// IncrementUsage increments the used counter with a single conditional
// update so that two concurrent redemptions near the limit cannot both
// succeed. A zero-row result means the voucher is gone or exhausted.
func (s *GormStore) IncrementUsage(ctx context.Context, voucherID string) error {
	result := s.db.WithContext(ctx).Model(&Voucher{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", voucherID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment voucher usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&Voucher{}).Where("id = ?", voucherID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check voucher: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrExhausted
	}
	return nil
}

// RecordUsage appends a usage record
func (s *GormStore) RecordUsage(ctx context.Context, record *UsageRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record voucher usage: %w", err)
	}
	return nil
}

// List retrieves all vouchers, newest first
func (s *GormStore) List(ctx context.Context) ([]Voucher, error) {
	var vouchers []Voucher
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&vouchers).Error; err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

// Create persists a new voucher. Duplicate detection is left to the unique
// index on the code column: two concurrent creates of the same code cannot
// both pass an application-level pre-check, but only one can win the index.
func (s *GormStore) Create(ctx context.Context, v *Voucher) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return translateCreateError(err)
	}
	return nil
}

// translateCreateError maps the unique-constraint violation surfaced by the
// database onto ErrCodeExists.
func translateCreateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCodeExists
	}
	return fmt.Errorf("failed to create voucher: %w", err)
}

// Save persists changes to an existing voucher
func (s *GormStore) Save(ctx context.Context, v *Voucher) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("failed to update voucher: %w", err)
	}
	return nil
}

// Delete removes a voucher by id
func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Voucher{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete voucher: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
