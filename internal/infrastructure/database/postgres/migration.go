// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/checkout-backend/internal/domain/payment"
	"github.com/your-org/checkout-backend/internal/domain/voucher"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&voucher.Voucher{},
		&voucher.UsageRecord{},
		&payment.IntentRecord{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Voucher indexes
		"CREATE INDEX IF NOT EXISTS idx_vouchers_active_valid ON vouchers(is_active, valid_from, valid_until)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_created_at ON vouchers(created_at DESC)",

		// Voucher usage indexes
		"CREATE INDEX IF NOT EXISTS idx_voucher_usage_voucher_user ON voucher_usage(voucher_id, user_email)",
		"CREATE INDEX IF NOT EXISTS idx_voucher_usage_order ON voucher_usage(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_voucher_usage_used_at ON voucher_usage(used_at DESC)",

		// Payment intent indexes
		"CREATE INDEX IF NOT EXISTS idx_payment_intents_status ON payment_intents(status)",
		"CREATE INDEX IF NOT EXISTS idx_payment_intents_created_at ON payment_intents(created_at DESC)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData populates sample vouchers for development environments
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var count int64
	if err := m.db.Model(&voucher.Voucher{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count vouchers: %w", err)
	}
	if count > 0 {
		log.Println("Vouchers already present, skipping seed")
		return nil
	}

	usageLimit := 100
	now := time.Now().UTC()
	until := now.AddDate(0, 3, 0)

	seeds := []voucher.Voucher{
		{
			Code:          "WELCOME10",
			Description:   "10% off your first order",
			DiscountType:  voucher.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
			MaxDiscountAmount: decimal.NullDecimal{
				Decimal: decimal.NewFromInt(25),
				Valid:   true,
			},
			MinOrderValue: decimal.NewFromInt(50),
			UsageLimit:    &usageLimit,
			UserLimit:     1,
			ValidFrom:     now,
			ValidUntil:    &until,
			IsActive:      true,
			CreatedBy:     "system",
		},
		{
			Code:          "FLAT20",
			Description:   "Flat $20 off orders over $100",
			DiscountType:  voucher.DiscountTypeFixed,
			DiscountValue: decimal.NewFromInt(20),
			MinOrderValue: decimal.NewFromInt(100),
			UserLimit:     1,
			ValidFrom:     now,
			ValidUntil:    &until,
			IsActive:      true,
			CreatedBy:     "system",
		},
	}

	for i := range seeds {
		if err := m.db.Create(&seeds[i]).Error; err != nil {
			return fmt.Errorf("failed to seed voucher %s: %w", seeds[i].Code, err)
		}
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}
