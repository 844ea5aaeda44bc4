// internal/domain/voucher/store_test.go
package voucher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateCreateError(t *testing.T) {
	t.Run("unique violation becomes ErrCodeExists", func(t *testing.T) {
		err := translateCreateError(gorm.ErrDuplicatedKey)

		assert.ErrorIs(t, err, ErrCodeExists)
	})

	t.Run("other errors are wrapped, not masked", func(t *testing.T) {
		err := translateCreateError(errors.New("connection reset by peer"))

		assert.NotErrorIs(t, err, ErrCodeExists)
		assert.ErrorContains(t, err, "failed to create voucher")
		assert.ErrorContains(t, err, "connection reset by peer")
	})
}
