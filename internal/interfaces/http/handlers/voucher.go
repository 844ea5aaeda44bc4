// internal/interfaces/http/handlers/voucher.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/voucher"
	"github.com/your-org/checkout-backend/internal/interfaces/http/middleware"
)

// VoucherHandler handles public voucher endpoints
type VoucherHandler struct {
	voucherService *voucher.Service
	config         *config.Config
}

// NewVoucherHandler creates a new voucher handler on top of the given store
func NewVoucherHandler(store voucher.Store, cfg *config.Config) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucher.NewService(store),
		config:         cfg,
	}
}

// ValidateVoucherRequest represents a voucher validation request
type ValidateVoucherRequest struct {
	Code             string           `json:"code" binding:"required"`
	OrderAmount      *decimal.Decimal `json:"orderAmount" binding:"required"`
	UserEmail        string           `json:"userEmail"`
	IsFoundingMember bool             `json:"isFoundingMember"`
}

// Validate handles POST /vouchers/validate.
//
// Eligibility rejections are business outcomes, not transport failures:
// they come back as 200 with valid=false, a user-facing message and a
// machine-readable error code. 400 is reserved for malformed requests and
// 500 for store failures.
func (h *VoucherHandler) Validate(c *gin.Context) {
	var req ValidateVoucherRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid":   false,
			"message": "Voucher code and order amount are required",
			"error":   "missing_fields",
		})
		return
	}

	// Authenticated callers get the per-user limit enforced even when the
	// client omits the email
	userEmail := req.UserEmail
	if userEmail == "" {
		userEmail, _ = middleware.GetUserEmailFromContext(c)
	}

	verdict, err := h.voucherService.Evaluate(c.Request.Context(), req.Code, *req.OrderAmount, userEmail)
	if err != nil {
		logrus.WithError(err).WithField("code", req.Code).Error("Voucher evaluation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"valid":   false,
			"message": "Failed to validate voucher",
			"error":   "internal_error",
		})
		return
	}

	if !verdict.Valid {
		c.JSON(http.StatusOK, gin.H{
			"valid":   false,
			"message": verdict.Message,
			"error":   string(verdict.Reason),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"message": verdict.Message,
		"voucher": gin.H{
			"code":            verdict.Voucher.Code,
			"discount_type":   verdict.Voucher.DiscountType,
			"discount_value":  verdict.Voucher.DiscountValue,
			"discount_amount": verdict.DiscountAmount,
			"final_amount":    verdict.FinalAmount,
		},
	})
}
