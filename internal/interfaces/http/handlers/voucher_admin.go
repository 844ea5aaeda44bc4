// internal/interfaces/http/handlers/voucher_admin.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/voucher"
	"github.com/your-org/checkout-backend/internal/interfaces/http/middleware"
)

// VoucherAdminHandler handles admin voucher management endpoints
type VoucherAdminHandler struct {
	voucherService *voucher.Service
	config         *config.Config
}

// NewVoucherAdminHandler creates a new voucher admin handler on top of the
// given store
func NewVoucherAdminHandler(store voucher.Store, cfg *config.Config) *VoucherAdminHandler {
	return &VoucherAdminHandler{
		voucherService: voucher.NewService(store),
		config:         cfg,
	}
}

// ListVouchers handles GET /admin/vouchers
func (h *VoucherAdminHandler) ListVouchers(c *gin.Context) {
	vouchers, stats, err := h.voucherService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve vouchers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vouchers": vouchers,
		"stats":    stats,
	})
}

// GetVoucher handles GET /admin/vouchers/:id
func (h *VoucherAdminHandler) GetVoucher(c *gin.Context) {
	v, err := h.voucherService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, voucher.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Voucher not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve voucher",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"voucher": v,
	})
}

// CreateVoucher handles POST /admin/vouchers
func (h *VoucherAdminHandler) CreateVoucher(c *gin.Context) {
	var req voucher.CreateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	req.CreatedBy, _ = middleware.GetUserEmailFromContext(c)

	v, err := h.voucherService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, voucher.ErrCodeExists) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Voucher code already exists",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create voucher",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Voucher created successfully",
		"voucher": v,
	})
}

// UpdateVoucher handles PUT /admin/vouchers/:id
func (h *VoucherAdminHandler) UpdateVoucher(c *gin.Context) {
	var patch voucher.Patch

	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	v, err := h.voucherService.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		if errors.Is(err, voucher.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Voucher not found",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update voucher",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Voucher updated successfully",
		"voucher": v,
	})
}

// DeleteVoucher handles DELETE /admin/vouchers/:id
func (h *VoucherAdminHandler) DeleteVoucher(c *gin.Context) {
	if err := h.voucherService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, voucher.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Voucher not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete voucher",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Voucher deleted successfully",
	})
}
