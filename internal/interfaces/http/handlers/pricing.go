// internal/interfaces/http/handlers/pricing.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/pricing"
)

// PricingHandler handles pricing endpoints
type PricingHandler struct {
	config *config.Config
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(cfg *config.Config) *PricingHandler {
	return &PricingHandler{
		config: cfg,
	}
}

// QuoteRequest represents a price quote request
type QuoteRequest struct {
	Material     string `json:"material"`
	Quantity     int    `json:"quantity" binding:"required"`
	Country      string `json:"country"`
	DigitalOnly  bool   `json:"digitalOnly"`
	IncludeAddon *bool  `json:"includeAddon"`
}

// Quote handles POST /pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	// The app subscription is included unless explicitly excluded
	includeAddon := true
	if req.IncludeAddon != nil {
		includeAddon = *req.IncludeAddon
	}

	country := pricing.NormalizeCountry(req.Country)

	breakdown, err := pricing.Calculate(pricing.Configuration{
		Material:    pricing.Material(req.Material),
		Quantity:    req.Quantity,
		DigitalOnly: req.DigitalOnly,
	}, country, includeAddon)
	if err != nil {
		var invalidErr *pricing.InvalidConfigurationError
		if errors.As(err, &invalidErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": invalidErr.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to calculate pricing",
		})
		return
	}

	// The amount voucher eligibility is checked against always includes
	// the add-on, whether or not this quote did.
	voucherAmount, err := pricing.OrderAmountForVoucher(pricing.Configuration{
		Material:    pricing.Material(req.Material),
		Quantity:    req.Quantity,
		DigitalOnly: req.DigitalOnly,
	}, country)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to calculate pricing",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"country":              country,
		"country_name":         pricing.CountryName(country),
		"currency":             pricing.CurrencyFor(country),
		"breakdown":            breakdown,
		"voucher_order_amount": voucherAmount,
	})
}
