// internal/domain/pricing/calculator.go
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Material represents the card material kind
type Material string

const (
	MaterialPVC     Material = "pvc"
	MaterialMetal   Material = "metal"
	MaterialWood    Material = "wood"
	MaterialDigital Material = "digital"
)

// Base unit prices in USD per material
var materialPrices = map[Material]decimal.Decimal{
	MaterialPVC:     decimal.NewFromInt(69),
	MaterialMetal:   decimal.NewFromInt(99),
	MaterialWood:    decimal.NewFromInt(79),
	MaterialDigital: decimal.NewFromInt(59),
}

var (
	// BaseMaterialPrice is used when no material is specified.
	BaseMaterialPrice = decimal.NewFromInt(69)

	// AppSubscriptionPrice is the recurring app add-on bundled into checkout.
	// Physical configurations pay it per unit, digital-only ones pay it once.
	AppSubscriptionPrice = decimal.NewFromInt(120)

	// ShippingCost is a flat rate applied to every order.
	ShippingCost = decimal.Zero
)

// Configuration is the immutable per-request product configuration.
type Configuration struct {
	Material    Material `json:"material"`
	Quantity    int      `json:"quantity"`
	DigitalOnly bool     `json:"digital_only"`
}

// IsDigital reports whether the configuration carries no physical product.
func (c Configuration) IsDigital() bool {
	return c.DigitalOnly || c.Material == MaterialDigital
}

// InvalidConfigurationError reports a malformed product configuration,
// naming the offending field.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Breakdown is the derived price breakdown for a configuration. It is never
// persisted; it belongs to the request that computed it.
type Breakdown struct {
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Quantity             int             `json:"quantity"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	AppSubscriptionPrice decimal.Decimal `json:"app_subscription_price"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	TaxLabel             string          `json:"tax_label"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	GrandTotal           decimal.Decimal `json:"grand_total"`

	// TotalWithoutAddon excludes the app subscription so clients can
	// present the product-only total alongside the grand total.
	TotalWithoutAddon decimal.Decimal `json:"total_without_addon"`
}

// Calculate computes the full price breakdown for a product configuration.
// It is pure: the only failure mode is input validation.
//
// Tax is charged on the material subtotal only, never on the app
// subscription, matching how the subscription is invoiced separately for
// tax purposes.
func Calculate(config Configuration, country string, includeAddon bool) (*Breakdown, error) {
	if config.Quantity <= 0 {
		return nil, &InvalidConfigurationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	unitPrice := BaseMaterialPrice
	if config.Material != "" {
		price, ok := materialPrices[config.Material]
		if !ok {
			return nil, &InvalidConfigurationError{Field: "material", Reason: fmt.Sprintf("unknown kind %q", config.Material)}
		}
		unitPrice = price
	}

	quantity := decimal.NewFromInt(int64(config.Quantity))
	subtotal := unitPrice.Mul(quantity)

	// Digital-only configurations get a single subscription regardless of
	// quantity; physical ones pay per unit.
	addon := decimal.Zero
	if includeAddon {
		if config.IsDigital() {
			addon = AppSubscriptionPrice
		} else {
			addon = AppSubscriptionPrice.Mul(quantity)
		}
	}

	taxInfo := TaxRateFor(NormalizeCountry(country))
	taxAmount := subtotal.Mul(taxInfo.Rate).Round(2)

	grandTotal := subtotal.Add(addon).Add(taxAmount).Add(ShippingCost)
	totalWithoutAddon := subtotal.Add(taxAmount).Add(ShippingCost)

	return &Breakdown{
		UnitPrice:            unitPrice,
		Quantity:             config.Quantity,
		Subtotal:             subtotal,
		AppSubscriptionPrice: addon,
		TaxRate:              taxInfo.Rate,
		TaxLabel:             taxInfo.Label,
		TaxAmount:            taxAmount,
		ShippingCost:         ShippingCost,
		GrandTotal:           grandTotal,
		TotalWithoutAddon:    totalWithoutAddon,
	}, nil
}

// OrderAmountForVoucher returns the amount voucher eligibility must be
// checked against. The add-on is always included so that validation is
// consistent across every endpoint that evaluates a voucher.
func OrderAmountForVoucher(config Configuration, country string) (decimal.Decimal, error) {
	breakdown, err := Calculate(config, country, true)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.GrandTotal, nil
}
