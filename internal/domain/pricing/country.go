// internal/domain/pricing/country.go
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tax rates: India charges 18% GST, every other country a flat 5% VAT.
var (
	IndiaTaxRate   = decimal.NewFromFloat(0.18)
	DefaultTaxRate = decimal.NewFromFloat(0.05)
)

// DefaultCountryCode is assumed when no country is supplied with a request.
const DefaultCountryCode = "IN"

// countryNames maps ISO 3166-1 alpha-2 codes to display names.
var countryNames = map[string]string{
	"IN": "India",
	"AE": "UAE",
	"US": "USA",
	"GB": "UK",
	"CA": "Canada",
	"AU": "Australia",
	"DE": "Germany",
	"FR": "France",
	"SG": "Singapore",
}

// countryCodes maps display names (and common variants) back to codes.
var countryCodes = map[string]string{
	"India":                "IN",
	"UAE":                  "AE",
	"United Arab Emirates": "AE",
	"USA":                  "US",
	"United States":        "US",
	"UK":                   "GB",
	"United Kingdom":       "GB",
	"Canada":               "CA",
	"Australia":            "AU",
	"Germany":              "DE",
	"France":               "FR",
	"Singapore":            "SG",
}

// TaxInfo describes the tax applied for a country.
type TaxInfo struct {
	Rate  decimal.Decimal `json:"rate"`
	Label string          `json:"label"`
}

// NormalizeCountry converts a country supplied as either a 2-letter ISO code
// or a display name into the canonical upper-case code. It is applied once at
// the system boundary so every downstream component only ever sees the code.
func NormalizeCountry(country string) string {
	trimmed := strings.TrimSpace(country)
	if trimmed == "" {
		return DefaultCountryCode
	}

	// Already a known 2-letter code
	upper := strings.ToUpper(trimmed)
	if _, ok := countryNames[upper]; ok {
		return upper
	}

	// Full name or alias - convert to code
	if code, ok := countryCodes[trimmed]; ok {
		return code
	}

	// Case-insensitive name match
	for name, code := range countryCodes {
		if strings.EqualFold(name, trimmed) {
			return code
		}
	}

	// Unrecognized 2-letter codes are taken at face value
	if len(trimmed) == 2 {
		return upper
	}

	// Unknown country - return as-is
	return trimmed
}

// CountryName returns the display name for a country code or name.
func CountryName(country string) string {
	code := NormalizeCountry(country)
	if name, ok := countryNames[code]; ok {
		return name
	}
	return country
}

// IsIndia reports whether the country (code or name) resolves to India.
func IsIndia(country string) bool {
	return NormalizeCountry(country) == "IN"
}

// TaxRateFor returns the tax rate and label for a country.
func TaxRateFor(country string) TaxInfo {
	if IsIndia(country) {
		return TaxInfo{Rate: IndiaTaxRate, Label: "GST (18%)"}
	}
	return TaxInfo{Rate: DefaultTaxRate, Label: "VAT (5%)"}
}

// CurrencyFor returns the charge currency for a country.
func CurrencyFor(country string) string {
	if IsIndia(country) {
		return "INR"
	}
	return "USD"
}
