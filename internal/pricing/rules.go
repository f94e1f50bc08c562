// Package pricing computes order price breakdowns: subtotal, wholesale
// savings, coupon discount, delivery, item and shipping tax, the GST split and
// the grand total. Everything here is a pure function of its inputs.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
)

// Rules holds the business constants used by the engine.
type Rules struct {
	WholesaleThreshold    decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	DefaultShippingCost   decimal.Decimal
	ShippingTaxRate       decimal.Decimal
	HomeStateCode         string
}

// DefaultRules returns the constants the storefront has always used.
func DefaultRules() Rules {
	return Rules{
		WholesaleThreshold:    decimal.NewFromInt(10000),
		FreeDeliveryThreshold: decimal.NewFromInt(1000),
		DefaultShippingCost:   decimal.NewFromInt(80),
		ShippingTaxRate:       decimal.RequireFromString("0.05"),
		HomeStateCode:         "33",
	}
}

// RulesFromConfig builds Rules, keeping the default for any blank value.
func RulesFromConfig(cfg config.PricingConfig) (Rules, error) {
	rules := DefaultRules()

	fields := []struct {
		name string
		raw  string
		dest *decimal.Decimal
	}{
		{"wholesale threshold", cfg.WholesaleThreshold, &rules.WholesaleThreshold},
		{"free delivery threshold", cfg.FreeDeliveryThreshold, &rules.FreeDeliveryThreshold},
		{"default shipping cost", cfg.DefaultShippingCost, &rules.DefaultShippingCost},
		{"shipping tax rate", cfg.ShippingTaxRate, &rules.ShippingTaxRate},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Rules{}, fmt.Errorf("parse %s %q: %w", f.name, raw, err)
		}
		*f.dest = d
	}

	if code := strings.TrimSpace(cfg.HomeStateCode); code != "" {
		rules.HomeStateCode = code
	}
	return rules, nil
}

// Variant selects which grand total formula a caller wants.
type Variant string

const (
	// VariantExcludingItemTax is the order detail view total: item tax is
	// reported but not added.
	VariantExcludingItemTax Variant = "excluding_item_tax"
	// VariantIncludingItemTax is the invoice total: item and shipping tax are both added.
	VariantIncludingItemTax Variant = "including_item_tax"
)

// ParseVariant maps a name to a Variant. Empty input yields fallback.
func ParseVariant(s string, fallback Variant) (Variant, error) {
	switch v := Variant(strings.TrimSpace(strings.ToLower(s))); v {
	case "":
		return fallback, nil
	case VariantExcludingItemTax, VariantIncludingItemTax:
		return v, nil
	default:
		return "", fmt.Errorf("unknown grand total variant %q", s)
	}
}
