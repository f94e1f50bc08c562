package models

import "github.com/shopspring/decimal"

// ProductTaxInfo is the tax rate of a product, as a percentage (5, 12, 18, 28).
type ProductTaxInfo struct {
	ProductID string `json:"productID"`
	TaxValue  Amount `json:"taxValue"`
}

// TaxLookup maps product IDs to their tax info for one computation pass.
type TaxLookup map[string]ProductTaxInfo

// Rate returns the tax percentage for productID, or zero when unknown.
func (l TaxLookup) Rate(productID string) decimal.Decimal {
	if info, ok := l[productID]; ok {
		return info.TaxValue.Decimal
	}
	return decimal.Zero
}

// Missing returns the IDs from ids that have no entry.
func (l TaxLookup) Missing(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := l[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
