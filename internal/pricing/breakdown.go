package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// Breakdown is the full price computation for one order.
type Breakdown struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	RetailTotal         decimal.Decimal `json:"retailTotal"`
	WholesaleSavings    decimal.Decimal `json:"wholesaleSavings"`
	Discount            decimal.Decimal `json:"discount"`
	Delivery            decimal.Decimal `json:"delivery"`
	ShippingTax         decimal.Decimal `json:"shippingTax"`
	ItemTax             decimal.Decimal `json:"itemTax"`
	TotalTax            decimal.Decimal `json:"totalTax"`
	CGST                decimal.Decimal `json:"cgst"`
	SGST                decimal.Decimal `json:"sgst"`
	IGST                decimal.Decimal `json:"igst"`
	GrandTotal          decimal.Decimal `json:"grandTotal"`
	IsWholesaleEligible bool            `json:"isWholesaleEligible"`
	Variant             Variant         `json:"variant"`
}

// Compute produces the breakdown of order. Unknown variants fall back to
// VariantExcludingItemTax. A nil order yields an all-zero breakdown.
func (e *Engine) Compute(order *models.Order, lookup models.TaxLookup, shippingCost decimal.Decimal, variant Variant) Breakdown {
	if order == nil {
		order = &models.Order{}
	}
	if variant != VariantIncludingItemTax {
		variant = VariantExcludingItemTax
	}

	items := order.Items
	subtotal := Subtotal(items)
	retail := RetailTotal(items)
	discount := CouponDiscount(subtotal, order.AppliedCoupons)
	delivery := e.Delivery(subtotal, shippingCost)
	shippingTax := e.ShippingTax(delivery)
	itemTax := ItemTax(items, lookup)
	totalTax := itemTax.Add(shippingTax)
	split := e.SplitGST(totalTax, order.GSTStateCode)

	net := decimal.Max(decimal.Zero, subtotal.Sub(discount))
	grand := net.Add(delivery).Add(shippingTax)
	if variant == VariantIncludingItemTax {
		grand = grand.Add(itemTax)
	}

	return Breakdown{
		Subtotal:            subtotal,
		RetailTotal:         retail,
		WholesaleSavings:    retail.Sub(subtotal),
		Discount:            discount,
		Delivery:            delivery,
		ShippingTax:         shippingTax,
		ItemTax:             itemTax,
		TotalTax:            totalTax,
		CGST:                split.CGST,
		SGST:                split.SGST,
		IGST:                split.IGST,
		GrandTotal:          grand,
		IsWholesaleEligible: retail.GreaterThanOrEqual(e.rules.WholesaleThreshold),
		Variant:             variant,
	}
}
