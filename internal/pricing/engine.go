package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Subtotal is Σ salesPrice × quantity over the non-free lines.
func Subtotal(items []models.OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.IsFree() {
			continue
		}
		total = total.Add(item.SalesPrice().Mul(item.Quantity.Decimal()))
	}
	return total
}

// RetailTotal is Σ retailPrice × quantity over the non-free lines. The sales
// price override is ignored here.
func RetailTotal(items []models.OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.IsFree() {
			continue
		}
		total = total.Add(item.RetailPrice().Mul(item.Quantity.Decimal()))
	}
	return total
}

// WholesaleSavings is RetailTotal − Subtotal. It goes negative when a sales
// price exceeds its retail price; that is passed through untouched.
func WholesaleSavings(items []models.OrderLineItem) decimal.Decimal {
	return RetailTotal(items).Sub(Subtotal(items))
}

// Discount sums every applied coupon against the order subtotal. Coupons
// stack and the sum is not capped here.
func Discount(order *models.Order) decimal.Decimal {
	if order == nil || len(order.AppliedCoupons) == 0 {
		return decimal.Zero
	}
	return CouponDiscount(Subtotal(order.Items), order.AppliedCoupons)
}

// CouponDiscount applies coupons to a known subtotal.
func CouponDiscount(subtotal decimal.Decimal, coupons []models.AppliedCoupon) decimal.Decimal {
	total := decimal.Zero
	for _, c := range coupons {
		if c.Discount.IsPositive() {
			total = total.Add(subtotal.Mul(c.Discount.Decimal).Div(hundred))
			continue
		}
		total = total.Add(c.DiscountAmount.Decimal)
	}
	return total
}

// ItemTax is Σ salesPrice × quantity × taxValue/100 over non-free lines.
// Products missing from lookup are taxed at 0%.
func ItemTax(items []models.OrderLineItem, lookup models.TaxLookup) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.IsFree() {
			continue
		}
		rate := lookup.Rate(item.ProductID)
		if rate.IsZero() {
			continue
		}
		line := item.SalesPrice().Mul(item.Quantity.Decimal())
		total = total.Add(line.Mul(rate).Div(hundred))
	}
	return total
}

// GSTSplit is the jurisdiction split of a tax amount.
type GSTSplit struct {
	CGST decimal.Decimal `json:"cgst"`
	SGST decimal.Decimal `json:"sgst"`
	IGST decimal.Decimal `json:"igst"`
}

// Engine applies Rules to orders.
type Engine struct {
	rules Rules
}

// New creates an engine with the given rules.
func New(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// NewDefault creates an engine with DefaultRules.
func NewDefault() *Engine {
	return New(DefaultRules())
}

// Rules returns the engine's rules.
func (e *Engine) Rules() Rules {
	return e.rules
}

// IsWholesaleEligible reports whether the retail total reaches the wholesale threshold.
func (e *Engine) IsWholesaleEligible(items []models.OrderLineItem) bool {
	return RetailTotal(items).GreaterThanOrEqual(e.rules.WholesaleThreshold)
}

// ResolveShippingCost parses a configured shipping cost. Blank or
// non-numeric values fall back to the default cost.
func (e *Engine) ResolveShippingCost(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return e.rules.DefaultShippingCost
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return e.rules.DefaultShippingCost
	}
	return d
}

// Delivery is free at or above the free delivery threshold, else shippingCost.
func (e *Engine) Delivery(subtotal, shippingCost decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(e.rules.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return shippingCost
}

// ShippingTax is the flat tax on the delivery charge.
func (e *Engine) ShippingTax(delivery decimal.Decimal) decimal.Decimal {
	return delivery.Mul(e.rules.ShippingTaxRate)
}

// TotalTax is item tax plus shipping tax.
func (e *Engine) TotalTax(items []models.OrderLineItem, lookup models.TaxLookup, delivery decimal.Decimal) decimal.Decimal {
	return ItemTax(items, lookup).Add(e.ShippingTax(delivery))
}

// SplitGST halves tax into CGST and SGST for the home state; every other
// state code is charged IGST.
func (e *Engine) SplitGST(totalTax decimal.Decimal, stateCode string) GSTSplit {
	if strings.TrimSpace(stateCode) == e.rules.HomeStateCode {
		half := totalTax.Div(decimal.NewFromInt(2))
		return GSTSplit{CGST: half, SGST: half, IGST: decimal.Zero}
	}
	return GSTSplit{CGST: decimal.Zero, SGST: decimal.Zero, IGST: totalTax}
}

// GrandTotalExcludingItemTax is max(0, subtotal − discount) + delivery + shipping tax.
func (e *Engine) GrandTotalExcludingItemTax(order *models.Order, lookup models.TaxLookup, shippingCost decimal.Decimal) decimal.Decimal {
	return e.Compute(order, lookup, shippingCost, VariantExcludingItemTax).GrandTotal
}

// GrandTotalIncludingItemTax is max(0, subtotal − discount) + delivery + item tax + shipping tax.
func (e *Engine) GrandTotalIncludingItemTax(order *models.Order, lookup models.TaxLookup, shippingCost decimal.Decimal) decimal.Decimal {
	return e.Compute(order, lookup, shippingCost, VariantIncludingItemTax).GrandTotal
}
