package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     OrderStatus
		to       OrderStatus
		expected bool
	}{
		{"ordered to processing", OrderStatusOrdered, OrderStatusProcessing, true},
		{"ordered to shipped", OrderStatusOrdered, OrderStatusShipped, true},
		{"processing to shipped", OrderStatusProcessing, OrderStatusShipped, true},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"shipped back to processing", OrderStatusShipped, OrderStatusProcessing, false},
		{"same status", OrderStatusProcessing, OrderStatusProcessing, false},
		{"ordered to cancelled", OrderStatusOrdered, OrderStatusCancelled, true},
		{"shipped to cancelled", OrderStatusShipped, OrderStatusCancelled, true},
		{"delivered to cancelled", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled to ordered", OrderStatusCancelled, OrderStatusOrdered, false},
		{"unknown target", OrderStatusOrdered, OrderStatus("paid"), false},
		{"unknown source", OrderStatus("paid"), OrderStatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_CanCancel(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusProcessing}).CanCancel())
	assert.False(t, (&Order{Status: OrderStatusDelivered}).CanCancel())
	assert.False(t, (&Order{Status: OrderStatusCancelled}).CanCancel())
}

func TestOrderLineItem_SalesPrice(t *testing.T) {
	tests := []struct {
		name string
		item OrderLineItem
		want int64
	}{
		{"override wins", OrderLineItem{Price: NewAmount(200), RPrice: NewAmount(200), RSalesPrice: NewAmount(180)}, 180},
		{"falls back to retail", OrderLineItem{Price: NewAmount(150), RPrice: NewAmount(200)}, 200},
		{"falls back to price", OrderLineItem{Price: NewAmount(150)}, 150},
		{"zero override counts as absent", OrderLineItem{Price: NewAmount(150), RPrice: NewAmount(170), RSalesPrice: NewAmount(0)}, 170},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.NewFromInt(tt.want).Equal(tt.item.SalesPrice()))
		})
	}
}

func TestOrderLineItem_RetailPriceIgnoresOverride(t *testing.T) {
	item := OrderLineItem{Price: NewAmount(150), RSalesPrice: NewAmount(120)}
	assert.True(t, decimal.NewFromInt(150).Equal(item.RetailPrice()))
}

func TestDistinctProductIDs(t *testing.T) {
	items := []OrderLineItem{
		{ProductID: "p1"}, {ProductID: "p2"}, {ProductID: "p1"}, {ProductID: ""}, {ProductID: "p3"},
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, DistinctProductIDs(items))
}

func TestTaxLookup_Rate(t *testing.T) {
	lookup := TaxLookup{"p1": {ProductID: "p1", TaxValue: NewAmount(12)}}

	assert.True(t, decimal.NewFromInt(12).Equal(lookup.Rate("p1")))
	assert.True(t, lookup.Rate("missing").IsZero())
	assert.Equal(t, []string{"p2"}, lookup.Missing([]string{"p1", "p2"}))
}

func TestAppliedCoupon_Code(t *testing.T) {
	assert.Equal(t, "SAVE20", AppliedCoupon{CouponCode: "SAVE20", Name: "Diwali"}.Code())
	assert.Equal(t, "Diwali", AppliedCoupon{Name: "Diwali"}.Code())
}
