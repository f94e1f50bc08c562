package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOrdered    OrderStatus = "ordered"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward path. Cancelled is off the path.
var statusRank = map[OrderStatus]int{
	OrderStatusOrdered:    1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == OrderStatusCancelled
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed: forward
// along ordered → processing → shipped → delivered, or to cancelled from any
// non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	return statusRank[next] > from
}

// OrderLineItem is one purchased line, with prices denormalized at order time.
type OrderLineItem struct {
	ProductID   string   `json:"productID"`
	Name        string   `json:"name"`
	Quantity    Quantity `json:"quantity"`
	Price       Amount   `json:"price"`
	RPrice      Amount   `json:"rprice"`
	RSalesPrice Amount   `json:"rsalesprice"`
}

// IsFree reports whether the line is a gift: shown, but never priced or taxed.
func (i OrderLineItem) IsFree() bool {
	return i.Price.IsZero()
}

// SalesPrice is the unit price used for subtotal and tax: rsalesprice, then
// rprice, then price. A zero value counts as absent.
func (i OrderLineItem) SalesPrice() decimal.Decimal {
	return firstNonZero(i.RSalesPrice.Decimal, i.RPrice.Decimal, i.Price.Decimal)
}

// RetailPrice is the pre-wholesale reference price: rprice, then price.
func (i OrderLineItem) RetailPrice() decimal.Decimal {
	return firstNonZero(i.RPrice.Decimal, i.Price.Decimal)
}

func firstNonZero(values ...decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return decimal.Zero
}

// AppliedCoupon is a discount attached to an order. A positive percentage
// wins over the fixed amount.
type AppliedCoupon struct {
	CouponCode     string `json:"couponCode,omitempty"`
	Name           string `json:"name,omitempty"`
	Discount       Amount `json:"discount"`
	DiscountAmount Amount `json:"discountAmount"`
}

// Code returns the coupon code, falling back to its name.
func (c AppliedCoupon) Code() string {
	if c.CouponCode != "" {
		return c.CouponCode
	}
	return c.Name
}

// Order is the aggregate root read by the pricing engine. Pricing never mutates it.
type Order struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customerId,omitempty"`
	CustomerEmail  string          `json:"customerEmail,omitempty"`
	CustomerPhone  string          `json:"customerPhone,omitempty"`
	GSTStateCode   string          `json:"gstStateCode"`
	Status         OrderStatus     `json:"status"`
	Items          []OrderLineItem `json:"items"`
	AppliedCoupons []AppliedCoupon `json:"appliedCoupons"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	ShippedAt      *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
}

// CanCancel reports whether the order may still be cancelled.
func (o *Order) CanCancel() bool {
	return o.Status.CanTransitionTo(OrderStatusCancelled)
}

// ProductIDs returns the distinct product IDs in item order.
func (o *Order) ProductIDs() []string {
	return DistinctProductIDs(o.Items)
}

// DistinctProductIDs returns each non-empty product ID once, in first-seen order.
func DistinctProductIDs(items []OrderLineItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// UpdateOrderStatusRequest asks for a status change.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	CustomerID string       `json:"customer_id,omitempty"`
	Status     *OrderStatus `json:"status,omitempty"`
	StartDate  *time.Time   `json:"start_date,omitempty"`
	EndDate    *time.Time   `json:"end_date,omitempty"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
}
