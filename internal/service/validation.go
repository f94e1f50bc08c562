package service

import (
	"fmt"
	"strings"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// ValidateUpdateOrderStatusRequest validates a status update request.
func ValidateUpdateOrderStatusRequest(req *models.UpdateOrderStatusRequest) error {
	if req == nil || req.Status == "" {
		return errors.NewValidationError("status", "status is required")
	}

	if !req.Status.Valid() {
		return errors.NewValidationError("status", "invalid order status")
	}

	if len(req.Notes) > 1000 {
		return errors.NewValidationError("notes", "notes too long (max 1000 characters)")
	}

	return nil
}

// ValidateOrderListFilter validates a list filter.
func ValidateOrderListFilter(filter *models.OrderListFilter) error {
	if filter.Limit < 0 {
		return errors.NewValidationError("limit", "limit cannot be negative")
	}

	if filter.Offset < 0 {
		return errors.NewValidationError("offset", "offset cannot be negative")
	}

	if filter.Status != nil && !filter.Status.Valid() {
		return errors.NewValidationError("status", "invalid order status")
	}

	if filter.StartDate != nil && filter.EndDate != nil {
		if filter.StartDate.After(*filter.EndDate) {
			return errors.NewValidationError("start_date", "start date cannot be after end date")
		}
	}

	return nil
}

// ValidateCancellationReason validates an order cancellation reason.
func ValidateCancellationReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.NewValidationError("reason", "cancellation reason is required")
	}

	if len(reason) > 500 {
		return errors.NewValidationError("reason", "cancellation reason too long (max 500 characters)")
	}

	return nil
}

// ValidateQuoteOrder checks that an ad-hoc order can be priced. It rejects
// input only; it never adjusts amounts.
func ValidateQuoteOrder(order *models.Order) error {
	if order == nil {
		return errors.NewValidationError("order", "order is required")
	}

	if len(order.Items) == 0 {
		return errors.NewValidationError("items", "at least one item is required")
	}

	for i, item := range order.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return errors.NewValidationError("items", fmt.Sprintf("product ID is required for item %d", i))
		}
	}

	return nil
}

// SanitizeOrderNotes escapes markup in free-text notes and caps their length.
func SanitizeOrderNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "<", "&lt;")
	notes = strings.ReplaceAll(notes, ">", "&gt;")
	notes = strings.ReplaceAll(notes, "\"", "&quot;")
	notes = strings.TrimSpace(notes)

	if len(notes) > 1000 {
		notes = notes[:1000]
	}

	return notes
}
