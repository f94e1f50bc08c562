package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	v, ok := errors.AsValidation(err)
	if assert.True(t, ok, "expected validation error, got %v", err) {
		assert.Equal(t, field, v.Field)
	}
}

func TestValidateUpdateOrderStatusRequest(t *testing.T) {
	assert.NoError(t, ValidateUpdateOrderStatusRequest(&models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped}))
	assertValidationField(t, ValidateUpdateOrderStatusRequest(&models.UpdateOrderStatusRequest{}), "status")
	assertValidationField(t, ValidateUpdateOrderStatusRequest(nil), "status")
	assertValidationField(t, ValidateUpdateOrderStatusRequest(&models.UpdateOrderStatusRequest{Status: "lost"}), "status")
	assertValidationField(t, ValidateUpdateOrderStatusRequest(&models.UpdateOrderStatusRequest{
		Status: models.OrderStatusShipped,
		Notes:  strings.Repeat("x", 1001),
	}), "notes")
}

func TestValidateOrderListFilter(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	bad := models.OrderStatus("lost")

	assert.NoError(t, ValidateOrderListFilter(&models.OrderListFilter{StartDate: &earlier, EndDate: &now}))
	assertValidationField(t, ValidateOrderListFilter(&models.OrderListFilter{Limit: -1}), "limit")
	assertValidationField(t, ValidateOrderListFilter(&models.OrderListFilter{Status: &bad}), "status")
	assertValidationField(t, ValidateOrderListFilter(&models.OrderListFilter{StartDate: &now, EndDate: &earlier}), "start_date")
}

func TestValidateCancellationReason(t *testing.T) {
	assert.NoError(t, ValidateCancellationReason("duplicate order"))
	assertValidationField(t, ValidateCancellationReason(""), "reason")
	assertValidationField(t, ValidateCancellationReason(strings.Repeat("x", 501)), "reason")
}

func TestValidateQuoteOrder(t *testing.T) {
	assert.NoError(t, ValidateQuoteOrder(&models.Order{Items: []models.OrderLineItem{{ProductID: "p1"}}}))
	assertValidationField(t, ValidateQuoteOrder(nil), "order")
	assertValidationField(t, ValidateQuoteOrder(&models.Order{}), "items")
	assertValidationField(t, ValidateQuoteOrder(&models.Order{Items: []models.OrderLineItem{{ProductID: " "}}}), "items")
}

func TestSanitizeOrderNotes(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", SanitizeOrderNotes("  <b>hi</b> "))
	assert.Len(t, SanitizeOrderNotes(strings.Repeat("a", 2000)), 1000)
}
