package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// QuoteRequest is the body of POST /api/v2/pricing/quote. A missing
// shipping_cost falls back to the configured default; an explicit 0 is kept.
type QuoteRequest struct {
	Order        *models.Order  `json:"order"`
	ShippingCost *models.Amount `json:"shipping_cost"`
	Variant      string         `json:"variant"`
}

// GetOrderPricing handles GET /api/v2/orders/:id/pricing
func (h *Handlers) GetOrderPricing(c *gin.Context) {
	orderID := c.Param("id")

	breakdown, err := h.pricingService.OrderBreakdown(
		c.Request.Context(),
		orderID,
		c.Query("shipping_cost"),
		c.Query("variant"),
	)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":   orderID,
		"breakdown": breakdown,
	})
}

// QuoteOrder handles POST /api/v2/pricing/quote
func (h *Handlers) QuoteOrder(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	shippingCost := ""
	if req.ShippingCost != nil {
		shippingCost = req.ShippingCost.String()
	}

	breakdown, err := h.pricingService.Quote(c.Request.Context(), req.Order, shippingCost, req.Variant)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"breakdown": breakdown,
	})
}
