package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/report"
)

// OrdersReport handles GET /api/v2/reports/orders
func (h *Handlers) OrdersReport(c *gin.Context) {
	r, ok := h.buildReport(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, r)
}

// OrdersReportCSV handles GET /api/v2/reports/orders.csv
func (h *Handlers) OrdersReportCSV(c *gin.Context) {
	r, ok := h.buildReport(c)
	if !ok {
		return
	}

	filename := "orders-" + r.GeneratedAt.Format(time.DateOnly) + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := report.WriteCSV(c.Writer, r); err != nil {
		h.logger.Error("Failed to write CSV report", logging.Fields{"error": err.Error()})
	}
}

func (h *Handlers) buildReport(c *gin.Context) (*report.Report, bool) {
	filter, err := parseListFilter(c)
	if err != nil {
		handleError(c, err)
		return nil, false
	}

	r, err := h.reportService.OrdersReport(
		c.Request.Context(),
		filter,
		c.Query("shipping_cost"),
		c.Query("variant"),
	)
	if err != nil {
		handleError(c, err)
		return nil, false
	}

	return r, true
}
