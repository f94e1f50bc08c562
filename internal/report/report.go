// Package report aggregates price breakdowns of many orders into a sales
// report and exports it as CSV.
package report

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/pricing"
)

// Row is one order in a report.
type Row struct {
	OrderID    string             `json:"orderId"`
	CustomerID string             `json:"customerId,omitempty"`
	Status     models.OrderStatus `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
	Breakdown  pricing.Breakdown  `json:"breakdown"`
}

// Totals sums the rows that count towards revenue.
type Totals struct {
	Orders     int             `json:"orders"`
	Cancelled  int             `json:"cancelled"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Delivery   decimal.Decimal `json:"delivery"`
	ItemTax    decimal.Decimal `json:"itemTax"`
	CGST       decimal.Decimal `json:"cgst"`
	SGST       decimal.Decimal `json:"sgst"`
	IGST       decimal.Decimal `json:"igst"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Report is a priced list of orders.
type Report struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Variant     pricing.Variant `json:"variant"`
	Rows        []Row           `json:"rows"`
	Totals      Totals          `json:"totals"`
}

// Build sums rows into a report. Cancelled orders are listed but left out of
// the totals.
func Build(rows []Row, variant pricing.Variant) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Variant:     variant,
		Rows:        rows,
	}
	if r.Rows == nil {
		r.Rows = []Row{}
	}

	t := &r.Totals
	for _, row := range rows {
		if row.Status == models.OrderStatusCancelled {
			t.Cancelled++
			continue
		}
		b := row.Breakdown
		t.Orders++
		t.Subtotal = t.Subtotal.Add(b.Subtotal)
		t.Discount = t.Discount.Add(b.Discount)
		t.Delivery = t.Delivery.Add(b.Delivery)
		t.ItemTax = t.ItemTax.Add(b.ItemTax)
		t.CGST = t.CGST.Add(b.CGST)
		t.SGST = t.SGST.Add(b.SGST)
		t.IGST = t.IGST.Add(b.IGST)
		t.GrandTotal = t.GrandTotal.Add(b.GrandTotal)
	}

	return r
}

var csvHeader = []string{
	"order_id", "customer_id", "status", "created_at",
	"subtotal", "discount", "delivery", "item_tax",
	"cgst", "sgst", "igst", "grand_total",
}

// WriteCSV writes one line per row followed by a TOTAL line. Amounts use two
// decimal places.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, row := range r.Rows {
		b := row.Breakdown
		record := []string{
			row.OrderID,
			row.CustomerID,
			string(row.Status),
			row.CreatedAt.UTC().Format(time.RFC3339),
			money(b.Subtotal),
			money(b.Discount),
			money(b.Delivery),
			money(b.ItemTax),
			money(b.CGST),
			money(b.SGST),
			money(b.IGST),
			money(b.GrandTotal),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	t := r.Totals
	if err := cw.Write([]string{
		"TOTAL", "", "", "",
		money(t.Subtotal),
		money(t.Discount),
		money(t.Delivery),
		money(t.ItemTax),
		money(t.CGST),
		money(t.SGST),
		money(t.IGST),
		money(t.GrandTotal),
	}); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
