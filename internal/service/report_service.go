package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/report"
)

// maxReportOrders bounds a single report run.
const maxReportOrders = 5000

// OrderLister pages through stored orders.
type OrderLister interface {
	ListOrders(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
}

// ReportService prices many orders at once for reporting.
type ReportService struct {
	orders  OrderLister
	pricing *PricingService
	logger  *logging.LoggerV2
}

// NewReportService creates a report service.
func NewReportService(orders OrderLister, pricingService *PricingService) *ReportService {
	return &ReportService{
		orders:  orders,
		pricing: pricingService,
		logger:  logging.NewLoggerV2("report-service"),
	}
}

// OrdersReport prices every order matching filter. Tax info is resolved once
// for the whole run. Limit and Offset on filter are ignored.
func (s *ReportService) OrdersReport(ctx context.Context, filter *models.OrderListFilter, shippingCost, variant string) (*report.Report, error) {
	v, err := s.pricing.ResolveVariant(variant)
	if err != nil {
		return nil, err
	}

	orders, err := s.collect(ctx, filter)
	if err != nil {
		return nil, err
	}

	var items []models.OrderLineItem
	for _, order := range orders {
		items = append(items, order.Items...)
	}

	lookup, err := s.pricing.ResolveTaxLookup(ctx, items)
	if err != nil {
		return nil, err
	}

	cost := s.pricing.ShippingCost(shippingCost)
	rows := make([]report.Row, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, report.Row{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Status:     order.Status,
			CreatedAt:  order.CreatedAt,
			Breakdown:  s.pricing.Breakdown(order, lookup, cost, v),
		})
	}

	s.logger.Info("Orders report built", logging.Fields{
		"orders":  len(rows),
		"variant": v,
	})

	return report.Build(rows, v), nil
}

func (s *ReportService) collect(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, error) {
	page := *filter
	page.Offset = 0
	page.Limit = maxListLimit

	var out []*models.Order
	for {
		orders, total, err := s.orders.ListOrders(ctx, &page)
		if err != nil {
			return nil, err
		}
		out = append(out, orders...)

		page.Offset += len(orders)
		if len(orders) == 0 || page.Offset >= total {
			break
		}
		if len(out) >= maxReportOrders {
			s.logger.Warn("Report truncated", logging.Fields{
				"limit": maxReportOrders,
				"total": total,
			})
			break
		}
	}

	return out, nil
}
