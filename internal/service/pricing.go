package service

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/clients"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/repository"
)

const (
	defaultTaxLookupConcurrency = 8
	sharedFetchTimeout          = 30 * time.Second
)

// OrderReader loads a single order.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// PricingService resolves product tax and runs the pricing engine.
type PricingService struct {
	engine         *pricing.Engine
	orders         OrderReader
	products       clients.ProductClient
	taxCache       repository.TaxCache
	defaultVariant pricing.Variant
	defaultCost    string
	concurrency    int
	group          singleflight.Group
	logger         *logging.LoggerV2
}

// PricingOptions carries the caller-facing defaults of a PricingService.
type PricingOptions struct {
	// DefaultShippingCost is used when a request carries no shipping cost.
	DefaultShippingCost  string
	DefaultVariant       pricing.Variant
	TaxLookupConcurrency int
}

// NewPricingService creates a pricing service. taxCache may be nil.
func NewPricingService(
	engine *pricing.Engine,
	orders OrderReader,
	products clients.ProductClient,
	taxCache repository.TaxCache,
	opts PricingOptions,
) *PricingService {
	if opts.DefaultVariant == "" {
		opts.DefaultVariant = pricing.VariantExcludingItemTax
	}
	if opts.TaxLookupConcurrency <= 0 {
		opts.TaxLookupConcurrency = defaultTaxLookupConcurrency
	}

	return &PricingService{
		engine:         engine,
		orders:         orders,
		products:       products,
		taxCache:       taxCache,
		defaultVariant: opts.DefaultVariant,
		defaultCost:    opts.DefaultShippingCost,
		concurrency:    opts.TaxLookupConcurrency,
		logger:         logging.NewLoggerV2("pricing-service"),
	}
}

// ResolveTaxLookup fetches tax info once per distinct product in items.
// Products that cannot be resolved are left out, so they price at 0% tax.
// Only context cancellation is returned as an error.
func (s *PricingService) ResolveTaxLookup(ctx context.Context, items []models.OrderLineItem) (models.TaxLookup, error) {
	ids := models.DistinctProductIDs(items)
	lookup := make(models.TaxLookup, len(ids))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			info, ok := s.productTax(gctx, id)
			if !ok {
				return nil
			}
			mu.Lock()
			lookup[id] = *info
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if missing := lookup.Missing(ids); len(missing) > 0 {
		s.logger.Warn("Pricing without tax info for some products", logging.Fields{
			"product_ids": missing,
		})
	}

	return lookup, nil
}

func (s *PricingService) productTax(ctx context.Context, productID string) (*models.ProductTaxInfo, bool) {
	if s.taxCache != nil {
		info, err := s.taxCache.Get(ctx, productID)
		if err == nil {
			metrics.IncTaxLookup(metrics.TaxLookupCacheHit)
			return info, true
		}
		if !stderrors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Tax cache unavailable", logging.Fields{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
	}

	// The fetch is shared by every caller waiting on productID, so it must
	// outlive any single caller's context.
	ch := s.group.DoChan(productID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		info, err := s.products.GetProductTax(fetchCtx, productID)
		if err != nil {
			return nil, err
		}
		if s.taxCache != nil {
			if err := s.taxCache.Set(fetchCtx, productID, info); err != nil {
				s.logger.Warn("Failed to cache product tax", logging.Fields{
					"product_id": productID,
					"error":      err.Error(),
				})
			}
		}
		return info, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, false
	case res = <-ch:
	}

	v, err := res.Val, res.Err
	if err != nil {
		if errors.IsNotFound(err) {
			metrics.IncTaxLookup(metrics.TaxLookupMissing)
		} else {
			metrics.IncTaxLookup(metrics.TaxLookupFailed)
			s.logger.Warn("Product tax lookup failed", logging.Fields{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
		return nil, false
	}

	metrics.IncTaxLookup(metrics.TaxLookupFetched)
	return v.(*models.ProductTaxInfo), true
}

// InvalidateProductTax drops the cached tax info of a product.
func (s *PricingService) InvalidateProductTax(ctx context.Context, productID string) error {
	s.group.Forget(productID)
	if s.taxCache == nil {
		return nil
	}
	return s.taxCache.Delete(ctx, productID)
}

// OrderBreakdown prices a stored order.
func (s *PricingService) OrderBreakdown(ctx context.Context, orderID, shippingCost, variant string) (*pricing.Breakdown, error) {
	v, err := s.ResolveVariant(variant)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lookup, err := s.ResolveTaxLookup(ctx, order.Items)
	if err != nil {
		return nil, err
	}

	b := s.Breakdown(order, lookup, s.ShippingCost(shippingCost), v)
	return &b, nil
}

// Quote prices an order that has not been stored.
func (s *PricingService) Quote(ctx context.Context, order *models.Order, shippingCost, variant string) (*pricing.Breakdown, error) {
	if err := ValidateQuoteOrder(order); err != nil {
		return nil, err
	}

	v, err := s.ResolveVariant(variant)
	if err != nil {
		return nil, err
	}

	lookup, err := s.ResolveTaxLookup(ctx, order.Items)
	if err != nil {
		return nil, err
	}

	b := s.Breakdown(order, lookup, s.ShippingCost(shippingCost), v)
	return &b, nil
}

// Breakdown runs the engine against an already resolved lookup.
func (s *PricingService) Breakdown(order *models.Order, lookup models.TaxLookup, shippingCost decimal.Decimal, variant pricing.Variant) pricing.Breakdown {
	b := s.engine.Compute(order, lookup, shippingCost, variant)
	metrics.IncBreakdown(string(b.Variant))
	return b
}

// ShippingCost resolves a raw shipping cost, falling back to the configured
// default and then to the engine rules.
func (s *PricingService) ShippingCost(raw string) decimal.Decimal {
	if raw == "" {
		raw = s.defaultCost
	}
	return s.engine.ResolveShippingCost(raw)
}

// ResolveVariant parses a variant name. Empty selects the configured default.
func (s *PricingService) ResolveVariant(name string) (pricing.Variant, error) {
	v, err := pricing.ParseVariant(name, s.defaultVariant)
	if err != nil {
		return "", errors.NewValidationError("variant", err.Error())
	}
	return v, nil
}
