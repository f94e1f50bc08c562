package clients

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// ProductClient fetches per-product tax information from the product service.
type ProductClient interface {
	GetProductTax(ctx context.Context, productID string) (*models.ProductTaxInfo, error)
}

var _ ProductClient = (*HTTPProductClient)(nil)

// errCallerDone marks a lookup interrupted by the caller's own context.
var errCallerDone = stderrors.New("product tax lookup abandoned by caller")

// HTTPProductClient implements ProductClient using HTTP, behind a circuit breaker.
type HTTPProductClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	maxRetries int
	breaker    *gobreaker.CircuitBreaker[*models.ProductTaxInfo]
	logger     *logging.LoggerV2
}

// NewHTTPProductClient creates a new HTTP-based product client.
func NewHTTPProductClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPProductClient {
	c := &HTTPProductClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[*models.ProductTaxInfo](gobreaker.Settings{
		Name:        "product-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing product is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, errors.ErrNotFound)
		},
		IsExcluded: func(err error) bool {
			return stderrors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", logging.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return c
}

// GetProductTax retrieves the tax rate of a product. A product the service does
// not know yields errors.ErrNotFound.
func (c *HTTPProductClient) GetProductTax(ctx context.Context, productID string) (*models.ProductTaxInfo, error) {
	c.logger.Debug("Fetching product tax", logging.Fields{"product_id": productID})

	info, err := c.breaker.Execute(func() (*models.ProductTaxInfo, error) {
		info, err := backoff.Retry(ctx, func() (*models.ProductTaxInfo, error) {
			return c.fetchProductTax(ctx, productID)
		},
			backoff.WithBackOff(newBackOff()),
			backoff.WithMaxTries(uint(c.maxRetries)+1),
		)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerDone, err)
		}
		return info, err
	})
	if err != nil {
		if !stderrors.Is(err, errors.ErrNotFound) {
			c.logger.Error("Failed to fetch product tax", logging.Fields{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
		return nil, err
	}

	return info, nil
}

func (c *HTTPProductClient) fetchProductTax(ctx context.Context, productID string) (*models.ProductTaxInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v2/products/%s", c.baseURL, url.PathEscape(productID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("product %s: %w", productID, errors.ErrNotFound))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("product service returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("product service returned status %d", resp.StatusCode))
	}

	var info models.ProductTaxInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode product %s: %w", productID, err))
	}
	if info.ProductID == "" {
		info.ProductID = productID
	}

	return &info, nil
}

func (c *HTTPProductClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}
