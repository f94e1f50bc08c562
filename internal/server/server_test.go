package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/clients"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/events"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/repository"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/service"
)

type noProducts struct{}

func (noProducts) GetProductTax(ctx context.Context, productID string) (*models.ProductTaxInfo, error) {
	return &models.ProductTaxInfo{ProductID: productID}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Load()
	cfg.Logging.Format = "console"
	cfg.Features.EnableOrderCaching = false
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryOrderRepository(logging.NewLoggerV2("test"))
	orders := service.NewOrderService(repo, nil, clients.NewMockNotificationClient(), events.NoopPublisher{}, cfg)
	pricingService := service.NewPricingService(pricing.NewDefault(), orders, noProducts{}, nil, service.PricingOptions{})
	h := handlers.NewHandlers(orders, pricingService, service.NewReportService(orders, pricingService), cfg)

	return New(h, cfg)
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v2/orders", http.StatusOK},
		{http.MethodGet, "/api/v2/orders/missing", http.StatusNotFound},
		{http.MethodGet, "/api/v2/orders/missing/pricing", http.StatusNotFound},
		{http.MethodGet, "/api/v2/reports/orders", http.StatusOK},
		{http.MethodGet, "/api/v2/reports/orders.csv", http.StatusOK},
		{http.MethodGet, "/api/v1/orders", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
		})
	}
}
