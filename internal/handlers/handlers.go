package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/service"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handlers holds all HTTP handlers for the order pricing service.
type Handlers struct {
	orderService   *service.OrderService
	pricingService *service.PricingService
	reportService  *service.ReportService
	checks         map[string]ReadinessCheck
	config         *config.Config
	logger         *logging.LoggerV2
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	orderService *service.OrderService,
	pricingService *service.PricingService,
	reportService *service.ReportService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		orderService:   orderService,
		pricingService: pricingService,
		reportService:  reportService,
		checks:         make(map[string]ReadinessCheck),
		config:         cfg,
		logger:         logging.NewLoggerV2("handlers"),
	}
}

// AddReadinessCheck registers a dependency probe used by GET /ready.
func (h *Handlers) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

func handleError(c *gin.Context, err error) {
	if errors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if validationErr, ok := errors.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   validationErr.Message,
			"field":   validationErr.Field,
			"details": validationErr.Details,
		})
		return
	}

	if stderrors.Is(err, errors.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
		return
	}

	logging.NewLoggerV2("handlers").Error("Unhandled error", logging.Fields{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
