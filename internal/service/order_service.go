package service

import (
	"context"
	"sync"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/clients"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/events"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderService handles order business logic.
type OrderService struct {
	orderRepo          repository.OrderRepository
	orderCache         repository.OrderCache
	notificationClient clients.NotificationSender
	eventPublisher     events.OrderEventPublisher
	config             *config.Config
	logger             *logging.LoggerV2

	notifications sync.WaitGroup
}

// NewOrderService creates a new order service. orderCache may be nil when
// order caching is disabled.
func NewOrderService(
	orderRepo repository.OrderRepository,
	orderCache repository.OrderCache,
	notificationClient clients.NotificationSender,
	eventPublisher events.OrderEventPublisher,
	cfg *config.Config,
) *OrderService {
	if eventPublisher == nil {
		eventPublisher = events.NoopPublisher{}
	}
	return &OrderService{
		orderRepo:          orderRepo,
		orderCache:         orderCache,
		notificationClient: notificationClient,
		eventPublisher:     eventPublisher,
		config:             cfg,
		logger:             logging.NewLoggerV2("order-service"),
	}
}

func (s *OrderService) cachingEnabled() bool {
	return s.config.Features.EnableOrderCaching && s.orderCache != nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	if s.cachingEnabled() {
		if order, err := s.orderCache.Get(ctx, id); err == nil && order != nil {
			s.logger.Debug("Order found in cache", logging.Fields{"order_id": id})
			return order, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled() {
		if err := s.orderCache.Set(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

// ListOrders retrieves orders based on filter criteria.
func (s *OrderService) ListOrders(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	if err := ValidateOrderListFilter(filter); err != nil {
		return nil, 0, err
	}

	s.logger.Debug("Listing orders", logging.Fields{
		"customer_id": filter.CustomerID,
		"status":      filter.Status,
	})

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	return s.orderRepo.List(ctx, filter)
}

// UpdateOrderStatus moves an order along its lifecycle. Reaching shipped
// notifies the customer over SMS and WhatsApp in the background.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	if err := ValidateUpdateOrderStatusRequest(req); err != nil {
		return nil, err
	}
	req.Notes = SanitizeOrderNotes(req.Notes)

	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": req.Status,
	})

	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(req.Status) {
		return nil, &errors.TransitionError{From: string(current.Status), To: string(req.Status)}
	}

	previousStatus := current.Status

	order, err := s.orderRepo.UpdateStatus(ctx, id, previousStatus, req)
	if err != nil {
		return nil, err
	}
	metrics.IncStatusTransition(string(previousStatus), string(order.Status))

	s.invalidate(ctx, id)

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order, previousStatus); err != nil {
			s.logger.Error("Failed to publish status change event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if order.Status == models.OrderStatusShipped && s.config.Features.EnableNotifications {
		s.notifications.Add(1)
		go func() {
			defer s.notifications.Done()
			s.sendShippedNotification(context.WithoutCancel(ctx), order)
		}()
	}

	return order, nil
}

// CancelOrder cancels an order that has not reached a terminal state.
func (s *OrderService) CancelOrder(ctx context.Context, id string, reason string) (*models.Order, error) {
	if err := ValidateCancellationReason(reason); err != nil {
		return nil, err
	}
	reason = SanitizeOrderNotes(reason)

	s.logger.Info("Cancelling order", logging.Fields{
		"order_id": id,
		"reason":   reason,
	})

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.CanCancel() {
		return nil, &errors.TransitionError{From: string(order.Status), To: string(models.OrderStatusCancelled)}
	}

	previousStatus := order.Status
	req := &models.UpdateOrderStatusRequest{
		Status: models.OrderStatusCancelled,
		Notes:  reason,
	}

	order, err = s.orderRepo.UpdateStatus(ctx, id, previousStatus, req)
	if err != nil {
		return nil, err
	}
	metrics.IncStatusTransition(string(previousStatus), string(order.Status))

	s.invalidate(ctx, id)

	if s.config.Features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderCancelled(ctx, order, reason); err != nil {
			s.logger.Error("Failed to publish order cancelled event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

// WaitForNotifications blocks until background notifications have finished.
func (s *OrderService) WaitForNotifications() {
	s.notifications.Wait()
}

func (s *OrderService) invalidate(ctx context.Context, id string) {
	if !s.cachingEnabled() {
		return
	}
	if err := s.orderCache.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate cached order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
	}
}

func (s *OrderService) sendShippedNotification(ctx context.Context, order *models.Order) {
	if order.CustomerPhone == "" {
		s.logger.Warn("Order shipped without a customer phone; skipping notification", logging.Fields{
			"order_id": order.ID,
		})
		return
	}

	for _, channel := range []string{clients.ChannelSMS, clients.ChannelWhatsApp} {
		n := &clients.Notification{
			Channel:    channel,
			To:         order.CustomerPhone,
			Template:   clients.TemplateOrderShipped,
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Data: map[string]string{
				"order_id": order.ID,
				"status":   string(order.Status),
			},
		}

		if err := s.notificationClient.Send(ctx, n); err != nil {
			metrics.IncNotification(channel, "failed")
			s.logger.Error("Failed to send shipped notification", logging.Fields{
				"order_id": order.ID,
				"channel":  channel,
				"error":    err.Error(),
			})
			continue
		}
		metrics.IncNotification(channel, "sent")
	}
}
