package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error
	PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error
}

// Ensure KafkaPublisher implements OrderEventPublisher
var _ OrderEventPublisher = (*KafkaPublisher)(nil)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderShipped       EventType = "order.shipped"
	EventTypeOrderCancelled     EventType = "order.cancelled"
)

// OrderEvent represents an order-related event.
type OrderEvent struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	OrderID       string            `json:"order_id"`
	CustomerID    string            `json:"customer_id"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes order events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logging.LoggerV2
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.LoggerV2) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.OrdersTopic,
		logger: logger,
	}
}

// PublishOrderStatusChanged publishes an order status change event. Orders that
// just shipped also get an order.shipped event.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	p.logger.Debug("Publishing order status changed event", logging.Fields{
		"order_id":        order.ID,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	payload := struct {
		Order          *models.Order      `json:"order"`
		PreviousStatus models.OrderStatus `json:"previous_status"`
		NewStatus      models.OrderStatus `json:"new_status"`
	}{
		Order:          order,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	events := []*OrderEvent{p.createEvent(ctx, EventTypeOrderStatusChanged, order, data)}
	if order.Status == models.OrderStatusShipped {
		events = append(events, p.createEvent(ctx, EventTypeOrderShipped, order, data))
	}
	return p.publish(ctx, events...)
}

// PublishOrderCancelled publishes an order cancellation event.
func (p *KafkaPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	p.logger.Debug("Publishing order cancelled event", logging.Fields{
		"order_id": order.ID,
		"reason":   reason,
	})

	payload := struct {
		Order  *models.Order `json:"order"`
		Reason string        `json:"reason"`
	}{
		Order:  order,
		Reason: reason,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.publish(ctx, p.createEvent(ctx, EventTypeOrderCancelled, order, data))
}

func (p *KafkaPublisher) createEvent(ctx context.Context, eventType EventType, order *models.Order, data []byte) *OrderEvent {
	return &OrderEvent{
		ID:            generateEventID(),
		Type:          eventType,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Data:          data,
		Metadata:      map[string]string{"status": string(order.Status)},
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.RequestIDFromContext(ctx),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, events ...*OrderEvent) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		eventData, err := json.Marshal(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.OrderID),
			Value: eventData,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.Type)},
				{Key: "event_id", Value: []byte(event.ID)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("Failed to publish events", logging.Fields{
			"event_type": events[0].Type,
			"order_id":   events[0].OrderID,
			"count":      len(events),
			"error":      err.Error(),
		})
		return err
	}

	for _, event := range events {
		p.logger.Info("Event published", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
		})
	}

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

func generateEventID() string {
	return "evt_" + uuid.NewString()
}

// NoopPublisher drops every event. It stands in when order events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	return nil
}

func (NoopPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	return nil
}

// MockEventPublisher is a mock implementation for testing.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*OrderEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]*OrderEvent, 0),
	}
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, &OrderEvent{
		Type:     EventTypeOrderStatusChanged,
		OrderID:  order.ID,
		Metadata: map[string]string{"previous_status": string(previousStatus), "status": string(order.Status)},
	})
	return nil
}

func (m *MockEventPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, &OrderEvent{
		Type:     EventTypeOrderCancelled,
		OrderID:  order.ID,
		Metadata: map[string]string{"reason": reason},
	})
	return nil
}
