package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
)

// ProductEventType represents the type of product catalogue event.
type ProductEventType string

const (
	ProductEventUpdated    ProductEventType = "product.updated"
	ProductEventTaxUpdated ProductEventType = "product.tax_updated"
	ProductEventDeleted    ProductEventType = "product.deleted"
)

// ProductEvent represents a product catalogue change.
type ProductEvent struct {
	ID        string           `json:"id"`
	Type      ProductEventType `json:"type"`
	ProductID string           `json:"product_id"`
	Data      json.RawMessage  `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

// TaxInvalidator drops cached tax info for a product.
type TaxInvalidator interface {
	InvalidateProductTax(ctx context.Context, productID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes product events and keeps cached tax info fresh.
type KafkaConsumer struct {
	reader      messageReader
	invalidator TaxInvalidator
	logger      *logging.LoggerV2
	stopCh      chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, invalidator TaxInvalidator, logger *logging.LoggerV2) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ProductEventsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newKafkaConsumer(reader, invalidator, logger)
}

func newKafkaConsumer(reader messageReader, invalidator TaxInvalidator, logger *logging.LoggerV2) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		invalidator: invalidator,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start begins consuming events. It returns when ctx is done or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					c.logger.Info("Kafka consumer stopped")
					return nil
				default:
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event ProductEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}
	if event.ProductID == "" {
		event.ProductID = string(msg.Key)
	}

	switch event.Type {
	case ProductEventUpdated, ProductEventTaxUpdated, ProductEventDeleted:
		c.handleProductChanged(ctx, &event)
	default:
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": event.Type})
	}
}

func (c *KafkaConsumer) handleProductChanged(ctx context.Context, event *ProductEvent) {
	if event.ProductID == "" {
		c.logger.Warn("Product event without product ID", logging.Fields{"event_id": event.ID})
		return
	}

	c.logger.Info("Invalidating cached product tax", logging.Fields{
		"product_id": event.ProductID,
		"event_type": event.Type,
	})

	if err := c.invalidator.InvalidateProductTax(ctx, event.ProductID); err != nil {
		c.logger.Error("Failed to invalidate product tax", logging.Fields{
			"product_id": event.ProductID,
			"error":      err.Error(),
		})
	}
}
