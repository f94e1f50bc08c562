package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

const (
	orderKeyPrefix      = "order:"
	productTaxKeyPrefix = "product_tax:"
	defaultCacheTTL     = 5 * time.Minute
	defaultTaxTTL       = time.Hour
)

// NewRedisClient creates a client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisOrderCache implements OrderCache using Redis.
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.LoggerV2
}

// NewRedisOrderCache creates a new Redis-based order cache.
func NewRedisOrderCache(client *redis.Client, ttl time.Duration) *RedisOrderCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLoggerV2("order-cache"),
	}
}

// Get retrieves an order from cache, returning ErrCacheMiss when absent.
func (c *RedisOrderCache) Get(ctx context.Context, id string) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id).Bytes()
	if stderrors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", logging.Fields{"order_id": id})
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order failed: %w", err)
	}

	c.logger.Debug("Cache hit", logging.Fields{"order_id": id})
	return &order, nil
}

// Set stores an order in cache.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	if err := c.client.Set(ctx, orderKeyPrefix+order.ID, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return fmt.Errorf("redis set failed: %w", err)
	}

	c.logger.Debug("Order cached", logging.Fields{
		"order_id": order.ID,
		"ttl":      c.ttl.String(),
	})
	return nil
}

// Delete removes an order from cache.
func (c *RedisOrderCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, orderKeyPrefix+id).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// RedisTaxCache implements TaxCache using Redis.
type RedisTaxCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTaxCache creates a product tax cache.
func NewRedisTaxCache(client *redis.Client, ttl time.Duration) *RedisTaxCache {
	if ttl == 0 {
		ttl = defaultTaxTTL
	}
	return &RedisTaxCache{client: client, ttl: ttl}
}

func (c *RedisTaxCache) Get(ctx context.Context, productID string) (*models.ProductTaxInfo, error) {
	data, err := c.client.Get(ctx, productTaxKeyPrefix+productID).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var info models.ProductTaxInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal product tax failed: %w", err)
	}
	return &info, nil
}

// Set stores info under the product ID it was requested with.
func (c *RedisTaxCache) Set(ctx context.Context, productID string, info *models.ProductTaxInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal product tax failed: %w", err)
	}
	if err := c.client.Set(ctx, productTaxKeyPrefix+productID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisTaxCache) Delete(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, productTaxKeyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
