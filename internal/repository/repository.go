package repository

import (
	"context"
	"errors"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// ErrCacheMiss is returned by caches when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// OrderRepository reads and updates persisted orders.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	// UpdateStatus applies req only while the order is still in status from.
	UpdateStatus(ctx context.Context, id string, from models.OrderStatus, req *models.UpdateOrderStatusRequest) (*models.Order, error)
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
}

// Ensure both stores implement OrderRepository
var (
	_ OrderRepository = (*PostgresOrderRepository)(nil)
	_ OrderRepository = (*MemoryOrderRepository)(nil)
)

// OrderCache defines caching operations for orders.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
}

// TaxCache stores product tax info between pricing passes.
type TaxCache interface {
	Get(ctx context.Context, productID string) (*models.ProductTaxInfo, error)
	Set(ctx context.Context, productID string, info *models.ProductTaxInfo) error
	Delete(ctx context.Context, productID string) error
}
