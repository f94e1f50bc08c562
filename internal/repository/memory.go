package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

// MemoryOrderRepository is a map-backed OrderRepository with no durability.
// It is used for local runs and tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	logger *logging.LoggerV2
}

// NewMemoryOrderRepository creates an empty in-memory repository.
func NewMemoryOrderRepository(logger *logging.LoggerV2) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*models.Order),
		logger: logger,
	}
}

// LoadSeedFile reads a JSON array of orders and stores each of them.
func (r *MemoryOrderRepository) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var orders []*models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	for _, order := range orders {
		if _, err := r.Create(ctx, order); err != nil {
			return 0, err
		}
	}

	r.logger.Info("Seed orders loaded", logging.Fields{"path": path, "count": len(orders)})
	return len(orders), nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneOrder(order)
	if stored.ID == "" {
		stored.ID = generateOrderID()
	}
	if stored.Status == "" {
		stored.Status = models.OrderStatusOrdered
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.orders[stored.ID] = stored
	return cloneOrder(stored), nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, from models.OrderStatus, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if order.Status != from {
		return nil, &errors.TransitionError{From: string(order.Status), To: string(req.Status)}
	}

	now := time.Now().UTC()
	order.Status = req.Status
	order.UpdatedAt = now
	if req.Notes != "" {
		order.Notes = req.Notes
	}
	switch req.Status {
	case models.OrderStatusShipped:
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	}

	return cloneOrder(order), nil
}

func (r *MemoryOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if matches(order, filter) {
			matched = append(matched, order)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]*models.Order, 0, end-start)
	for _, order := range matched[start:end] {
		page = append(page, cloneOrder(order))
	}
	return page, total, nil
}

func matches(order *models.Order, filter *models.OrderListFilter) bool {
	if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
		return false
	}
	if filter.Status != nil && order.Status != *filter.Status {
		return false
	}
	if filter.StartDate != nil && order.CreatedAt.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && order.CreatedAt.After(*filter.EndDate) {
		return false
	}
	return true
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderLineItem(nil), o.Items...)
	c.AppliedCoupons = append([]models.AppliedCoupon(nil), o.AppliedCoupons...)
	if o.ShippedAt != nil {
		t := *o.ShippedAt
		c.ShippedAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}
