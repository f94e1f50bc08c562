package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

func newMemoryRepo() *MemoryOrderRepository {
	return NewMemoryOrderRepository(logging.NewLoggerV2("test"))
}

func TestMemoryOrderRepository_CreateAndGet(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Order{CustomerID: "cust_1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.OrderStatusOrdered, created.Status)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cust_1", got.CustomerID)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMemoryOrderRepository_ReturnsCopies(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Order{
		ID:    "ord_1",
		Items: []models.OrderLineItem{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	created.Items[0].Quantity = 99

	got, err := repo.GetByID(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, models.Quantity(1), got.Items[0].Quantity)
}

func TestMemoryOrderRepository_UpdateStatus(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	_, err := repo.Create(ctx, &models.Order{ID: "ord_1"})
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, "ord_1", models.OrderStatusOrdered, &models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped, Notes: "via courier"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.NotNil(t, updated.ShippedAt)
	assert.Equal(t, "via courier", updated.Notes)

	_, err = repo.UpdateStatus(ctx, "missing", models.OrderStatusOrdered, &models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMemoryOrderRepository_UpdateStatus_ConcurrentTransitions(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	_, err := repo.Create(ctx, &models.Order{ID: "ord_r", Status: models.OrderStatusProcessing})
	require.NoError(t, err)

	targets := []models.OrderStatus{models.OrderStatusCancelled, models.OrderStatusShipped}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.UpdateStatus(ctx, "ord_r", models.OrderStatusProcessing, &models.UpdateOrderStatusRequest{Status: to})
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			winner = i
			continue
		}
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	}
	require.NotEqual(t, -1, winner)
	assert.NotEqual(t, errs[0] == nil, errs[1] == nil, "exactly one transition applies")

	got, err := repo.GetByID(ctx, "ord_r")
	require.NoError(t, err)
	assert.Equal(t, targets[winner], got.Status)
}

func TestMemoryOrderRepository_UpdateStatus_StaleStatus(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	_, err := repo.Create(ctx, &models.Order{ID: "ord_s", Status: models.OrderStatusCancelled})
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, "ord_s", models.OrderStatusProcessing, &models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	var transition *errors.TransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, "cancelled", transition.From)

	got, err := repo.GetByID(ctx, "ord_s")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Nil(t, got.ShippedAt)
}

func TestMemoryOrderRepository_List(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, cust := range []string{"c1", "c2", "c1", "c1"} {
		_, err := repo.Create(ctx, &models.Order{
			ID:         "ord_" + string(rune('a'+i)),
			CustomerID: cust,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.UpdateStatus(ctx, "ord_c", models.OrderStatusOrdered, &models.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled})
	require.NoError(t, err)

	orders, total, err := repo.List(ctx, &models.OrderListFilter{CustomerID: "c1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, orders, 2)
	assert.Equal(t, "ord_d", orders[0].ID)
	assert.Equal(t, "ord_c", orders[1].ID)

	status := models.OrderStatusCancelled
	orders, total, err = repo.List(ctx, &models.OrderListFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "ord_c", orders[0].ID)

	start := base.Add(90 * time.Minute)
	orders, _, err = repo.List(ctx, &models.OrderListFilter{StartDate: &start, Offset: 1})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord_c", orders[0].ID)
}

func TestMemoryOrderRepository_LoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "ord_seed", "gstStateCode": "33", "status": "processing",
		 "items": [{"productID": "p1", "quantity": "2", "price": {"$numberDecimal": "100"}}]}
	]`), 0o600))

	repo := newMemoryRepo()
	n, err := repo.LoadSeedFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(context.Background(), "ord_seed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.Equal(t, models.Quantity(2), got.Items[0].Quantity)
}
