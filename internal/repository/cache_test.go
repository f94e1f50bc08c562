package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisOrderCache_SetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisOrderCache(client, time.Minute)
	ctx := context.Background()

	order := &models.Order{
		ID:           "ord_1",
		GSTStateCode: "33",
		Status:       models.OrderStatusOrdered,
		Items: []models.OrderLineItem{
			{ProductID: "p1", Quantity: 3, Price: models.NewAmount(200), RPrice: models.NewAmount(200), RSalesPrice: models.NewAmount(180)},
		},
	}
	require.NoError(t, cache.Set(ctx, order))
	assert.True(t, mr.Exists("order:ord_1"))
	assert.Equal(t, time.Minute, mr.TTL("order:ord_1"))

	got, err := cache.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "33", got.GSTStateCode)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.NewFromInt(180).Equal(got.Items[0].RSalesPrice.Decimal))
	assert.Equal(t, models.Quantity(3), got.Items[0].Quantity)
}

func TestRedisOrderCache_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisOrderCache(client, 0)

	got, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisOrderCache_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisOrderCache(client, 0)
	mr.Set("order:bad", "{not json")

	_, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisOrderCache_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisOrderCache(client, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.Order{ID: "ord_2"}))
	require.NoError(t, cache.Delete(ctx, "ord_2"))
	assert.False(t, mr.Exists("order:ord_2"))
}

func TestRedisTaxCache_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisTaxCache(client, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "p1", &models.ProductTaxInfo{ProductID: "p1", TaxValue: models.NewAmount(12)}))
	assert.Equal(t, defaultTaxTTL, mr.TTL("product_tax:p1"))

	info, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(info.TaxValue.Decimal))

	require.NoError(t, cache.Delete(ctx, "p1"))
	_, err = cache.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisTaxCache_ReadsWrappedDecimal(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisTaxCache(client, 0)
	mr.Set("product_tax:p9", `{"productID":"p9","taxValue":{"$numberDecimal":"18"}}`)

	info, err := cache.Get(context.Background(), "p9")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(18).Equal(info.TaxValue.Decimal))
}

func TestRedisTaxCache_KeysOnRequestedID(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisTaxCache(client, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "sku 7", &models.ProductTaxInfo{ProductID: "SKU-7", TaxValue: models.NewAmount(5)}))
	assert.True(t, mr.Exists("product_tax:sku 7"))
	assert.False(t, mr.Exists("product_tax:SKU-7"))

	info, err := cache.Get(ctx, "sku 7")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(info.TaxValue.Decimal))
}
