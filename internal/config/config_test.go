package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.OrderStore)
	assert.Equal(t, "10000", cfg.Pricing.WholesaleThreshold)
	assert.Equal(t, "1000", cfg.Pricing.FreeDeliveryThreshold)
	assert.Equal(t, "80", cfg.Pricing.DefaultShippingCost)
	assert.Equal(t, "0.05", cfg.Pricing.ShippingTaxRate)
	assert.Equal(t, "33", cfg.Pricing.HomeStateCode)
	assert.Equal(t, "excluding_item_tax", cfg.Pricing.GrandTotalVariant)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Features.EnableOrderCaching)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PRICING_HOME_STATE_CODE", "27")
	t.Setenv("PRICING_DEFAULT_SHIPPING_COST", "120")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("FEATURE_ORDER_CACHING", "false")
	t.Setenv("REDIS_TAX_TTL_SECONDS", "60")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "27", cfg.Pricing.HomeStateCode)
	assert.Equal(t, "120", cfg.Pricing.DefaultShippingCost)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Features.EnableOrderCaching)
	assert.Equal(t, time.Minute, cfg.Redis.TaxTTL)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("FEATURE_ORDER_EVENTS", "sometimes")

	cfg := Load()

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.True(t, cfg.Features.EnableOrderEvents)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "orders", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=orders sslmode=disable", d.ConnectionString())
}
