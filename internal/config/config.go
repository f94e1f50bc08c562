package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server              ServerConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Kafka               KafkaConfig
	ProductService      ServiceConfig
	NotificationService ServiceConfig
	Pricing             PricingConfig
	Features            FeatureFlags
	Logging             LoggingConfig
	// OrderStore selects the order repository: "postgres" or "memory".
	OrderStore string
	// OrderSeedFile is a JSON array of orders loaded into the memory store.
	OrderSeedFile string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	// TaxTTL bounds how long a product tax entry may be served from cache.
	TaxTTL time.Duration
}

type KafkaConfig struct {
	Brokers            []string
	OrdersTopic        string
	ProductEventsTopic string
	ConsumerGroup      string
}

type ServiceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	APIKey     string
	MaxRetries int
}

// PricingConfig carries the business constants of the pricing engine.
// Amounts are kept as strings and parsed by the pricing package.
type PricingConfig struct {
	WholesaleThreshold    string
	FreeDeliveryThreshold string
	DefaultShippingCost   string
	ShippingTaxRate       string
	HomeStateCode         string
	GrandTotalVariant     string
	// TaxLookupConcurrency bounds parallel product tax fetches per pass.
	TaxLookupConcurrency int
}

type FeatureFlags struct {
	EnableOrderCaching  bool
	EnableOrderEvents   bool
	EnableNotifications bool
	EnableTaxConsumer   bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8082),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_orders"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 300)) * time.Second,
			TaxTTL:   time.Duration(getEnvInt("REDIS_TAX_TTL_SECONDS", 3600)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:            getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:        getEnvString("KAFKA_ORDERS_TOPIC", "orders"),
			ProductEventsTopic: getEnvString("KAFKA_PRODUCT_EVENTS_TOPIC", "products"),
			ConsumerGroup:      getEnvString("KAFKA_CONSUMER_GROUP", "order-pricing"),
		},
		ProductService: ServiceConfig{
			BaseURL:    getEnvString("PRODUCT_SERVICE_URL", "http://localhost:8081"),
			Timeout:    time.Duration(getEnvInt("PRODUCT_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:     getEnvString("PRODUCT_SERVICE_API_KEY", ""),
			MaxRetries: getEnvInt("PRODUCT_SERVICE_MAX_RETRIES", 2),
		},
		NotificationService: ServiceConfig{
			BaseURL: getEnvString("NOTIFICATION_SERVICE_URL", "http://localhost:8085"),
			Timeout: time.Duration(getEnvInt("NOTIFICATION_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("NOTIFICATION_SERVICE_API_KEY", ""),
		},
		Pricing: PricingConfig{
			WholesaleThreshold:    getEnvString("PRICING_WHOLESALE_THRESHOLD", "10000"),
			FreeDeliveryThreshold: getEnvString("PRICING_FREE_DELIVERY_THRESHOLD", "1000"),
			DefaultShippingCost:   getEnvString("PRICING_DEFAULT_SHIPPING_COST", "80"),
			ShippingTaxRate:       getEnvString("PRICING_SHIPPING_TAX_RATE", "0.05"),
			HomeStateCode:         getEnvString("PRICING_HOME_STATE_CODE", "33"),
			GrandTotalVariant:     getEnvString("PRICING_GRAND_TOTAL_VARIANT", "excluding_item_tax"),
			TaxLookupConcurrency:  getEnvInt("PRICING_TAX_LOOKUP_CONCURRENCY", 8),
		},
		Features: FeatureFlags{
			EnableOrderCaching:  getEnvBool("FEATURE_ORDER_CACHING", true),
			EnableOrderEvents:   getEnvBool("FEATURE_ORDER_EVENTS", true),
			EnableNotifications: getEnvBool("FEATURE_NOTIFICATIONS", true),
			EnableTaxConsumer:   getEnvBool("FEATURE_TAX_CONSUMER", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		OrderStore:    getEnvString("ORDER_STORE", "postgres"),
		OrderSeedFile: getEnvString("ORDER_SEED_FILE", ""),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
