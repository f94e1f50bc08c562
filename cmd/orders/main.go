package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/clients"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/config"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/events"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/repository"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/server"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	if err := logging.Configure(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	logger := logging.NewLoggerV2("order-pricing")
	logging.Infof("Starting order-pricing on port %d", cfg.Server.Port)

	rules, err := pricing.RulesFromConfig(cfg.Pricing)
	if err != nil {
		logger.Fatal("Invalid pricing configuration", logging.Fields{"error": err.Error()})
	}
	defaultVariant, err := pricing.ParseVariant(cfg.Pricing.GrandTotalVariant, pricing.VariantExcludingItemTax)
	if err != nil {
		logger.Fatal("Invalid pricing configuration", logging.Fields{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.ReadinessCheck{}

	orderRepo, db, err := initOrderStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialise order store", logging.Fields{
			"store": cfg.OrderStore,
			"error": err.Error(),
		})
	}
	if db != nil {
		defer db.Close()
		checks["database"] = db.PingContext
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	checks["redis"] = func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable; caches will miss until it recovers", logging.Fields{"error": err.Error()})
	}

	var orderCache repository.OrderCache
	if cfg.Features.EnableOrderCaching {
		orderCache = repository.NewRedisOrderCache(redisClient, cfg.Redis.TTL)
	}
	taxCache := repository.NewRedisTaxCache(redisClient, cfg.Redis.TaxTTL)

	productClient := clients.NewHTTPProductClient(cfg.ProductService, logging.NewLoggerV2("product-client"))
	notificationClient := clients.NewHTTPNotificationClient(cfg.NotificationService, logging.NewLoggerV2("notification-client"))

	var eventPublisher events.OrderEventPublisher = events.NoopPublisher{}
	if cfg.Features.EnableOrderEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logging.NewLoggerV2("event-publisher"))
		defer kafkaPublisher.Close()
		eventPublisher = kafkaPublisher
	}

	orderService := service.NewOrderService(orderRepo, orderCache, notificationClient, eventPublisher, cfg)
	pricingService := service.NewPricingService(pricing.New(rules), orderService, productClient, taxCache, service.PricingOptions{
		DefaultShippingCost:  cfg.Pricing.DefaultShippingCost,
		DefaultVariant:       defaultVariant,
		TaxLookupConcurrency: cfg.Pricing.TaxLookupConcurrency,
	})
	reportService := service.NewReportService(orderService, pricingService)

	h := handlers.NewHandlers(orderService, pricingService, reportService, cfg)
	for name, check := range checks {
		h.AddReadinessCheck(name, check)
	}

	srv := server.New(h, cfg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                cfg.Server.Port,
			"order_store":         cfg.OrderStore,
			"grand_total_variant": defaultVariant,
			"enable_order_events": cfg.Features.EnableOrderEvents,
		})
		if err := srv.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var eventConsumer *events.KafkaConsumer
	if cfg.Features.EnableTaxConsumer {
		eventConsumer = events.NewKafkaConsumer(cfg.Kafka, pricingService, logging.NewLoggerV2("event-consumer"))
		go func() {
			if err := eventConsumer.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if eventConsumer != nil {
		eventConsumer.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	orderService.WaitForNotifications()

	logger.Info("Server exited")
}

func initOrderStore(ctx context.Context, cfg *config.Config) (repository.OrderRepository, *sql.DB, error) {
	if cfg.OrderStore == "memory" {
		repo := repository.NewMemoryOrderRepository(logging.NewLoggerV2("memory-repository"))
		if cfg.OrderSeedFile != "" {
			if _, err := repo.LoadSeedFile(ctx, cfg.OrderSeedFile); err != nil {
				return nil, nil, err
			}
		}
		return repo, nil, nil
	}

	db, err := initDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := repository.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repository.NewPostgresOrderRepository(db, logging.NewLoggerV2("postgres-repository")), db, nil
}

func initDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}
