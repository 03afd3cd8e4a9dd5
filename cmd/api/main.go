package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centrelabs/backoffice/api/routes"
	"github.com/centrelabs/backoffice/internal/audit"
	"github.com/centrelabs/backoffice/internal/carts"
	"github.com/centrelabs/backoffice/internal/customers"
	"github.com/centrelabs/backoffice/internal/inventory"
	"github.com/centrelabs/backoffice/internal/notifications"
	"github.com/centrelabs/backoffice/internal/orders"
	"github.com/centrelabs/backoffice/internal/products"
	"github.com/centrelabs/backoffice/internal/promotions"
	"github.com/centrelabs/backoffice/internal/rates"
	"github.com/centrelabs/backoffice/internal/staff"
	"github.com/centrelabs/backoffice/internal/warehouses"
	"github.com/centrelabs/backoffice/pkg/config"
	"github.com/centrelabs/backoffice/pkg/db"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/metrics"
	"github.com/centrelabs/backoffice/pkg/migrate"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gdb := dbClient.DB()

	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	customerRepo := customers.NewRepository(gdb)
	customerSvc, err := customers.NewService(customerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(gdb)
	productSvc, err := products.NewService(productRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	promotionSvc, err := promotions.NewService(promotions.NewRepository(gdb), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	cartSvc, err := carts.NewService(gdb, customerRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create carts service", err)
		os.Exit(1)
	}

	rateSvc, err := rates.NewService(gdb)
	if err != nil {
		logg.Error(context.Background(), "failed to create rates service", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(gdb)
	selector, err := warehouses.NewSelector(warehouses.NewRepository(gdb), inventoryRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse selector", err)
		os.Exit(1)
	}

	ledger, err := inventory.NewLedger(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory ledger", err)
		os.Exit(1)
	}

	auditSvc, err := audit.NewService(gdb, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(gdb),
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Customers:    customerSvc,
		Spending:     customerRepo,
		Catalog:      productSvc,
		Coupons:      promotionSvc,
		Selector:     selector,
		Ledger:       ledger,
		Rates:        rateSvc,
		Audit:        auditSvc,
		Log:          logg,
		NumberPrefix: cfg.Orders.NumberPrefix,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationSvc, err := notifications.NewService(notifications.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	staffSvc := staff.NewService(staff.NewRepository(gdb), cfg.JWT)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	handler := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Orders:         orderSvc,
		Products:       productSvc,
		Promotions:     promotionSvc,
		Carts:          cartSvc,
		Customers:      customerSvc,
		Rates:          rateSvc,
		Selector:       selector,
		Notifications:  notificationSvc,
		Staff:          staffSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
		os.Exit(1)
	}
}
