package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/printdesk/printdesk-backend/api/routes"
	"github.com/printdesk/printdesk-backend/internal/cart"
	"github.com/printdesk/printdesk-backend/internal/catalog"
	"github.com/printdesk/printdesk-backend/internal/estimates"
	"github.com/printdesk/printdesk-backend/internal/invoices"
	"github.com/printdesk/printdesk-backend/internal/offers"
	"github.com/printdesk/printdesk-backend/internal/orders"
	"github.com/printdesk/printdesk-backend/pkg/config"
	"github.com/printdesk/printdesk-backend/pkg/db"
	"github.com/printdesk/printdesk-backend/pkg/logger"
	"github.com/printdesk/printdesk-backend/pkg/metrics"
	"github.com/printdesk/printdesk-backend/pkg/migrate"
	"github.com/printdesk/printdesk-backend/pkg/redis"
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	offersSvc, err := offers.NewService(offers.NewRepository(gormDB), redisClient, cfg.Offers.UsageSnapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}

	cartSvc, err := cart.NewService(cart.NewRepository(gormDB), catalogSvc, offersSvc, dbClient, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(gormDB), offersSvc, dbClient, catalogSvc, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	estimatesSvc, err := estimates.NewService(estimates.NewRepository(gormDB), catalogSvc, dbClient, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create estimates service", err)
		os.Exit(1)
	}

	invoicesSvc, err := invoices.NewService(invoices.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			HTTPMetrics: httpMetrics,
			Catalog:     catalogSvc,
			Cart:        cartSvc,
			Orders:      ordersSvc,
			Estimates:   estimatesSvc,
			Invoices:    invoicesSvc,
			Offers:      offersSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
