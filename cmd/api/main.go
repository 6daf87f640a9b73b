package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/arcay3dlabs/storefront/api/controllers"
	"github.com/arcay3dlabs/storefront/api/middleware"
	"github.com/arcay3dlabs/storefront/api/routes"
	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/internal/checkout"
	"github.com/arcay3dlabs/storefront/internal/orderlog"
	"github.com/arcay3dlabs/storefront/internal/products"
	"github.com/arcay3dlabs/storefront/internal/quotes"
	"github.com/arcay3dlabs/storefront/internal/ventify"
	"github.com/arcay3dlabs/storefront/pkg/config"
	"github.com/arcay3dlabs/storefront/pkg/db"
	"github.com/arcay3dlabs/storefront/pkg/logger"
	"github.com/arcay3dlabs/storefront/pkg/metrics"
	"github.com/arcay3dlabs/storefront/pkg/migrate"
	"github.com/arcay3dlabs/storefront/pkg/redis"
	"github.com/arcay3dlabs/storefront/pkg/storage/gcs"
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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	fail := func(msg string, err error) {
		logg.Error(ctx, msg, err)
		closeAll(logg, closers)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			fail("failed to bootstrap redis", err)
		}
		closers = append(closers, redisClient.Close)
	}

	var dbClient *db.Client
	if strings.EqualFold(cfg.OrderLog.Backend, config.OrderLogBackendDB) || cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			fail("failed to bootstrap database", err)
		}
		closers = append(closers, dbClient.Close)

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			fail("failed to run dev migrations", err)
		}
	}

	var gcsClient *gcs.Client
	if cfg.GCS.Enabled() {
		gcsClient, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			fail("failed to bootstrap gcs", err)
		}
		closers = append(closers, gcsClient.Close)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	platform := ventify.NewClient(cfg.Ventify, ventify.WithMetrics(upstreamMetrics))
	if !platform.ReadConfigured() {
		logg.Warn(ctx, "ventify credentials missing, serving the built-in catalog")
	}

	serviceOpts := []products.ServiceOption{products.WithMetrics(upstreamMetrics)}
	if redisClient != nil {
		serviceOpts = append(serviceOpts, products.WithCache(redisClient, cfg.Catalog.CacheTTL))
	}
	productService, err := products.NewService(platform, logg, serviceOpts...)
	if err != nil {
		fail("failed to create product service", err)
	}
	catalog, err := products.NewCatalog(productService, logg)
	if err != nil {
		fail("failed to create catalog", err)
	}

	carts := cart.NewRegistry(cfg.Session.CartIdle)
	go carts.RunSweeper(ctx, cfg.Session.SweepEvery, logg)

	orderKV, err := orderLogKV(cfg, redisClient, dbClient)
	if err != nil {
		fail("failed to create order log storage", err)
	}
	orders, err := orderlog.New(orderKV, cfg.OrderLog.Key, cfg.OrderLog.MaxRecords, logg)
	if err != nil {
		fail("failed to create order log", err)
	}

	checkoutService, err := checkout.NewService(platform, orders, checkout.SettingsFromConfig(cfg.Checkout), logg, checkoutMetrics)
	if err != nil {
		fail("failed to create checkout service", err)
	}

	maxAttachment := int64(cfg.GCS.MaxUploadMB) * 1_000_000
	var uploader gcs.Uploader
	if gcsClient != nil {
		uploader = gcsClient
	}
	quoteService, err := quotes.NewService(platform, uploader, maxAttachment, logg)
	if err != nil {
		fail("failed to create quote service", err)
	}

	deps := routes.Deps{
		Ventify:            platform,
		Catalog:            catalog,
		Carts:              carts,
		Checkout:           checkoutService,
		Quotes:             quoteService,
		Sessions:           middleware.NewSessionStore(cfg.Session),
		Gatherer:           registry,
		ReadyChecks:        readyChecks(redisClient, dbClient, gcsClient),
		MaxAttachmentBytes: maxAttachment,
	}
	if redisClient != nil {
		deps.RateLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, submission rate limits disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"orderlog":      cfg.OrderLog.Backend,
		"redis":         redisClient != nil,
		"quote_uploads": gcsClient != nil,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail("api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}

	closeAll(logg, closers)
}

func orderLogKV(cfg *config.Config, redisClient *redis.Client, dbClient *db.Client) (orderlog.KV, error) {
	switch strings.ToLower(cfg.OrderLog.Backend) {
	case config.OrderLogBackendRedis:
		return orderlog.NewRedisKV(redisClient)
	case config.OrderLogBackendDB:
		return orderlog.NewDBKV(dbClient)
	default:
		return orderlog.NewMemoryKV(), nil
	}
}

// readyChecks reports unconfigured dependencies as disabled rather than
// failing readiness.
func readyChecks(redisClient *redis.Client, dbClient *db.Client, gcsClient *gcs.Client) []controllers.ReadyCheck {
	checks := []controllers.ReadyCheck{{Name: "redis"}, {Name: "database"}, {Name: "gcs"}}
	if redisClient != nil {
		checks[0].Pinger = redisClient
	}
	if dbClient != nil {
		checks[1].Pinger = dbClient
	}
	if gcsClient != nil {
		checks[2].Pinger = gcsClient
	}
	return checks
}

func closeAll(logg *logger.Logger, closers []func() error) {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i]())
	}
	if err != nil {
		logg.Error(context.Background(), "error closing resources", err)
	}
}
