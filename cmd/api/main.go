package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/inventory"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/storage/filestore"
	"github.com/angelmondragon/storefront/pkg/storage/memory"
	"github.com/angelmondragon/storefront/pkg/storage/redisstore"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	pingers := map[string]controllers.Pinger{"db": dbClient, "redis": nil}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		pingers["redis"] = redisClient
	}

	backend, err := storageBackend(ctx, cfg, redisClient, logg)
	if err != nil {
		return err
	}

	storeMetrics := metrics.NewStorefront(prometheus.DefaultRegisterer)
	store := storage.NewAdapter(backend, logg, storeMetrics)

	registry := cart.NewRegistry(store, logg, storeMetrics)
	go func() {
		if err := registry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cart registry stopped", err)
		}
	}()

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Feed:      catalog.NewRepository(dbClient.DB()),
		Favorites: catalog.NewFavorites(store),
		Carts:     registry,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:   inventory.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return err
	}

	checkoutParams := checkoutsvc.ServiceParams{
		Carts:    registry,
		Provider: checkoutsvc.NewHTTPProvider(cfg.Checkout.URL, cfg.Checkout.Timeout),
		Observer: storeMetrics,
		Logger:   logg,
	}
	if cfg.Checkout.VerifyStock {
		checkoutParams.Stock = inventoryService
	}
	checkoutService, err := checkoutsvc.NewService(checkoutParams)
	if err != nil {
		return err
	}

	deps := routes.Dependencies{
		Pingers:   pingers,
		Sessions:  middleware.NewSessionStore(cfg.Session),
		Metrics:   promhttp.Handler(),
		Carts:     registry,
		Catalog:   catalogService,
		Inventory: inventoryService,
		Checkout:  checkoutService,
	}
	if redisClient != nil {
		deps.Idempotency = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"storage_backend": cfg.Storage.Backend,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func storageBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logg *logger.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis storage backend requires a redis client")
		}
		store := redisstore.New(redisClient, cfg.Storage.Channel, logg)
		logg.Info(logg.WithFields(ctx, map[string]any{
			"backend": "redis",
			"channel": cfg.Storage.Channel,
			"origin":  store.Origin(),
		}), "storage.backend_ready")
		return store, nil
	case config.StorageBackendFile:
		files, err := filestore.New(cfg.Storage.Dir, logg)
		if err != nil {
			return nil, err
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"backend": "file", "dir": files.Dir()}), "storage.backend_ready")
		return files, nil
	default:
		logg.Info(logg.WithFields(ctx, map[string]any{"backend": "memory"}), "storage.backend_ready")
		return memory.NewStore().Handle(), nil
	}
}
