// Package main boots the cart HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartsync/internal/cache"
	"github.com/nikolayk812/cartsync/internal/config"
	"github.com/nikolayk812/cartsync/internal/logger"
	"github.com/nikolayk812/cartsync/internal/port"
	"github.com/nikolayk812/cartsync/internal/repository"
	"github.com/nikolayk812/cartsync/internal/server"
	"github.com/nikolayk812/cartsync/internal/shutdown"
	"github.com/nikolayk812/cartsync/internal/telemetry"
)

const serviceName = "cartd"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Service:  serviceName,
		Exporter: cfg.OTelExporter,
		Endpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		log.Error("telemetry setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	carts, products, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("storage open failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer closeStorage()

	if cfg.SeedCatalog {
		if err := server.SeedCatalog(ctx, products, cfg.CurrencyUnit()); err != nil {
			log.Error("catalog seed failed", slog.Any("err", err))
			os.Exit(1)
		}
	}

	srv := server.New(server.Options{
		Carts:    carts,
		Products: products,
		Bounds:   cfg.QuantityBounds(),
		Logger:   log,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stopCancel()

	if err := httpServer.Shutdown(stopCtx); err != nil {
		log.Warn("graceful shutdown failed", slog.Any("err", err))
	}
	wg.Wait()

	if err := shutdownTracing(stopCtx); err != nil {
		log.Warn("tracer shutdown failed", slog.Any("err", err))
	}
	log.Info("bye")
}

// openStorage picks Postgres when DATABASE_URL is set and process memory
// otherwise. With REDIS_URL the catalog reads go through the cache.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (port.CartRepository, port.ProductRepository, func(), error) {
	var (
		carts    port.CartRepository
		products port.ProductRepository
		closers  []func()
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("pool.Ping: %w", err)
		}
		closers = append(closers, pool.Close)

		carts = repository.NewCart(pool, cfg.QuantityBounds())
		products = repository.NewProduct(pool)
		log.Info("storage: postgres")
	} else {
		mem := repository.NewMemory(cfg.QuantityBounds())
		carts, products = mem, mem
		log.Info("storage: memory")
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })

		productCache := cache.NewProductCache(client, cache.Options{TTL: cfg.CatalogCacheTTL})
		products = repository.NewCachedProducts(products, productCache, log)
		log.Info("catalog cache: redis", slog.Duration("ttl", cfg.CatalogCacheTTL))
	}

	return carts, products, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}
