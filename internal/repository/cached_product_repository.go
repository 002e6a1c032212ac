package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
)

// cachedProductRepository reads through a ProductCache. Cache failures are
// logged and never fail the request.
type cachedProductRepository struct {
	next  port.ProductRepository
	cache port.ProductCache
	log   *slog.Logger
}

func NewCachedProducts(next port.ProductRepository, cache port.ProductCache, log *slog.Logger) port.ProductRepository {
	if log == nil {
		log = slog.Default()
	}
	return &cachedProductRepository{next: next, cache: cache, log: log}
}

func (r *cachedProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := r.cache.GetList(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		r.log.Warn("product cache read failed", slog.String("key", "list"), slog.Any("err", err))
	}

	products, err = r.next.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("next.ListProducts: %w", err)
	}

	if err := r.cache.SetList(ctx, products); err != nil {
		r.log.Warn("product cache write failed", slog.String("key", "list"), slog.Any("err", err))
	}

	return products, nil
}

func (r *cachedProductRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	product, err := r.cache.Get(ctx, productID.String())
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		r.log.Warn("product cache read failed", slog.String("product_id", productID.String()), slog.Any("err", err))
	}

	product, err = r.next.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("next.GetProduct: %w", err)
	}

	if err := r.cache.Set(ctx, product); err != nil {
		r.log.Warn("product cache write failed", slog.String("product_id", productID.String()), slog.Any("err", err))
	}

	return product, nil
}

func (r *cachedProductRepository) UpsertProduct(ctx context.Context, product domain.Product) error {
	if err := r.next.UpsertProduct(ctx, product); err != nil {
		return fmt.Errorf("next.UpsertProduct: %w", err)
	}

	if err := r.cache.Invalidate(ctx, product.ID); err != nil {
		r.log.Warn("product cache invalidate failed", slog.String("product_id", product.ID), slog.Any("err", err))
	}

	return nil
}
