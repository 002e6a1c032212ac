package port

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
}

type ProductCache interface {
	Get(ctx context.Context, productID string) (domain.Product, error)
	Set(ctx context.Context, product domain.Product) error
	GetList(ctx context.Context) ([]domain.Product, error)
	SetList(ctx context.Context, products []domain.Product) error
	Invalidate(ctx context.Context, productID string) error
}
