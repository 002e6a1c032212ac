package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/domain"
)

// CartAPI is the REST surface the client-side cart store depends on.
// Update and remove requests are keyed by product id.
type CartAPI interface {
	GetCart(ctx context.Context) ([]domain.CartItem, error)
	AddItem(ctx context.Context, productID string, quantity int) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.CartItem, error)
	RemoveItem(ctx context.Context, productID string) error
}

type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	// AddItem merges quantity into the owner's line for productID, creating it
	// when absent, and returns the resulting line.
	AddItem(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (domain.CartItem, error)
	DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error)
}
