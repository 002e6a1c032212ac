package cartstore_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/client"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// fakeAPI is an in-process cart service. It merges repeated adds of a
// product into one line like the real service does.
type fakeAPI struct {
	mu      sync.Mutex
	catalog map[string]domain.Product
	items   []domain.CartItem

	// bareProducts makes create responses reference the product by id only
	bareProducts bool
	// reject fails the next call of the named op
	reject map[string]error
	// before runs at the start of every call, outside the lock
	before func(ctx context.Context, op string) error

	productLookups int
}

func newFakeAPI(products ...domain.Product) *fakeAPI {
	f := &fakeAPI{
		catalog: make(map[string]domain.Product),
		reject:  make(map[string]error),
	}
	for _, p := range products {
		f.catalog[p.ID] = p
	}
	return f
}

func (f *fakeAPI) enter(ctx context.Context, op string) error {
	if f.before != nil {
		if err := f.before(ctx, op); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.reject[op]; ok {
		delete(f.reject, op)
		return err
	}
	return nil
}

func (f *fakeAPI) GetCart(ctx context.Context) ([]domain.CartItem, error) {
	if err := f.enter(ctx, "get"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items), nil
}

func (f *fakeAPI) AddItem(ctx context.Context, productID string, quantity int) (domain.CartItem, error) {
	if err := f.enter(ctx, "add"); err != nil {
		return domain.CartItem{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.catalog[productID]
	if !ok {
		return domain.CartItem{}, validationError("POST /cart", fmt.Sprintf("product %s does not exist", productID))
	}

	var item domain.CartItem
	if i := domain.FindByProduct(f.items, productID); i >= 0 {
		f.items[i].Quantity = domain.DefaultQuantityBounds().Clamp(f.items[i].Quantity + quantity)
		item = f.items[i]
	} else {
		item = domain.CartItem{ID: uuid.NewString(), Product: product, Quantity: quantity}
		f.items = append(f.items, item)
	}

	if f.bareProducts {
		item.Product = domain.Product{ID: productID}
	}
	return item, nil
}

func (f *fakeAPI) UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.CartItem, error) {
	if err := f.enter(ctx, "update"); err != nil {
		return domain.CartItem{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !domain.DefaultQuantityBounds().Contains(quantity) {
		return domain.CartItem{}, validationError("PUT /cart", fmt.Sprintf("quantity %d is out of range", quantity))
	}
	i := domain.FindByProduct(f.items, productID)
	if i < 0 {
		return domain.CartItem{}, &client.APIError{Op: "PUT /cart", Kind: client.KindValidation, Status: 404, Message: "not found"}
	}
	f.items[i].Quantity = quantity
	return f.items[i], nil
}

func (f *fakeAPI) RemoveItem(ctx context.Context, productID string) error {
	if err := f.enter(ctx, "remove"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if i := domain.FindByProduct(f.items, productID); i >= 0 {
		f.items = slices.Delete(f.items, i, i+1)
	}
	return nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if err := f.enter(ctx, "product"); err != nil {
		return domain.Product{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.productLookups++
	product, ok := f.catalog[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product[%s]: %w", productID, domain.ErrNotFound)
	}
	return product, nil
}

func validationError(op, message string) error {
	return &client.APIError{Op: op, Kind: client.KindValidation, Status: 400, Message: message}
}

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  gofakeit.ProductName(),
		Price: domain.Money{Amount: decimal.NewFromInt(price), Currency: currency.USD},
		Image: gofakeit.URL(),
	}
}

func usd(amount int64) domain.Money {
	return domain.Money{Amount: decimal.NewFromInt(amount), Currency: currency.USD}
}
