package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/domain"
)

// Memory keeps products and carts in process memory. It serves as both
// CartRepository and ProductRepository when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	bounds   domain.QuantityBounds
	products map[uuid.UUID]domain.Product
	carts    map[string][]domain.CartItem
}

func NewMemory(bounds domain.QuantityBounds) *Memory {
	return &Memory{
		bounds:   bounds,
		products: make(map[uuid.UUID]domain.Product),
		carts:    make(map[string][]domain.CartItem),
	}
}

func (m *Memory) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return domain.Cart{
		OwnerID: ownerID,
		Items:   m.resolved(m.carts[ownerID]),
	}, nil
}

func (m *Memory) AddItem(_ context.Context, ownerID string, productID uuid.UUID, quantity int) (domain.CartItem, error) {
	if ownerID == "" {
		return domain.CartItem{}, fmt.Errorf("ownerID is empty")
	}
	if quantity < m.bounds.Min {
		return domain.CartItem{}, fmt.Errorf("quantity[%d] is below %d", quantity, m.bounds.Min)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	product, ok := m.products[productID]
	if !ok {
		return domain.CartItem{}, fmt.Errorf("product[%s]: %w", productID, domain.ErrNotFound)
	}

	items := m.carts[ownerID]
	if i := domain.FindByProduct(items, product.ID); i >= 0 {
		items[i].Quantity = m.bounds.Clamp(items[i].Quantity + quantity)
		return m.resolve(items[i]), nil
	}

	item := domain.CartItem{
		ID:        uuid.NewString(),
		Product:   domain.Product{ID: product.ID},
		Quantity:  m.bounds.Clamp(quantity),
		CreatedAt: time.Now().UTC(),
	}
	m.carts[ownerID] = append(items, item)

	return m.resolve(item), nil
}

func (m *Memory) UpdateQuantity(_ context.Context, ownerID string, productID uuid.UUID, quantity int) (domain.CartItem, error) {
	if ownerID == "" {
		return domain.CartItem{}, fmt.Errorf("ownerID is empty")
	}
	if !m.bounds.Contains(quantity) {
		return domain.CartItem{}, fmt.Errorf("quantity[%d] is out of bounds", quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[ownerID]
	i := domain.FindByProduct(items, productID.String())
	if i < 0 {
		return domain.CartItem{}, fmt.Errorf("cart item[%s]: %w", productID, domain.ErrNotFound)
	}
	items[i].Quantity = quantity

	return m.resolve(items[i]), nil
}

func (m *Memory) DeleteItem(_ context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[ownerID]
	i := domain.FindByProduct(items, productID.String())
	if i < 0 {
		return false, nil
	}
	m.carts[ownerID] = slices.Delete(items, i, i+1)

	return true, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID < products[j].ID
	})

	return products, nil
}

func (m *Memory) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product[%s]: %w", productID, domain.ErrNotFound)
	}

	return product, nil
}

func (m *Memory) UpsertProduct(_ context.Context, product domain.Product) error {
	id, err := uuid.Parse(product.ID)
	if err != nil {
		return fmt.Errorf("product id[%s] is not valid: %w", product.ID, err)
	}
	if product.Name == "" {
		return fmt.Errorf("product name is empty")
	}
	if product.Price.Amount.IsNegative() {
		return fmt.Errorf("product price is negative")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	product.ID = id.String()
	m.products[id] = product

	return nil
}

// resolve embeds the current product record into a stored line.
// Callers hold m.mu.
func (m *Memory) resolve(item domain.CartItem) domain.CartItem {
	if id, err := uuid.Parse(item.Product.ID); err == nil {
		if product, ok := m.products[id]; ok {
			item.Product = product
		}
	}
	return item
}

func (m *Memory) resolved(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, m.resolve(item))
	}
	return out
}
