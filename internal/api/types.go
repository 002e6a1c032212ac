// Package api defines the JSON shapes exchanged between the cart service and
// its clients.
package api

import (
	"errors"
	"fmt"

	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	HeaderOwnerID   = "X-Owner-ID"
	HeaderRequestID = "X-Request-Id"
)

var ErrInvalidPayload = errors.New("invalid payload")

// Product accepts price as a JSON number or string.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	Image    string          `json:"image,omitempty"`
}

type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// ItemRequest is the body of POST /cart and PUT /cart.
type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type Error struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func FromDomainProduct(p domain.Product) Product {
	return Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price.Amount,
		Currency: p.Price.Currency.String(),
		Image:    p.Image,
	}
}

func FromDomainItem(item domain.CartItem) CartItem {
	return CartItem{
		ID:       item.ID,
		Product:  FromDomainProduct(item.Product),
		Quantity: item.Quantity,
	}
}

func FromDomainItems(items []domain.CartItem) []CartItem {
	out := make([]CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromDomainItem(item))
	}
	return out
}

// ToDomain maps a wire product. A missing currency falls back to unit.
func (p Product) ToDomain(unit currency.Unit) (domain.Product, error) {
	if p.ID == "" {
		return domain.Product{}, fmt.Errorf("product id is empty: %w", ErrInvalidPayload)
	}
	if p.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("product[%s] price is negative: %w", p.ID, ErrInvalidPayload)
	}

	if p.Currency != "" {
		parsed, err := currency.ParseISO(p.Currency)
		if err != nil {
			return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", p.Currency, ErrInvalidPayload)
		}
		unit = parsed
	}

	return domain.Product{
		ID:    p.ID,
		Name:  p.Name,
		Price: domain.Money{Amount: p.Price, Currency: unit},
		Image: p.Image,
	}, nil
}

func (i CartItem) ToDomain(unit currency.Unit) (domain.CartItem, error) {
	if i.ID == "" {
		return domain.CartItem{}, fmt.Errorf("cart item id is empty: %w", ErrInvalidPayload)
	}
	if i.Quantity < 1 {
		return domain.CartItem{}, fmt.Errorf("cart item[%s] quantity[%d] is not positive: %w", i.ID, i.Quantity, ErrInvalidPayload)
	}

	product, err := i.Product.ToDomain(unit)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("cart item[%s]: %w", i.ID, err)
	}

	return domain.CartItem{
		ID:       i.ID,
		Product:  product,
		Quantity: i.Quantity,
	}, nil
}

func ItemsToDomain(items []CartItem, unit currency.Unit) ([]domain.CartItem, error) {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		mapped, err := item.ToDomain(unit)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}
