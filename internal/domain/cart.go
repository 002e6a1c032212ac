package domain

import (
	"fmt"
	"time"

	"golang.org/x/text/currency"
)

type Cart struct {
	OwnerID string
	Items   []CartItem
}

type CartItem struct {
	ID       string
	Product  Product
	Quantity int

	CreatedAt time.Time
}

func (i CartItem) Subtotal() Money {
	return i.Product.Price.Mul(i.Quantity)
}

// Total sums price x quantity over all items, starting from zero in unit.
func (c Cart) Total(unit currency.Unit) (Money, error) {
	return Total(c.Items, unit)
}

func Total(items []CartItem, unit currency.Unit) (Money, error) {
	total := ZeroMoney(unit)

	for _, item := range items {
		var err error
		total, err = total.Add(item.Subtotal())
		if err != nil {
			return Money{}, fmt.Errorf("item[%s]: %w", item.ID, err)
		}
	}

	return total, nil
}

// FindByProduct returns the index of the line holding productID, or -1.
func FindByProduct(items []CartItem, productID string) int {
	for i, item := range items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}
