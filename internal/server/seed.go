package server

import (
	"context"
	"fmt"

	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type seedProduct struct {
	id    string
	name  string
	price string
	image string
}

var catalog = []seedProduct{
	{"0b6a3c6e-2a43-4a55-9d3e-1f7f6d2b3a01", "Espresso Beans 1kg", "24.90", "/img/espresso.jpg"},
	{"0b6a3c6e-2a43-4a55-9d3e-1f7f6d2b3a02", "Pour-Over Kettle", "39.00", "/img/kettle.jpg"},
	{"0b6a3c6e-2a43-4a55-9d3e-1f7f6d2b3a03", "Ceramic Dripper", "18.50", "/img/dripper.jpg"},
	{"0b6a3c6e-2a43-4a55-9d3e-1f7f6d2b3a04", "Paper Filters x100", "4.75", "/img/filters.jpg"},
	{"0b6a3c6e-2a43-4a55-9d3e-1f7f6d2b3a05", "Burr Grinder", "129.00", "/img/grinder.jpg"},
	{"0b6a3c6e-2a43-4a55-9d3e-1f7f6d2b3a06", "Milk Frothing Pitcher", "15.20", "/img/pitcher.jpg"},
}

// SeedCatalog upserts the demo product catalog priced in unit.
func SeedCatalog(ctx context.Context, products port.ProductRepository, unit currency.Unit) error {
	for _, sp := range catalog {
		price, err := decimal.NewFromString(sp.price)
		if err != nil {
			return fmt.Errorf("decimal.NewFromString[%s]: %w", sp.price, err)
		}

		product := domain.Product{
			ID:    sp.id,
			Name:  sp.name,
			Price: domain.Money{Amount: price, Currency: unit},
			Image: sp.image,
		}
		if err := products.UpsertProduct(ctx, product); err != nil {
			return fmt.Errorf("products.UpsertProduct[%s]: %w", sp.id, err)
		}
	}

	return nil
}
