package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartsync/internal/db"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type cartRepository struct {
	q      *db.Queries
	pool   *pgxpool.Pool
	bounds domain.QuantityBounds
}

func NewCart(pool *pgxpool.Pool, bounds domain.QuantityBounds) port.CartRepository {
	return &cartRepository{
		q:      db.New(pool),
		pool:   pool,
		bounds: bounds,
	}
}

func NewCartWithTx(tx pgx.Tx, bounds domain.QuantityBounds) port.CartRepository {
	return &cartRepository{
		q:      db.New(tx),
		pool:   nil, // use provided transaction instead
		bounds: bounds,
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	dbCartItems, err := r.q.GetCart(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCart: %w", err)
	}

	items, err := mapGetCartRowsToDomain(dbCartItems)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapGetCartRowsToDomain: %w", err)
	}

	return domain.Cart{
		OwnerID: ownerID,
		Items:   items,
	}, nil
}

func (r *cartRepository) AddItem(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (domain.CartItem, error) {
	if ownerID == "" {
		return domain.CartItem{}, fmt.Errorf("ownerID is empty")
	}
	if quantity < r.bounds.Min {
		return domain.CartItem{}, fmt.Errorf("quantity[%d] is below %d", quantity, r.bounds.Min)
	}

	maxQuantity := r.bounds.Max
	if maxQuantity <= 0 {
		maxQuantity = int(^uint32(0) >> 1)
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.CartItem, error) {
		if _, err := q.GetProduct(ctx, productID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.CartItem{}, fmt.Errorf("product[%s]: %w", productID, domain.ErrNotFound)
			}
			return domain.CartItem{}, fmt.Errorf("q.GetProduct: %w", err)
		}

		_, err := q.AddItem(ctx, db.AddItemParams{
			OwnerID:     ownerID,
			ProductID:   productID,
			Quantity:    int32(quantity),
			MaxQuantity: int32(maxQuantity),
		})
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("q.AddItem: %w", err)
		}

		return getCartItem(ctx, q, ownerID, productID)
	})
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (domain.CartItem, error) {
	if ownerID == "" {
		return domain.CartItem{}, fmt.Errorf("ownerID is empty")
	}
	if !r.bounds.Contains(quantity) {
		return domain.CartItem{}, fmt.Errorf("quantity[%d] is out of bounds", quantity)
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.CartItem, error) {
		_, err := q.UpdateItemQuantity(ctx, db.UpdateItemQuantityParams{
			OwnerID:   ownerID,
			ProductID: productID,
			Quantity:  int32(quantity),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.CartItem{}, fmt.Errorf("cart item[%s]: %w", productID, domain.ErrNotFound)
			}
			return domain.CartItem{}, fmt.Errorf("q.UpdateItemQuantity: %w", err)
		}

		return getCartItem(ctx, q, ownerID, productID)
	})
}

func (r *cartRepository) DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}

	rowsAffected, err := r.q.DeleteItem(ctx, db.DeleteItemParams{
		OwnerID:   ownerID,
		ProductID: productID,
	})
	if err != nil {
		return false, fmt.Errorf("q.DeleteItem: %w", err)
	}

	return rowsAffected > 0, nil
}

func getCartItem(ctx context.Context, q *db.Queries, ownerID string, productID uuid.UUID) (domain.CartItem, error) {
	row, err := q.GetCartItem(ctx, db.GetCartItemParams{
		OwnerID:   ownerID,
		ProductID: productID,
	})
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("q.GetCartItem: %w", err)
	}

	return mapGetCartRowToDomain(db.GetCartRow(row))
}

func mapGetCartRowToDomain(row db.GetCartRow) (domain.CartItem, error) {
	price, err := mapMoney(row.PriceAmount, row.PriceCurrency)
	if err != nil {
		return domain.CartItem{}, err
	}

	return domain.CartItem{
		ID: row.ID.String(),
		Product: domain.Product{
			ID:    row.ProductID.String(),
			Name:  row.Name,
			Price: price,
			Image: row.Image,
		},
		Quantity:  int(row.Quantity),
		CreatedAt: row.CreatedAt,
	}, nil
}

func mapGetCartRowsToDomain(rows []db.GetCartRow) ([]domain.CartItem, error) {
	var items []domain.CartItem

	for _, row := range rows {
		item, err := mapGetCartRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapGetCartRowToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func mapMoney(amount decimal.Decimal, code string) (domain.Money, error) {
	parsedCurrency, err := currency.ParseISO(code)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}

	return domain.Money{Amount: amount, Currency: parsedCurrency}, nil
}
