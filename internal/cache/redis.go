// Package cache keeps product catalog records in Redis so the catalog
// endpoints do not hit the database on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const DefaultNamespace = "cartsync:product"

type Options struct {
	Namespace string
	TTL       time.Duration
}

type productCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping: %w", err)
	}

	return client, nil
}

func NewProductCache(client *redis.Client, opts Options) port.ProductCache {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}

	return &productCache{
		client:    client,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
	}
}

// cachedProduct is the JSON shape stored in Redis.
type cachedProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Image    string          `json:"image,omitempty"`
}

func (c *productCache) Get(ctx context.Context, productID string) (domain.Product, error) {
	raw, err := c.client.Get(ctx, c.productKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Product{}, port.ErrCacheMiss
		}
		return domain.Product{}, fmt.Errorf("client.Get: %w", err)
	}

	var cp cachedProduct
	if err := json.Unmarshal(raw, &cp); err != nil {
		return domain.Product{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return cp.toDomain()
}

func (c *productCache) Set(ctx context.Context, product domain.Product) error {
	raw, err := json.Marshal(fromDomain(product))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := c.client.Set(ctx, c.productKey(product.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (c *productCache) GetList(ctx context.Context) ([]domain.Product, error) {
	raw, err := c.client.Get(ctx, c.listKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, port.ErrCacheMiss
		}
		return nil, fmt.Errorf("client.Get: %w", err)
	}

	var cps []cachedProduct
	if err := json.Unmarshal(raw, &cps); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	products := make([]domain.Product, 0, len(cps))
	for _, cp := range cps {
		p, err := cp.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, nil
}

func (c *productCache) SetList(ctx context.Context, products []domain.Product) error {
	cps := make([]cachedProduct, 0, len(products))
	for _, p := range products {
		cps = append(cps, fromDomain(p))
	}

	raw, err := json.Marshal(cps)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := c.client.Set(ctx, c.listKey(), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

// Invalidate drops the product record and the list that may contain it.
func (c *productCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, c.productKey(productID), c.listKey()).Err(); err != nil {
		return fmt.Errorf("client.Del: %w", err)
	}
	return nil
}

func (c *productCache) productKey(productID string) string {
	return c.namespace + ":" + productID
}

func (c *productCache) listKey() string {
	return c.namespace + ":list"
}

func fromDomain(p domain.Product) cachedProduct {
	return cachedProduct{
		ID:       p.ID,
		Name:     p.Name,
		Amount:   p.Price.Amount,
		Currency: p.Price.Currency.String(),
		Image:    p.Image,
	}
}

func (cp cachedProduct) toDomain() (domain.Product, error) {
	unit, err := currency.ParseISO(cp.Currency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", cp.Currency, err)
	}

	return domain.Product{
		ID:    cp.ID,
		Name:  cp.Name,
		Price: domain.Money{Amount: cp.Amount, Currency: unit},
		Image: cp.Image,
	}, nil
}
