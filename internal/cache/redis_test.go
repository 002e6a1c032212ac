package cache_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-redis/redis/v8"
	"github.com/google/go-cmp/cmp"
	"github.com/nikolayk812/cartsync/internal/cache"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func setupCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, port.ProductCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, cache.NewProductCache(client, cache.Options{TTL: ttl})
}

func TestProductCache_GetMiss(t *testing.T) {
	_, c := setupCache(t, time.Minute)

	_, err := c.Get(t.Context(), gofakeit.UUID())
	require.ErrorIs(t, err, port.ErrCacheMiss)

	_, err = c.GetList(t.Context())
	require.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestProductCache_SetGet(t *testing.T) {
	_, c := setupCache(t, time.Minute)
	ctx := t.Context()

	product := randomProduct()
	require.NoError(t, c.Set(ctx, product))

	got, err := c.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(product, got, moneyComparer()))
}

func TestProductCache_ListAndInvalidate(t *testing.T) {
	_, c := setupCache(t, time.Minute)
	ctx := t.Context()

	products := []domain.Product{randomProduct(), randomProduct()}
	require.NoError(t, c.SetList(ctx, products))
	require.NoError(t, c.Set(ctx, products[0]))

	got, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(products, got, moneyComparer()))

	require.NoError(t, c.Invalidate(ctx, products[0].ID))

	_, err = c.Get(ctx, products[0].ID)
	require.ErrorIs(t, err, port.ErrCacheMiss)
	_, err = c.GetList(ctx)
	require.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestProductCache_Expiry(t *testing.T) {
	mr, c := setupCache(t, 10*time.Second)
	ctx := t.Context()

	product := randomProduct()
	require.NoError(t, c.Set(ctx, product))

	mr.FastForward(11 * time.Second)

	_, err := c.Get(ctx, product.ID)
	require.ErrorIs(t, err, port.ErrCacheMiss)
}

func randomProduct() domain.Product {
	return domain.Product{
		ID:   gofakeit.UUID(),
		Name: gofakeit.ProductName(),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
			Currency: currency.EUR,
		},
		Image: gofakeit.URL(),
	}
}

func moneyComparer() cmp.Option {
	return cmp.Comparer(func(x, y domain.Money) bool {
		return x.Equal(y)
	})
}
