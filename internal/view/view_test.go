package view_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nikolayk812/cartsync/internal/cartstore"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/logger"
	"github.com/nikolayk812/cartsync/internal/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

type updateCall struct {
	productID string
	quantity  int
}

// fakeStore records dispatched updates and publishes whatever state the
// test sets.
type fakeStore struct {
	mu      sync.Mutex
	state   cartstore.State
	updates []updateCall
	fail    *cartstore.Failure
	subs    []func(cartstore.State)
}

func (f *fakeStore) Snapshot() cartstore.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStore) Fetch(context.Context) cartstore.Result[[]domain.CartItem] {
	return cartstore.Result[[]domain.CartItem]{Status: cartstore.StatusFulfilled, Value: f.Snapshot().Items}
}

func (f *fakeStore) Add(_ context.Context, productID string, quantity int) cartstore.Result[domain.CartItem] {
	item := domain.CartItem{ID: "c-" + productID, Product: domain.Product{ID: productID, Name: "Widget"}, Quantity: quantity}
	return cartstore.Result[domain.CartItem]{Status: cartstore.StatusFulfilled, Value: item}
}

func (f *fakeStore) UpdateQuantity(_ context.Context, productID string, quantity int) cartstore.Result[domain.CartItem] {
	f.mu.Lock()
	f.updates = append(f.updates, updateCall{productID: productID, quantity: quantity})
	fail := f.fail
	f.mu.Unlock()

	if fail != nil {
		f.publish(func(s *cartstore.State) { s.Err = fail })
		return cartstore.Result[domain.CartItem]{Status: cartstore.StatusRejected, Err: fail}
	}
	return cartstore.Result[domain.CartItem]{Status: cartstore.StatusFulfilled}
}

func (f *fakeStore) Remove(_ context.Context, productID string) cartstore.Result[string] {
	return cartstore.Result[string]{Status: cartstore.StatusFulfilled, Value: productID}
}

func (f *fakeStore) Subscribe(fn func(cartstore.State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeStore) publish(mutate func(*cartstore.State)) {
	f.mu.Lock()
	mutate(&f.state)
	state, subs := f.state, f.subs
	f.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

type fakeCatalog struct {
	products []domain.Product
	err      error
}

func (c fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return c.products, c.err
}

func usd(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.USD}
}

func storeWithLine(quantity int) *fakeStore {
	item := domain.CartItem{
		ID:       "c1",
		Product:  domain.Product{ID: "p1", Name: "Burr Grinder", Price: usd("24.90")},
		Quantity: quantity,
	}
	return &fakeStore{state: cartstore.State{
		Items: []domain.CartItem{item},
		Total: item.Subtotal(),
	}}
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newView(store view.Store, c *clock) *view.View {
	return view.New(store, fakeCatalog{}, view.Options{
		Bounds:   domain.DefaultQuantityBounds(),
		AlertTTL: 2 * time.Second,
		Logger:   logger.Discard(),
		Now:      c.Now,
	})
}

func TestIncreaseDecrease(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		increase    bool
		wantUpdates []updateCall
		wantAlert   bool
	}{
		{
			name:        "increase below max",
			quantity:    2,
			increase:    true,
			wantUpdates: []updateCall{{productID: "p1", quantity: 3}},
		},
		{
			name:      "increase at max",
			quantity:  domain.MaxQuantity,
			increase:  true,
			wantAlert: true,
		},
		{
			name:        "decrease above min",
			quantity:    2,
			wantUpdates: []updateCall{{productID: "p1", quantity: 1}},
		},
		{
			name:      "decrease at min",
			quantity:  domain.MinQuantity,
			wantAlert: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storeWithLine(tt.quantity)
			v := newView(store, &clock{now: time.Now()})
			defer v.Close()

			var err error
			if tt.increase {
				err = v.Increase(t.Context(), "p1")
			} else {
				err = v.Decrease(t.Context(), "p1")
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantUpdates, store.updates)
			if tt.wantAlert {
				alerts := v.Alerts()
				require.Len(t, alerts, 1)
				assert.Equal(t, view.LevelWarn, alerts[0].Level)
			} else {
				assert.Empty(t, v.Alerts())
			}
		})
	}
}

func TestIncreaseUnknownProduct(t *testing.T) {
	store := storeWithLine(1)
	v := newView(store, &clock{now: time.Now()})

	require.NoError(t, v.Increase(t.Context(), "p9"))
	assert.Empty(t, store.updates)
	assert.Len(t, v.Alerts(), 1)
}

func TestSetOutOfBoundsSkipsRequest(t *testing.T) {
	store := storeWithLine(1)
	v := newView(store, &clock{now: time.Now()})

	require.NoError(t, v.Set(t.Context(), "p1", 0))
	require.NoError(t, v.Set(t.Context(), "p1", domain.MaxQuantity+1))
	assert.Empty(t, store.updates)

	require.NoError(t, v.Set(t.Context(), "p1", 4))
	assert.Equal(t, []updateCall{{productID: "p1", quantity: 4}}, store.updates)
}

func TestFailureBecomesExpiringAlert(t *testing.T) {
	c := &clock{now: time.Now()}
	store := storeWithLine(1)
	store.fail = &cartstore.Failure{Kind: cartstore.FailureServer, Status: 500, Message: "The cart service failed (500). Try again later."}
	v := newView(store, c)

	err := v.Increase(t.Context(), "p1")
	require.Error(t, err)

	var failure *cartstore.Failure
	require.True(t, errors.As(err, &failure))

	alerts := v.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, view.LevelError, alerts[0].Level)
	assert.Equal(t, failure.Message, alerts[0].Message)

	c.now = c.now.Add(time.Second)
	assert.Len(t, v.Alerts(), 1)

	c.now = c.now.Add(2 * time.Second)
	assert.Empty(t, v.Alerts(), "alert dismissed after its ttl")
}

func TestRenderCart(t *testing.T) {
	store := storeWithLine(2)
	v := newView(store, &clock{now: time.Now()})

	var buf bytes.Buffer
	require.NoError(t, v.RenderCart(&buf))

	out := buf.String()
	assert.Contains(t, out, "Burr Grinder")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "49.8")
}

func TestRenderProducts(t *testing.T) {
	catalog := fakeCatalog{products: []domain.Product{
		{ID: "p1", Name: "Ceramic Dripper", Price: usd("18.50")},
	}}
	v := view.New(&fakeStore{}, catalog, view.Options{Logger: logger.Discard()})

	var buf bytes.Buffer
	require.NoError(t, v.RenderProducts(t.Context(), &buf))
	assert.Contains(t, buf.String(), "Ceramic Dripper")
	assert.Contains(t, buf.String(), "18.5")
}

func TestRenderProductsFailure(t *testing.T) {
	v := view.New(&fakeStore{}, fakeCatalog{err: errors.New("down")}, view.Options{Logger: logger.Discard()})

	var buf bytes.Buffer
	require.NoError(t, v.RenderProducts(t.Context(), &buf))
	assert.Contains(t, buf.String(), "[error]")
}

func TestFormatMoney(t *testing.T) {
	assert.Contains(t, view.FormatMoney(usd("1234.5")), "234.5")
	assert.Equal(t, "3.10", view.FormatMoney(domain.Money{Amount: decimal.RequireFromString("3.1")}))
}
