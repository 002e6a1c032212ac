package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nikolayk812/cartsync/internal/api"
	"github.com/nikolayk812/cartsync/internal/client"
	"github.com/nikolayk812/cartsync/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func newClient(t *testing.T, h http.Handler) *client.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := client.New(client.Options{
		BaseURL:  srv.URL + "/api",
		OwnerID:  "owner-1",
		Timeout:  2 * time.Second,
		Currency: currency.USD,
		Logger:   logger.Discard(),
	})
	require.NoError(t, err)

	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := client.New(client.Options{BaseURL: "localhost:8080"})
	require.Error(t, err)
}

func TestGetCart(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "owner-1", r.Header.Get(api.HeaderOwnerID))
		assert.NotEmpty(t, r.Header.Get(api.HeaderRequestID))

		_, _ = w.Write([]byte(`[{"id":"c1","product":{"id":"p1","name":"Tea","price":100},"quantity":2}]`))
	}))

	items, err := c.GetCart(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "c1", items[0].ID)
	assert.Equal(t, "p1", items[0].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(items[0].Product.Price.Amount))
	assert.Equal(t, currency.USD, items[0].Product.Price.Currency)
}

func TestAddItemSendsBody(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.ItemRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.ItemRequest{ProductID: "p1", Quantity: 3}, req)

		writeJSON(w, http.StatusCreated, api.CartItem{
			ID:       "c1",
			Product:  api.Product{ID: "p1", Price: decimal.NewFromInt(5), Currency: "EUR"},
			Quantity: 3,
		})
	}))

	item, err := c.AddItem(t.Context(), "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, currency.EUR, item.Product.Price.Currency)
	assert.False(t, item.Product.HasDisplayData())
}

func TestUpdateAndRemoveRoutes(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			writeJSON(w, http.StatusOK, api.CartItem{ID: "c1", Product: api.Product{ID: "p1"}, Quantity: 4})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	item, err := c.UpdateQuantity(t.Context(), "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	require.NoError(t, c.RemoveItem(t.Context(), "p1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /api/cart", "DELETE /api/cart/p1"}, seen)
}

func TestProducts(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/product/list":
			_, _ = w.Write([]byte(`[{"id":"p1","name":"Tea","price":"1.50"},{"id":"p2","name":"Coffee","price":"3"}]`))
		case "/api/product/p2":
			_, _ = w.Write([]byte(`{"id":"p2","name":"Coffee","price":"3","image":"coffee.png"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	products, err := c.ListProducts(t.Context())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Tea", products[0].Name)

	product, err := c.GetProduct(t.Context(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "coffee.png", product.Image)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantKind    client.Kind
		wantIs      error
		wantStatus  int
		wantMessage string
	}{
		{
			name: "validation with details",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, api.Error{Error: "validation_error", Details: "quantity must be between 1 and 5"})
			},
			wantKind:    client.KindValidation,
			wantIs:      client.ErrValidation,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "quantity must be between 1 and 5",
		},
		{
			name: "not found without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantKind:    client.KindValidation,
			wantIs:      client.ErrValidation,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Not Found",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusServiceUnavailable, api.Error{Error: "shutting_down"})
			},
			wantKind:    client.KindServer,
			wantIs:      client.ErrServer,
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: "shutting_down",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":`))
			},
			wantKind: client.KindMalformed,
			wantIs:   client.ErrMalformed,
		},
		{
			name: "unexpected shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"id":"c1","product":{},"quantity":1}]`))
			},
			wantKind: client.KindMalformed,
			wantIs:   client.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, tt.handler)

			_, err := c.GetCart(t.Context())
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantIs)

			var apiErr *client.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, apiErr.Message)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := client.New(client.Options{BaseURL: url, Logger: logger.Discard()})
	require.NoError(t, err)

	err = c.RemoveItem(t.Context(), "p1")
	require.ErrorIs(t, err, client.ErrNetwork)
}

func TestContextCanceled(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.GetCart(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, client.ErrNetwork)
}
