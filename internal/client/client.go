// Package client is the HTTP transport for the cart REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/api"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/currency"
)

const maxErrorBody = 64 << 10

var (
	_ port.CartAPI    = (*Client)(nil)
	_ port.CatalogAPI = (*Client)(nil)
)

type Options struct {
	// BaseURL of the API host, fixed for the client's lifetime.
	BaseURL  string
	OwnerID  string
	Timeout  time.Duration
	Currency currency.Unit
	// Transport is wrapped with otelhttp. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

type Client struct {
	baseURL  *url.URL
	http     *http.Client
	ownerID  string
	currency currency.Unit
	log      *slog.Logger
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL[%s] is not absolute", opts.BaseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	unit := opts.Currency
	if unit == (currency.Unit{}) {
		unit = currency.USD
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		ownerID:  opts.OwnerID,
		currency: unit,
		log:      log,
	}, nil
}

func (c *Client) GetCart(ctx context.Context) ([]domain.CartItem, error) {
	const op = "GET /cart"

	var wire []api.CartItem
	if err := c.do(ctx, op, http.MethodGet, c.baseURL.JoinPath("cart"), nil, &wire); err != nil {
		return nil, err
	}

	items, err := api.ItemsToDomain(wire, c.currency)
	if err != nil {
		return nil, c.malformed(op, err)
	}

	return items, nil
}

func (c *Client) AddItem(ctx context.Context, productID string, quantity int) (domain.CartItem, error) {
	return c.itemRequest(ctx, "POST /cart", http.MethodPost, productID, quantity)
}

func (c *Client) UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.CartItem, error) {
	return c.itemRequest(ctx, "PUT /cart", http.MethodPut, productID, quantity)
}

func (c *Client) RemoveItem(ctx context.Context, productID string) error {
	return c.do(ctx, "DELETE /cart", http.MethodDelete, c.baseURL.JoinPath("cart", productID), nil, nil)
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "GET /product/list"

	var wire []api.Product
	if err := c.do(ctx, op, http.MethodGet, c.baseURL.JoinPath("product", "list"), nil, &wire); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(wire))
	for _, p := range wire {
		product, err := p.ToDomain(c.currency)
		if err != nil {
			return nil, c.malformed(op, err)
		}
		products = append(products, product)
	}

	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	const op = "GET /product"

	var wire api.Product
	if err := c.do(ctx, op, http.MethodGet, c.baseURL.JoinPath("product", productID), nil, &wire); err != nil {
		return domain.Product{}, err
	}

	product, err := wire.ToDomain(c.currency)
	if err != nil {
		return domain.Product{}, c.malformed(op, err)
	}

	return product, nil
}

func (c *Client) itemRequest(ctx context.Context, op, method, productID string, quantity int) (domain.CartItem, error) {
	body := api.ItemRequest{ProductID: productID, Quantity: quantity}

	var wire api.CartItem
	if err := c.do(ctx, op, method, c.baseURL.JoinPath("cart"), body, &wire); err != nil {
		return domain.CartItem{}, err
	}

	item, err := wire.ToDomain(c.currency)
	if err != nil {
		return domain.CartItem{}, c.malformed(op, err)
	}

	return item, nil
}

// do performs one round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method string, u *url.URL, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: json.Marshal: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: http.NewRequestWithContext: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(api.HeaderRequestID, uuid.NewString())
	if c.ownerID != "" {
		req.Header.Set(api.HeaderOwnerID, c.ownerID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("cart api request failed", slog.String("op", op), slog.Any("err", err))
		return &APIError{
			Op:      op,
			Kind:    KindNetwork,
			Message: "cannot reach the cart service",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	c.log.Debug("cart api request",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", req.Header.Get(api.HeaderRequestID)),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return c.rejected(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &APIError{Op: op, Kind: KindNetwork, Message: "request interrupted", Err: err}
		}
		return c.malformed(op, err)
	}

	return nil
}

func (c *Client) rejected(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := http.StatusText(resp.StatusCode)
	var payload api.Error
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Details != "":
			message = payload.Details
		case payload.Error != "":
			message = payload.Error
		}
	}

	return &APIError{
		Op:      op,
		Kind:    statusKind(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: message,
	}
}

func (c *Client) malformed(op string, err error) error {
	return &APIError{
		Op:      op,
		Kind:    KindMalformed,
		Message: "unexpected response from the cart service",
		Err:     err,
	}
}
