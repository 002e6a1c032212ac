// Package view renders the cart for a terminal and turns user intents into
// store operations. The store is passed in; the view keeps no cart state of
// its own beyond transient alerts.
package view

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/nikolayk812/cartsync/internal/cartstore"
	"github.com/nikolayk812/cartsync/internal/domain"
)

// Store is the part of the cart store a view reads and dispatches to.
type Store interface {
	Snapshot() cartstore.State
	Fetch(ctx context.Context) cartstore.Result[[]domain.CartItem]
	Add(ctx context.Context, productID string, quantity int) cartstore.Result[domain.CartItem]
	UpdateQuantity(ctx context.Context, productID string, quantity int) cartstore.Result[domain.CartItem]
	Remove(ctx context.Context, productID string) cartstore.Result[string]
	Subscribe(fn func(cartstore.State)) (unsubscribe func())
}

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type Options struct {
	// Bounds mirrors the server's quantity range so the view can skip
	// requests the server would refuse.
	Bounds   domain.QuantityBounds
	AlertTTL time.Duration
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type View struct {
	store   Store
	catalog Catalog
	bounds  domain.QuantityBounds
	log     *slog.Logger
	alerts  *alerts

	mu          sync.Mutex
	lastFailure *cartstore.Failure

	unsubscribe func()
}

func New(store Store, catalog Catalog, opts Options) *View {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.AlertTTL
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	bounds := opts.Bounds
	if bounds == (domain.QuantityBounds{}) {
		bounds = domain.DefaultQuantityBounds()
	}

	v := &View{
		store:   store,
		catalog: catalog,
		bounds:  bounds,
		log:     log,
		alerts:  &alerts{ttl: ttl, now: now},
	}
	v.unsubscribe = store.Subscribe(v.onState)

	return v
}

// Close detaches the view from the store.
func (v *View) Close() {
	v.unsubscribe()
}

// onState turns each new failure in the store into an alert.
func (v *View) onState(state cartstore.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if state.Err == nil || state.Err == v.lastFailure {
		return
	}
	v.lastFailure = state.Err

	level := LevelError
	if state.Err.Kind == cartstore.FailureValidation {
		level = LevelWarn
	}
	v.alerts.push(level, state.Err.Message)
}

// Alerts returns the alerts that have not expired yet.
func (v *View) Alerts() []Alert {
	return v.alerts.active()
}

func (v *View) Refresh(ctx context.Context) error {
	return errOf(v.store.Fetch(ctx))
}

func (v *View) Add(ctx context.Context, productID string, quantity int) error {
	res := v.store.Add(ctx, productID, quantity)
	if res.OK() {
		v.alerts.push(LevelInfo, fmt.Sprintf("Added %s.", displayName(res.Value.Product)))
	}
	return errOf(res)
}

// Set requests quantity for productID after checking it against the bounds.
func (v *View) Set(ctx context.Context, productID string, quantity int) error {
	if !v.bounds.Contains(quantity) {
		v.alerts.push(LevelWarn, v.boundsMessage())
		return nil
	}
	return errOf(v.store.UpdateQuantity(ctx, productID, quantity))
}

func (v *View) Increase(ctx context.Context, productID string) error {
	return v.step(ctx, productID, 1)
}

func (v *View) Decrease(ctx context.Context, productID string) error {
	return v.step(ctx, productID, -1)
}

func (v *View) Remove(ctx context.Context, productID string) error {
	return errOf(v.store.Remove(ctx, productID))
}

// step moves the line's quantity by delta. At a bound it shows an alert
// and issues no request.
func (v *View) step(ctx context.Context, productID string, delta int) error {
	items := v.store.Snapshot().Items
	i := domain.FindByProduct(items, productID)
	if i < 0 {
		v.alerts.push(LevelWarn, fmt.Sprintf("Product %s is not in the cart.", productID))
		return nil
	}

	current := items[i].Quantity
	next := v.bounds.Clamp(current + delta)
	if next == current {
		v.alerts.push(LevelWarn, v.boundsMessage())
		return nil
	}

	return errOf(v.store.UpdateQuantity(ctx, productID, next))
}

func (v *View) boundsMessage() string {
	if v.bounds.Max > 0 {
		return fmt.Sprintf("Quantity must be between %d and %d.", v.bounds.Min, v.bounds.Max)
	}
	return fmt.Sprintf("Quantity must be at least %d.", v.bounds.Min)
}

// RenderCart writes the cart table, the total and any live alerts.
func (v *View) RenderCart(w io.Writer) error {
	state := v.store.Snapshot()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range state.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Product.ID,
			displayName(item.Product),
			strconv.Itoa(item.Quantity),
			FormatMoney(item.Product.Price),
			FormatMoney(item.Subtotal()),
		)
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", FormatMoney(state.Total))
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("tw.Flush: %w", err)
	}

	if state.Loading {
		fmt.Fprintln(w, "(loading)")
	}

	return v.renderAlerts(w)
}

func (v *View) RenderProducts(ctx context.Context, w io.Writer) error {
	products, err := v.catalog.ListProducts(ctx)
	if err != nil {
		v.alerts.push(LevelError, "Cannot load the product catalog.")
		v.log.Warn("catalog.ListProducts failed", slog.Any("err", err))
		return v.renderAlerts(w)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT ID\tNAME\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, FormatMoney(p.Price))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("tw.Flush: %w", err)
	}

	return v.renderAlerts(w)
}

func (v *View) renderAlerts(w io.Writer) error {
	for _, alert := range v.Alerts() {
		if _, err := fmt.Fprintf(w, "[%s] %s\n", alert.Level, alert.Message); err != nil {
			return fmt.Errorf("fmt.Fprintf: %w", err)
		}
	}
	return nil
}

func displayName(p domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func errOf[T any](res cartstore.Result[T]) error {
	if res.Err != nil {
		return res.Err
	}
	return nil
}
