// Package cartstore holds the client's view of the shopping cart and keeps it
// consistent with the cart service.
//
// Mutation responses are merged into local state (no re-fetch after a
// mutation) and update/remove requests are keyed by product id. Every request
// takes a sequence number when it is issued; a mutation older than what has
// already been applied for the same product, or older than the last applied
// fetch, is dropped. A fetch replaces the items except for products mutated
// after it was issued, so overlapping requests resolve newest-issued-wins.
package cartstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/currency"
)

const instrumentationName = "github.com/nikolayk812/cartsync/internal/cartstore"

// ProductLookup resolves product display data missing from a create response.
type ProductLookup interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type Options struct {
	// Currency of the total while the cart is empty.
	Currency currency.Unit
	Logger   *slog.Logger
}

// State is a point-in-time copy of the store.
type State struct {
	Items   []domain.CartItem
	Loading bool
	Err     *Failure
	Total   domain.Money
}

// ErrorMessage is the display string of the last failure, or "".
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Message
}

type Store struct {
	api      port.CartAPI
	products ProductLookup
	unit     currency.Unit
	log      *slog.Logger
	tracer   trace.Tracer
	requests metric.Int64Counter

	// life is cancelled by Close and aborts in-flight transport calls.
	life     context.Context
	stopLife context.CancelFunc
	tasks    sync.WaitGroup

	mu          sync.Mutex
	items       []domain.CartItem
	total       domain.Money
	inFlight    int
	failure     *Failure
	closed      bool
	seq         uint64
	lastFetch   uint64
	lastApplied map[string]uint64
	subs        map[int]func(State)
	nextSub     int
}

func New(api port.CartAPI, products ProductLookup, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	unit := opts.Currency
	if unit == (currency.Unit{}) {
		unit = currency.USD
	}

	requests, err := otel.Meter(instrumentationName).Int64Counter("cartstore.requests",
		metric.WithDescription("Cart store requests by operation and outcome"))
	if err != nil {
		log.Warn("cartstore.requests counter unavailable", slog.Any("err", err))
	}

	life, stop := context.WithCancel(context.Background())

	return &Store{
		api:         api,
		products:    products,
		unit:        unit,
		log:         log,
		tracer:      otel.Tracer(instrumentationName),
		requests:    requests,
		life:        life,
		stopLife:    stop,
		total:       domain.ZeroMoney(unit),
		lastApplied: make(map[string]uint64),
		subs:        make(map[int]func(State)),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close tears the store down. In-flight requests are aborted and their
// results dropped; later operations are rejected with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.subs = make(map[int]func(State))
	s.mu.Unlock()

	s.stopLife()
	s.tasks.Wait()
}

// Fetch replaces the local items with the server's cart.
func (s *Store) Fetch(ctx context.Context) Result[[]domain.CartItem] {
	ctx, span := s.tracer.Start(ctx, "cartstore.Fetch")
	defer span.End()

	rctx, seq, done, err := s.begin(ctx)
	if err != nil {
		return record(s, ctx, span, "fetch", rejected[[]domain.CartItem](reduce(err)))
	}
	defer done()

	items, err := s.api.GetCart(rctx)

	res := s.finish(ctx, seq, err, func() bool {
		if seq <= s.lastFetch {
			return false
		}
		s.items = s.reconcileLocked(items, seq)
		s.lastFetch = seq
		s.recomputeLocked()
		return true
	})
	if res != nil {
		return record(s, ctx, span, "fetch", rejected[[]domain.CartItem](res))
	}

	return record(s, ctx, span, "fetch", fulfilled(slices.Clone(items)))
}

// Add asks the server to add quantity units of productID and merges the
// returned line into local state.
func (s *Store) Add(ctx context.Context, productID string, quantity int) Result[domain.CartItem] {
	ctx, span := s.tracer.Start(ctx, "cartstore.Add", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	if quantity < 1 {
		f := validationFailure(fmt.Sprintf("Quantity must be positive, got %d.", quantity))
		s.setFailure(f)
		return record(s, ctx, span, "add", rejected[domain.CartItem](f))
	}

	productID = productKey(productID)

	rctx, seq, done, err := s.begin(ctx)
	if err != nil {
		return record(s, ctx, span, "add", rejected[domain.CartItem](reduce(err)))
	}
	defer done()

	item, err := s.api.AddItem(rctx, productID, quantity)
	item.Product.ID = productKey(item.Product.ID)

	var lookupErr error
	if err == nil && !item.Product.HasDisplayData() {
		item.Product, lookupErr = s.resolveProduct(rctx, item.Product)
		if item.Product.Price.Currency == (currency.Unit{}) {
			item.Product.Price = domain.ZeroMoney(s.unit)
		}
	}

	var applied domain.CartItem
	res := s.finish(ctx, seq, err, func() bool {
		key := item.Product.ID
		if !s.newerThanApplied(key, seq) {
			return false
		}

		if i := domain.FindByProduct(s.items, key); i >= 0 {
			existing := s.items[i]
			if existing.ID == item.ID {
				// the server merged into the same line, its quantity is authoritative
				existing.Quantity = item.Quantity
			} else {
				existing.Quantity += quantity
			}
			if item.Product.HasDisplayData() {
				existing.Product = item.Product
			}
			s.items[i] = existing
			applied = existing
		} else {
			s.items = append(s.items, item)
			applied = item
		}

		s.markApplied(key, seq)
		s.recomputeLocked()
		return true
	})
	if res != nil {
		return record(s, ctx, span, "add", rejected[domain.CartItem](res))
	}

	if lookupErr != nil {
		s.log.Warn("product display data unavailable",
			slog.String("product_id", item.Product.ID), slog.Any("err", lookupErr))
		s.setFailure(&Failure{
			Kind:    reduce(lookupErr).Kind,
			Message: "The item was added but its details could not be loaded.",
			Err:     lookupErr,
		})
	}
	if applied.ID == "" {
		applied = item
	}

	return record(s, ctx, span, "add", fulfilled(applied))
}

// UpdateQuantity sets the line for productID to the quantity the server
// confirms. The store does not clamp quantity.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) Result[domain.CartItem] {
	ctx, span := s.tracer.Start(ctx, "cartstore.UpdateQuantity", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	productID = productKey(productID)

	rctx, seq, done, err := s.begin(ctx)
	if err != nil {
		return record(s, ctx, span, "update", rejected[domain.CartItem](reduce(err)))
	}
	defer done()

	item, err := s.api.UpdateQuantity(rctx, productID, quantity)

	res := s.finish(ctx, seq, err, func() bool {
		if !s.newerThanApplied(productID, seq) {
			return false
		}

		if i := domain.FindByProduct(s.items, productID); i >= 0 {
			s.items[i].Quantity = item.Quantity
			if item.Product.HasDisplayData() {
				s.items[i].Product = item.Product
			}
		}

		s.markApplied(productID, seq)
		s.recomputeLocked()
		return true
	})
	if res != nil {
		return record(s, ctx, span, "update", rejected[domain.CartItem](res))
	}

	return record(s, ctx, span, "update", fulfilled(item))
}

// Remove deletes the line for productID.
func (s *Store) Remove(ctx context.Context, productID string) Result[string] {
	ctx, span := s.tracer.Start(ctx, "cartstore.Remove", trace.WithAttributes(
		attribute.String("product.id", productID),
	))
	defer span.End()

	productID = productKey(productID)

	rctx, seq, done, err := s.begin(ctx)
	if err != nil {
		return record(s, ctx, span, "remove", rejected[string](reduce(err)))
	}
	defer done()

	err = s.api.RemoveItem(rctx, productID)

	res := s.finish(ctx, seq, err, func() bool {
		if !s.newerThanApplied(productID, seq) {
			return false
		}

		if i := domain.FindByProduct(s.items, productID); i >= 0 {
			s.items = slices.Delete(s.items, i, i+1)
		}

		s.markApplied(productID, seq)
		s.recomputeLocked()
		return true
	})
	if res != nil {
		return record(s, ctx, span, "remove", rejected[string](res))
	}

	return record(s, ctx, span, "remove", fulfilled(productID))
}

// begin moves the store into pending for one request: loading is raised, the
// error slot cleared and a sequence number taken. The returned context is
// cancelled when either ctx or the store's lifetime ends; done releases it.
func (s *Store) begin(ctx context.Context) (context.Context, uint64, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, 0, nil, ErrClosed
	}
	s.inFlight++
	s.failure = nil
	s.seq++
	seq := s.seq
	state, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, state)

	rctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)

	return rctx, seq, func() {
		stop()
		cancel()
	}, nil
}

// finish settles a request. On success apply runs under the lock and
// reports whether it changed state; a false return means the completion was
// stale. The returned failure is nil on success.
func (s *Store) finish(ctx context.Context, seq uint64, err error, apply func() bool) *Failure {
	s.mu.Lock()
	s.inFlight--

	var failure *Failure
	switch {
	case s.closed:
		// torn down mid-request, nothing may be written
		s.mu.Unlock()
		if err != nil {
			return reduce(err)
		}
		return reduce(ErrClosed)
	case ctx.Err() != nil:
		// the caller went away; drop the result but keep the loading count right
		failure = reduce(ctx.Err())
	case err != nil:
		failure = reduce(err)
		s.failure = failure
	default:
		if !apply() {
			s.log.Debug("stale cart completion dropped", slog.Uint64("seq", seq))
		}
	}

	state, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, state)

	return failure
}

func (s *Store) setFailure(f *Failure) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.failure = f
	state, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, state)
}

func (s *Store) resolveProduct(ctx context.Context, partial domain.Product) (domain.Product, error) {
	s.mu.Lock()
	if i := domain.FindByProduct(s.items, partial.ID); i >= 0 && s.items[i].Product.HasDisplayData() {
		known := s.items[i].Product
		s.mu.Unlock()
		return known, nil
	}
	s.mu.Unlock()

	if s.products == nil {
		return partial, fmt.Errorf("no product lookup configured")
	}

	product, err := s.products.GetProduct(ctx, partial.ID)
	if err != nil {
		return partial, fmt.Errorf("products.GetProduct: %w", err)
	}

	return product, nil
}

// newerThanApplied reports whether a mutation issued at seq for key is newer
// than both the last applied mutation for key and the last applied fetch.
func (s *Store) newerThanApplied(key string, seq uint64) bool {
	return seq > s.lastApplied[key] && seq > s.lastFetch
}

func (s *Store) markApplied(key string, seq uint64) {
	s.lastApplied[key] = seq
}

// reconcileLocked builds the item list for a fetch issued at seq. Products
// mutated after seq keep their local line, or stay removed.
func (s *Store) reconcileLocked(fetched []domain.CartItem, seq uint64) []domain.CartItem {
	merged := make([]domain.CartItem, 0, len(fetched))
	kept := make(map[string]bool)

	for _, item := range fetched {
		key := productKey(item.Product.ID)
		item.Product.ID = key
		if s.lastApplied[key] <= seq {
			merged = append(merged, item)
			continue
		}
		if i := domain.FindByProduct(s.items, key); i >= 0 {
			merged = append(merged, s.items[i])
			kept[key] = true
		}
	}

	for _, item := range s.items {
		key := item.Product.ID
		if s.lastApplied[key] > seq && !kept[key] {
			merged = append(merged, item)
		}
	}

	return merged
}

// productKey is the canonical form of a product id. Ids that are not UUIDs
// are used as given.
func productKey(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// recomputeLocked derives the total from the items. It is the only writer of s.total.
func (s *Store) recomputeLocked() {
	unit := s.unit
	if len(s.items) > 0 {
		unit = s.items[0].Product.Price.Currency
	}

	total, err := domain.Total(s.items, unit)
	if err != nil {
		s.log.Warn("cart total unavailable", slog.Any("err", err))
		s.total = domain.ZeroMoney(unit)
		s.failure = &Failure{Kind: FailureMalformed, Message: "The cart mixes currencies.", Err: err}
		return
	}
	s.total = total
}

func (s *Store) snapshotLocked() State {
	return State{
		Items:   slices.Clone(s.items),
		Loading: s.inFlight > 0,
		Err:     s.failure,
		Total:   s.total,
	}
}

func (s *Store) subscribersLocked() []func(State) {
	if len(s.subs) == 0 {
		return nil
	}
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(State), state State) {
	for _, fn := range subs {
		fn(state)
	}
}

// record tags the span and counts the request by outcome.
func record[T any](s *Store, ctx context.Context, span trace.Span, op string, res Result[T]) Result[T] {
	outcome := res.Status.String()
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Kind.String())
		outcome = res.Err.Kind.String()
	}

	if s.requests != nil {
		s.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
	}

	return res
}
