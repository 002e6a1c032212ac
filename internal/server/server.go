// Package server is the reference cart service the client talks to.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nikolayk812/cartsync/internal/api"
	"github.com/nikolayk812/cartsync/internal/domain"
	"github.com/nikolayk812/cartsync/internal/port"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultOwnerID owns requests that carry no owner header.
const DefaultOwnerID = "default"

type Options struct {
	Carts    port.CartRepository
	Products port.ProductRepository
	// Bounds is the authoritative quantity range.
	Bounds domain.QuantityBounds
	Logger *slog.Logger
}

type Server struct {
	carts    port.CartRepository
	products port.ProductRepository
	bounds   domain.QuantityBounds
	log      *slog.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bounds := opts.Bounds
	if bounds == (domain.QuantityBounds{}) {
		bounds = domain.DefaultQuantityBounds()
	}

	return &Server{
		carts:    opts.Carts,
		products: opts.Products,
		bounds:   bounds,
		log:      log,
	}
}

// Handler registers the routes and wraps them with middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", s.getCartHandler)
	mux.HandleFunc("POST /cart", s.addItemHandler)
	mux.HandleFunc("PUT /cart", s.updateItemHandler)
	mux.HandleFunc("DELETE /cart/{productId}", s.deleteItemHandler)
	mux.HandleFunc("GET /product/list", s.listProductsHandler)
	mux.HandleFunc("GET /product/{productId}", s.getProductHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)

	traced := otelhttp.NewHandler(mux, "cartd",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return WithRequestID(WithLogging(s.log)(traced))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, api.Error{Error: code, Details: details})
}
