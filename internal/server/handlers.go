package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsync/internal/api"
	"github.com/nikolayk812/cartsync/internal/domain"
)

func ownerID(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get(api.HeaderOwnerID)); owner != "" {
		return owner
	}
	return DefaultOwnerID
}

func (s *Server) getCartHandler(w http.ResponseWriter, r *http.Request) {
	cart, err := s.carts.GetCart(r.Context(), ownerID(r))
	if err != nil {
		s.internalError(w, r, "carts.GetCart", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromDomainItems(cart.Items))
}

func (s *Server) addItemHandler(w http.ResponseWriter, r *http.Request) {
	req, productID, ok := s.decodeItemRequest(w, r)
	if !ok {
		return
	}
	if req.Quantity < s.bounds.Min {
		WriteJSONError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("quantity must be at least %d", s.bounds.Min))
		return
	}

	item, err := s.carts.AddItem(r.Context(), ownerID(r), productID, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, "not_found", fmt.Sprintf("product %s does not exist", productID))
			return
		}
		s.internalError(w, r, "carts.AddItem", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromDomainItem(item))
}

func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	req, productID, ok := s.decodeItemRequest(w, r)
	if !ok {
		return
	}
	if !s.bounds.Contains(req.Quantity) {
		WriteJSONError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("quantity must be between %d and %d", s.bounds.Min, s.bounds.Max))
		return
	}

	item, err := s.carts.UpdateQuantity(r.Context(), ownerID(r), productID, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, "not_found", fmt.Sprintf("product %s is not in the cart", productID))
			return
		}
		s.internalError(w, r, "carts.UpdateQuantity", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromDomainItem(item))
}

func (s *Server) deleteItemHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("productId"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "productId must be a UUID")
		return
	}

	deleted, err := s.carts.DeleteItem(r.Context(), ownerID(r), productID)
	if err != nil {
		s.internalError(w, r, "carts.DeleteItem", err)
		return
	}
	if !deleted {
		WriteJSONError(w, http.StatusNotFound, "not_found", fmt.Sprintf("product %s is not in the cart", productID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.ListProducts(r.Context())
	if err != nil {
		s.internalError(w, r, "products.ListProducts", err)
		return
	}

	out := make([]api.Product, 0, len(products))
	for _, p := range products {
		out = append(out, api.FromDomainProduct(p))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("productId"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "productId must be a UUID")
		return
	}

	product, err := s.products.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, "not_found", "")
			return
		}
		s.internalError(w, r, "products.GetProduct", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromDomainProduct(product))
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeItemRequest writes the 4xx response itself when it returns false.
func (s *Server) decodeItemRequest(w http.ResponseWriter, r *http.Request) (api.ItemRequest, uuid.UUID, bool) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return api.ItemRequest{}, uuid.Nil, false
	}

	var req api.ItemRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return api.ItemRequest{}, uuid.Nil, false
	}

	if req.ProductID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "productId is required")
		return api.ItemRequest{}, uuid.Nil, false
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "productId must be a UUID")
		return api.ItemRequest{}, uuid.Nil, false
	}

	return req, productID, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error("request failed",
		slog.String("op", op),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.Any("err", err),
	)
	WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
}
