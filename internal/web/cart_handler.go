package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/storevia/storefront/internal/domain"
	"github.com/storevia/storefront/internal/store"
)

// CartHandler resolves the requesting user's own CartStore from the
// registry on every request; no cart state is shared across sessions.
type CartHandler struct {
	stores  *store.Registry
	timeout time.Duration
	log     *logrus.Logger
}

func NewCartHandler(stores *store.Registry, timeout time.Duration, log *logrus.Logger) *CartHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CartHandler{
		stores:  stores,
		timeout: timeout,
		log:     log,
	}
}

type CartViewDTO struct {
	Items        []domain.CartLineItem `json:"items"`
	Related      []domain.Product      `json:"related,omitempty"`
	Snapshot     domain.CartSnapshot   `json:"snapshot"`
	CartCount    int                   `json:"cart_count"`
	PromoApplied bool                  `json:"promo_applied"`
	Notice       string                `json:"notice,omitempty"`
}

type SelectAllRequestDTO struct {
	Selected bool `json:"selected"`
}

type ChangeQuantityRequestDTO struct {
	Change int `json:"change"`
}

type PromoRequestDTO struct {
	Code string `json:"code"`
}

type PromoResponseDTO struct {
	Discount float64             `json:"discount"`
	Snapshot domain.CartSnapshot `json:"snapshot"`
}

type RemoveSelectedResponseDTO struct {
	Failed []string `json:"failed,omitempty"`
	CartViewDTO
}

type CheckoutResponseDTO struct {
	CheckoutID string  `json:"checkout_id"`
	ItemCount  int     `json:"item_count"`
	Total      float64 `json:"total"`
}

// GET /api/v1/cart
//
// A fetch failure is not a failed page: the cart renders empty with a
// notice, per the degradation contract.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := h.stores.For(ctx)
	_, err := s.Load(ctx)
	view := h.view(ctx, s)
	if err != nil {
		view.Notice = "We couldn't load your cart right now. Please try again."
	}
	respondJSON(w, http.StatusOK, view)
}

// POST /api/v1/cart/lines/{line_id}/toggle
func (h *CartHandler) ToggleSelect(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	s := h.stores.For(r.Context())
	if !s.ToggleSelected(lineID) {
		respondError(w, http.StatusNotFound, "not_found", "no such cart line")
		return
	}
	respondJSON(w, http.StatusOK, h.view(r.Context(), s))
}

// POST /api/v1/cart/select-all
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s := h.stores.For(r.Context())
	s.SetAllSelected(req.Selected)
	respondJSON(w, http.StatusOK, h.view(r.Context(), s))
}

// PATCH /api/v1/cart/lines/{line_id}
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	var req ChangeQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Change != -1 && req.Change != 1 {
		respondError(w, http.StatusBadRequest, "invalid_change", "change must be -1 or 1")
		return
	}

	s := h.stores.For(ctx)
	if err := s.ChangeQuantity(ctx, lineID, req.Change); err != nil {
		respondError(w, http.StatusBadGateway, "cart_service_unavailable", "could not update quantity, cart unchanged")
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx, s))
}

// DELETE /api/v1/cart/lines/{line_id}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "line_id is required")
		return
	}

	s := h.stores.For(ctx)
	if err := s.RemoveLine(ctx, lineID); err != nil {
		respondError(w, http.StatusBadGateway, "cart_service_unavailable", "could not remove item, cart unchanged")
		return
	}
	respondJSON(w, http.StatusOK, h.view(ctx, s))
}

// DELETE /api/v1/cart/selected
func (h *CartHandler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := h.stores.For(ctx)
	failed, err := s.RemoveSelected(ctx)
	resp := RemoveSelectedResponseDTO{
		Failed:      failed,
		CartViewDTO: h.view(ctx, s),
	}
	if err != nil {
		resp.Notice = "We couldn't refresh your cart after removing items."
	} else if len(failed) > 0 {
		resp.Notice = "Some items could not be removed."
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/cart/promo
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var req PromoRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s := h.stores.For(r.Context())
	discount, err := s.ApplyPromoCode(req.Code)
	if errors.Is(err, store.ErrInvalidPromoCode) {
		respondError(w, http.StatusUnprocessableEntity, "invalid_promo", "that promo code is not valid")
		return
	}
	respondJSON(w, http.StatusOK, PromoResponseDTO{
		Discount: discount,
		Snapshot: s.Snapshot(),
	})
}

// POST /api/v1/checkout
func (h *CartHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := h.stores.For(ctx).BeginCheckout(ctx)
	if errors.Is(err, store.ErrNothingToCheckout) {
		respondError(w, http.StatusBadRequest, "empty_cart", "nothing to check out")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "checkout_unavailable", "could not start checkout")
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		CheckoutID: payload.ID,
		ItemCount:  len(payload.Items),
		Total:      payload.Snapshot.Total,
	})
}

func (h *CartHandler) view(ctx context.Context, s *store.CartStore) CartViewDTO {
	return CartViewDTO{
		Items:        s.Items(),
		Related:      s.Related(),
		Snapshot:     s.Snapshot(),
		CartCount:    s.CartCount(ctx),
		PromoApplied: s.PromoBannerVisible(),
	}
}
