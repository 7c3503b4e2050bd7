package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/infrastructure/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const idempotencyHeader = "Idempotency-Key"

// CartResponse has the same shape as the cart read model, with the total computed.
type CartResponse struct {
	ID        string          `json:"id"`
	CashierID string          `json:"cashier_id"`
	Lines     []cart.Line     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toCartResponse(c *cart.PosCart) CartResponse {
	lines := c.Cart.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return CartResponse{
		ID:        c.ID,
		CashierID: c.CashierID,
		Lines:     lines,
		Total:     c.Cart.Total(),
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(getUserID(r)))
}

// AddToCart adds one unit, identified by product_id or a scanned code.
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.CashierID = getUserID(r)

	c, err := h.cmdHandler.AddToCart(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// SetCartQuantity replaces the quantity of a line. Zero or less removes it.
func (h *Handlers) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetCartQuantity
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.CashierID = getUserID(r)
	cmd.ProductID = chi.URLParam(r, "productID")

	c, err := h.cmdHandler.SetCartQuantity(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{
		CashierID: getUserID(r),
		ProductID: chi.URLParam(r, "productID"),
	}

	c, err := h.cmdHandler.RemoveFromCart(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.ClearCart(r.Context(), getUserID(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout turns the cashier's cart into a sale. With an Idempotency-Key header a
// repeated request returns the sale recorded by the first one.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var cmd command.Checkout
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.CashierID = getUserID(r)

	key := r.Header.Get(idempotencyHeader)
	if key == "" || h.idempotency == nil {
		s, err := h.cmdHandler.Checkout(r.Context(), cmd)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, s)
		return
	}

	storeKey := redisx.CheckoutKey(cmd.CashierID, key)
	previous, claimed, err := h.idempotency.Begin(r.Context(), storeKey)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !claimed {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(previous))
		return
	}

	s, err := h.cmdHandler.Checkout(r.Context(), cmd)
	if err != nil {
		h.releaseKey(storeKey)
		respondError(w, r, err)
		return
	}

	body, err := json.Marshal(s)
	if err != nil {
		h.releaseKey(storeKey)
		respondError(w, r, err)
		return
	}
	if err := h.idempotency.Complete(context.WithoutCancel(r.Context()), storeKey, string(body)); err != nil {
		log.WithError(err).WithField("sale_id", s.ID).Warn("could not store checkout result")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handlers) releaseKey(key string) {
	if err := h.idempotency.Abort(context.Background(), key); err != nil {
		log.WithError(err).Warn("could not release idempotency key")
	}
}
