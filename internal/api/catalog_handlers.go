package api

import (
	"net/http"

	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/query"
	"github.com/go-chi/chi/v5"
)

// ============================================
// Categories and departments
// ============================================

// LookupHandlers serves one lookup list; categories and departments share the code.
type LookupHandlers struct {
	*Handlers
	kind lookup.Kind
}

func (h *Handlers) Lookups(kind lookup.Kind) *LookupHandlers {
	return &LookupHandlers{Handlers: h, kind: kind}
}

func (h *LookupHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := query.LookupFilter{Name: r.URL.Query().Get("name")}
	respondJSON(w, http.StatusOK, h.queryHandler.ListLookups(h.kind.Collection(), filter, pageRequest(r)))
}

func (h *LookupHandlers) Active(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ActiveLookups(h.kind.Collection()))
}

func (h *LookupHandlers) Get(w http.ResponseWriter, r *http.Request) {
	l, ok := h.queryHandler.GetLookup(h.kind.Collection(), chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, lookup.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (h *LookupHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var cmd command.SaveLookup
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.Kind = h.kind

	l, err := h.cmdHandler.CreateLookup(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (h *LookupHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var cmd command.SaveLookup
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.Kind = h.kind
	cmd.ID = chi.URLParam(r, "id")

	l, err := h.cmdHandler.UpdateLookup(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// Delete is a soft delete: the entry is deactivated and stays referenced by history.
func (h *LookupHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.SetLookupActive(r.Context(), h.kind, chi.URLParam(r, "id"), false); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LookupHandlers) Activate(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.SetLookupActive(r.Context(), h.kind, chi.URLParam(r, "id"), true); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, h.kind.Label()+" activated")
}

// ============================================
// Suppliers
// ============================================

func (h *Handlers) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	filter := query.SupplierFilter{Name: r.URL.Query().Get("name")}
	respondJSON(w, http.StatusOK, h.queryHandler.ListSuppliers(filter, pageRequest(r)))
}

func (h *Handlers) ActiveSuppliers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ActiveSuppliers())
}

func (h *Handlers) GetSupplier(w http.ResponseWriter, r *http.Request) {
	s, ok := h.queryHandler.GetSupplier(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, supplier.ErrSupplierNotFound)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handlers) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var cmd command.SaveSupplier
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}

	s, err := h.cmdHandler.CreateSupplier(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

func (h *Handlers) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var cmd command.SaveSupplier
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.ID = chi.URLParam(r, "id")

	s, err := h.cmdHandler.UpdateSupplier(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handlers) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.SetSupplierActive(r.Context(), chi.URLParam(r, "id"), false); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ActivateSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.SetSupplierActive(r.Context(), chi.URLParam(r, "id"), true); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "supplier activated")
}

// ============================================
// Products
// ============================================

// ListProducts shows active products unless ?active=false is given.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active := boolParam(r, "active", true)
	filter := query.ProductFilter{
		Name:       q.Get("name"),
		SKU:        q.Get("sku"),
		CategoryID: q.Get("category_id"),
		Active:     &active,
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts(filter, pageRequest(r)))
}

// AllProducts is the unpaginated active list used by pickers.
func (h *Handlers) AllProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ActiveProducts())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.queryHandler.GetProduct(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, product.ErrProductNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GetProductByCode looks a scanned code up as barcode first, then SKU.
func (h *Handlers) GetProductByCode(w http.ResponseWriter, r *http.Request) {
	p, ok := h.queryHandler.FindProductByCode(chi.URLParam(r, "code"))
	if !ok {
		respondError(w, r, product.ErrProductNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.SaveProduct
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.SaveProduct
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.ID = chi.URLParam(r, "id")

	p, err := h.cmdHandler.UpdateProduct(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeleteProduct deactivates the product. Products with stock on hand are kept active.
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeactivateProduct{ProductID: chi.URLParam(r, "id")}
	if err := h.cmdHandler.DeactivateProduct(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ActivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.ActivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "product activated")
}
