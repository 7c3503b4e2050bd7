package api

import (
	"net/http"

	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/query"
	"github.com/go-chi/chi/v5"
)

// saleFilter reads start, end, user_id, status and search. Cashiers only ever see
// their own sales, whatever user_id says.
func saleFilter(r *http.Request) (query.SaleFilter, error) {
	start, end, err := dayRange(r)
	if err != nil {
		return query.SaleFilter{}, err
	}
	q := r.URL.Query()
	f := query.SaleFilter{
		Start:     start,
		End:       end,
		CashierID: q.Get("user_id"),
		Status:    q.Get("status"),
		Search:    q.Get("search"),
	}
	if !isManager(r) {
		f.CashierID = getUserID(r)
	}
	return f, nil
}

// CreateSale records a sale from explicit lines, without going through the server cart.
func (h *Handlers) CreateSale(w http.ResponseWriter, r *http.Request) {
	var cmd command.RecordSale
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.CashierID = getUserID(r)

	s, err := h.cmdHandler.RecordSale(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

func (h *Handlers) ListSales(w http.ResponseWriter, r *http.Request) {
	f, err := saleFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListSales(f, pageRequest(r)))
}

func (h *Handlers) GetSale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.queryHandler.GetSale(chi.URLParam(r, "id"))
	// another cashier's sale is reported as missing
	if !ok || (!isManager(r) && s.CashierID != getUserID(r)) {
		respondError(w, r, sale.ErrSaleNotFound)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// SalesRevenue sums completed sales in the filtered range.
func (h *Handlers) SalesRevenue(w http.ResponseWriter, r *http.Request) {
	f, err := saleFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	summary := h.queryHandler.SalesSummary(f)
	respondJSON(w, http.StatusOK, map[string]any{"revenue": summary.Revenue})
}

// SalesCount counts completed sales in the filtered range.
func (h *Handlers) SalesCount(w http.ResponseWriter, r *http.Request) {
	f, err := saleFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	summary := h.queryHandler.SalesSummary(f)
	respondJSON(w, http.StatusOK, map[string]int{"count": summary.Count})
}

// ChangeSaleStatus cancels or refunds a completed sale, returning its items to stock.
func (h *Handlers) ChangeSaleStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.ChangeSaleStatus
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.SaleID = chi.URLParam(r, "id")
	cmd.ByUserID = getUserID(r)

	if err := h.cmdHandler.ChangeSaleStatus(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	status, _ := sale.ParseStatus(cmd.Status)
	respondJSON(w, http.StatusOK, map[string]string{"id": cmd.SaleID, "status": string(status)})
}
