package api

import (
	"net/http"
	"time"
)

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.queryHandler.Dashboard(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// DepartmentConsumption requires both start and end days.
func (h *Handlers) DepartmentConsumption(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start")
	if err != nil {
		respondError(w, r, err)
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if start == nil || end == nil {
		respondJSONError(w, "start and end are required", http.StatusBadRequest)
		return
	}

	rows, err := h.queryHandler.DepartmentConsumption(*start, *end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"start":       start.Format(time.DateOnly),
		"end":         end.Format(time.DateOnly),
		"departments": rows,
	})
}

func (h *Handlers) LowStock(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.LowStockProducts())
}
