package api

import (
	"net/http"

	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/query"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var cmd command.RecordMovement
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.UserID = getUserID(r)

	moved, err := h.cmdHandler.RecordMovement(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, moved)
}

// ListMovements filters by product_id, department_id, type and a start/end day range.
func (h *Handlers) ListMovements(w http.ResponseWriter, r *http.Request) {
	start, end, err := dayRange(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := query.MovementFilter{
		ProductID:    q.Get("product_id"),
		DepartmentID: q.Get("department_id"),
		Type:         q.Get("type"),
		Start:        start,
		End:          end,
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListMovements(filter, pageRequest(r)))
}

func (h *Handlers) ProductMovements(w http.ResponseWriter, r *http.Request) {
	filter := query.MovementFilter{ProductID: chi.URLParam(r, "id")}
	respondJSON(w, http.StatusOK, h.queryHandler.ListMovements(filter, pageRequest(r)))
}
