package api

import (
	"net/http"
	"strings"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/query"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := h.queryHandler.ListUsers(pageRequest(r))
	content := make([]UserResponse, len(page.Content))
	for i, u := range page.Content {
		content[i] = toUserResponse(u)
	}
	respondJSON(w, http.StatusOK, query.Page[UserResponse]{
		Content:       content,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		Size:          page.Size,
		Number:        page.Number,
	})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.queryHandler.GetUser(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, user.ErrUserNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var cmd command.RegisterUser
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.cmdHandler.RegisterUser(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(&readmodel.UserReadModel{
		ID:        u.ID,
		Login:     u.Login,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}))
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateUser
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.UserID = chi.URLParam(r, "id")

	if err := h.cmdHandler.UpdateUser(r.Context(), cmd); err != nil {
		respondError(w, r, err)
		return
	}
	u, ok := h.queryHandler.GetUser(cmd.UserID)
	if !ok {
		respondMessage(w, "user updated")
		return
	}
	// the read model may lag behind the command
	resp := toUserResponse(u)
	resp.Name, resp.Email = strings.TrimSpace(cmd.Name), strings.TrimSpace(cmd.Email)
	if role, err := auth.ParseRole(cmd.Role); err == nil {
		resp.Role = role
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.SetUserActive(r.Context(), chi.URLParam(r, "id"), getUserID(r), false); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "user deactivated")
}

func (h *Handlers) ActivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.SetUserActive(r.Context(), chi.URLParam(r, "id"), getUserID(r), true); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "user activated")
}
