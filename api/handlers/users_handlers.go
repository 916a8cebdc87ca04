package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"vigia-incidents/core/users"
	"vigia-incidents/core/utils"
)

type UsersHandler struct {
	svc    *users.Service
	logger *utils.Logger
}

func NewUsersHandler(svc *users.Service, logger *utils.Logger) *UsersHandler {
	return &UsersHandler{svc: svc, logger: logger}
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid parameters", http.StatusBadRequest)
		return
	}
	if err := h.svc.Provision(r.Context(), payload.Username, payload.Email, payload.Password); err != nil {
		if errors.Is(err, users.ErrValidation) {
			http.Error(w, "invalid parameters", http.StatusBadRequest)
			return
		}
		http.Error(w, "identity provider unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("user %s created", payload.Username),
	})
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username   string            `json:"username"`
		Attributes map[string]string `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid parameters", http.StatusBadRequest)
		return
	}
	if err := h.svc.UpdateAttributes(r.Context(), payload.Username, payload.Attributes); err != nil {
		if errors.Is(err, users.ErrValidation) {
			http.Error(w, "invalid parameters", http.StatusBadRequest)
			return
		}
		http.Error(w, "identity provider unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("user %s updated", payload.Username),
	})
}
