package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"jobstatus-api/internal/model"
)

type loginService interface {
	Login(ctx context.Context, body map[string]any) (model.Envelope, error)
}

type AuthHandler struct {
	service loginService
}

func NewAuthHandler(service loginService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login accepts {"username": ..., "password": ...}. A body that is not a JSON
// object is treated like one missing both fields.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("login body is not a JSON object", "error", err)
		body = nil
	}

	env, err := h.service.Login(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, env)
}
