package handler

import (
	"context"
	"log/slog"
	"net/http"

	"jobstatus-api/pkg/apierror"
)

const welcomeMessage = "Welcome to the API. Please get a token at /login"

type healthChecker interface {
	Health(ctx context.Context) error
}

type SystemHandler struct {
	store healthChecker
}

func NewSystemHandler(store healthChecker) *SystemHandler {
	return &SystemHandler{store: store}
}

func (h *SystemHandler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []string{welcomeMessage})
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		writeError(w, apierror.New("STORE_UNAVAILABLE", "store is not reachable", err.Error(), http.StatusServiceUnavailable))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
