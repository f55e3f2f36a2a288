package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jobstatus-api/internal/model"
)

type jobService interface {
	ListJobs(ctx context.Context) (model.JobsResponse, error)
	GetJob(ctx context.Context, rawID string) (model.JobsResponse, error)
}

type JobsHandler struct {
	service jobService
}

func NewJobsHandler(service jobService) *JobsHandler {
	return &JobsHandler{service: service}
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "job_id")

	jobs, err := h.service.GetJob(r.Context(), rawID)
	if errors.Is(err, model.ErrInvalidJobID) {
		writeFailed(w, fmt.Sprintf("Not a valid job_id: '%s'", rawID))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}
