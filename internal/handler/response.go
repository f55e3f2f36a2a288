package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"jobstatus-api/internal/model"
	"jobstatus-api/pkg/apierror"
)

// writeJSON writes body as-is. Login and job responses are not wrapped in
// the APIResponse envelope.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeFailed reports a rejected request. These are always HTTP 200.
func writeFailed(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, model.Failed(message))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}
