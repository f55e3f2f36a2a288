package model

// Status values carried by the STATUS field of login and job responses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Envelope is the body returned by /login and by failed job lookups.
type Envelope struct {
	Status  string `json:"STATUS"`
	Token   string `json:"TOKEN,omitempty"`
	Message string `json:"MESSAGE"`
}

// JobsResponse is the body returned by /jobs and /job/{job_id}.
type JobsResponse struct {
	Jobs []map[string]any `json:"jobs"`
}

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func Failed(message string) Envelope {
	return Envelope{Status: StatusFailed, Message: message}
}
