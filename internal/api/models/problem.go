package models

import (
	"encoding/json"
	"net/http"
)

const problemBase = "https://api.aqicast.pk/problems/"

// Problem type URIs returned by the API.
const (
	ProblemTypeValidation       = problemBase + "validation-error"
	ProblemTypeUnauthorized     = problemBase + "unauthorized"
	ProblemTypeNotFound         = problemBase + "not-found"
	ProblemTypeUnsupportedMedia = problemBase + "unsupported-media-type"
	ProblemTypeTooManyRequests  = problemBase + "too-many-requests"
	ProblemTypeInternal         = problemBase + "internal-error"
	ProblemTypeUnavailable      = problemBase + "service-unavailable"
)

// Problem is an RFC 7807 error response, served as application/problem+json.
// TraceID carries the request ID so clients can quote it in bug reports.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError pins a validation failure to one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewProblem builds a Problem; detail, instance and field errors are
// filled in by the caller.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// Write serializes the problem. The trace ID is echoed in the
// X-Request-Id header when present.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func detailed(problemType, title string, status int, traceID, detail string) *Problem {
	p := NewProblem(problemType, title, status, traceID)
	p.Detail = detail
	return p
}

// NewBadRequest builds a 400 validation problem with optional field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := detailed(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized builds a 401 problem.
func NewUnauthorized(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID, detail)
}

// NewNotFound builds a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return detailed(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID, detail)
}

// NewUnsupportedMediaType builds a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnsupportedMedia, "Unsupported media type", http.StatusUnsupportedMediaType, traceID, detail)
}

// NewTooManyRequests builds a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return detailed(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError builds a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return detailed(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable builds a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID, detail)
}
