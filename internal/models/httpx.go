package models

import (
	"encoding/json"
	"net/http"
)

const ProblemContentType = "application/problem+json"

// Problem types set by the API, relative to the service root.
const (
	ProblemNotFound       = "/problems/not-found"
	ProblemInvalidInput   = "/problems/invalid-input"
	ProblemAssociation    = "/problems/invalid-association"
	ProblemInconsistent   = "/problems/inconsistent-config"
	ProblemProvdDown      = "/problems/provd-unavailable"
	ProblemUnauthorized   = "/problems/unauthorized"
	ProblemInternal       = "/problems/internal"
	ProblemNotReady       = "/problems/not-ready"
	problemTypeUnassigned = "about:blank"
)

// Problem is an RFC 7807 error body, extended with the request id of the
// access log line.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"reqid,omitempty"`
}

// Write sends p with its status code.
func (p Problem) Write(w http.ResponseWriter) {
	if p.Type == "" {
		p.Type = problemTypeUnassigned
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
