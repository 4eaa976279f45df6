package web

// errors.go provides unified error response handling for the web layer.
//
// Every error surfaced by the service is a crm.Error carrying a kind; the
// kind decides the HTTP status and the message goes to the client verbatim
// (mutation messages are written for callers). Unexpected errors are logged
// with full detail and returned as a generic 500.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/alxcrm/crm-api/internal/logging"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusForKind maps the error taxonomy onto HTTP statuses.
func statusForKind(kind crm.ErrorKind) int {
	switch kind {
	case crm.KindDuplicateEmail:
		return http.StatusConflict
	case crm.KindCustomerNotFound, crm.KindProductsNotFound:
		return http.StatusNotFound
	case crm.KindUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// respondError logs the technical error and writes the structured JSON
// error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	ce := crm.AsError(err)
	status := statusForKind(ce.Kind)

	logger := logging.FromContext(r.Context())
	logger.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"kind", string(ce.Kind),
		"error", err.Error(),
	)

	message := ce.Message
	if ce.Kind == crm.KindUnexpected {
		// Never leak internals to the client.
		message = "An unexpected error occurred."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Kind: string(ce.Kind)}); encErr != nil {
		logger.Error("json encode error", "error", encErr)
	}
}

// badRequest writes a 400 with an INVALID_QUERY kind, for malformed bodies
// and query parameters.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	s.respondError(w, r, crm.NewError(crm.KindInvalidQuery, message))
}

// writeError writes a bare JSON error response. Used by middleware that
// runs before a request reaches a handler.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}

// writeJSON encodes v as JSON and writes it to w with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
