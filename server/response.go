package server

import (
	"encoding/json"
	"net/http"

	"github.com/teranos/qntx-cohort/errors"
)

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind,omitempty"`
	Hints []string `json:"hints,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "encode JSON response")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, kind, message string, hints ...string) {
	_ = writeJSON(w, status, errorResponse{Error: message, Kind: kind, Hints: hints})
}

// readJSON decodes a bounded request body, rejecting unknown fields.
// On failure the 400 response has already been written.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return err
	}
	return nil
}

// classify maps the error taxonomy to an HTTP status and a stable kind
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrNotLoaded):
		return http.StatusServiceUnavailable, "not_loaded"
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errors.ErrParse):
		return http.StatusUnprocessableEntity, "parse"
	case errors.Is(err, errors.ErrEndpoint):
		return http.StatusBadGateway, "endpoint"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeErr writes err using classify; 5xx causes are logged by the caller
func writeErr(w http.ResponseWriter, err error) int {
	status, kind := classify(err)
	writeError(w, status, kind, err.Error(), errors.GetAllHints(err)...)
	return status
}
