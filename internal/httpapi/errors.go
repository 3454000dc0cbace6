// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// MsgInternal is returned for every unclassified failure.
const MsgInternal = "Internal server error"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind errutil.Kind) int {
	switch kind {
	case errutil.KindValidation:
		return http.StatusBadRequest
	case errutil.KindConflict:
		return http.StatusConflict
	case errutil.KindUnauthorized:
		return http.StatusUnauthorized
	case errutil.KindForbidden:
		return http.StatusForbidden
	case errutil.KindNotFound:
		return http.StatusNotFound
	case errutil.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

// writeStatus writes an ErrorResponse for status.
func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeError classifies err, logs it, and writes the response. Only the
// public message of a classified error reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeStatus(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	kind := errutil.KindOf(err)
	status := StatusFor(kind)
	logger := s.logger.With("request_id", requestIDFrom(r.Context()), "method", r.Method, "path", r.URL.Path)
	errutil.LogError(logger, "request failed", err)

	if kind == errutil.KindInternal {
		writeStatus(w, status, MsgInternal)
		return
	}
	writeStatus(w, status, errutil.PublicMessage(err, http.StatusText(status)))
}
