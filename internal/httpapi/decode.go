// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// Error codes for malformed requests.
const (
	CodeInvalidBody  = "HTTP_INVALID_BODY"
	CodeInvalidParam = "HTTP_INVALID_PARAM"
)

// MsgNumericParam matches the message clients already parse for bad ids.
const MsgNumericParam = "Validation failed (numeric string is expected)"

// decodeJSON reads exactly one JSON object from the body into dst.
// Unknown fields are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return invalidBody("request body must not be empty", err)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return invalidBody("property "+strings.Trim(field, `"`)+" should not exist", err)
		default:
			return invalidBody("request body must be a valid JSON object", err)
		}
	}
	if dec.More() {
		return invalidBody("request body must contain a single JSON object", nil)
	}
	return nil
}

func invalidBody(msg string, cause error) error {
	b := errutil.Validation(CodeInvalidBody).In("http").Public(msg)
	if cause != nil {
		return b.Wrap(cause)
	}
	return b.Errorf("%s", msg)
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errutil.Validation(CodeInvalidParam).In("http").
			With("param", "id").
			With("value", raw).
			Public(MsgNumericParam).
			Wrap(err)
	}
	return id, nil
}
