// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package errutil

import (
	"slices"

	"github.com/samber/oops"
)

// Kind classifies an error for the transport boundary.
type Kind string

// Error kinds. Each one is stored as an oops tag on the error.
const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindRateLimited  Kind = "rate_limited"
	KindInternal     Kind = "internal"
)

// classified lists the tag-carried kinds in precedence order.
var classified = []Kind{
	KindValidation,
	KindConflict,
	KindUnauthorized,
	KindForbidden,
	KindNotFound,
	KindRateLimited,
}

// Validation starts an oops builder tagged as a validation failure.
func Validation(code string) oops.OopsErrorBuilder {
	return oops.Code(code).Tags(string(KindValidation))
}

// Conflict starts an oops builder tagged as a uniqueness conflict.
func Conflict(code string) oops.OopsErrorBuilder {
	return oops.Code(code).Tags(string(KindConflict))
}

// Unauthorized starts an oops builder tagged as an authentication failure.
func Unauthorized(code string) oops.OopsErrorBuilder {
	return oops.Code(code).Tags(string(KindUnauthorized))
}

// Forbidden starts an oops builder tagged as an authorization failure.
func Forbidden(code string) oops.OopsErrorBuilder {
	return oops.Code(code).Tags(string(KindForbidden))
}

// NotFound starts an oops builder tagged as a missing entity.
func NotFound(code string) oops.OopsErrorBuilder {
	return oops.Code(code).Tags(string(KindNotFound))
}

// RateLimited starts an oops builder tagged as throttled.
func RateLimited(code string) oops.OopsErrorBuilder {
	return oops.Code(code).Tags(string(KindRateLimited))
}

// KindOf reports the kind carried by err. Errors without a kind tag,
// including plain errors, are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	tags := oopsErr.Tags()
	for _, k := range classified {
		if slices.Contains(tags, string(k)) {
			return k
		}
	}
	return KindInternal
}

// PublicMessage returns the user-facing message attached with Public, or
// fallback when none was set.
func PublicMessage(err error, fallback string) string {
	return oops.GetPublic(err, fallback)
}
