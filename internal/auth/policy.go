// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// Input limits.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 50
	MaxFullNameLength = 100
	MaxEmailLength    = 254
)

// Validation messages returned to clients.
const (
	MsgPasswordLength      = "The password must be between 6 and 50 characters"
	MsgPasswordComposition = "The password must have a Uppercase, lowercase letter and a number"
	MsgPasswordUnchanged   = "The new password must differ from the current password"
	MsgEmailInvalid        = "email must be an email"
	MsgFullNameInvalid     = "fullName must be between 1 and 100 characters"
	MsgPasswordRequired    = "password should not be empty"
)

// CheckPassword enforces the password rule: 6 to 50 characters, at least one
// uppercase and one lowercase letter, and at least one digit or symbol. Line
// breaks are not allowed.
func CheckPassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return invalidField("password", CodeWeakPassword, MsgPasswordLength)
	}

	var upper, lower, digitOrSymbol bool
	for _, r := range password {
		switch {
		case r == '\n' || r == '\r':
			return invalidField("password", CodeWeakPassword, MsgPasswordComposition)
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), !unicode.IsLetter(r) && r != '_':
			digitOrSymbol = true
		}
	}
	if !upper || !lower || !digitOrSymbol {
		return invalidField("password", CodeWeakPassword, MsgPasswordComposition)
	}
	return nil
}

// CheckEmail requires a bare RFC 5322 address.
func CheckEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		return invalidField("email", CodeInvalidInput, MsgEmailInvalid)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return invalidField("email", CodeInvalidInput, MsgEmailInvalid)
	}
	return nil
}

// CheckFullName requires 1 to 100 non-blank characters.
func CheckFullName(fullName string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(fullName))
	if n == 0 || n > MaxFullNameLength {
		return invalidField("fullName", CodeInvalidInput, MsgFullNameInvalid)
	}
	return nil
}

func invalidField(field, code, msg string) error {
	return errutil.Validation(code).
		In("auth").
		With("field", field).
		Public(msg).
		Errorf("invalid %s", field)
}
