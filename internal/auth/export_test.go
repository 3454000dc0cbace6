// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import "time"

// SetClock replaces the issuer's time source.
func (t *TokenIssuer) SetClock(now func() time.Time) {
	t.now = now
}
