// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes

	// Bounds accepted from stored hashes.
	argon2MaxTime   = 16
	argon2MaxMemory = 1 << 20 // KiB
)

// Argon2idHasher implements PasswordHasher using argon2id.
// Rehash interprets cost as the iteration count.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	return h.Rehash(password, argon2Time)
}

// Rehash hashes password with cost iterations and a fresh salt.
func (h *Argon2idHasher) Rehash(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost < 1 || cost > argon2MaxTime {
		return "", oops.Code("AUTH_HASH_COST_INVALID").With("cost", cost).Errorf("argon2id iterations must be between 1 and %d", argon2MaxTime)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, uint32(cost), argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		cost,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the password matches the hash. Hashes whose parameters
// fall outside the accepted bounds never match.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	params, salt, expected, ok := parseArgon2id(encodedHash)
	if !ok || password == "" {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// NeedsUpgrade returns true if the hash is not argon2id or uses fewer iterations than Hash.
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	params, _, _, ok := parseArgon2id(hash)
	if !ok {
		return true
	}
	return params.time < argon2Time || params.memory < argon2Memory
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func parseArgon2id(encoded string) (argon2Params, []byte, []byte, bool) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return p, nil, nil, false
	}
	// threads must fit in uint8
	if threads == 0 || threads > 255 {
		return p, nil, nil, false
	}
	p.threads = uint8(threads)
	if p.time < 1 || p.time > argon2MaxTime {
		return p, nil, nil, false
	}
	if p.memory < 8*threads || p.memory > argon2MaxMemory {
		return p, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1024 {
		return p, nil, nil, false
	}
	return p, salt, key, true
}
